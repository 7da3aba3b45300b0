package receipt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Canonicalize is the mandatory canonicalization choke point for
// receipts. A receipt MUST be canonical before CID derivation, signing
// or verification; non-canonical input is rejected, never repaired.
func Canonicalize(input []byte) ([]byte, error) {
	if !utf8.Valid(input) {
		return nil, errors.New("receipt must be valid UTF-8")
	}
	if bytes.HasPrefix(input, []byte{0xEF, 0xBB, 0xBF}) {
		return nil, errors.New("BOM not allowed")
	}
	if bytes.Contains(input, []byte("\r")) {
		return nil, errors.New("CR line endings not allowed")
	}
	if len(input) == 0 {
		return nil, errors.New("empty receipt")
	}
	// Canonical receipts emitted by Render always end with a newline.
	if input[len(input)-1] != '\n' {
		return nil, errors.New("missing trailing newline")
	}
	for _, line := range bytes.Split(input, []byte("\n")) {
		if len(line) > 0 && (line[len(line)-1] == ' ' || line[len(line)-1] == '\t') {
			return nil, errors.New("trailing whitespace forbidden")
		}
	}

	if err := validateCanonical(string(input)); err != nil {
		return nil, err
	}

	// Return a copy to prevent caller mutation.
	return append([]byte(nil), input...), nil
}

var sectionOrder = []string{"META", "PLAN", "STORE", "CRYPTO"}

func validateCanonical(doc string) error {
	lines := strings.Split(doc, "\n")
	// Canonical receipts have a trailing newline, so last line is empty.
	if len(lines) < 3 {
		return errors.New("receipt too short")
	}
	if lines[0] != Preamble {
		return errors.New("missing receipt preamble")
	}
	if lines[len(lines)-1] != "" {
		return errors.New("missing trailing newline")
	}
	if lines[len(lines)-2] != Postamble {
		return errors.New("missing receipt postamble")
	}

	i := 1
	for _, sec := range sectionOrder {
		if i >= len(lines)-2 {
			return fmt.Errorf("missing section %q", sec)
		}
		if lines[i] != sec {
			return fmt.Errorf("sections missing or out of order (expected %q got %q)", sec, lines[i])
		}
		i++
		for i < len(lines)-2 && lines[i] != "" {
			i++
		}
		if i >= len(lines)-2 && sec != sectionOrder[len(sectionOrder)-1] {
			return fmt.Errorf("missing blank line after section %q", sec)
		}
		if i < len(lines)-2 {
			i++ // consume the blank separator
		}
	}
	if i != len(lines)-2 {
		return errors.New("unexpected content after CRYPTO section")
	}
	return nil
}

// sectionLines returns the body lines of one section of a canonical
// receipt.
func sectionLines(doc []byte, section string) ([]string, error) {
	lines := strings.Split(string(doc), "\n")
	for i := 1; i < len(lines)-2; i++ {
		if lines[i] != section {
			continue
		}
		var out []string
		for j := i + 1; j < len(lines)-2 && lines[j] != ""; j++ {
			out = append(out, lines[j])
		}
		return out, nil
	}
	return nil, fmt.Errorf("missing section %q", section)
}

// singleField extracts "Key: value" from a section, requiring at most
// one occurrence.
func singleField(doc []byte, section, key string) (string, bool, error) {
	body, err := sectionLines(doc, section)
	if err != nil {
		return "", false, err
	}
	var value string
	found := false
	for _, l := range body {
		if !strings.HasPrefix(l, key+": ") {
			continue
		}
		if found {
			return "", false, fmt.Errorf("duplicate %s in %s", key, section)
		}
		found = true
		value = strings.TrimPrefix(l, key+": ")
	}
	return value, found, nil
}
