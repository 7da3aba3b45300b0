// Package receipt renders, canonicalizes and verifies vault execution
// receipts.
//
// A receipt is a canonical text document binding one execution's action
// list to the final store state it produced. Receipts are evidence
// objects: they can be archived, content-addressed and re-verified long
// after the execution's store is gone.
package receipt

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"github.com/plasmavault/fusebus/vault"
)

const (
	Preamble  = "-----BEGIN VAULT EXECUTION RECEIPT-----"
	Postamble = "-----END VAULT EXECUTION RECEIPT-----"
)

type RenderOptions struct {
	ExecutorID string
	ExecutedAt time.Time // informational only; zero means omit

	// Optional signing. SignerKey is "ed25519:<base64>" or
	// "dilithium3:<base64>"; exactly one private key must match it.
	// HashAlg defaults to sha256 and accepts sha512 and sha3-256.
	SignerKey     string
	HashAlg       string
	Ed25519Key    ed25519.PrivateKey
	Dilithium3Key *mode3.PrivateKey
}

// Render produces a canonical receipt for one execution outcome.
// Sections are always present and ordering is deterministic: the PLAN
// section preserves action order (it is semantic), STORE entries are
// sorted.
func Render(out *vault.Outcome, opts RenderOptions) ([]byte, error) {
	executorID := opts.ExecutorID
	if executorID == "" {
		executorID = "fusebus-executor-reference"
	}
	hashAlg := opts.HashAlg
	if hashAlg == "" {
		hashAlg = "sha256"
	}

	var sb strings.Builder
	sb.WriteString(Preamble)
	sb.WriteString("\n")

	// META
	sb.WriteString("META\n")
	metaLines := []string{
		"Executor-ID: " + executorID,
		"Spec: fusebus-receipt-1",
		"Version: 1",
	}
	if !opts.ExecutedAt.IsZero() {
		metaLines = append(metaLines, "Executed-At: "+opts.ExecutedAt.UTC().Format(time.RFC3339))
	}
	sort.Strings(metaLines)
	for _, l := range metaLines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	// PLAN
	sb.WriteString("PLAN\n")
	for i, a := range out.Actions {
		digest := sha256.Sum256(a.Payload)
		sb.WriteString("Action: ")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(" ")
		sb.WriteString(a.Method.String())
		sb.WriteString(" ")
		sb.WriteString(a.Fuse.String())
		sb.WriteString(" sha256:")
		sb.WriteString(hex.EncodeToString(digest[:]))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	// STORE
	sb.WriteString("STORE\n")
	entries := out.Store.Entries()
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Addr != entries[j].Addr {
			return entries[i].Addr.String() < entries[j].Addr.String()
		}
		return entries[i].Dir < entries[j].Dir
	})
	for _, e := range entries {
		for i, v := range e.Values {
			sb.WriteString("Entry: ")
			sb.WriteString(e.Addr.String())
			sb.WriteString(" ")
			sb.WriteString(e.Dir.String())
			sb.WriteString(" ")
			sb.WriteString(strconv.Itoa(i))
			sb.WriteString(" ")
			sb.WriteString(v.String())
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")

	// CRYPTO (empty when unsigned)
	sb.WriteString("CRYPTO\n")
	cryptoLines := []string{}
	if opts.SignerKey != "" {
		cryptoLines = append(cryptoLines,
			"Hash-Alg: "+hashAlg,
			"Signature-Alg: "+algOf(opts.SignerKey),
			"Signature: 0",
			"Signer-Key: "+opts.SignerKey,
		)
	}
	sort.Strings(cryptoLines)
	for _, l := range cryptoLines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString(Postamble)
	sb.WriteString("\n")
	doc := []byte(sb.String())

	if opts.SignerKey != "" {
		sig, err := sign(doc, hashAlg, opts)
		if err != nil {
			return nil, err
		}
		doc = []byte(strings.Replace(string(doc), "Signature: 0", "Signature: "+sig, 1))
	}
	return doc, nil
}

func algOf(signerKey string) string {
	alg, _, ok := strings.Cut(signerKey, ":")
	if !ok {
		return ""
	}
	return alg
}

func sign(doc []byte, hashAlg string, opts RenderOptions) (string, error) {
	scope, err := signatureScope(doc)
	if err != nil {
		return "", err
	}
	digest, err := digestFor(hashAlg, scope)
	if err != nil {
		return "", err
	}

	switch algOf(opts.SignerKey) {
	case "ed25519":
		if len(opts.Ed25519Key) != ed25519.PrivateKeySize {
			return "", errors.New("receipt: missing ed25519 private key")
		}
		return base64.StdEncoding.EncodeToString(ed25519.Sign(opts.Ed25519Key, digest)), nil
	case "dilithium3":
		if opts.Dilithium3Key == nil {
			return "", errors.New("receipt: missing dilithium3 private key")
		}
		sig := make([]byte, mode3.SignatureSize)
		mode3.SignTo(opts.Dilithium3Key, digest, sig)
		return base64.StdEncoding.EncodeToString(sig), nil
	default:
		return "", errors.New("receipt: unsupported signer key encoding")
	}
}

// signatureScope is the signed byte range: the whole document minus the
// Signature line itself.
func signatureScope(doc []byte) ([]byte, error) {
	lines := strings.Split(string(doc), "\n")
	var out []string
	removed := false
	for _, l := range lines {
		if strings.HasPrefix(l, "Signature: ") {
			if removed {
				return nil, errors.New("receipt: multiple Signature lines")
			}
			removed = true
			continue
		}
		out = append(out, l)
	}
	return []byte(strings.Join(out, "\n")), nil
}
