// Package plan implements parsing for the vault plan text format.
//
// A plan declares which fuses to mount and which actions to run against
// them, in order. The format is line-oriented and strict: BOM, CR line
// endings and trailing whitespace are rejected rather than repaired, so
// a plan's bytes are stable enough to digest and archive alongside the
// receipt its execution produces.
package plan

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/plasmavault/fusebus/fuse"
	"github.com/plasmavault/fusebus/vault"
	"github.com/plasmavault/fusebus/word"
)

const (
	Preamble  = "-----BEGIN VAULT PLAN-----"
	Postamble = "-----END VAULT PLAN-----"
)

type Plan struct {
	Meta    map[string]string
	Mounts  []Mount
	Actions []vault.Action
}

// Mount binds a registered fuse name to the address it is mounted at.
type Mount struct {
	Name string
	Addr word.Address
}

// Parse parses a vault plan from bytes.
func Parse(data []byte) (*Plan, error) {
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		return nil, errors.New("BOM not allowed")
	}
	if bytes.Contains(data, []byte("\r")) {
		return nil, errors.New("CR line endings not allowed")
	}
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(line) > 0 && (line[len(line)-1] == ' ' || line[len(line)-1] == '\t') {
			return nil, errors.New("trailing whitespace forbidden")
		}
	}

	if !bytes.HasPrefix(data, []byte(Preamble)) {
		return nil, errors.New("missing plan preamble")
	}
	if !bytes.HasSuffix(bytes.TrimSpace(data), []byte(Postamble)) {
		return nil, errors.New("missing plan postamble")
	}

	sections := map[string]bool{"META": true, "BOARD": true, "ACTIONS": true}
	p := &Plan{Meta: make(map[string]string)}
	var currSection string
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || line == Preamble || line == Postamble {
			continue
		}
		if sections[line] {
			currSection = line
			continue
		}
		switch currSection {
		case "META":
			k, v, ok := strings.Cut(line, ": ")
			if !ok {
				return nil, fmt.Errorf("malformed META line %q", line)
			}
			p.Meta[k] = v
		case "BOARD":
			m, err := parseMount(line)
			if err != nil {
				return nil, err
			}
			p.Mounts = append(p.Mounts, m)
		case "ACTIONS":
			a, err := parseAction(line)
			if err != nil {
				return nil, err
			}
			p.Actions = append(p.Actions, a)
		default:
			return nil, fmt.Errorf("content outside sections: %q", line)
		}
	}
	if len(p.Mounts) == 0 {
		return nil, errors.New("plan mounts no fuses")
	}
	return p, nil
}

// parseMount parses "Fuse: <name> <0xaddress>".
func parseMount(line string) (Mount, error) {
	rest, ok := strings.CutPrefix(line, "Fuse: ")
	if !ok {
		return Mount{}, fmt.Errorf("malformed BOARD line %q", line)
	}
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return Mount{}, fmt.Errorf("malformed Fuse declaration %q", line)
	}
	addr, err := word.ParseAddress(fields[1])
	if err != nil {
		return Mount{}, fmt.Errorf("Fuse %s: %w", fields[0], err)
	}
	return Mount{Name: fields[0], Addr: addr}, nil
}

// parseAction parses "Action: <method> <0xaddress> <0xpayload>".
// The payload is hex and may be "0x" for an empty payload.
func parseAction(line string) (vault.Action, error) {
	rest, ok := strings.CutPrefix(line, "Action: ")
	if !ok {
		return vault.Action{}, fmt.Errorf("malformed ACTIONS line %q", line)
	}
	fields := strings.Fields(rest)
	if len(fields) != 3 {
		return vault.Action{}, fmt.Errorf("malformed Action declaration %q", line)
	}
	method, err := vault.ParseMethod(fields[0])
	if err != nil {
		return vault.Action{}, err
	}
	addr, err := word.ParseAddress(fields[1])
	if err != nil {
		return vault.Action{}, fmt.Errorf("Action %s: %w", fields[0], err)
	}
	payloadHex, ok := strings.CutPrefix(fields[2], "0x")
	if !ok {
		return vault.Action{}, fmt.Errorf("Action payload must be 0x-prefixed hex, got %q", fields[2])
	}
	payload, err := hex.DecodeString(payloadHex)
	if err != nil {
		return vault.Action{}, fmt.Errorf("Action payload: %w", err)
	}
	return vault.Action{Fuse: addr, Method: method, Payload: payload}, nil
}

// Build resolves a parsed plan against the fuse registry: it constructs
// and mounts every declared fuse and returns the board plus the action
// list ready for vault execution.
func (p *Plan) Build(env fuse.Env) (*fuse.Board, []vault.Action, error) {
	board := fuse.NewBoard()
	for _, m := range p.Mounts {
		f, err := fuse.New(m.Name, m.Addr, env)
		if err != nil {
			return nil, nil, fmt.Errorf("mount %s at %s: %w", m.Name, m.Addr, err)
		}
		if err := board.Mount(m.Addr, f); err != nil {
			return nil, nil, fmt.Errorf("mount %s at %s: %w", m.Name, m.Addr, err)
		}
	}
	for _, a := range p.Actions {
		if _, ok := board.Lookup(a.Fuse); !ok {
			return nil, nil, fmt.Errorf("action targets unmounted fuse %s", a.Fuse)
		}
	}
	return board, p.Actions, nil
}
