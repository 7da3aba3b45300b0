// Package bus implements the transaction-scoped value store shared by
// fuse modules within one execution.
//
// A Store lives exactly as long as one top-level execution: the
// orchestrator constructs it, hands it by reference to every fuse it
// invokes, and drops it when the execution ends. Nothing in this package
// is global and nothing persists.
package bus

import (
	"fmt"

	"github.com/plasmavault/fusebus/word"
)

// Direction selects which of a module's two value sequences a read or
// write targets. It is a three-variant tag so consumers switch
// exhaustively instead of branching on a boolean.
type Direction uint8

const (
	DirUnspecified Direction = iota
	DirInputs
	DirOutputs
)

func (d Direction) String() string {
	switch d {
	case DirInputs:
		return "inputs"
	case DirOutputs:
		return "outputs"
	case DirUnspecified:
		return "unspecified"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// ParseDirection decodes the textual direction tags used by plan files.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "inputs":
		return DirInputs, nil
	case "outputs":
		return DirOutputs, nil
	default:
		return DirUnspecified, fmt.Errorf("bus: unknown direction %q", s)
	}
}

type key struct {
	addr word.Address
	dir  Direction
}

// Store holds per-(module, direction) ordered value sequences for one
// execution. The execution model is strictly sequential, so there is no
// locking.
type Store struct {
	seq map[key][]word.Value
}

// NewStore returns an empty store for a fresh execution.
func NewStore() *Store {
	return &Store{seq: make(map[key][]word.Value)}
}

// Write replaces the entire sequence for (addr, dir). Last write wins.
func (s *Store) Write(addr word.Address, dir Direction, values []word.Value) {
	s.seq[key{addr, dir}] = append([]word.Value(nil), values...)
}

// WriteAt overwrites the single slot at index, leaving every other slot
// untouched. The sequence grows with zero words if index is past its end.
func (s *Store) WriteAt(addr word.Address, dir Direction, index int, v word.Value) {
	k := key{addr, dir}
	seq := s.seq[k]
	for len(seq) <= index {
		seq = append(seq, word.Value{})
	}
	seq[index] = v
	s.seq[k] = seq
}

// Read returns the value at index in the (addr, dir) sequence.
func (s *Store) Read(addr word.Address, dir Direction, index int) (word.Value, error) {
	seq := s.seq[key{addr, dir}]
	if index < 0 || index >= len(seq) {
		return word.Value{}, &ReadError{Addr: addr, Dir: dir, Index: index, Len: len(seq)}
	}
	return seq[index], nil
}

// ReadAll returns a copy of the (addr, dir) sequence; nil when absent.
func (s *Store) ReadAll(addr word.Address, dir Direction) []word.Value {
	seq := s.seq[key{addr, dir}]
	if seq == nil {
		return nil
	}
	return append([]word.Value(nil), seq...)
}

// Len returns the length of the (addr, dir) sequence.
func (s *Store) Len(addr word.Address, dir Direction) int {
	return len(s.seq[key{addr, dir}])
}

// Clear discards the (addr, dir) sequence.
func (s *Store) Clear(addr word.Address, dir Direction) {
	delete(s.seq, key{addr, dir})
}

// Entry is one keyed sequence, as surfaced by Entries.
type Entry struct {
	Addr   word.Address
	Dir    Direction
	Values []word.Value
}

// Entries returns every non-empty sequence. Order is unspecified;
// callers that need determinism must sort (receipt rendering does).
func (s *Store) Entries() []Entry {
	out := make([]Entry, 0, len(s.seq))
	for k, seq := range s.seq {
		out = append(out, Entry{Addr: k.addr, Dir: k.dir, Values: append([]word.Value(nil), seq...)})
	}
	return out
}

// Snapshot captures the full store state so an operator can restore it
// when a later step fails. Copies are deep; mutating the live store
// never leaks into a snapshot.
type Snapshot struct {
	seq map[key][]word.Value
}

func (s *Store) Snapshot() Snapshot {
	cp := make(map[key][]word.Value, len(s.seq))
	for k, seq := range s.seq {
		cp[k] = append([]word.Value(nil), seq...)
	}
	return Snapshot{seq: cp}
}

// Restore rewinds the store to a snapshot taken earlier in the same
// execution.
func (s *Store) Restore(snap Snapshot) {
	cp := make(map[key][]word.Value, len(snap.seq))
	for k, seq := range snap.seq {
		cp[k] = append([]word.Value(nil), seq...)
	}
	s.seq = cp
}
