package databus

import (
	"context"
	"testing"

	"github.com/plasmavault/fusebus/bus"
	"github.com/plasmavault/fusebus/word"
)

func TestLoader_ReplacesInputSequencesVerbatim(t *testing.T) {
	st := bus.NewStore()
	st.Write(addr(1), bus.DirInputs, []word.Value{word.FromUint64(1), word.FromUint64(2)})

	opaque := word.Value{0: 0xFF, 31: 0x01}
	pl := LoadPayload{Entries: []LoadEntry{
		{Addr: addr(1), Values: []word.Value{opaque}},
		{Addr: addr(2), Values: []word.Value{word.FromUint64(7), word.FromUint64(8)}},
	}}
	if err := NewLoader().Enter(context.Background(), st, pl.Encode()); err != nil {
		t.Fatalf("Enter: %v", err)
	}

	if st.Len(addr(1), bus.DirInputs) != 1 {
		t.Fatalf("load must replace the whole sequence")
	}
	v, _ := st.Read(addr(1), bus.DirInputs, 0)
	if v != opaque {
		t.Fatalf("load must not reinterpret values: %s", v)
	}
	if st.Len(addr(2), bus.DirInputs) != 2 {
		t.Fatalf("second entry missing")
	}
}

func TestLoader_EmptyEntryListIsNoOp(t *testing.T) {
	st := bus.NewStore()
	if err := NewLoader().Enter(context.Background(), st, LoadPayload{}.Encode()); err != nil {
		t.Fatalf("empty load must be a no-op: %v", err)
	}
}

func TestLoader_Validation(t *testing.T) {
	st := bus.NewStore()

	zero := LoadPayload{Entries: []LoadEntry{{Addr: word.Address{}, Values: []word.Value{word.FromUint64(1)}}}}
	if err := NewLoader().Enter(context.Background(), st, zero.Encode()); RuleID(err) != "FB-LOAD-001" {
		t.Fatalf("zero address: %v", err)
	}

	empty := LoadPayload{Entries: []LoadEntry{{Addr: addr(1)}}}
	if err := NewLoader().Enter(context.Background(), st, empty.Encode()); RuleID(err) != "FB-LOAD-002" {
		t.Fatalf("empty sequence: %v", err)
	}
}

func TestLoader_BadEntryWritesNothing(t *testing.T) {
	st := bus.NewStore()

	pl := LoadPayload{Entries: []LoadEntry{
		{Addr: addr(1), Values: []word.Value{word.FromUint64(1)}},
		{Addr: addr(2)}, // empty sequence fails validation
	}}
	if err := NewLoader().Enter(context.Background(), st, pl.Encode()); err == nil {
		t.Fatalf("expected failure")
	}
	if st.Len(addr(1), bus.DirInputs) != 0 {
		t.Fatalf("valid entries before a bad one must not land")
	}
}

func TestLoadPayload_WireRoundTrip(t *testing.T) {
	pl := LoadPayload{Entries: []LoadEntry{{Addr: addr(3), Values: []word.Value{word.FromUint64(42)}}}}
	got, err := DecodeLoadPayload(pl.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].Addr != addr(3) || got.Entries[0].Values[0] != word.FromUint64(42) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
