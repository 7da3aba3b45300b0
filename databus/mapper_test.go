package databus

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/plasmavault/fusebus/bus"
	"github.com/plasmavault/fusebus/word"
)

func addr(b byte) word.Address {
	var a word.Address
	a[word.AddressSize-1] = b
	return a
}

func TestMapper_RescalesBetweenModules(t *testing.T) {
	st := bus.NewStore()
	src := new(big.Int).Mul(big.NewInt(1000), new(big.Int).Exp(big.NewInt(10), big.NewInt(6), nil))
	st.Write(addr(1), bus.DirOutputs, []word.Value{word.FromBig(src)})

	pl := MapPayload{Descriptors: []MappingDescriptor{{
		SrcDir: bus.DirOutputs, SrcAddr: addr(1), SrcIndex: 0,
		SrcKind: word.KindUint256, SrcScale: 6,
		DstAddr: addr(2), DstIndex: 0,
		DstKind: word.KindUint256, DstScale: 18,
	}}}
	if err := NewMapper().Enter(context.Background(), st, pl.Encode()); err != nil {
		t.Fatalf("Enter: %v", err)
	}

	got, err := st.Read(addr(2), bus.DirInputs, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := new(big.Int).Mul(big.NewInt(1000), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	if got.Big(word.KindUint256).Cmp(want) != 0 {
		t.Fatalf("got %s want %s", got.Big(word.KindUint256), want)
	}
}

func TestMapper_EmptyDescriptorListIsNoOp(t *testing.T) {
	st := bus.NewStore()
	if err := NewMapper().Enter(context.Background(), st, MapPayload{}.Encode()); err != nil {
		t.Fatalf("empty mapping must be a no-op: %v", err)
	}
}

func TestMapper_StructuralValidation(t *testing.T) {
	st := bus.NewStore()
	st.Write(addr(1), bus.DirOutputs, []word.Value{word.FromUint64(1)})

	base := MappingDescriptor{
		SrcDir: bus.DirOutputs, SrcAddr: addr(1),
		SrcKind: word.KindUint64, DstAddr: addr(2), DstKind: word.KindUint64,
	}

	cases := []struct {
		name   string
		mut    func(*MappingDescriptor)
		ruleID string
	}{
		{"ZeroSource", func(d *MappingDescriptor) { d.SrcAddr = word.Address{} }, "FB-MAP-001"},
		{"ZeroDestination", func(d *MappingDescriptor) { d.DstAddr = word.Address{} }, "FB-MAP-002"},
		{"UnspecifiedDirection", func(d *MappingDescriptor) { d.SrcDir = bus.DirUnspecified }, "FB-MAP-003"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := base
			tc.mut(&d)
			err := NewMapper().Enter(context.Background(), st, MapPayload{Descriptors: []MappingDescriptor{d}}.Encode())
			if RuleID(err) != tc.ruleID {
				t.Fatalf("got %v, want rule %s", err, tc.ruleID)
			}
			if !IsClass(err, ClassStructural) {
				t.Fatalf("want Structural class: %v", err)
			}
		})
	}
}

func TestMapper_InvalidConversionSurfacesWordError(t *testing.T) {
	st := bus.NewStore()
	st.Write(addr(1), bus.DirOutputs, []word.Value{word.FromUint64(1)})

	pl := MapPayload{Descriptors: []MappingDescriptor{{
		SrcDir: bus.DirOutputs, SrcAddr: addr(1),
		SrcKind: word.KindInt256, DstAddr: addr(2), DstKind: word.KindAddress,
	}}}
	err := NewMapper().Enter(context.Background(), st, pl.Encode())

	var we *word.Error
	if !errors.As(err, &we) {
		t.Fatalf("expected *word.Error, got %v", err)
	}
	if we.From != word.KindInt256 || we.To != word.KindAddress {
		t.Fatalf("error must name both kinds: %s %s", we.From, we.To)
	}
}

func TestMapper_FailureLeavesNoPartialWrites(t *testing.T) {
	st := bus.NewStore()
	st.Write(addr(1), bus.DirOutputs, []word.Value{word.FromUint64(7)})

	ok := MappingDescriptor{
		SrcDir: bus.DirOutputs, SrcAddr: addr(1),
		SrcKind: word.KindUint64, DstAddr: addr(2), DstKind: word.KindUint64,
	}
	bad := ok
	bad.SrcIndex = 99 // reads past the source sequence

	pl := MapPayload{Descriptors: []MappingDescriptor{ok, bad}}
	if err := NewMapper().Enter(context.Background(), st, pl.Encode()); err == nil {
		t.Fatalf("expected failure")
	}
	if st.Len(addr(2), bus.DirInputs) != 0 {
		t.Fatalf("first descriptor's write must be rolled back")
	}
}

func TestMapper_OverwritesOnlyTheDeclaredSlot(t *testing.T) {
	st := bus.NewStore()
	st.Write(addr(1), bus.DirOutputs, []word.Value{word.FromUint64(5)})
	st.Write(addr(2), bus.DirInputs, []word.Value{word.FromUint64(10), word.FromUint64(20), word.FromUint64(30)})

	pl := MapPayload{Descriptors: []MappingDescriptor{{
		SrcDir: bus.DirOutputs, SrcAddr: addr(1),
		SrcKind: word.KindUint64, DstAddr: addr(2), DstIndex: 1, DstKind: word.KindUint64,
	}}}
	if err := NewMapper().Enter(context.Background(), st, pl.Encode()); err != nil {
		t.Fatalf("Enter: %v", err)
	}

	for i, want := range []uint64{10, 5, 30} {
		v, err := st.Read(addr(2), bus.DirInputs, i)
		if err != nil {
			t.Fatalf("Read[%d]: %v", i, err)
		}
		if v != word.FromUint64(want) {
			t.Fatalf("slot %d: got %s want %d", i, v.Big(word.KindUint64), want)
		}
	}
}

func TestMapPayload_WireRoundTrip(t *testing.T) {
	pl := MapPayload{Descriptors: []MappingDescriptor{
		{SrcDir: bus.DirInputs, SrcAddr: addr(1), SrcIndex: 3, SrcKind: word.KindInt128, SrcScale: 8,
			DstAddr: addr(2), DstIndex: 1, DstKind: word.KindUint64, DstScale: 2},
	}}
	wire := pl.Encode()
	got, err := DecodeMapPayload(wire)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Descriptors) != 1 || got.Descriptors[0] != pl.Descriptors[0] {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if _, err := DecodeMapPayload(wire[:len(wire)-1]); RuleID(err) != "FB-WIRE-001" {
		t.Fatalf("truncated payload: %v", err)
	}
	if _, err := DecodeMapPayload(append(wire, 0)); RuleID(err) != "FB-WIRE-002" {
		t.Fatalf("trailing bytes: %v", err)
	}
}
