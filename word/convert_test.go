package word

import (
	"errors"
	"math/big"
	"testing"
)

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	i, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad big literal %q", s)
	}
	return i
}

func TestConvert_IdentityPreservesOpaqueBits(t *testing.T) {
	var v Value
	for i := range v {
		v[i] = byte(0xA0 + i)
	}
	got, err := Convert(v, KindBytes32, 0, KindBytes32, 7)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if got != v {
		t.Fatalf("opaque identity changed bits: got %s want %s", got, v)
	}
}

func TestConvert_UnspecifiedSourcePassesThrough(t *testing.T) {
	v := FromUint64(0xDEAD)
	for _, to := range []Kind{KindUint8, KindInt256, KindAddress, KindBool, KindBytes32} {
		got, err := Convert(v, KindUnspecified, 3, to, 9)
		if err != nil {
			t.Fatalf("Convert to %s failed: %v", to, err)
		}
		if got != v {
			t.Fatalf("unspecified source to %s not verbatim", to)
		}
	}
}

func TestConvert_ScaleUp(t *testing.T) {
	// 1000 * 10^6 at scale 6 becomes 1000 * 10^18 at scale 18.
	src := FromBig(mustBig(t, "1000000000"))
	got, err := Convert(src, KindUint256, 6, KindUint256, 18)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	want := FromBig(mustBig(t, "1000000000000000000000"))
	if got != want {
		t.Fatalf("rescale: got %s want %s", got.Big(KindUint256), want.Big(KindUint256))
	}
}

func TestConvert_ScaleRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 7, 123456789} {
		up, err := Convert(FromUint64(v), KindUint64, 2, KindUint64, 9)
		if err != nil {
			t.Fatalf("scale up %d: %v", v, err)
		}
		down, err := Convert(up, KindUint64, 9, KindUint64, 2)
		if err != nil {
			t.Fatalf("scale down %d: %v", v, err)
		}
		if down != FromUint64(v) {
			t.Fatalf("round trip lost %d: got %s", v, down.Big(KindUint64))
		}
	}
}

func TestConvert_ScaleDownTruncatesTowardZero(t *testing.T) {
	got, err := Convert(FromUint64(1999), KindUint64, 3, KindUint64, 0)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if got != FromUint64(1) {
		t.Fatalf("truncation: got %s want 1", got.Big(KindUint64))
	}

	neg, err := Convert(FromBig(big.NewInt(-1999)), KindInt64, 3, KindInt64, 0)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if neg.Big(KindInt64).Int64() != -1 {
		t.Fatalf("negative truncation toward zero: got %s want -1", neg.Big(KindInt64))
	}
}

func TestConvert_ScaleUpOverflow(t *testing.T) {
	// Near the top of uint64, any scale-up must overflow the source width.
	src := FromUint64(1<<63 + 12345)
	_, err := Convert(src, KindUint64, 0, KindUint64, 6)
	if err == nil {
		t.Fatalf("expected decimal overflow")
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *word.Error, got %T", err)
	}
	if e.RuleID != "FB-CONV-001" || e.Class != ClassArithmetic {
		t.Fatalf("wrong rule: %s/%s", e.Class, e.RuleID)
	}
	if e.FromScale != 0 || e.ToScale != 6 {
		t.Fatalf("overflow error lost scales: %d %d", e.FromScale, e.ToScale)
	}
	if e.Value == nil || e.Value.Uint64() != 1<<63+12345 {
		t.Fatalf("overflow error lost original value: %v", e.Value)
	}
}

func TestConvert_NegativeIntoUnsigned(t *testing.T) {
	for _, to := range []Kind{KindUint8, KindUint64, KindUint256} {
		_, err := Convert(FromBig(big.NewInt(-5)), KindInt64, 0, to, 0)
		var e *Error
		if !errors.As(err, &e) || e.RuleID != "FB-CONV-002" {
			t.Fatalf("negative into %s: got %v", to, err)
		}
		if e.Value.Int64() != -5 || e.To != to {
			t.Fatalf("negative error lost operands: %v %s", e.Value, e.To)
		}
	}
}

func TestConvert_NarrowingRange(t *testing.T) {
	_, err := Convert(FromUint64(300), KindUint64, 0, KindUint8, 0)
	var e *Error
	if !errors.As(err, &e) || e.RuleID != "FB-CONV-003" {
		t.Fatalf("narrowing: got %v", err)
	}
	if e.Value.Int64() != 300 || e.To != KindUint8 {
		t.Fatalf("range error lost operands: %v %s", e.Value, e.To)
	}

	// 127 fits int8, 128 does not.
	if _, err := Convert(FromUint64(127), KindUint64, 0, KindInt8, 0); err != nil {
		t.Fatalf("127 into int8: %v", err)
	}
	if _, err := Convert(FromUint64(128), KindUint64, 0, KindInt8, 0); err == nil {
		t.Fatalf("128 into int8 must fail")
	}
}

func TestConvert_WideningSigned(t *testing.T) {
	got, err := Convert(FromBig(big.NewInt(-42)), KindInt8, 0, KindInt256, 0)
	if err != nil {
		t.Fatalf("widening failed: %v", err)
	}
	if got.Big(KindInt256).Int64() != -42 {
		t.Fatalf("widening changed value: %s", got.Big(KindInt256))
	}
}

func TestConvert_BoolBridges(t *testing.T) {
	one, err := Convert(FromUint64(1), KindBool, 6, KindUint256, 18)
	if err != nil {
		t.Fatalf("bool to uint256: %v", err)
	}
	// Scale-blind: true stays 1 even across declared scales.
	if one != FromUint64(1) {
		t.Fatalf("bool true: got %s", one.Big(KindUint256))
	}

	truthy, err := Convert(FromUint64(77), KindUint64, 0, KindBool, 0)
	if err != nil {
		t.Fatalf("uint to bool: %v", err)
	}
	if truthy != FromUint64(1) {
		t.Fatalf("non-zero must be true")
	}
	falsy, err := Convert(Value{}, KindUint64, 0, KindBool, 0)
	if err != nil {
		t.Fatalf("zero to bool: %v", err)
	}
	if !falsy.IsZero() {
		t.Fatalf("zero must be false")
	}
}

func TestConvert_AddressBridges(t *testing.T) {
	addr, err := ParseAddress("0x00000000000000000000000000000000000004d2")
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	got, err := Convert(addr.Word(), KindAddress, 0, KindUint256, 0)
	if err != nil {
		t.Fatalf("address to uint256: %v", err)
	}
	if got.Big(KindUint256).Int64() != 1234 {
		t.Fatalf("address zero-extend: got %s", got.Big(KindUint256))
	}

	back, err := Convert(got, KindUint256, 0, KindAddress, 0)
	if err != nil {
		t.Fatalf("uint256 to address: %v", err)
	}
	if back.Addr() != addr {
		t.Fatalf("address round trip: got %s want %s", back.Addr(), addr)
	}
}

func TestConvert_ForbiddenPairs(t *testing.T) {
	cases := []struct{ from, to Kind }{
		{KindInt256, KindAddress},
		{KindAddress, KindInt64},
		{KindAddress, KindBool},
		{KindBool, KindAddress},
	}
	for _, c := range cases {
		_, err := Convert(FromUint64(1), c.from, 0, c.to, 0)
		var e *Error
		if !errors.As(err, &e) || e.RuleID != "FB-CONV-010" {
			t.Fatalf("%s to %s: got %v", c.from, c.to, err)
		}
		if e.From != c.from || e.To != c.to {
			t.Fatalf("invalid-conversion error must name both kinds: %s %s", e.From, e.To)
		}
		if e.Class != ClassSemantic {
			t.Fatalf("invalid conversion is Semantic, got %s", e.Class)
		}
	}
}

func TestConvert_Bytes32Reinterpretation(t *testing.T) {
	v := FromUint64(0x1FF)
	got, err := Convert(v, KindBytes32, 0, KindUint8, 0)
	if err != nil {
		t.Fatalf("bytes32 to uint8: %v", err)
	}
	// Truncated to the destination width, never an error.
	if got != FromUint64(0xFF) {
		t.Fatalf("bytes32 truncation: got %s", got.Big(KindUint8))
	}

	back, err := Convert(FromUint64(0xFF), KindUint8, 0, KindBytes32, 5)
	if err != nil {
		t.Fatalf("uint8 to bytes32: %v", err)
	}
	if back != FromUint64(0xFF) {
		t.Fatalf("to bytes32 must be verbatim")
	}
}

func TestConvert_SignedInterpretation(t *testing.T) {
	// The low byte 0xFF read as int8 is -1; widened to int64 it stays -1.
	got, err := Convert(FromUint64(0xFF), KindInt8, 0, KindInt64, 0)
	if err != nil {
		t.Fatalf("int8 widen: %v", err)
	}
	if got.Big(KindInt64).Int64() != -1 {
		t.Fatalf("two's complement read: got %s", got.Big(KindInt64))
	}
}

func TestConvert_Int128Bounds(t *testing.T) {
	max128 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	if _, err := Convert(FromBig(max128), KindInt256, 0, KindInt128, 0); err != nil {
		t.Fatalf("max int128 must fit: %v", err)
	}
	over := new(big.Int).Add(max128, big.NewInt(1))
	if _, err := Convert(FromBig(over), KindInt256, 0, KindInt128, 0); err == nil {
		t.Fatalf("int128 max + 1 must fail")
	}
}
