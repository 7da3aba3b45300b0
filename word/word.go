// Package word implements the typed 32-byte value model of the fuse data bus.
//
// A Value carries no type of its own: meaning is assigned at read time by
// pairing it with a Kind tag and, for integer kinds, a decimal Scale.
// Convert is the single total conversion function over every (Kind, Kind)
// pair; illegal pairs fail with a structured *Error rather than wrapping.
package word

import (
	"encoding/hex"
	"fmt"
	"math/big"
)

// ValueSize is the width of one data-bus word in bytes.
const ValueSize = 32

// AddressSize is the width of a module identifier in bytes.
const AddressSize = 20

// Value is one fixed-size data-bus word. The byte order is big-endian:
// numeric kinds occupy the low-order (rightmost) bytes.
type Value [ValueSize]byte

// Address identifies a fuse module. The zero address is reserved and is
// rejected wherever a descriptor names a module.
type Address [AddressSize]byte

// Kind tags a Value with an interpretation.
type Kind uint8

const (
	// KindUnspecified means "do not interpret"; conversions from it are
	// verbatim pass-through regardless of the destination kind.
	KindUnspecified Kind = iota
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindUint128
	KindUint256
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindInt128
	KindInt256
	KindAddress
	KindBool
	KindBytes32
)

var kindNames = map[Kind]string{
	KindUnspecified: "unspecified",
	KindUint8:       "uint8",
	KindUint16:      "uint16",
	KindUint32:      "uint32",
	KindUint64:      "uint64",
	KindUint128:     "uint128",
	KindUint256:     "uint256",
	KindInt8:        "int8",
	KindInt16:       "int16",
	KindInt32:       "int32",
	KindInt64:       "int64",
	KindInt128:      "int128",
	KindInt256:      "int256",
	KindAddress:     "address",
	KindBool:        "bool",
	KindBytes32:     "bytes32",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is a member of the closed tag set.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind maps a kind name like "uint256" back to its tag.
func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if n == s {
			return k, nil
		}
	}
	return KindUnspecified, fmt.Errorf("unknown kind %q", s)
}

// Numeric reports whether k is one of the integer kinds.
// Decimal scales are meaningful only for numeric kinds.
func (k Kind) Numeric() bool {
	return k >= KindUint8 && k <= KindInt256
}

// Signed reports whether k is a signed integer kind.
func (k Kind) Signed() bool {
	return k >= KindInt8 && k <= KindInt256
}

// Bits returns the integer width of a numeric kind, 0 otherwise.
func (k Kind) Bits() uint {
	switch k {
	case KindUint8, KindInt8:
		return 8
	case KindUint16, KindInt16:
		return 16
	case KindUint32, KindInt32:
		return 32
	case KindUint64, KindInt64:
		return 64
	case KindUint128, KindInt128:
		return 128
	case KindUint256, KindInt256:
		return 256
	default:
		return 0
	}
}

// IsZero reports whether a is the reserved zero address.
func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// ParseAddress decodes a 0x-prefixed or bare 40-digit hex address.
func ParseAddress(s string) (Address, error) {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	var a Address
	if len(s) != AddressSize*2 {
		return a, fmt.Errorf("word: address must be %d hex digits", AddressSize*2)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("word: invalid address hex: %w", err)
	}
	copy(a[:], b)
	return a, nil
}

// Word returns the address zero-extended into a full Value.
func (a Address) Word() Value {
	var v Value
	copy(v[ValueSize-AddressSize:], a[:])
	return v
}

func (v Value) String() string {
	return "0x" + hex.EncodeToString(v[:])
}

// Addr truncates the value to its low 20 bytes.
func (v Value) Addr() Address {
	var a Address
	copy(a[:], v[ValueSize-AddressSize:])
	return a
}

// Bytes returns a copy of the full 32-byte word.
func (v Value) Bytes() []byte {
	out := make([]byte, ValueSize)
	copy(out, v[:])
	return out
}

// IsZero reports whether every byte of v is zero.
func (v Value) IsZero() bool {
	return v == Value{}
}

// FromUint64 returns the word holding u in its low-order bytes.
func FromUint64(u uint64) Value {
	var v Value
	for i := 0; i < 8; i++ {
		v[ValueSize-1-i] = byte(u >> (8 * i))
	}
	return v
}

// FromBytes left-pads b into a full word. b must not exceed ValueSize.
func FromBytes(b []byte) (Value, error) {
	var v Value
	if len(b) > ValueSize {
		return v, fmt.Errorf("word: %d bytes exceed one value", len(b))
	}
	copy(v[ValueSize-len(b):], b)
	return v, nil
}

// ParseValue decodes a 0x-prefixed or bare hex word of up to 32 bytes,
// left-padding short input.
func ParseValue(s string) (Value, error) {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Value{}, fmt.Errorf("word: invalid value hex: %w", err)
	}
	return FromBytes(b)
}

// Big interprets v as an integer of kind k.
//
// Unsigned kinds read the low Bits() bits; signed kinds read the low
// Bits() bits as two's complement. Address reads the low 20 bytes,
// Bool yields 0 or 1, Bytes32 and Unspecified read the full word
// unsigned.
func (v Value) Big(k Kind) *big.Int {
	i := new(big.Int).SetBytes(v[:])
	switch {
	case k == KindBool:
		if i.Sign() != 0 {
			return big.NewInt(1)
		}
		return big.NewInt(0)
	case k == KindAddress:
		return new(big.Int).SetBytes(v[ValueSize-AddressSize:])
	case k.Numeric():
		bits := k.Bits()
		i.And(i, mask(bits))
		if k.Signed() && i.Bit(int(bits-1)) == 1 {
			i.Sub(i, pow2(bits))
		}
		return i
	default:
		return i
	}
}

// FromBig encodes i as a word, using two's complement sign-extended
// across the full word for negative values. The caller is responsible
// for range-checking i against the destination kind first.
func FromBig(i *big.Int) Value {
	u := new(big.Int).Set(i)
	if u.Sign() < 0 {
		u.Add(u, pow2(256))
	}
	u.And(u, mask(256))
	var v Value
	u.FillBytes(v[:])
	return v
}

func pow2(bits uint) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), bits)
}

func mask(bits uint) *big.Int {
	return new(big.Int).Sub(pow2(bits), big.NewInt(1))
}

// maskTo truncates v to the low bits of width bits.
func maskTo(v Value, bits uint) Value {
	i := new(big.Int).SetBytes(v[:])
	i.And(i, mask(bits))
	var out Value
	i.FillBytes(out[:])
	return out
}
