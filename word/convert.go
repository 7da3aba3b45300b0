package word

import "math/big"

var ten = big.NewInt(10)

// Convert reinterprets one word tagged (from, fromScale) as a word tagged
// (to, toScale). It is pure and deterministic.
//
// Rules, in precedence order:
//
//   - identity: equal kind and scale returns the input verbatim, which
//     keeps opaque payloads (hashes, packed structs) bit-for-bit intact;
//   - an Unspecified source always passes through verbatim;
//   - Bytes32 on either side is a reinterpretation: no range checks, the
//     result is truncated to the destination width; Address, Bool and
//     Bytes32 are scale-blind;
//   - numeric pairs rescale by 10^|toScale-fromScale| first (scale-up
//     checks the source width's natural range, scale-down truncates
//     toward zero), then range-check against the destination width;
//   - Bool maps 0/1 into integers and "non-zero is true" back;
//   - Address converts only with unsigned integers (zero-extend in,
//     truncate to 20 bytes out); Address with signed integers or Bool is
//     an invalid conversion.
func Convert(v Value, from Kind, fromScale uint8, to Kind, toScale uint8) (Value, error) {
	if from == KindUnspecified || to == KindUnspecified {
		return v, nil
	}
	if from == to && (fromScale == toScale || !from.Numeric()) {
		return v, nil
	}

	switch {
	case from == KindBytes32:
		return fromBytes32(v, to), nil
	case to == KindBytes32:
		return v, nil

	case from.Numeric() && to.Numeric():
		return numeric(v, from, fromScale, to, toScale)

	case from == KindBool && to.Numeric():
		// Scale-blind: true is 1 at any declared scale.
		return boolWord(v), nil

	case from.Numeric() && to == KindBool:
		if v.Big(from).Sign() != 0 {
			return FromUint64(1), nil
		}
		return Value{}, nil

	case from == KindAddress && to.Numeric():
		if to.Signed() {
			return Value{}, invalidConversion(from, to)
		}
		return narrowUnsigned(new(big.Int).SetBytes(v[ValueSize-AddressSize:]), to)

	case from.Numeric() && to == KindAddress:
		if from.Signed() {
			return Value{}, invalidConversion(from, to)
		}
		return maskTo(v, AddressSize*8), nil

	default:
		// Address with Bool in either direction, and any pair the closed
		// set does not name.
		return Value{}, invalidConversion(from, to)
	}
}

func fromBytes32(v Value, to Kind) Value {
	switch {
	case to == KindAddress:
		return maskTo(v, AddressSize*8)
	case to == KindBool:
		if v.IsZero() {
			return Value{}
		}
		return FromUint64(1)
	case to.Numeric():
		return maskTo(v, to.Bits())
	default:
		return v
	}
}

func boolWord(v Value) Value {
	if v.IsZero() {
		return Value{}
	}
	return FromUint64(1)
}

func numeric(v Value, from Kind, fromScale uint8, to Kind, toScale uint8) (Value, error) {
	i := v.Big(from)

	if fromScale != toScale {
		switch {
		case toScale > fromScale:
			i.Mul(i, tenPow(toScale-fromScale))
			if !fits(i, from) {
				return Value{}, decimalOverflow(v.Big(from), fromScale, toScale)
			}
		default:
			// Truncation toward zero; precision loss is expected.
			i.Quo(i, tenPow(fromScale-toScale))
		}
	}

	if !to.Signed() && i.Sign() < 0 {
		return Value{}, negativeValue(i, to)
	}
	if !fits(i, to) {
		return Value{}, outOfRange(i, to)
	}
	return FromBig(i), nil
}

func narrowUnsigned(i *big.Int, to Kind) (Value, error) {
	if !fits(i, to) {
		return Value{}, outOfRange(i, to)
	}
	return FromBig(i), nil
}

// fits reports whether i lies within k's natural range.
func fits(i *big.Int, k Kind) bool {
	bits := k.Bits()
	if k.Signed() {
		max := new(big.Int).Sub(pow2(bits-1), big.NewInt(1))
		min := new(big.Int).Neg(pow2(bits - 1))
		return i.Cmp(min) >= 0 && i.Cmp(max) <= 0
	}
	return i.Sign() >= 0 && i.Cmp(pow2(bits)) < 0
}

func tenPow(d uint8) *big.Int {
	return new(big.Int).Exp(ten, big.NewInt(int64(d)), nil)
}
