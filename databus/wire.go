package databus

import (
	"encoding/binary"

	"github.com/plasmavault/fusebus/word"
)

// Payload wire discipline: big-endian fixed-width fields, u32 element
// counts, u32 length-prefixed byte strings. Decoding is strict: short
// input and trailing bytes are both rejected, so Encode/Decode is an
// exact round trip and no two byte strings decode to the same payload.

type enc struct {
	buf []byte
}

func (e *enc) u8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *enc) u32(v uint32) {
	e.buf = binary.BigEndian.AppendUint32(e.buf, v)
}

func (e *enc) u64(v uint64) {
	e.buf = binary.BigEndian.AppendUint64(e.buf, v)
}

func (e *enc) addr(a word.Address) {
	e.buf = append(e.buf, a[:]...)
}

func (e *enc) value(v word.Value) {
	e.buf = append(e.buf, v[:]...)
}

func (e *enc) bytes(b []byte) {
	e.u32(uint32(len(b)))
	e.buf = append(e.buf, b...)
}

type dec struct {
	buf []byte
	off int
	err *Error
}

func (d *dec) fail(ruleID, format string, args ...any) {
	if d.err == nil {
		d.err = structural(ruleID, format, args...)
	}
}

func (d *dec) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.off+n > len(d.buf) {
		d.fail("FB-WIRE-001", "payload truncated at offset %d (need %d bytes)", d.off, n)
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *dec) u8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *dec) u32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (d *dec) u64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (d *dec) addr() word.Address {
	var a word.Address
	b := d.take(word.AddressSize)
	if b != nil {
		copy(a[:], b)
	}
	return a
}

func (d *dec) value() word.Value {
	var v word.Value
	b := d.take(word.ValueSize)
	if b != nil {
		copy(v[:], b)
	}
	return v
}

func (d *dec) bytes() []byte {
	n := d.u32()
	b := d.take(int(n))
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// count reads a u32 element count and guards it against the remaining
// payload length, assuming each element occupies at least elemSize bytes.
func (d *dec) count(elemSize int) int {
	n := int(d.u32())
	if d.err != nil {
		return 0
	}
	if elemSize > 0 && n > (len(d.buf)-d.off)/elemSize {
		d.fail("FB-WIRE-001", "element count %d exceeds remaining payload", n)
		return 0
	}
	return n
}

func (d *dec) finish() *Error {
	if d.err != nil {
		return d.err
	}
	if d.off != len(d.buf) {
		return structural("FB-WIRE-002", "%d trailing payload bytes", len(d.buf)-d.off)
	}
	return nil
}
