package databus

import (
	"context"
	"fmt"

	"github.com/plasmavault/fusebus/bus"
	"github.com/plasmavault/fusebus/chain"
	"github.com/plasmavault/fusebus/word"
)

// ResponseWindow decodes response bytes [Start, End) as one value of
// Kind. The window may be narrower than a full word; it is left-padded.
type ResponseWindow struct {
	Kind  word.Kind
	Start uint32
	End   uint32
}

// ReadDescriptor is one read-only external call plus the ordered windows
// to decode from its response.
type ReadDescriptor struct {
	Target  word.Address
	Payload []byte
	Windows []ResponseWindow
}

// ReadPayload is the chain reader's wire argument. Total declares the
// overall number of windows across all calls and is used only for
// pre-sizing the output sequence.
type ReadPayload struct {
	Total int
	Calls []ReadDescriptor
}

// Minimum wire footprint of one call: target + payload length + window count.
const readCallWireMin = word.AddressSize + 4 + 4

func (p ReadPayload) Encode() []byte {
	e := &enc{}
	e.u32(uint32(p.Total))
	e.u32(uint32(len(p.Calls)))
	for _, c := range p.Calls {
		e.addr(c.Target)
		e.bytes(c.Payload)
		e.u32(uint32(len(c.Windows)))
		for _, w := range c.Windows {
			e.u8(uint8(w.Kind))
			e.u32(w.Start)
			e.u32(w.End)
		}
	}
	return e.buf
}

func DecodeReadPayload(b []byte) (ReadPayload, error) {
	d := &dec{buf: b}
	p := ReadPayload{Total: int(d.u32())}
	n := d.count(readCallWireMin)
	p.Calls = make([]ReadDescriptor, 0, n)
	for i := 0; i < n; i++ {
		c := ReadDescriptor{
			Target:  d.addr(),
			Payload: d.bytes(),
		}
		wn := d.count(1 + 4 + 4)
		c.Windows = make([]ResponseWindow, 0, wn)
		for j := 0; j < wn; j++ {
			c.Windows = append(c.Windows, ResponseWindow{
				Kind:  word.Kind(d.u8()),
				Start: d.u32(),
				End:   d.u32(),
			})
		}
		p.Calls = append(p.Calls, c)
	}
	if err := d.finish(); err != nil {
		return ReadPayload{}, err
	}
	return p, nil
}

// Reader is the chain-reader fuse. It performs its descriptor list's
// read-only calls and publishes the decoded windows, in declaration
// order, as its own output sequence. Any prior output sequence is
// discarded first; outputs never accumulate across executions.
type Reader struct {
	self   word.Address
	caller chain.Caller
}

func NewReader(self word.Address, caller chain.Caller) *Reader {
	return &Reader{self: self, caller: caller}
}

func (r *Reader) Enter(ctx context.Context, st *bus.Store, payload []byte) error {
	pl, err := DecodeReadPayload(payload)
	if err != nil {
		return err
	}

	out := make([]word.Value, 0, pl.Total)
	for i, c := range pl.Calls {
		resp, err := r.caller.Call(ctx, c.Target, c.Payload)
		if err != nil {
			return fmt.Errorf("databus: chain read %d (%s): %w", i, c.Target, err)
		}
		for _, w := range c.Windows {
			v, err := decodeWindow(resp, w)
			if err != nil {
				return err
			}
			out = append(out, v)
		}
	}

	// A single replacing write: prior outputs are discarded and a failed
	// run leaves the store untouched.
	st.Write(r.self, bus.DirOutputs, out)
	return nil
}

func (r *Reader) Exit(ctx context.Context, st *bus.Store, payload []byte) error {
	return r.Enter(ctx, st, payload)
}

func decodeWindow(resp []byte, w ResponseWindow) (word.Value, error) {
	start, end := int(w.Start), int(w.End)
	if end < start {
		return word.Value{}, &Error{
			Class:   ClassShape,
			RuleID:  "FB-READ-001",
			Message: fmt.Sprintf("databus: response window [%d,%d) is inverted", start, end),
			Start:   start,
			End:     end,
		}
	}
	if end-start > word.ValueSize {
		return word.Value{}, &Error{
			Class:   ClassShape,
			RuleID:  "FB-READ-002",
			Message: fmt.Sprintf("databus: response window [%d,%d) wider than one value", start, end),
			Start:   start,
			End:     end,
			Limit:   word.ValueSize,
		}
	}
	if end > len(resp) {
		return word.Value{}, &Error{
			Class:   ClassShape,
			RuleID:  "FB-READ-003",
			Message: fmt.Sprintf("databus: response window [%d,%d) past response end (%d bytes)", start, end, len(resp)),
			Start:   start,
			End:     end,
			Limit:   len(resp),
		}
	}

	raw, err := word.FromBytes(resp[start:end])
	if err != nil {
		return word.Value{}, err
	}
	// The reader never rescales: both sides are scale 0.
	return word.Convert(raw, word.KindBytes32, 0, w.Kind, 0)
}
