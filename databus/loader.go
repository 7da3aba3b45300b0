package databus

import (
	"context"

	"github.com/plasmavault/fusebus/bus"
	"github.com/plasmavault/fusebus/word"
)

// LoadEntry replaces one module's entire input sequence verbatim.
type LoadEntry struct {
	Addr   word.Address
	Values []word.Value
}

// LoadPayload is the bulk loader's wire argument. An empty entry list is
// a valid no-op; an empty value sequence inside an entry is not.
type LoadPayload struct {
	Entries []LoadEntry
}

const loadEntryWireMin = word.AddressSize + 4

func (p LoadPayload) Encode() []byte {
	e := &enc{}
	e.u32(uint32(len(p.Entries)))
	for _, le := range p.Entries {
		e.addr(le.Addr)
		e.u32(uint32(len(le.Values)))
		for _, v := range le.Values {
			e.value(v)
		}
	}
	return e.buf
}

func DecodeLoadPayload(b []byte) (LoadPayload, error) {
	d := &dec{buf: b}
	n := d.count(loadEntryWireMin)
	p := LoadPayload{Entries: make([]LoadEntry, 0, n)}
	for i := 0; i < n; i++ {
		le := LoadEntry{Addr: d.addr()}
		vn := d.count(word.ValueSize)
		le.Values = make([]word.Value, 0, vn)
		for j := 0; j < vn; j++ {
			le.Values = append(le.Values, d.value())
		}
		p.Entries = append(p.Entries, le)
	}
	if err := d.finish(); err != nil {
		return LoadPayload{}, err
	}
	return p, nil
}

// Loader is the bulk input loader fuse: raw value sequences go straight
// into modules' input sequences with no type or scale interpretation.
type Loader struct{}

func NewLoader() *Loader { return &Loader{} }

func (l *Loader) Enter(ctx context.Context, st *bus.Store, payload []byte) error {
	_ = ctx
	pl, err := DecodeLoadPayload(payload)
	if err != nil {
		return err
	}
	// Validate every pair before the first write; a bad entry anywhere
	// leaves the store untouched.
	for i, le := range pl.Entries {
		if le.Addr.IsZero() {
			return structural("FB-LOAD-001", "load entry %d has a zero module address", i)
		}
		if len(le.Values) == 0 {
			return structural("FB-LOAD-002", "load entry %d has an empty value sequence", i)
		}
	}
	for _, le := range pl.Entries {
		st.Write(le.Addr, bus.DirInputs, le.Values)
	}
	return nil
}

func (l *Loader) Exit(ctx context.Context, st *bus.Store, payload []byte) error {
	return l.Enter(ctx, st, payload)
}
