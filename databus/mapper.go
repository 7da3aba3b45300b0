package databus

import (
	"context"

	"github.com/plasmavault/fusebus/bus"
	"github.com/plasmavault/fusebus/word"
)

// MappingDescriptor moves one value: read at (SrcDir, SrcAddr, SrcIndex)
// tagged (SrcKind, SrcScale), convert, write into DstAddr's input
// sequence at DstIndex tagged (DstKind, DstScale).
type MappingDescriptor struct {
	SrcDir   bus.Direction
	SrcAddr  word.Address
	SrcIndex uint32
	SrcKind  word.Kind
	SrcScale uint8

	DstAddr  word.Address
	DstIndex uint32
	DstKind  word.Kind
	DstScale uint8
}

// MapPayload is the mapper's wire argument: an ordered descriptor list.
// An empty list is a valid no-op.
type MapPayload struct {
	Descriptors []MappingDescriptor
}

// mappingDescriptorWireSize: dir(1) + addr(20) + index(4) + kind(1) +
// scale(1) on the source side, addr(20) + index(4) + kind(1) + scale(1)
// on the destination side.
const mappingDescriptorWireSize = 1 + word.AddressSize + 4 + 1 + 1 + word.AddressSize + 4 + 1 + 1

func (p MapPayload) Encode() []byte {
	e := &enc{}
	e.u32(uint32(len(p.Descriptors)))
	for _, m := range p.Descriptors {
		e.u8(uint8(m.SrcDir))
		e.addr(m.SrcAddr)
		e.u32(m.SrcIndex)
		e.u8(uint8(m.SrcKind))
		e.u8(m.SrcScale)
		e.addr(m.DstAddr)
		e.u32(m.DstIndex)
		e.u8(uint8(m.DstKind))
		e.u8(m.DstScale)
	}
	return e.buf
}

func DecodeMapPayload(b []byte) (MapPayload, error) {
	d := &dec{buf: b}
	n := d.count(mappingDescriptorWireSize)
	descs := make([]MappingDescriptor, 0, n)
	for i := 0; i < n; i++ {
		descs = append(descs, MappingDescriptor{
			SrcDir:   bus.Direction(d.u8()),
			SrcAddr:  d.addr(),
			SrcIndex: d.u32(),
			SrcKind:  word.Kind(d.u8()),
			SrcScale: d.u8(),
			DstAddr:  d.addr(),
			DstIndex: d.u32(),
			DstKind:  word.Kind(d.u8()),
			DstScale: d.u8(),
		})
	}
	if err := d.finish(); err != nil {
		return MapPayload{}, err
	}
	return MapPayload{Descriptors: descs}, nil
}

// Mapper is the value-mapping fuse. Enter and Exit behave identically:
// the operation is direction-free, only its payload matters.
type Mapper struct{}

func NewMapper() *Mapper { return &Mapper{} }

func (m *Mapper) Enter(ctx context.Context, st *bus.Store, payload []byte) error {
	_ = ctx
	pl, err := DecodeMapPayload(payload)
	if err != nil {
		return err
	}
	snap := st.Snapshot()
	if err := m.apply(st, pl); err != nil {
		st.Restore(snap)
		return err
	}
	return nil
}

func (m *Mapper) Exit(ctx context.Context, st *bus.Store, payload []byte) error {
	return m.Enter(ctx, st, payload)
}

func (m *Mapper) apply(st *bus.Store, pl MapPayload) error {
	for i, desc := range pl.Descriptors {
		if desc.SrcAddr.IsZero() {
			return structural("FB-MAP-001", "mapping descriptor %d has a zero source module", i)
		}
		if desc.DstAddr.IsZero() {
			return structural("FB-MAP-002", "mapping descriptor %d has a zero destination module", i)
		}
		if desc.SrcDir == bus.DirUnspecified {
			return structural("FB-MAP-003", "mapping descriptor %d has an unspecified source direction", i)
		}
		v, err := st.Read(desc.SrcAddr, desc.SrcDir, int(desc.SrcIndex))
		if err != nil {
			return err
		}
		out, err := word.Convert(v, desc.SrcKind, desc.SrcScale, desc.DstKind, desc.DstScale)
		if err != nil {
			return err
		}
		st.WriteAt(desc.DstAddr, bus.DirInputs, int(desc.DstIndex), out)
	}
	return nil
}
