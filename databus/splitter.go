package databus

import (
	"context"
	"fmt"
	"math/big"

	"github.com/plasmavault/fusebus/bus"
	"github.com/plasmavault/fusebus/word"
)

// SplitRoute sends floor(total * Numerator / denominator) to DstAddr's
// input sequence at DstIndex.
type SplitRoute struct {
	DstAddr   word.Address
	DstIndex  uint32
	Numerator uint64
}

// SplitPayload divides the scalar at (SrcDir, SrcAddr, SrcIndex) across
// Routes. Numerators must sum exactly to Denominator.
type SplitPayload struct {
	SrcDir      bus.Direction
	SrcAddr     word.Address
	SrcIndex    uint32
	Denominator uint64
	Routes      []SplitRoute
}

const splitRouteWireSize = word.AddressSize + 4 + 8

func (p SplitPayload) Encode() []byte {
	e := &enc{}
	e.u8(uint8(p.SrcDir))
	e.addr(p.SrcAddr)
	e.u32(p.SrcIndex)
	e.u64(p.Denominator)
	e.u32(uint32(len(p.Routes)))
	for _, r := range p.Routes {
		e.addr(r.DstAddr)
		e.u32(r.DstIndex)
		e.u64(r.Numerator)
	}
	return e.buf
}

func DecodeSplitPayload(b []byte) (SplitPayload, error) {
	d := &dec{buf: b}
	p := SplitPayload{
		SrcDir:      bus.Direction(d.u8()),
		SrcAddr:     d.addr(),
		SrcIndex:    d.u32(),
		Denominator: d.u64(),
	}
	n := d.count(splitRouteWireSize)
	p.Routes = make([]SplitRoute, 0, n)
	for i := 0; i < n; i++ {
		p.Routes = append(p.Routes, SplitRoute{
			DstAddr:   d.addr(),
			DstIndex:  d.u32(),
			Numerator: d.u64(),
		})
	}
	if err := d.finish(); err != nil {
		return SplitPayload{}, err
	}
	return p, nil
}

// Splitter is the proportional-split fuse.
//
// Every route but the last receives the floored share; the last route
// receives whatever remains, so the allocations always sum exactly to
// the source total. The remainder lands on the final route regardless
// of that route's own numerator.
type Splitter struct{}

func NewSplitter() *Splitter { return &Splitter{} }

func (s *Splitter) Enter(ctx context.Context, st *bus.Store, payload []byte) error {
	_ = ctx
	pl, err := DecodeSplitPayload(payload)
	if err != nil {
		return err
	}
	snap := st.Snapshot()
	if err := s.apply(st, pl); err != nil {
		st.Restore(snap)
		return err
	}
	return nil
}

func (s *Splitter) Exit(ctx context.Context, st *bus.Store, payload []byte) error {
	return s.Enter(ctx, st, payload)
}

func (s *Splitter) apply(st *bus.Store, pl SplitPayload) error {
	if pl.Denominator == 0 {
		return structural("FB-SPLIT-001", "split denominator is zero")
	}
	if len(pl.Routes) == 0 {
		return structural("FB-SPLIT-002", "split has no routes")
	}
	if pl.SrcDir == bus.DirUnspecified {
		return structural("FB-SPLIT-005", "split has an unspecified source direction")
	}
	if pl.SrcAddr.IsZero() {
		return structural("FB-SPLIT-006", "split has a zero source module")
	}
	var sum uint64
	for i, r := range pl.Routes {
		if r.DstAddr.IsZero() {
			return structural("FB-SPLIT-003", "split route %d has a zero destination module", i)
		}
		next := sum + r.Numerator
		if next < sum {
			return structural("FB-SPLIT-007", "split numerators overflow")
		}
		sum = next
	}
	if sum != pl.Denominator {
		return &Error{
			Class:       ClassArithmetic,
			RuleID:      "FB-SPLIT-004",
			Message:     fmt.Sprintf("databus: split numerators sum to %d, denominator is %d", sum, pl.Denominator),
			Sum:         sum,
			Denominator: pl.Denominator,
		}
	}

	src, err := st.Read(pl.SrcAddr, pl.SrcDir, int(pl.SrcIndex))
	if err != nil {
		return err
	}
	total := src.Big(word.KindUint256)
	denom := new(big.Int).SetUint64(pl.Denominator)
	allocated := new(big.Int)

	for i, r := range pl.Routes {
		var share *big.Int
		if i == len(pl.Routes)-1 {
			// The final route absorbs every unit floor division dropped.
			share = new(big.Int).Sub(total, allocated)
		} else {
			share = new(big.Int).Mul(total, new(big.Int).SetUint64(r.Numerator))
			share.Quo(share, denom)
			allocated.Add(allocated, share)
		}
		st.WriteAt(r.DstAddr, bus.DirInputs, int(r.DstIndex), word.FromBig(share))
	}
	return nil
}
