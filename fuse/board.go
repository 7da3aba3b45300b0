package fuse

import (
	"fmt"

	"github.com/plasmavault/fusebus/word"
)

// Board is the set of fuses mounted on one vault, keyed by module
// address. Mount order is preserved and is the deterministic iteration
// order for balance aggregation.
type Board struct {
	order  []word.Address
	byAddr map[word.Address]Fuse
}

func NewBoard() *Board {
	return &Board{byAddr: make(map[word.Address]Fuse)}
}

// Mount attaches f at addr. The zero address and double mounts are
// rejected.
func (b *Board) Mount(addr word.Address, f Fuse) error {
	if addr.IsZero() {
		return fmt.Errorf("fuse: cannot mount at the zero address")
	}
	if f == nil {
		return fmt.Errorf("fuse: cannot mount a nil fuse at %s", addr)
	}
	if _, exists := b.byAddr[addr]; exists {
		return fmt.Errorf("fuse: address %s already mounted", addr)
	}
	b.byAddr[addr] = f
	b.order = append(b.order, addr)
	return nil
}

// Lookup returns the fuse mounted at addr.
func (b *Board) Lookup(addr word.Address) (Fuse, bool) {
	f, ok := b.byAddr[addr]
	return f, ok
}

// Addresses returns the mounted addresses in mount order.
func (b *Board) Addresses() []word.Address {
	return append([]word.Address(nil), b.order...)
}

// Len returns the number of mounted fuses.
func (b *Board) Len() int {
	return len(b.order)
}
