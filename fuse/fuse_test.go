package fuse

import (
	"context"
	"testing"

	"github.com/plasmavault/fusebus/bus"
	"github.com/plasmavault/fusebus/word"
)

type nopFuse struct{ self word.Address }

func (nopFuse) Enter(ctx context.Context, st *bus.Store, payload []byte) error { return nil }
func (nopFuse) Exit(ctx context.Context, st *bus.Store, payload []byte) error  { return nil }

func TestRegistry(t *testing.T) {
	if err := Register(Definition{Name: ""}); err == nil {
		t.Fatalf("expected rejection of empty name")
	}
	if err := Register(Definition{Name: "test-nop"}); err == nil {
		t.Fatalf("expected rejection of missing New")
	}

	def := Definition{
		Name: "test-nop",
		New: func(self word.Address, env Env) (Fuse, error) {
			return nopFuse{self: self}, nil
		},
	}
	if err := Register(def); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := Register(def); err == nil {
		t.Fatalf("expected rejection of duplicate name")
	}

	f, err := New("test-nop", word.Address{0x01}, Env{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := f.(nopFuse); !ok {
		t.Fatalf("unexpected fuse type %T", f)
	}

	if _, err := New("never-registered", word.Address{0x01}, Env{}); err == nil {
		t.Fatalf("expected error for unknown definition")
	}

	names := List()
	found := false
	for _, d := range names {
		if d.Name == "test-nop" {
			found = true
		}
	}
	if !found {
		t.Fatalf("List() missing registered definition")
	}
}

func TestBoardMount(t *testing.T) {
	b := NewBoard()
	a1 := word.Address{0x01}
	a2 := word.Address{0x02}

	if err := b.Mount(word.Address{}, nopFuse{}); err == nil {
		t.Fatalf("expected rejection of zero address")
	}
	if err := b.Mount(a1, nil); err == nil {
		t.Fatalf("expected rejection of nil fuse")
	}

	if err := b.Mount(a1, nopFuse{self: a1}); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if err := b.Mount(a1, nopFuse{self: a1}); err == nil {
		t.Fatalf("expected rejection of double mount")
	}
	if err := b.Mount(a2, nopFuse{self: a2}); err != nil {
		t.Fatalf("mount: %v", err)
	}

	if _, ok := b.Lookup(a1); !ok {
		t.Fatalf("Lookup(a1) failed")
	}
	if _, ok := b.Lookup(word.Address{0x99}); ok {
		t.Fatalf("Lookup of unmounted address succeeded")
	}

	addrs := b.Addresses()
	if len(addrs) != 2 || addrs[0] != a1 || addrs[1] != a2 {
		t.Fatalf("Addresses() = %v, want mount order [a1 a2]", addrs)
	}
	if b.Len() != 2 {
		t.Fatalf("Len() = %d", b.Len())
	}
}
