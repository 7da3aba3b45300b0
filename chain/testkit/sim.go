// Package testkit provides a deterministic in-memory chain and a
// conformance suite every Caller implementation must pass.
package testkit

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/plasmavault/fusebus/chain"
	"github.com/plasmavault/fusebus/word"
)

// Handler answers one simulated contract's read-only calls.
type Handler func(payload []byte) ([]byte, error)

// Sim is an in-memory chain.Caller backed by per-address handlers.
// It is offline and deterministic: no network, no clock.
type Sim struct {
	handlers map[word.Address]Handler
}

func NewSim() *Sim {
	return &Sim{handlers: make(map[word.Address]Handler)}
}

// Install registers a handler at target, replacing any prior one.
func (s *Sim) Install(target word.Address, h Handler) {
	s.handlers[target] = h
}

// InstallWords registers a handler returning the given 32-byte words
// concatenated, regardless of the call payload.
func (s *Sim) InstallWords(target word.Address, words ...word.Value) {
	resp := make([]byte, 0, len(words)*word.ValueSize)
	for _, w := range words {
		resp = append(resp, w[:]...)
	}
	s.Install(target, func([]byte) ([]byte, error) {
		return append([]byte(nil), resp...), nil
	})
}

func (s *Sim) Call(ctx context.Context, target word.Address, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, ok := s.handlers[target]
	if !ok {
		return nil, chain.ErrNoContract
	}
	return h(payload)
}

// NewCaller builds the Caller under test on top of a fixture backend.
// Implementations that proxy (such as the grpc adapter) wrap backend;
// the in-memory Sim returns it unchanged.
type NewCaller func(t *testing.T, backend chain.Caller) chain.Caller

// RunCallerConformance exercises the chain.Caller contract against a
// standard fixture set.
func RunCallerConformance(t *testing.T, newCaller NewCaller) {
	t.Helper()

	fixture := func() *Sim {
		sim := NewSim()
		sim.InstallWords(fixtureAddr(1), word.FromUint64(100), word.FromUint64(200), word.FromUint64(300))
		sim.Install(fixtureAddr(2), func(payload []byte) ([]byte, error) {
			// Echo target: the response is the request payload.
			return append([]byte(nil), payload...), nil
		})
		sim.Install(fixtureAddr(3), func([]byte) ([]byte, error) {
			return nil, fmt.Errorf("%w: fixture always reverts", chain.ErrCallFailed)
		})
		return sim
	}

	t.Run("ReturnsWords", func(t *testing.T) {
		c := newCaller(t, fixture())
		resp, err := c.Call(context.Background(), fixtureAddr(1), []byte{0x01})
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		if len(resp) != 3*word.ValueSize {
			t.Fatalf("response length %d", len(resp))
		}
		third := resp[2*word.ValueSize:]
		if !bytes.Equal(third, word.FromUint64(300).Bytes()) {
			t.Fatalf("third word mismatch")
		}
	})

	t.Run("EchoesPayload", func(t *testing.T) {
		c := newCaller(t, fixture())
		payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
		resp, err := c.Call(context.Background(), fixtureAddr(2), payload)
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		if !bytes.Equal(resp, payload) {
			t.Fatalf("echo mismatch: %x", resp)
		}
	})

	t.Run("MissingTarget", func(t *testing.T) {
		c := newCaller(t, fixture())
		_, err := c.Call(context.Background(), fixtureAddr(9), nil)
		if !chain.IsNoContract(err) {
			t.Fatalf("expected ErrNoContract, got %v", err)
		}
	})

	t.Run("RevertSurfaces", func(t *testing.T) {
		c := newCaller(t, fixture())
		_, err := c.Call(context.Background(), fixtureAddr(3), nil)
		if err == nil {
			t.Fatalf("expected an error from the reverting fixture")
		}
	})
}

func fixtureAddr(b byte) word.Address {
	var a word.Address
	a[word.AddressSize-1] = b
	return a
}
