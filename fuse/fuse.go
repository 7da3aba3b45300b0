// Package fuse defines the pluggable execution module contract of the
// vault and the registry/board machinery that assembles modules for one
// vault instance.
package fuse

import (
	"context"
	"math/big"

	"github.com/plasmavault/fusebus/bus"
)

// Fuse is one pluggable execution module.
//
// Contract:
//   - Enter and Exit receive the orchestrator's transaction-scoped store
//     by reference; they never retain it past the call.
//   - payload is an opaque encoded argument structure specific to the
//     fuse; malformed payloads fail, they are never partially applied.
//   - On any error the store must look exactly as it did when the call
//     began (the enclosing execution is abandoned as a whole).
type Fuse interface {
	Enter(ctx context.Context, st *bus.Store, payload []byte) error
	Exit(ctx context.Context, st *bus.Store, payload []byte) error
}

// BalanceReporter is implemented by protocol fuses that hold assets.
// The vault sums reported balances into its single accounting value.
type BalanceReporter interface {
	Balance(ctx context.Context) (*big.Int, error)
}
