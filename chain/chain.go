// Package chain defines the read-only external call boundary used by the
// chain-reader fuse.
package chain

import (
	"context"
	"errors"

	"github.com/plasmavault/fusebus/word"
)

// Caller performs a read-only call against an external target.
//
// Contract:
//   - Call MUST NOT mutate any state observable through later calls.
//   - Call returns the complete response or an error; there is no
//     partial-response surface.
//   - Call MUST return ErrNoContract when nothing answers at target.
type Caller interface {
	Call(ctx context.Context, target word.Address, payload []byte) ([]byte, error)
}

var (
	ErrNoContract = errors.New("chain: no contract at target")
	ErrCallFailed = errors.New("chain: call reverted")
)

// IsNoContract reports whether err means the target does not exist.
func IsNoContract(err error) bool { return errors.Is(err, ErrNoContract) }
