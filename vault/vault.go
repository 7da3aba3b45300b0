// Package vault implements the execution orchestrator: it runs a plan
// of fuse actions against one fresh transaction-scoped store and
// aggregates reported balances into the vault's single accounting value.
package vault

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/plasmavault/fusebus/bus"
	"github.com/plasmavault/fusebus/fuse"
	"github.com/plasmavault/fusebus/word"
)

// Method selects a fuse entry point.
type Method uint8

const (
	MethodEnter Method = iota
	MethodExit
)

func (m Method) String() string {
	switch m {
	case MethodEnter:
		return "enter"
	case MethodExit:
		return "exit"
	default:
		return fmt.Sprintf("method(%d)", uint8(m))
	}
}

// ParseMethod decodes the textual method tags used by plan files.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "enter":
		return MethodEnter, nil
	case "exit":
		return MethodExit, nil
	default:
		return 0, fmt.Errorf("vault: unknown method %q", s)
	}
}

// Action invokes one mounted fuse with an opaque payload.
type Action struct {
	Fuse    word.Address
	Method  Method
	Payload []byte
}

// Outcome is the result of one successful execution. The store it
// carries is the execution's final state, surfaced for receipts; it is
// dead weight afterwards and must not feed a later execution.
type Outcome struct {
	Actions []Action
	Store   *bus.Store
}

// Executor runs plans against a board of mounted fuses.
type Executor struct {
	board *fuse.Board
	log   *zap.Logger
}

type Option func(*Executor)

// WithLogger attaches a structured logger. The default is a no-op.
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.log = l
		}
	}
}

func NewExecutor(board *fuse.Board, opts ...Option) *Executor {
	e := &Executor{board: board, log: zap.NewNop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Execute runs every action strictly in order within one fresh store.
// The first failure abandons the whole execution: no store state and no
// outcome survive it.
func (e *Executor) Execute(ctx context.Context, plan []Action) (*Outcome, error) {
	st := bus.NewStore()

	for i, a := range plan {
		f, ok := e.board.Lookup(a.Fuse)
		if !ok {
			return nil, fmt.Errorf("vault: action %d names unmounted fuse %s", i, a.Fuse)
		}
		e.log.Debug("executing action",
			zap.Int("index", i),
			zap.String("fuse", a.Fuse.String()),
			zap.String("method", a.Method.String()),
			zap.Int("payload_bytes", len(a.Payload)),
		)

		var err error
		switch a.Method {
		case MethodEnter:
			err = f.Enter(ctx, st, a.Payload)
		case MethodExit:
			err = f.Exit(ctx, st, a.Payload)
		default:
			err = fmt.Errorf("vault: action %d has unknown method tag %d", i, uint8(a.Method))
		}
		if err != nil {
			e.log.Debug("execution abandoned",
				zap.Int("index", i),
				zap.String("fuse", a.Fuse.String()),
				zap.Error(err),
			)
			return nil, fmt.Errorf("vault: action %d (%s %s): %w", i, a.Method, a.Fuse, err)
		}
	}

	return &Outcome{Actions: plan, Store: st}, nil
}

// TotalAssets sums every balance-reporting fuse's holding into the
// vault's single accounting value. Iteration follows mount order, so
// the aggregation is deterministic.
func (e *Executor) TotalAssets(ctx context.Context) (*big.Int, error) {
	total := new(big.Int)
	for _, addr := range e.board.Addresses() {
		f, _ := e.board.Lookup(addr)
		br, ok := f.(fuse.BalanceReporter)
		if !ok {
			continue
		}
		b, err := br.Balance(ctx)
		if err != nil {
			return nil, fmt.Errorf("vault: balance of %s: %w", addr, err)
		}
		total.Add(total, b)
	}
	return total, nil
}
