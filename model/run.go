package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"go.uber.org/zap"

	"github.com/plasmavault/fusebus/chain"
	"github.com/plasmavault/fusebus/fuse"
	"github.com/plasmavault/fusebus/plan"
	"github.com/plasmavault/fusebus/receipt"
	"github.com/plasmavault/fusebus/receipt/archive"
	"github.com/plasmavault/fusebus/vault"
)

type RunOptions struct {
	// Caller backs chain-reading fuses. Optional; plans that mount no
	// chain-reading fuse run without one.
	Caller chain.Caller

	// Archive, when set, receives the canonical receipt bytes.
	Archive archive.Archive

	ReceiptOptions receipt.RenderOptions

	Logger *zap.Logger

	// TotalAssets asks the board for its aggregate balance after the
	// run and projects it into the report.
	TotalAssets bool
}

// RunPlan parses, builds and executes a plan, renders its receipt and
// returns the JSON-ready report. Errors are CodedErrors.
func RunPlan(ctx context.Context, planBytes []byte, opts RunOptions) (*ExecutionReport, error) {
	p, err := plan.Parse(planBytes)
	if err != nil {
		return nil, NewError(ErrInvalidPlan, err.Error())
	}

	board, actions, err := p.Build(fuse.Env{Caller: opts.Caller})
	if err != nil {
		return nil, NewError(ErrUnknownFuse, err.Error())
	}

	var execOpts []vault.Option
	if opts.Logger != nil {
		execOpts = append(execOpts, vault.WithLogger(opts.Logger))
	}
	exec := vault.NewExecutor(board, execOpts...)

	out, err := exec.Execute(ctx, actions)
	if err != nil {
		return nil, NewError(ErrExecutionFailed, err.Error())
	}

	doc, err := receipt.RenderDocument(out, opts.ReceiptOptions)
	if err != nil {
		return nil, NewError(ErrInvalidReceipt, err.Error())
	}

	report := &ExecutionReport{
		Plan:    p.Meta["Name"],
		Actions: actionSummaries(out.Actions),
		Store:   storeEntries(out),
		Receipt: ReceiptDocument{
			Bytes:  doc.Bytes,
			CID:    doc.CID,
			Signed: opts.ReceiptOptions.SignerKey != "",
		},
	}

	if opts.Archive != nil {
		id, err := opts.Archive.Put(doc.Bytes)
		if err != nil {
			return nil, NewError(ErrArchiveFailed, err.Error())
		}
		report.ArchivedCID = id.String()
	}

	if opts.TotalAssets {
		total, err := exec.TotalAssets(ctx)
		if err != nil {
			return nil, NewError(ErrExecutionFailed, err.Error())
		}
		report.TotalAssets = total.String()
	}
	return report, nil
}

func actionSummaries(actions []vault.Action) []ActionSummary {
	out := make([]ActionSummary, 0, len(actions))
	for i, a := range actions {
		digest := sha256.Sum256(a.Payload)
		out = append(out, ActionSummary{
			Index:         i,
			Method:        a.Method.String(),
			Fuse:          a.Fuse.String(),
			PayloadSHA256: hex.EncodeToString(digest[:]),
		})
	}
	return out
}

func storeEntries(out *vault.Outcome) []StoreEntry {
	entries := out.Store.Entries()
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Addr != entries[j].Addr {
			return entries[i].Addr.String() < entries[j].Addr.String()
		}
		return entries[i].Dir < entries[j].Dir
	})
	var flat []StoreEntry
	for _, e := range entries {
		for i, v := range e.Values {
			flat = append(flat, StoreEntry{
				Fuse:      e.Addr.String(),
				Direction: e.Dir.String(),
				Index:     i,
				Value:     v.String(),
			})
		}
	}
	return flat
}
