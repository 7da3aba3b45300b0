package model

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/plasmavault/fusebus/databus"
	"github.com/plasmavault/fusebus/plan"
	"github.com/plasmavault/fusebus/receipt"
	"github.com/plasmavault/fusebus/receipt/archive"
	"github.com/plasmavault/fusebus/word"
)

func testPlan(t *testing.T) []byte {
	t.Helper()
	loader := "0x0100000000000000000000000000000000000000"
	target, err := word.ParseAddress("0x0200000000000000000000000000000000000000")
	if err != nil {
		t.Fatalf("parse address: %v", err)
	}
	pl := databus.LoadPayload{Entries: []databus.LoadEntry{
		{Addr: target, Values: []word.Value{word.FromUint64(500)}},
	}}
	return []byte(strings.Join([]string{
		plan.Preamble,
		"META",
		"Name: load-only",
		"",
		"BOARD",
		"Fuse: loader " + loader,
		"",
		"ACTIONS",
		"Action: enter " + loader + " 0x" + hex.EncodeToString(pl.Encode()),
		plan.Postamble,
		"",
	}, "\n"))
}

func TestRunPlan(t *testing.T) {
	store := archive.NewMemory()
	report, err := RunPlan(context.Background(), testPlan(t), RunOptions{Archive: store})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if report.Plan != "load-only" {
		t.Fatalf("plan name = %q", report.Plan)
	}
	if len(report.Actions) != 1 || report.Actions[0].Method != "enter" {
		t.Fatalf("unexpected actions: %+v", report.Actions)
	}
	if len(report.Store) != 1 {
		t.Fatalf("expected one store entry, got %+v", report.Store)
	}
	e := report.Store[0]
	if e.Fuse != "0x0200000000000000000000000000000000000000" || e.Direction != "inputs" || e.Index != 0 {
		t.Fatalf("unexpected store entry: %+v", e)
	}

	if report.Receipt.CID == "" || report.Receipt.Signed {
		t.Fatalf("unexpected receipt projection: %+v", report.Receipt)
	}
	if report.ArchivedCID != report.Receipt.CID {
		t.Fatalf("archived CID %q != receipt CID %q", report.ArchivedCID, report.Receipt.CID)
	}

	// The archived bytes must verify as a canonical receipt.
	id, err := receipt.ContentID(report.Receipt.Bytes)
	if err != nil {
		t.Fatalf("content id: %v", err)
	}
	got, err := store.Get(id)
	if err != nil {
		t.Fatalf("archive get: %v", err)
	}
	if _, err := receipt.Canonicalize(got); err != nil {
		t.Fatalf("archived receipt not canonical: %v", err)
	}
}

func TestRunPlanErrorCodes(t *testing.T) {
	cases := []struct {
		name string
		plan []byte
		code ErrorCode
	}{
		{"invalid plan", []byte("not a plan"), ErrInvalidPlan},
		{"unknown fuse", []byte(strings.Join([]string{
			plan.Preamble,
			"META",
			"",
			"BOARD",
			"Fuse: no-such-fuse 0x0100000000000000000000000000000000000000",
			"",
			"ACTIONS",
			plan.Postamble,
			"",
		}, "\n")), ErrUnknownFuse},
		{"execution failure", []byte(strings.Join([]string{
			plan.Preamble,
			"META",
			"",
			"BOARD",
			"Fuse: loader 0x0100000000000000000000000000000000000000",
			"",
			"ACTIONS",
			"Action: enter 0x0100000000000000000000000000000000000000 0xff",
			plan.Postamble,
			"",
		}, "\n")), ErrExecutionFailed},
	}
	for _, tc := range cases {
		_, err := RunPlan(context.Background(), tc.plan, RunOptions{})
		var coded *CodedError
		if !errors.As(err, &coded) {
			t.Fatalf("%s: expected CodedError, got %v", tc.name, err)
		}
		if coded.Code != tc.code {
			t.Fatalf("%s: code = %s, want %s", tc.name, coded.Code, tc.code)
		}
	}
}
