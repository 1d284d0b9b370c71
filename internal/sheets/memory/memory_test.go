package memory

import (
	"context"
	"errors"
	"testing"

	ports "fintrack/internal/sheets"
)

func TestWorkbookAppendAndValues(t *testing.T) {
	ctx := context.Background()
	w := New("")
	if w.ID() != "memory" {
		t.Fatalf("unexpected id %q", w.ID())
	}
	if err := w.AppendRow(ctx, ports.RatesSheet, ports.Headers(ports.RatesHeaders)); err != nil {
		t.Fatal(err)
	}
	if err := w.AppendRow(ctx, ports.RatesSheet, []any{"2026-02-07", 119.5}); err != nil {
		t.Fatal(err)
	}
	vals, err := w.Values(ctx, ports.RatesSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(vals) != 2 || vals[1][0] != "2026-02-07" || vals[1][1] != "119.5" {
		t.Fatalf("unexpected values %v", vals)
	}
	if w.Reads() != 1 || w.Writes() != 2 {
		t.Fatalf("reads=%d writes=%d", w.Reads(), w.Writes())
	}

	// mutating the returned slice must not leak into the workbook
	vals[1][1] = "0"
	again, _ := w.Values(ctx, ports.RatesSheet)
	if again[1][1] != "119.5" {
		t.Fatalf("values aliased internal state")
	}
}

func TestWorkbookClearAndReadErr(t *testing.T) {
	ctx := context.Background()
	w := New("wb")
	w.Seed("T", []string{"a"}, []string{"1"})
	if err := w.Clear(ctx, "T"); err != nil {
		t.Fatal(err)
	}
	vals, _ := w.Values(ctx, "T")
	if len(vals) != 0 {
		t.Fatalf("expected empty table, got %v", vals)
	}
	boom := errors.New("boom")
	w.ReadErr = boom
	if _, err := w.Values(ctx, "T"); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
