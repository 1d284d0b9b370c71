package adapters

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

type published struct {
	id        int64
	sheet, op string
}

type fakePublisher struct {
	calls []published
	err   error
}

func (f *fakePublisher) PublishSheetOp(_ context.Context, id int64, sheet, op string) error {
	f.calls = append(f.calls, published{id, sheet, op})
	return f.err
}

func openLocal(t *testing.T) *storage.Workbook {
	t.Helper()
	wb, err := storage.Open(filepath.Join(t.TempDir(), "mirror.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { wb.Close() })
	return wb
}

func TestMirroredWorkbookPublishesOps(t *testing.T) {
	ctx := context.Background()
	local := openLocal(t)
	pub := &fakePublisher{}
	var wb sheets.Workbook = NewMirroredWorkbook(local, pub, nil)

	if err := wb.Clear(ctx, "Rates"); err != nil {
		t.Fatal(err)
	}
	if err := wb.AppendRow(ctx, "Rates", []any{"date", "eur_bdt_rate"}); err != nil {
		t.Fatal(err)
	}
	if err := wb.AppendRow(ctx, "Rates", []any{"2026-02-07", 121.5}); err != nil {
		t.Fatal(err)
	}

	if len(pub.calls) != 3 {
		t.Fatalf("expected 3 publishes, got %+v", pub.calls)
	}
	if pub.calls[0].op != "clear" || pub.calls[2].op != "append" || pub.calls[2].sheet != "Rates" {
		t.Fatalf("unexpected publishes %+v", pub.calls)
	}
	op, err := local.GetOp(ctx, pub.calls[2].id)
	if err != nil {
		t.Fatal(err)
	}
	if op.Cells[1] != "121.5" {
		t.Fatalf("logged cells = %v", op.Cells)
	}

	vals, err := wb.Values(ctx, "Rates")
	if err != nil || len(vals) != 2 || vals[1][0] != "2026-02-07" {
		t.Fatalf("Values = %v, %v", vals, err)
	}
}

func TestMirroredWorkbookPublishFailureKeepsWrite(t *testing.T) {
	ctx := context.Background()
	local := openLocal(t)
	wb := NewMirroredWorkbook(local, &fakePublisher{err: errors.New("connection refused")}, nil)

	if err := wb.AppendRow(ctx, "Transactions", []any{"TX-1"}); err != nil {
		t.Fatalf("publish failure must not fail the write: %v", err)
	}
	pending, err := local.PendingOps(ctx, 10)
	if err != nil || len(pending) != 1 || pending[0].SyncStatus != storage.SyncPending {
		t.Fatalf("PendingOps = %+v, %v", pending, err)
	}
}

func TestMirroredWorkbookWithoutPublisher(t *testing.T) {
	wb := NewMirroredWorkbook(openLocal(t), nil, nil)
	if err := wb.AppendRow(context.Background(), "Transactions", []any{"TX-1"}); err != nil {
		t.Fatal(err)
	}
}
