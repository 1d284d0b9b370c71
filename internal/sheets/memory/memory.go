package memory

import (
	"context"
	"sync"
	"sync/atomic"

	ports "fintrack/internal/sheets"
)

// Workbook is an in-process workbook used for local runs and tests.
type Workbook struct {
	id     string
	mu     sync.Mutex
	tables map[string][][]string

	reads  atomic.Int64
	writes atomic.Int64

	// ReadErr, when set, is returned by every Values call.
	ReadErr error
}

var _ ports.Workbook = (*Workbook)(nil)

func New(id string) *Workbook {
	if id == "" {
		id = "memory"
	}
	return &Workbook{id: id, tables: map[string][][]string{}}
}

// Seed replaces a table with the given values, header first.
func (w *Workbook) Seed(table string, values ...[]string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	cp := make([][]string, len(values))
	for i, r := range values {
		cp[i] = append([]string(nil), r...)
	}
	w.tables[table] = cp
}

func (w *Workbook) ID() string { return w.id }

func (w *Workbook) Values(_ context.Context, table string) ([][]string, error) {
	w.reads.Add(1)
	if w.ReadErr != nil {
		return nil, w.ReadErr
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	rows := w.tables[table]
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (w *Workbook) AppendRow(_ context.Context, table string, row []any) error {
	w.writes.Add(1)
	cells := ports.RenderRow(row)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tables[table] = append(w.tables[table], cells)
	return nil
}

func (w *Workbook) Clear(_ context.Context, table string) error {
	w.writes.Add(1)
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.tables, table)
	return nil
}

// Reads is the number of Values calls served so far.
func (w *Workbook) Reads() int64 { return w.reads.Load() }

// Writes is the number of AppendRow and Clear calls served so far.
func (w *Workbook) Writes() int64 { return w.writes.Load() }
