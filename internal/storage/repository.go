package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	ports "fintrack/internal/sheets"

	_ "modernc.org/sqlite"
)

// OpKind is the kind of write recorded in the ops log.
type OpKind string

const (
	OpAppend OpKind = "append"
	OpClear  OpKind = "clear"
)

// Sync states of a logged op.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

// ErrOpNotFound is returned by GetOp for an unknown id.
var ErrOpNotFound = errors.New("op not found")

// Op is one logged write, waiting to be replayed onto the remote workbook.
type Op struct {
	ID         int64
	Sheet      string
	Kind       OpKind
	Cells      []string
	SyncStatus string
	Attempts   int
	CreatedAt  time.Time
}

// Row returns the logged cells as an appendable row.
func (o Op) Row() []any {
	row := make([]any, len(o.Cells))
	for i, c := range o.Cells {
		row[i] = c
	}
	return row
}

// Workbook is a SQLite-backed sheets.Workbook. Every write is also logged in
// sheet_ops for mirroring.
type Workbook struct {
	db   *sql.DB
	path string
}

var _ ports.Workbook = (*Workbook)(nil)

// Open creates the database directory if needed, opens the database and
// runs migrations.
func Open(dbPath string) (*Workbook, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Workbook{db: db, path: dbPath}, nil
}

func (w *Workbook) Close() error {
	if w.db != nil {
		return w.db.Close()
	}
	return nil
}

func (w *Workbook) ID() string { return "sqlite:" + w.path }

// Values returns the rows of a table in insertion order.
func (w *Workbook) Values(ctx context.Context, table string) ([][]string, error) {
	rows, err := w.db.QueryContext(ctx,
		`SELECT cells FROM sheet_rows WHERE sheet = ? ORDER BY id`, table)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", table, err)
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}

func (w *Workbook) AppendRow(ctx context.Context, table string, row []any) error {
	_, err := w.AppendRowOp(ctx, table, row)
	return err
}

func (w *Workbook) Clear(ctx context.Context, table string) error {
	_, err := w.ClearOp(ctx, table)
	return err
}

// AppendRowOp appends a row and returns the id of the logged op.
func (w *Workbook) AppendRowOp(ctx context.Context, table string, row []any) (int64, error) {
	cells, err := json.Marshal(ports.RenderRow(row))
	if err != nil {
		return 0, fmt.Errorf("encode row: %w", err)
	}
	var id int64
	err = w.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sheet_rows (sheet, cells) VALUES (?, ?)`, table, string(cells)); err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
		id, err = logOp(ctx, tx, table, OpAppend, string(cells))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("append to %s: %w", table, err)
	}
	slog.DebugContext(ctx, "Row appended to SQLite", "sheet", table, "op_id", id)
	return id, nil
}

// ClearOp removes every row of a table and returns the id of the logged op.
func (w *Workbook) ClearOp(ctx context.Context, table string) (int64, error) {
	var id int64
	err := w.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sheet_rows WHERE sheet = ?`, table); err != nil {
			return fmt.Errorf("delete rows: %w", err)
		}
		var err error
		id, err = logOp(ctx, tx, table, OpClear, "[]")
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", table, err)
	}
	slog.DebugContext(ctx, "Table cleared in SQLite", "sheet", table, "op_id", id)
	return id, nil
}

func logOp(ctx context.Context, tx *sql.Tx, table string, kind OpKind, cells string) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO sheet_ops (sheet, op, cells) VALUES (?, ?, ?)`, table, string(kind), cells)
	if err != nil {
		return 0, fmt.Errorf("log op: %w", err)
	}
	return res.LastInsertId()
}

func (w *Workbook) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// GetOp loads one logged op.
func (w *Workbook) GetOp(ctx context.Context, id int64) (Op, error) {
	row := w.db.QueryRowContext(ctx,
		`SELECT id, sheet, op, cells, sync_status, attempts, created_at FROM sheet_ops WHERE id = ?`, id)
	op, err := scanOp(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Op{}, fmt.Errorf("op %d: %w", id, ErrOpNotFound)
	}
	return op, err
}

// PendingOps returns ops not yet replayed, oldest first. Ops in error state
// are retried too, since replay order matters more than skipping failures.
func (w *Workbook) PendingOps(ctx context.Context, limit int) ([]Op, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := w.db.QueryContext(ctx,
		`SELECT id, sheet, op, cells, sync_status, attempts, created_at
		   FROM sheet_ops WHERE sync_status != ? ORDER BY id LIMIT ?`, SyncSynced, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending ops: %w", err)
	}
	defer rows.Close()

	var out []Op
	for rows.Next() {
		op, err := scanOp(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, rows.Err()
}

// MarkSynced records a successful replay.
func (w *Workbook) MarkSynced(ctx context.Context, id int64) error {
	_, err := w.db.ExecContext(ctx,
		`UPDATE sheet_ops SET sync_status = ?, synced_at = CURRENT_TIMESTAMP WHERE id = ?`, SyncSynced, id)
	if err != nil {
		return fmt.Errorf("mark op %d synced: %w", id, err)
	}
	return nil
}

// MarkSyncError records a failed replay attempt.
func (w *Workbook) MarkSyncError(ctx context.Context, id int64) error {
	_, err := w.db.ExecContext(ctx,
		`UPDATE sheet_ops SET sync_status = ?, attempts = attempts + 1 WHERE id = ?`, SyncError, id)
	if err != nil {
		return fmt.Errorf("mark op %d error: %w", id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOp(s scanner) (Op, error) {
	var (
		op    Op
		kind  string
		cells string
	)
	if err := s.Scan(&op.ID, &op.Sheet, &kind, &cells, &op.SyncStatus, &op.Attempts, &op.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Op{}, err
		}
		return Op{}, fmt.Errorf("scan op: %w", err)
	}
	op.Kind = OpKind(kind)
	if err := json.Unmarshal([]byte(cells), &op.Cells); err != nil {
		return Op{}, fmt.Errorf("decode op %d cells: %w", op.ID, err)
	}
	return op, nil
}
