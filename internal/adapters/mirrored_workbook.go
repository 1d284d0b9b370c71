package adapters

import (
	"context"

	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// OpPublisher announces a logged op to the mirror worker. *amqp.Client
// implements it.
type OpPublisher interface {
	PublishSheetOp(ctx context.Context, id int64, sheet, op string) error
}

// MirroredWorkbook is a sheets.Workbook that writes to the local SQLite
// workbook and publishes every logged op for replay onto Google Sheets.
// Reads are served locally. A failed publish does not fail the write: the op
// stays pending and the worker's poll loop picks it up.
type MirroredWorkbook struct {
	*storage.Workbook
	publisher OpPublisher
	logger    *log.Logger
}

func NewMirroredWorkbook(local *storage.Workbook, publisher OpPublisher, logger *log.Logger) *MirroredWorkbook {
	if logger == nil {
		logger = log.Default(log.ComponentMirror)
	}
	return &MirroredWorkbook{Workbook: local, publisher: publisher, logger: logger}
}

// AppendRow implements sheets.Workbook
func (m *MirroredWorkbook) AppendRow(ctx context.Context, table string, row []any) error {
	id, err := m.Workbook.AppendRowOp(ctx, table, row)
	if err != nil {
		return err
	}
	m.publish(ctx, id, table, storage.OpAppend)
	return nil
}

// Clear implements sheets.Workbook
func (m *MirroredWorkbook) Clear(ctx context.Context, table string) error {
	id, err := m.Workbook.ClearOp(ctx, table)
	if err != nil {
		return err
	}
	m.publish(ctx, id, table, storage.OpClear)
	return nil
}

func (m *MirroredWorkbook) publish(ctx context.Context, id int64, table string, kind storage.OpKind) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.PublishSheetOp(ctx, id, table, string(kind)); err != nil {
		m.logger.WarnContext(ctx, "Failed to publish sheet op, left pending for the poll loop",
			log.FieldOpID, id,
			log.FieldSheet, table,
			log.FieldError, err)
	}
}
