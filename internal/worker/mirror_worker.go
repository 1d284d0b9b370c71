package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// OpLog is the local ops log replayed by the worker. *storage.Workbook
// implements it.
type OpLog interface {
	GetOp(ctx context.Context, id int64) (storage.Op, error)
	PendingOps(ctx context.Context, limit int) ([]storage.Op, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// MirrorConfig holds configuration for the mirror worker
type MirrorConfig struct {
	// PollInterval is how often pending ops are replayed without a message (default: 30s)
	PollInterval time.Duration

	// BatchSize is the max number of ops replayed per pass (default: 50)
	BatchSize int
}

func DefaultMirrorConfig() MirrorConfig {
	return MirrorConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    50,
	}
}

// MirrorWorker replays ops logged by the local SQLite workbook onto the
// remote workbook, strictly in op id order. A failed op stops the pass so
// later ops are never applied before it.
type MirrorWorker struct {
	ops    OpLog
	remote sheets.Workbook
	config MirrorConfig
	logger *log.Logger

	// serialises replay passes between the consumer and the poll loop
	replayMu sync.Mutex

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewMirrorWorker(ops OpLog, remote sheets.Workbook, config MirrorConfig, logger *log.Logger) *MirrorWorker {
	def := DefaultMirrorConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &MirrorWorker{ops: ops, remote: remote, config: config, logger: logger}
}

// HandleMessage processes one sheet op message from AMQP. Older pending ops
// are replayed first; an already synced op is acknowledged without work, so
// redelivery is harmless.
func (w *MirrorWorker) HandleMessage(ctx context.Context, msg *amqp.SheetOpMessage) error {
	op, err := w.ops.GetOp(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get op from storage: %w", err)
	}
	if op.SyncStatus == storage.SyncSynced {
		w.logger.DebugContext(ctx, "Op already synced", log.FieldOpID, op.ID)
		return nil
	}

	if _, err := w.ProcessPending(ctx); err != nil {
		return err
	}

	op, err = w.ops.GetOp(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get op from storage: %w", err)
	}
	if op.SyncStatus != storage.SyncSynced {
		return fmt.Errorf("op %d still %s after replay", op.ID, op.SyncStatus)
	}
	return nil
}

// ProcessPending replays pending ops in batches until none are left or one
// fails. It returns the number of ops replayed.
func (w *MirrorWorker) ProcessPending(ctx context.Context) (int, error) {
	w.replayMu.Lock()
	defer w.replayMu.Unlock()

	total := 0
	for {
		ops, err := w.ops.PendingOps(ctx, w.config.BatchSize)
		if err != nil {
			return total, fmt.Errorf("get pending ops: %w", err)
		}
		if len(ops) == 0 {
			return total, nil
		}
		for _, op := range ops {
			if err := ctx.Err(); err != nil {
				return total, err
			}
			if err := w.replay(ctx, op); err != nil {
				return total, err
			}
			total++
		}
		if len(ops) < w.config.BatchSize {
			return total, nil
		}
	}
}

func (w *MirrorWorker) replay(ctx context.Context, op storage.Op) error {
	var err error
	switch op.Kind {
	case storage.OpAppend:
		err = w.remote.AppendRow(ctx, op.Sheet, op.Row())
	case storage.OpClear:
		err = w.remote.Clear(ctx, op.Sheet)
	default:
		err = fmt.Errorf("unknown op kind %q", op.Kind)
	}
	if err != nil {
		if markErr := w.ops.MarkSyncError(ctx, op.ID); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark sync error", log.FieldOpID, op.ID, log.FieldError, markErr)
		}
		w.logger.WarnContext(ctx, "Replay failed",
			log.FieldOpID, op.ID,
			log.FieldSheet, op.Sheet,
			"attempt", op.Attempts+1,
			log.FieldError, err)
		return fmt.Errorf("replay op %d (%s %s): %w", op.ID, op.Kind, op.Sheet, err)
	}

	if err := w.ops.MarkSynced(ctx, op.ID); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mark as synced", log.FieldOpID, op.ID, log.FieldError, err)
		return err
	}
	w.logger.InfoContext(ctx, "Replayed op",
		log.FieldOpID, op.ID,
		log.FieldSheet, op.Sheet,
		log.FieldOperation, string(op.Kind))
	return nil
}

// Start runs the poll loop in the background. Returns an error if already running.
func (w *MirrorWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("mirror worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	w.logger.InfoContext(ctx, "Mirror worker started",
		"poll_interval", w.config.PollInterval,
		"batch_size", w.config.BatchSize)
	return nil
}

// Stop stops the poll loop and waits for the current pass.
func (w *MirrorWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
		w.logger.InfoContext(ctx, "Mirror worker stopped gracefully")
		return nil
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Mirror worker stop timed out")
		return ctx.Err()
	}
}

func (w *MirrorWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *MirrorWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// catch up on ops logged while the worker was down
	w.pass(ctx, "startup")

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pass(ctx, "poll")
		}
	}
}

func (w *MirrorWorker) pass(ctx context.Context, trigger string) {
	n, err := w.ProcessPending(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Replay pass stopped", "trigger", trigger, "replayed", n, log.FieldError, err)
		return
	}
	if n > 0 {
		w.logger.InfoContext(ctx, "Replay pass completed", "trigger", trigger, "replayed", n)
	}
}
