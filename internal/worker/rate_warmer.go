package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// DefaultWarmSchedule locks today's rate shortly after midnight.
const DefaultWarmSchedule = "30 0 * * *"

// RateResolver locks the rate for a date. *rates.Resolver implements it.
type RateResolver interface {
	Resolve(ctx context.Context, date core.Date) (float64, error)
}

// RateWarmer resolves today's rate on a cron schedule so that the first
// entry of the day does not wait on the providers.
type RateWarmer struct {
	resolver RateResolver
	now      func() time.Time
	logger   *log.Logger
	cron     *cron.Cron
	timeout  time.Duration
}

// NewRateWarmer validates schedule (standard 5-field cron syntax or
// descriptors such as @daily).
func NewRateWarmer(resolver RateResolver, schedule string, now func() time.Time, logger *log.Logger) (*RateWarmer, error) {
	if schedule == "" {
		schedule = DefaultWarmSchedule
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	w := &RateWarmer{
		resolver: resolver,
		now:      now,
		logger:   logger,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout:  time.Minute,
	}
	if _, err := w.cron.AddFunc(schedule, w.run); err != nil {
		return nil, fmt.Errorf("invalid rate warm schedule %q: %w", schedule, err)
	}
	return w, nil
}

// Warm resolves the rate for the current local day.
func (w *RateWarmer) Warm(ctx context.Context) (float64, error) {
	today := core.DateOf(w.now())
	rate, err := w.resolver.Resolve(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("warm rate for %s: %w", today, err)
	}
	w.logger.InfoContext(ctx, "Rate warmed", log.FieldRateDate, today.String(), log.FieldRate, rate)
	return rate, nil
}

func (w *RateWarmer) run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if _, err := w.Warm(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Scheduled rate warm failed", log.FieldError, err)
	}
}

// Start begins the schedule.
func (w *RateWarmer) Start() {
	w.cron.Start()
	w.logger.Info("Rate warmer scheduled", "entries", len(w.cron.Entries()))
}

// Stop halts the schedule and returns a context done when a running job ends.
func (w *RateWarmer) Stop() context.Context {
	return w.cron.Stop()
}

// Next returns the next scheduled run, or the zero time when not started.
func (w *RateWarmer) Next() time.Time {
	entries := w.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
