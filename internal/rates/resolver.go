package rates

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"

	"golang.org/x/sync/singleflight"
)

// Store persists locked rates. ledger.Ledger implements it.
type Store interface {
	LookupRate(ctx context.Context, date core.Date) (float64, bool, error)
	SaveRate(ctx context.Context, date core.Date, rate float64) error
}

// Fetcher fetches a fresh rate. *Chain implements it.
type Fetcher interface {
	Fetch(ctx context.Context, date core.Date) (float64, string, error)
}

// Resolver returns the locked rate for a date, fetching and locking it on
// first use.
type Resolver struct {
	store   Store
	fetcher Fetcher
	group   singleflight.Group
	logger  *log.StructuredLogger
	base    *log.Logger
	timeout time.Duration
}

// resolveTimeout bounds one resolution: both providers at their client
// timeout plus the store round trips.
const resolveTimeout = 2*DefaultTimeout + 10*time.Second

func NewResolver(store Store, fetcher Fetcher, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default(log.ComponentRates)
	}
	return &Resolver{
		store:   store,
		fetcher: fetcher,
		logger:  log.NewStructuredLogger(logger),
		base:    logger,
		timeout: resolveTimeout,
	}
}

// Resolve returns a positive rate for date. A stored rate always wins; only
// when none exists are the providers asked, and the result is written back
// so later calls for the same date return it unchanged. Calls for the same
// date within this process are collapsed into one.
func (r *Resolver) Resolve(ctx context.Context, date core.Date) (float64, error) {
	if err := date.Validate(); err != nil {
		return 0, err
	}
	// The shared resolution outlives any single caller; each caller stops
	// waiting when its own context ends.
	ch := r.group.DoChan(date.String(), func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.resolve(rctx, date)
	})
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(float64), nil
	}
}

func (r *Resolver) resolve(ctx context.Context, date core.Date) (float64, error) {
	rate, ok, err := r.store.LookupRate(ctx, date)
	if err != nil {
		r.base.WarnContext(ctx, "Rate lookup failed, fetching from providers",
			log.FieldRateDate, date.String(), log.FieldError, err)
	} else if ok && rate > 0 {
		return rate, nil
	}

	start := time.Now()
	rate, provider, err := r.fetcher.Fetch(ctx, date)
	if err != nil {
		r.base.ErrorContext(ctx, "Exchange rate unavailable",
			log.FieldRateDate, date.String(), log.FieldError, err,
			log.FieldDuration, time.Since(start).Milliseconds())
		return 0, err
	}

	if err := r.store.SaveRate(ctx, date, rate); err != nil {
		return 0, fmt.Errorf("lock rate for %s: %w", date, err)
	}
	r.logger.LogRateLocked(ctx, date.String(), rate, provider)
	return rate, nil
}
