// Package store is the cached access layer over a workbook. Reads are served
// from TTL caches keyed by workbook and table; every write clears all caches
// so the next read sees it.
package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/log"
	"fintrack/internal/sheets"

	"golang.org/x/sync/singleflight"
)

// Default TTLs.
const (
	DefaultDataTTL   = 15 * time.Second
	DefaultHeaderTTL = 120 * time.Second
	DefaultRateTTL   = 5 * time.Minute
)

// Options tune cache lifetimes. Zero values fall back to the defaults.
type Options struct {
	DataTTL   time.Duration
	HeaderTTL time.Duration
	RateTTL   time.Duration
	Now       func() time.Time
	Logger    *log.Logger
}

// RateEntry is a cached rate lookup. Found is false when the Rates table had
// no usable row for the date; misses are cached too.
type RateEntry struct {
	Rate  float64
	Found bool
}

// Book wraps a sheets.Workbook with read caches.
type Book struct {
	wb      sheets.Workbook
	data    *cache.LRUCache[sheets.Table]
	headers *cache.LRUCache[[]string]
	rates   *cache.LRUCache[RateEntry]
	caches  *cache.Manager
	group   singleflight.Group
	logger  *log.Logger

	// gen counts invalidations. A read that started before a write must not
	// populate the cache after it; mu orders the check-and-set against
	// Invalidate.
	mu  sync.Mutex
	gen uint64
}

// New builds a Book over wb.
func New(wb sheets.Workbook, opts Options) *Book {
	if opts.DataTTL <= 0 {
		opts.DataTTL = DefaultDataTTL
	}
	if opts.HeaderTTL <= 0 {
		opts.HeaderTTL = DefaultHeaderTTL
	}
	if opts.RateTTL <= 0 {
		opts.RateTTL = DefaultRateTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.Default(log.ComponentStore)
	}
	b := &Book{
		wb:      wb,
		data:    cache.NewLRUCache[sheets.Table](64, opts.DataTTL),
		headers: cache.NewLRUCache[[]string](64, opts.HeaderTTL),
		rates:   cache.NewLRUCache[RateEntry](1024, opts.RateTTL),
		caches:  cache.NewManager(),
		logger:  opts.Logger,
	}
	if opts.Now != nil {
		b.data.WithClock(opts.Now)
		b.headers.WithClock(opts.Now)
		b.rates.WithClock(opts.Now)
	}
	b.caches.Register(b.data)
	b.caches.Register(b.headers)
	b.caches.Register(b.rates)
	return b
}

// Workbook exposes the underlying workbook.
func (b *Book) Workbook() sheets.Workbook { return b.wb }

// StartCleanup sweeps expired entries every interval until Close.
func (b *Book) StartCleanup(interval time.Duration) { b.caches.StartCleanup(interval) }

// Close stops the background sweep.
func (b *Book) Close() { b.caches.Stop() }

func (b *Book) key(table string) string { return b.wb.ID() + "/" + table }

// ReadTable returns the table's header and data rows, cached for the data TTL.
// Concurrent misses for the same table share one backend read.
func (b *Book) ReadTable(ctx context.Context, table string) (sheets.Table, error) {
	key := b.key(table)
	if t, ok := b.data.Get(key); ok {
		return t, nil
	}
	gen := b.Generation()
	v, err, _ := b.group.Do(flightKey("data", gen, key), func() (any, error) {
		values, err := b.wb.Values(ctx, table)
		if err != nil {
			return sheets.Table{}, err
		}
		t := sheets.NewTable(values)
		b.setIfCurrent(gen, func() { b.data.Set(key, t) })
		return t, nil
	})
	if err != nil {
		return sheets.Table{}, fmt.Errorf("read table %s: %w", table, err)
	}
	return v.(sheets.Table), nil
}

// Header returns the first row of a table, cached for the header TTL.
func (b *Book) Header(ctx context.Context, table string) ([]string, error) {
	key := b.key(table)
	if h, ok := b.headers.Get(key); ok {
		return h, nil
	}
	gen := b.Generation()
	v, err, _ := b.group.Do(flightKey("header", gen, key), func() (any, error) {
		h, err := b.readHeader(ctx, table)
		if err != nil {
			return nil, err
		}
		b.setIfCurrent(gen, func() { b.headers.Set(key, h) })
		return h, nil
	})
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", table, err)
	}
	return v.([]string), nil
}

func (b *Book) readHeader(ctx context.Context, table string) ([]string, error) {
	values, err := b.wb.Values(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return []string{}, nil
	}
	return values[0], nil
}

// Append writes one row and invalidates every cache.
func (b *Book) Append(ctx context.Context, table string, row []any) error {
	err := b.wb.AppendRow(ctx, table, row)
	b.Invalidate()
	if err != nil {
		return fmt.Errorf("append to %s: %w", table, err)
	}
	b.logger.DebugContext(ctx, "Row appended", log.FieldSheet, table)
	return nil
}

// EnsureHeaders makes the first row of table equal headers. When it differs
// the table is cleared and only the header is written back; existing rows
// are lost. It reports whether a rewrite happened.
func (b *Book) EnsureHeaders(ctx context.Context, table string, headers []string) (bool, error) {
	existing, err := b.Header(ctx, table)
	if err != nil {
		existing, err = b.readHeader(ctx, table)
		if err != nil {
			return false, fmt.Errorf("read header %s: %w", table, err)
		}
	}
	if sheets.HeaderMatches(existing, headers) {
		return false, nil
	}

	b.logger.WarnContext(ctx, "Header mismatch, rewriting table",
		log.FieldSheet, table,
		"existing", existing,
		"expected", headers)

	if err := b.wb.Clear(ctx, table); err != nil {
		b.Invalidate()
		return false, fmt.Errorf("clear %s: %w", table, err)
	}
	err = b.wb.AppendRow(ctx, table, sheets.Headers(headers))
	b.Invalidate()
	if err != nil {
		return true, fmt.Errorf("write header %s: %w", table, err)
	}
	return true, nil
}

// Invalidate clears the data, header and rate caches and starts a new
// generation, so reads already in flight are not cached.
func (b *Book) Invalidate() {
	b.mu.Lock()
	b.gen++
	b.caches.InvalidateAll()
	b.mu.Unlock()
}

// Generation identifies the cache contents between two invalidations.
func (b *Book) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen
}

func (b *Book) setIfCurrent(gen uint64, set func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gen == gen {
		set()
	}
}

// flightKey keeps readers that arrive after a write from joining a read
// that started before it.
func flightKey(kind string, gen uint64, key string) string {
	return kind + ":" + strconv.FormatUint(gen, 10) + ":" + key
}

// CachedRate returns a cached rate lookup for an ISO date in the given
// rates table.
func (b *Book) CachedRate(table, date string) (RateEntry, bool) {
	return b.rates.Get(b.key(table) + "@" + date)
}

// CacheRate stores a rate lookup result for an ISO date.
func (b *Book) CacheRate(table, date string, e RateEntry) {
	b.rates.Set(b.key(table)+"@"+date, e)
}

// CacheRateAt stores a lookup result computed from a read taken at
// generation gen. It is dropped when a write happened since.
func (b *Book) CacheRateAt(gen uint64, table, date string, e RateEntry) {
	b.setIfCurrent(gen, func() { b.CacheRate(table, date, e) })
}
