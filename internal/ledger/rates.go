package ledger

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
	"fintrack/internal/store"
)

// LookupRate returns the first positive rate stored for date. The second
// result is false when none exists. Results, misses included, are cached for
// the rate TTL.
func (l *Ledger) LookupRate(ctx context.Context, date core.Date) (float64, bool, error) {
	key := date.String()
	if e, ok := l.book.CachedRate(l.tables.Rates, key); ok {
		return e.Rate, e.Found, nil
	}
	gen := l.book.Generation()
	tb, err := l.book.ReadTable(ctx, l.tables.Rates)
	if err != nil {
		return 0, false, fmt.Errorf("lookup rate %s: %w", key, err)
	}
	entry := findRate(tb, key)
	l.book.CacheRateAt(gen, l.tables.Rates, key, entry)
	return entry.Rate, entry.Found, nil
}

func findRate(tb sheets.Table, date string) store.RateEntry {
	dateCol, rateCol := tb.Column("date"), tb.Column("eur_bdt_rate")
	if dateCol < 0 {
		dateCol = 0
	}
	if rateCol < 0 {
		rateCol = 1
	}
	for _, row := range tb.Rows {
		if parseDate(sheets.Cell(row, dateCol)).String() != date {
			continue
		}
		if v, ok := core.ParseCell(sheets.Cell(row, rateCol)); ok && v > 0 {
			return store.RateEntry{Rate: v, Found: true}
		}
	}
	return store.RateEntry{}
}

// SaveRate appends (date, rate), which clears every cache, then primes the
// rate cache so the next lookup is served without a read.
func (l *Ledger) SaveRate(ctx context.Context, date core.Date, rate float64) error {
	if rate <= 0 {
		return core.ErrInvalidRate
	}
	r := core.Rate{Date: date, Rate: rate}
	if err := l.book.Append(ctx, l.tables.Rates, r.Row()); err != nil {
		return fmt.Errorf("save rate %s: %w", date, err)
	}
	l.book.CacheRate(l.tables.Rates, date.String(), store.RateEntry{Rate: rate, Found: true})
	return nil
}

// Rates returns every stored rate in sheet order, skipping unusable rows.
func (l *Ledger) Rates(ctx context.Context) ([]core.Rate, error) {
	tb, err := l.book.ReadTable(ctx, l.tables.Rates)
	if err != nil {
		return nil, err
	}
	dateCol, rateCol := tb.Column("date"), tb.Column("eur_bdt_rate")
	out := make([]core.Rate, 0, len(tb.Rows))
	for _, row := range tb.Rows {
		d := parseDate(sheets.Cell(row, dateCol))
		v, ok := core.ParseCell(sheets.Cell(row, rateCol))
		if d.IsZero() || !ok || v <= 0 {
			continue
		}
		out = append(out, core.Rate{Date: d, Rate: v})
	}
	return out, nil
}
