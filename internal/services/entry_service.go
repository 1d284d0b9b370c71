package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

// RateResolver returns the locked rate for a date. *rates.Resolver
// implements it.
type RateResolver interface {
	Resolve(ctx context.Context, date core.Date) (float64, error)
}

// EntryForm is the state of the entry form for one render. It replaces
// per-session UI state: the server builds it from defaults or from the
// submitted values.
type EntryForm struct {
	Type     core.TxType
	Category string
	Date     string
	Remarks  string
	Amount   string
}

// Defaults returns the form shown on first load and after a successful save:
// first type, first category (or General), today, nothing else.
func Defaults(categories []string, today core.Date) EntryForm {
	cat := "General"
	if len(categories) > 0 {
		cat = categories[0]
	}
	return EntryForm{
		Type:     core.TxTypes()[0],
		Category: cat,
		Date:     today.String(),
		Amount:   "0",
	}
}

// Reset returns the defaults for the same categories and day.
func (f EntryForm) Reset(categories []string, today core.Date) EntryForm {
	return Defaults(categories, today)
}

// Quote is the rate preview for the entry form.
type Quote struct {
	Date      core.Date
	Rate      float64
	AmountEUR float64
	AmountBDT float64
	// Err is set when the rate could not be resolved or the input is invalid.
	Err error
}

// CanSave reports whether a transaction with these values may be recorded.
func (q Quote) CanSave() bool {
	return q.Err == nil && q.Rate > 0 && q.AmountEUR > 0
}

// EntryService records transactions and categories.
type EntryService struct {
	ledger   *ledger.Ledger
	resolver RateResolver
	now      func() time.Time
	logger   *log.StructuredLogger
}

func NewEntryService(l *ledger.Ledger, r RateResolver, now func() time.Time, logger *log.Logger) *EntryService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = log.Default(log.ComponentLedger)
	}
	return &EntryService{ledger: l, resolver: r, now: now, logger: log.NewStructuredLogger(logger)}
}

// Today is the current calendar day in local time.
func (s *EntryService) Today() core.Date { return core.DateOf(s.now()) }

// Bootstrap enforces table headers and seeds categories.
func (s *EntryService) Bootstrap(ctx context.Context) error {
	return s.ledger.EnsureSchema(ctx)
}

// NewForm returns a default entry form.
func (s *EntryService) NewForm(ctx context.Context) (EntryForm, []string, error) {
	cats, err := s.ledger.CategoryNames(ctx)
	if err != nil {
		return EntryForm{}, nil, err
	}
	return Defaults(cats, s.Today()), cats, nil
}

// Quote resolves the rate for dateStr and converts amountStr. An empty date
// means today. Input errors are reported in Quote.Err, not as an error
// return, so the form can render them.
func (s *EntryService) Quote(ctx context.Context, dateStr, amountStr string) Quote {
	var q Quote
	date, err := s.parseDate(dateStr)
	if err != nil {
		q.Err = err
		return q
	}
	q.Date = date

	if strings.TrimSpace(amountStr) != "" {
		if q.AmountEUR, err = core.ParseAmount(amountStr); err != nil {
			q.Err = err
			return q
		}
	}

	rate, err := s.resolver.Resolve(ctx, date)
	if err != nil {
		q.Err = err
		return q
	}
	q.Rate = rate
	q.AmountBDT = core.Convert(q.AmountEUR, rate)
	if math.IsInf(q.AmountBDT, 0) {
		q.AmountBDT = 0
		q.Err = core.ErrInvalidAmount
	}
	return q
}

// Record validates the form, locks the rate for its date and appends the
// transaction. Amounts <= 0 and unresolvable rates are rejected.
func (s *EntryService) Record(ctx context.Context, f EntryForm) (core.Transaction, error) {
	typ, err := core.ParseTxType(string(f.Type))
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := s.parseDate(f.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	if amount <= 0 {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	category := strings.TrimSpace(f.Category)
	if category == "" {
		category = "General"
	}

	rate, err := s.resolver.Resolve(ctx, date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("cannot save entry without exchange rate: %w", err)
	}

	now := s.now()
	tx := core.Transaction{
		ID:         core.NewTransactionID(now),
		Date:       date,
		Type:       typ,
		Category:   category,
		Remarks:    strings.TrimSpace(f.Remarks),
		AmountEUR:  amount,
		RateEURBDT: rate,
		AmountBDT:  core.Convert(amount, rate),
		CreatedAt:  now.Format(core.CreatedAtLayout),
	}
	if err := s.ledger.AppendTransaction(ctx, tx); err != nil {
		return core.Transaction{}, err
	}
	s.logger.LogTransactionRecorded(ctx, tx.ID, string(tx.Type), tx.Category, tx.AmountEUR, tx.AmountBDT, tx.RateEURBDT)
	return tx, nil
}

// Categories lists the stored categories with their types.
func (s *EntryService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.ledger.Categories(ctx)
}

// AddCategory creates a category from form values.
func (s *EntryService) AddCategory(ctx context.Context, name, typ string) (core.Category, error) {
	t, err := core.ParseTxType(typ)
	if err != nil {
		return core.Category{}, err
	}
	return s.ledger.AddCategory(ctx, core.Category{Name: name, Type: t})
}

func (s *EntryService) parseDate(v string) (core.Date, error) {
	if strings.TrimSpace(v) == "" {
		return s.Today(), nil
	}
	return core.ParseDate(v)
}

// IsInputError reports whether err was caused by user input rather than by
// storage or providers.
func IsInputError(err error) bool {
	for _, e := range []error{
		core.ErrInvalidDate, core.ErrInvalidType, core.ErrInvalidAmount,
		core.ErrEmptyCategory, core.ErrRemarksLength,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
