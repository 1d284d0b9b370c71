// Package ledger maps the workbook's Transactions, Categories and Rates
// tables to domain values.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/store"
)

// ErrCategoryExists is returned when adding a category whose name is taken.
var ErrCategoryExists = errors.New("category already exists")

// Tables names the worksheets backing each entity.
type Tables struct {
	Transactions string
	Categories   string
	Rates        string
}

// DefaultTables returns the standard sheet names.
func DefaultTables() Tables {
	return Tables{
		Transactions: sheets.TransactionsSheet,
		Categories:   sheets.CategoriesSheet,
		Rates:        sheets.RatesSheet,
	}
}

func (t Tables) withDefaults() Tables {
	d := DefaultTables()
	if t.Transactions == "" {
		t.Transactions = d.Transactions
	}
	if t.Categories == "" {
		t.Categories = d.Categories
	}
	if t.Rates == "" {
		t.Rates = d.Rates
	}
	return t
}

// Ledger reads and appends domain rows through a store.Book.
type Ledger struct {
	book     *store.Book
	tables   Tables
	defaults []core.Category
	logger   *log.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithSeed replaces the default categories used when Categories is empty.
func WithSeed(cats []core.Category) Option {
	return func(l *Ledger) {
		if len(cats) > 0 {
			l.defaults = cats
		}
	}
}

// WithLogger sets the component logger.
func WithLogger(lg *log.Logger) Option {
	return func(l *Ledger) { l.logger = lg }
}

func New(book *store.Book, tables Tables, opts ...Option) *Ledger {
	l := &Ledger{
		book:     book,
		tables:   tables.withDefaults(),
		defaults: core.DefaultCategories(),
		logger:   log.Default(log.ComponentLedger),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Ledger) Book() *store.Book { return l.book }

func (l *Ledger) Tables() Tables { return l.tables }

// EnsureSchema enforces the header row of all three tables, then seeds the
// default categories when Categories has no data rows.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	for _, t := range []struct {
		name    string
		headers []string
	}{
		{l.tables.Transactions, sheets.TransactionsHeaders},
		{l.tables.Categories, sheets.CategoriesHeaders},
		{l.tables.Rates, sheets.RatesHeaders},
	} {
		rewrote, err := l.book.EnsureHeaders(ctx, t.name, t.headers)
		if err != nil {
			return fmt.Errorf("ensure headers: %w", err)
		}
		if rewrote {
			l.logger.WarnContext(ctx, "Table header rewritten", log.FieldSheet, t.name)
		}
	}
	if _, err := l.SeedCategories(ctx); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	return nil
}

// SeedCategories appends the default categories when the table has no data
// rows. It returns how many rows were written.
func (l *Ledger) SeedCategories(ctx context.Context) (int, error) {
	tb, err := l.book.ReadTable(ctx, l.tables.Categories)
	if err != nil {
		return 0, err
	}
	if !tb.Empty() {
		return 0, nil
	}
	for i, c := range l.defaults {
		if err := l.book.Append(ctx, l.tables.Categories, c.Row()); err != nil {
			return i, err
		}
	}
	l.logger.InfoContext(ctx, "Default categories seeded", "count", len(l.defaults))
	return len(l.defaults), nil
}

// Transactions returns every stored transaction, normalized.
func (l *Ledger) Transactions(ctx context.Context) ([]core.Transaction, error) {
	tb, err := l.book.ReadTable(ctx, l.tables.Transactions)
	if err != nil {
		return nil, err
	}
	return NormalizeTransactions(tb), nil
}

// AppendTransaction validates tx and appends it.
func (l *Ledger) AppendTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if err := l.book.Append(ctx, l.tables.Transactions, tx.Row()); err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

// Categories returns stored categories in sheet order, skipping blank names.
func (l *Ledger) Categories(ctx context.Context) ([]core.Category, error) {
	tb, err := l.book.ReadTable(ctx, l.tables.Categories)
	if err != nil {
		return nil, err
	}
	nameCol, typeCol := tb.Column("category_name"), tb.Column("type")
	out := make([]core.Category, 0, len(tb.Rows))
	for _, row := range tb.Rows {
		name := sheets.Cell(row, nameCol)
		if name == "" {
			continue
		}
		raw := sheets.Cell(row, typeCol)
		typ, err := core.ParseTxType(raw)
		if err != nil {
			typ = core.TxType(raw)
		}
		out = append(out, core.Category{Name: name, Type: typ})
	}
	return out, nil
}

// CategoryNames returns the distinct category names sorted, or ["General"]
// when there are none.
func (l *Ledger) CategoryNames(ctx context.Context) ([]string, error) {
	cats, err := l.Categories(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(cats))
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		names = append(names, c.Name)
	}
	if len(names) == 0 {
		return []string{"General"}, nil
	}
	sort.Strings(names)
	return names, nil
}

// AddCategory appends a new category. The name is trimmed; an empty name
// fails with core.ErrEmptyCategory and a taken name with ErrCategoryExists.
func (l *Ledger) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	existing, err := l.Categories(ctx)
	if err != nil {
		return core.Category{}, err
	}
	for _, e := range existing {
		if e.Name == c.Name {
			return core.Category{}, fmt.Errorf("%q: %w", c.Name, ErrCategoryExists)
		}
	}
	if err := l.book.Append(ctx, l.tables.Categories, c.Row()); err != nil {
		return core.Category{}, fmt.Errorf("append category: %w", err)
	}
	return c, nil
}
