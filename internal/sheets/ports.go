package sheets

import (
	"context"
	"strings"
)

// Default table (worksheet) names.
const (
	TransactionsSheet = "Transactions"
	CategoriesSheet   = "Categories"
	RatesSheet        = "Rates"
)

// Fixed header rows for each table.
var (
	TransactionsHeaders = []string{"id", "date", "type", "category", "remarks", "amount_eur", "rate_eur_bdt", "amount_bdt", "created_at"}
	CategoriesHeaders   = []string{"category_name", "type"}
	RatesHeaders        = []string{"date", "eur_bdt_rate"}
)

// Ports for outbound adapters.
type (
	// Workbook is raw row access to named tables. Values returns every row
	// including the header; cells are rendered as trimmed strings.
	Workbook interface {
		// ID identifies the workbook in cache keys.
		ID() string
		Values(ctx context.Context, table string) ([][]string, error)
		AppendRow(ctx context.Context, table string, row []any) error
		// Clear removes every row, header included.
		Clear(ctx context.Context, table string) error
	}

	// Table is a header plus data rows. Rows may be shorter than the header.
	Table struct {
		Header []string
		Rows   [][]string
	}
)

// NewTable splits raw values into header and rows. Fewer than two rows yields
// a table with no data rows.
func NewTable(values [][]string) Table {
	if len(values) == 0 {
		return Table{}
	}
	t := Table{Header: values[0]}
	if len(values) > 1 {
		t.Rows = values[1:]
	}
	return t
}

// Empty reports whether the table has no data rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Column returns the index of name in the header, or -1.
func (t Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// Cell returns row[col] trimmed, or "" when the row is too short or col < 0.
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// HeaderMatches reports whether got equals want cell by cell.
func HeaderMatches(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if strings.TrimSpace(got[i]) != want[i] {
			return false
		}
	}
	return true
}

// Headers is a convenience for turning a header slice into an appendable row.
func Headers(h []string) []any {
	row := make([]any, len(h))
	for i, v := range h {
		row[i] = v
	}
	return row
}
