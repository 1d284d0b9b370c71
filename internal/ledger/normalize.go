package ledger

import (
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

// dateLayouts are tried in order when reading the date column.
var dateLayouts = []string{
	core.DateLayout,
	core.CreatedAtLayout,
	"2006-01-02 15:04:05",
	"02/01/2006",
	time.RFC3339,
}

// NormalizeTransactions turns raw Transactions rows into typed values. Missing
// columns read as empty, unparseable dates become the zero Date and
// unparseable amounts become 0. It never fails.
func NormalizeTransactions(t sheets.Table) []core.Transaction {
	if t.Empty() {
		return nil
	}
	col := make(map[string]int, len(sheets.TransactionsHeaders))
	for _, h := range sheets.TransactionsHeaders {
		col[h] = t.Column(h)
	}

	out := make([]core.Transaction, 0, len(t.Rows))
	for _, row := range t.Rows {
		cell := func(name string) string { return sheets.Cell(row, col[name]) }
		out = append(out, core.Transaction{
			ID:         cell("id"),
			Date:       parseDate(cell("date")),
			Type:       core.TxType(cell("type")),
			Category:   cell("category"),
			Remarks:    cell("remarks"),
			AmountEUR:  number(cell("amount_eur")),
			RateEURBDT: number(cell("rate_eur_bdt")),
			AmountBDT:  number(cell("amount_bdt")),
			CreatedAt:  cell("created_at"),
		})
	}
	return out
}

func parseDate(s string) core.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t)
		}
	}
	return core.Date{}
}

func number(s string) float64 {
	v, ok := core.ParseCell(s)
	if !ok {
		return 0
	}
	return v
}
