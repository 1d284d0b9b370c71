package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"fintrack/internal/core"
)

// Column headers of the monthly transactions table.
const (
	ColDate      = "Date"
	ColType      = "Type"
	ColCategory  = "Category"
	ColRemarks   = "Remarks"
	ColAmountEUR = "Amount (EUR)"
	ColRate      = "Rate (EUR → BDT)"
	ColAmountBDT = "Amount (BDT)"
)

// RowDateLayout renders dates as "07 Feb 2026".
const RowDateLayout = "02 Jan 2006"

// Table is the rendered monthly transactions table.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Columns returns the table columns shown for a view. EUR-only drops the BDT
// amount; BDT-only drops the EUR amount and the rate.
func Columns(v core.View) []string {
	switch v {
	case core.ViewEUR:
		return []string{ColDate, ColType, ColCategory, ColRemarks, ColAmountEUR, ColRate}
	case core.ViewBDT:
		return []string{ColDate, ColType, ColCategory, ColRemarks, ColAmountBDT}
	default:
		return []string{ColDate, ColType, ColCategory, ColRemarks, ColAmountEUR, ColRate, ColAmountBDT}
	}
}

// BuildTable formats txs for display in the given view, preserving order.
func BuildTable(txs []core.Transaction, v core.View) Table {
	cols := Columns(v)
	t := Table{Columns: cols, Rows: make([][]string, 0, len(txs))}
	for _, tx := range txs {
		row := make([]string, 0, len(cols))
		for _, c := range cols {
			row = append(row, cell(tx, c))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func cell(tx core.Transaction, col string) string {
	switch col {
	case ColDate:
		if !tx.HasDate() {
			return ""
		}
		return tx.Date.Format(RowDateLayout)
	case ColType:
		return string(tx.Type)
	case ColCategory:
		return tx.Category
	case ColRemarks:
		return tx.Remarks
	case ColAmountEUR:
		return core.FormatEUR(tx.AmountEUR)
	case ColRate:
		return core.FormatRate(tx.RateEURBDT)
	case ColAmountBDT:
		return core.FormatBDTPrecise(tx.AmountBDT)
	default:
		return ""
	}
}

// WriteCSV writes the table with a header row. Free-text cells that a
// spreadsheet would evaluate as a formula are prefixed with a quote.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	text := make([]bool, len(t.Columns))
	for i, c := range t.Columns {
		text[i] = c == ColCategory || c == ColRemarks
	}
	for _, row := range t.Rows {
		out := make([]string, len(row))
		for i, v := range row {
			if i < len(text) && text[i] {
				v = escapeFormula(v)
			}
			out[i] = v
		}
		if err := cw.Write(out); err != nil {
			return fmt.Errorf("write csv rows: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

func escapeFormula(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}

// ExportFilename returns transactions_<Month_Label>.csv for month ym.
func ExportFilename(ym string) string {
	return "transactions_" + strings.ReplaceAll(MonthLabel(ym), " ", "_") + ".csv"
}
