// Package core provides money parsing and formatting utilities.
//
// Amounts are carried as float64 end to end so that amount_bdt is exactly
// amount_eur * rate; rounding happens only in the Format* helpers below.
package core

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	SymbolEUR = "€"
	SymbolBDT = "৳"
)

// View selects which currencies a page displays.
type View string

const (
	ViewEUR    View = "eur"
	ViewEURBDT View = "eur_bdt"
	ViewBDT    View = "bdt"
)

// ParseView maps a query value to a View, defaulting to ViewEUR.
func ParseView(s string) View {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case ViewEURBDT:
		return ViewEURBDT
	case ViewBDT:
		return ViewBDT
	default:
		return ViewEUR
	}
}

// Label is the human name shown in the currency selector.
func (v View) Label() string {
	switch v {
	case ViewEURBDT:
		return "EUR (BDT)"
	case ViewBDT:
		return "BDT only"
	default:
		return "EUR only"
	}
}

// Views lists the selector options in display order.
func Views() []View {
	return []View{ViewEUR, ViewEURBDT, ViewBDT}
}

// ParseAmount parses a user-entered EUR amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Negative
// values and values too large for a float64 are rejected; zero is accepted
// here and blocked by Transaction.Validate.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	v := d.InexactFloat64()
	if !finite(v) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// ParseCell parses a numeric sheet cell leniently: thousands separators and
// currency symbols are stripped, a lone comma is read as the decimal mark.
// The second result is false when nothing numeric could be read.
func ParseCell(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, SymbolEUR)
	s = strings.TrimPrefix(s, SymbolBDT)
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	switch {
	case strings.Contains(s, ".") && strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ",") == 1:
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ",") > 1:
		s = strings.ReplaceAll(s, ",", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	v := d.InexactFloat64()
	if !finite(v) {
		return 0, false
	}
	return v, true
}

// FormatEUR renders €1,234.56.
func FormatEUR(v float64) string {
	return signed(v, SymbolEUR, "#,###.##")
}

// FormatBDT renders ৳1,235 (whole taka, as shown in summaries).
func FormatBDT(v float64) string {
	r := int64(math.Round(v))
	if r < 0 {
		return "-" + SymbolBDT + humanize.Comma(-r)
	}
	return SymbolBDT + humanize.Comma(r)
}

// FormatBDTPrecise renders ৳1,234.56 (used in tables and exports).
func FormatBDTPrecise(v float64) string {
	return signed(v, SymbolBDT, "#,###.##")
}

// FormatRate renders a rate with four decimals and grouped thousands.
func FormatRate(v float64) string {
	return humanize.FormatFloat("#,###.####", v)
}

// FormatAmount renders an EUR/BDT pair for the given view.
func FormatAmount(eur, bdt float64, v View) string {
	switch v {
	case ViewEURBDT:
		return FormatEUR(eur) + " (" + FormatBDT(bdt) + ")"
	case ViewBDT:
		return FormatBDT(bdt)
	default:
		return FormatEUR(eur)
	}
}

func signed(v float64, symbol, pattern string) string {
	if v < 0 {
		return "-" + symbol + humanize.FormatFloat(pattern, -v)
	}
	return symbol + humanize.FormatFloat(pattern, v)
}
