// Package report aggregates normalized transactions into summaries and chart
// series. Every function accepts an empty slice and returns zero values.
package report

import (
	"sort"
	"strings"
	"time"

	"fintrack/internal/core"
)

// Currency picks which stored amount a series charts.
type Currency string

const (
	EUR Currency = "EUR"
	BDT Currency = "BDT"
)

// ParseCurrency defaults to EUR.
func ParseCurrency(s string) Currency {
	if strings.EqualFold(strings.TrimSpace(s), string(BDT)) {
		return BDT
	}
	return EUR
}

// Pick returns the amount in c.
func (c Currency) Pick(a core.Amount) float64 {
	if c == BDT {
		return a.BDT
	}
	return a.EUR
}

// Summary holds the totals shown at the top of the entry and report pages.
type Summary struct {
	Income    core.Amount
	Expense   core.Amount
	Net       core.Amount // Income - Expense
	DebtAdded core.Amount
	DebtPaid  core.Amount
	DebtNet   core.Amount // DebtAdded - DebtPaid
}

// Summarize totals txs by type. Other is ignored.
func Summarize(txs []core.Transaction) Summary {
	var s Summary
	for _, tx := range txs {
		a := core.AmountOf(tx)
		switch tx.Type {
		case core.Income:
			s.Income = s.Income.Add(a)
		case core.Expense:
			s.Expense = s.Expense.Add(a)
		case core.Debt:
			s.DebtAdded = s.DebtAdded.Add(a)
		case core.DebtPayment:
			s.DebtPaid = s.DebtPaid.Add(a)
		}
	}
	s.Net = s.Income.Sub(s.Expense)
	s.DebtNet = s.DebtAdded.Sub(s.DebtPaid)
	return s
}

// Months returns the distinct YYYY-MM keys of dated transactions, newest
// first.
func Months(txs []core.Transaction) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, tx := range txs {
		m := tx.Date.MonthKey()
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

// InMonth returns the transactions dated in month ym, newest first. Ties keep
// sheet order.
func InMonth(txs []core.Transaction, ym string) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txs {
		if tx.Date.MonthKey() == ym && ym != "" {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out
}

// MonthLabel renders "2026-02" as "February 2026". Input that is not a
// month key is returned unchanged.
func MonthLabel(ym string) string {
	t, err := time.Parse("2006-01", ym)
	if err != nil {
		return ym
	}
	return t.Format("January 2006")
}

// MonthPoint is one bar group of a monthly chart.
type MonthPoint struct {
	Month  string             `json:"month"`
	Label  string             `json:"label"`
	Values map[string]float64 `json:"values"`
}

// MonthlyIncomeExpense sums Income and Expense per month, oldest first.
// Every month with a dated transaction appears, zero-filled.
func MonthlyIncomeExpense(txs []core.Transaction, cur Currency) []MonthPoint {
	return monthlyPivot(txs, cur, true, core.Income, core.Expense)
}

// MonthlyDebt sums Debt and Debt Payment per month, oldest first. Only
// months holding debt entries appear.
func MonthlyDebt(txs []core.Transaction, cur Currency) []MonthPoint {
	return monthlyPivot(txs, cur, false, core.Debt, core.DebtPayment)
}

// monthlyPivot sums the given types per month; missing types read as 0.
// With allMonths false, months where none of the types occur are left out.
func monthlyPivot(txs []core.Transaction, cur Currency, allMonths bool, types ...core.TxType) []MonthPoint {
	want := map[core.TxType]bool{}
	for _, t := range types {
		want[t] = true
	}
	byMonth := map[string]map[string]float64{}
	for _, tx := range txs {
		m := tx.Date.MonthKey()
		if m == "" || (!allMonths && !want[tx.Type]) {
			continue
		}
		vals, ok := byMonth[m]
		if !ok {
			vals = make(map[string]float64, len(types))
			for _, t := range types {
				vals[string(t)] = 0
			}
			byMonth[m] = vals
		}
		if want[tx.Type] {
			vals[string(tx.Type)] += cur.Pick(core.AmountOf(tx))
		}
	}
	months := sortedKeys(byMonth)
	out := make([]MonthPoint, 0, len(months))
	for _, m := range months {
		out = append(out, MonthPoint{Month: m, Label: MonthLabel(m), Values: byMonth[m]})
	}
	return out
}

// CategoryTotal is one bar of the expense-by-category chart.
type CategoryTotal struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// CategoryBreakdown sums Expense transactions of month ym per category,
// largest first, ties by name.
func CategoryBreakdown(txs []core.Transaction, ym string, cur Currency) []CategoryTotal {
	sums := map[string]float64{}
	for _, tx := range txs {
		if tx.Type != core.Expense || tx.Date.MonthKey() != ym || ym == "" {
			continue
		}
		sums[tx.Category] += cur.Pick(core.AmountOf(tx))
	}
	out := make([]CategoryTotal, 0, len(sums))
	for c, v := range sums {
		out = append(out, CategoryTotal{Category: c, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// SavingsPoint is one day of the cumulative savings line.
type SavingsPoint struct {
	Day        string  `json:"day"`
	Income     float64 `json:"income"`
	Expense    float64 `json:"expense"`
	Net        float64 `json:"net"`
	Cumulative float64 `json:"cumulative"`
}

// CumulativeSavings walks dated transactions day by day, oldest first.
// Every dated day appears, even when it holds only debt or other entries.
func CumulativeSavings(txs []core.Transaction, cur Currency) []SavingsPoint {
	type day struct{ income, expense float64 }
	byDay := map[string]*day{}
	for _, tx := range txs {
		d := tx.Date.String()
		if d == "" {
			continue
		}
		acc, ok := byDay[d]
		if !ok {
			acc = &day{}
			byDay[d] = acc
		}
		v := cur.Pick(core.AmountOf(tx))
		switch tx.Type {
		case core.Income:
			acc.income += v
		case core.Expense:
			acc.expense += v
		}
	}
	days := sortedKeys(byDay)
	out := make([]SavingsPoint, 0, len(days))
	var running float64
	for _, d := range days {
		acc := byDay[d]
		net := acc.income - acc.expense
		running += net
		out = append(out, SavingsPoint{Day: d, Income: acc.income, Expense: acc.expense, Net: net, Cumulative: running})
	}
	return out
}

// DebtPoint is one day of the remaining-debt line.
type DebtPoint struct {
	Day       string  `json:"day"`
	Change    float64 `json:"change"`
	Remaining float64 `json:"remaining"`
}

// RemainingDebt accumulates Debt (+) and Debt Payment (-) per day, oldest
// first.
func RemainingDebt(txs []core.Transaction, cur Currency) []DebtPoint {
	byDay := map[string]float64{}
	for _, tx := range txs {
		d := tx.Date.String()
		if d == "" {
			continue
		}
		v := cur.Pick(core.AmountOf(tx))
		switch tx.Type {
		case core.Debt:
			byDay[d] += v
		case core.DebtPayment:
			byDay[d] -= v
		}
	}
	days := sortedKeys(byDay)
	out := make([]DebtPoint, 0, len(days))
	var running float64
	for _, d := range days {
		running += byDay[d]
		out = append(out, DebtPoint{Day: d, Change: byDay[d], Remaining: running})
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
