package services

import (
	"context"
	"fmt"
	"slices"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/report"
)

// Overview is the status block on the entry page.
type Overview struct {
	Summary report.Summary
	View    core.View
	Count   int
}

// MonthlyReport is the content of the report page and the CSV export.
type MonthlyReport struct {
	Months  []string // available YYYY-MM keys, newest first
	Month   string   // selected YYYY-MM, "" when there is no dated data
	Label   string
	View    core.View
	Summary report.Summary
	Table   report.Table
}

// Charts holds every series drawn on the insights page.
type Charts struct {
	Currency        report.Currency        `json:"currency"`
	Month           string                 `json:"month"`
	Months          []string               `json:"months"`
	IncomeExpense   []report.MonthPoint    `json:"income_expense"`
	Categories      []report.CategoryTotal `json:"categories"`
	Savings         []report.SavingsPoint  `json:"savings"`
	RemainingDebt   []report.DebtPoint     `json:"remaining_debt"`
	MonthlyDebt     []report.MonthPoint    `json:"monthly_debt"`
	TotalIncome     float64                `json:"total_income"`
	TotalExpense    float64                `json:"total_expense"`
	OutstandingDebt float64                `json:"outstanding_debt"`
}

// DashboardService reads the ledger and shapes it for the report pages.
type DashboardService struct {
	ledger *ledger.Ledger
}

func NewDashboardService(l *ledger.Ledger) *DashboardService {
	return &DashboardService{ledger: l}
}

// Overview totals every stored transaction.
func (s *DashboardService) Overview(ctx context.Context, v core.View) (Overview, error) {
	txs, err := s.ledger.Transactions(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("load transactions: %w", err)
	}
	return Overview{Summary: report.Summarize(txs), View: v, Count: len(txs)}, nil
}

// MonthlyReport builds the report for ym. An empty or unknown ym selects the
// newest month.
func (s *DashboardService) MonthlyReport(ctx context.Context, ym string, v core.View) (MonthlyReport, error) {
	txs, err := s.ledger.Transactions(ctx)
	if err != nil {
		return MonthlyReport{}, fmt.Errorf("load transactions: %w", err)
	}
	months := report.Months(txs)
	r := MonthlyReport{Months: months, View: v, Table: report.BuildTable(nil, v)}
	if len(months) == 0 {
		return r, nil
	}
	r.Month = pickMonth(months, ym)
	r.Label = report.MonthLabel(r.Month)
	in := report.InMonth(txs, r.Month)
	r.Summary = report.Summarize(in)
	r.Table = report.BuildTable(in, v)
	return r, nil
}

// Charts computes the insights series in currency cur. The category
// breakdown covers ym, or the newest month when ym is empty or unknown.
func (s *DashboardService) Charts(ctx context.Context, cur report.Currency, ym string) (Charts, error) {
	txs, err := s.ledger.Transactions(ctx)
	if err != nil {
		return Charts{}, fmt.Errorf("load transactions: %w", err)
	}
	c := Charts{
		Currency:      cur,
		Months:        report.Months(txs),
		IncomeExpense: report.MonthlyIncomeExpense(txs, cur),
		Savings:       report.CumulativeSavings(txs, cur),
		RemainingDebt: report.RemainingDebt(txs, cur),
		MonthlyDebt:   report.MonthlyDebt(txs, cur),
	}
	if len(c.Months) > 0 {
		c.Month = pickMonth(c.Months, ym)
		c.Categories = report.CategoryBreakdown(txs, c.Month, cur)
	}
	sum := report.Summarize(txs)
	c.TotalIncome = cur.Pick(sum.Income)
	c.TotalExpense = cur.Pick(sum.Expense)
	c.OutstandingDebt = cur.Pick(sum.DebtNet)
	return c, nil
}

func pickMonth(months []string, ym string) string {
	if slices.Contains(months, ym) {
		return ym
	}
	return months[0]
}
