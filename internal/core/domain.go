package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income      TxType = "Income"
	Expense     TxType = "Expense"
	Debt        TxType = "Debt"
	DebtPayment TxType = "Debt Payment"
	Other       TxType = "Other"
)

// DateLayout is the ISO calendar date used for sheet cells and rate keys.
const DateLayout = "2006-01-02"

// CreatedAtLayout is the local timestamp written to the created_at column.
const CreatedAtLayout = "2006-01-02T15:04:05"

type (
	TxType string

	// Date is a calendar day. Time-of-day and location are ignored.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID         string
		Date       Date
		Type       TxType
		Category   string
		Remarks    string
		AmountEUR  float64
		RateEURBDT float64
		AmountBDT  float64
		CreatedAt  string
	}

	Category struct {
		Name string
		Type TxType
	}

	// Rate is the EUR->BDT conversion locked for one calendar date.
	Rate struct {
		Date Date
		Rate float64
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidRate   = errors.New("invalid exchange rate")
	ErrEmptyCategory = errors.New("empty category name")
	ErrRemarksLength = errors.New("remarks too long (max 500 characters)")
)

// TxTypes lists the transaction types in the order the entry form offers them.
func TxTypes() []TxType {
	return []TxType{Income, Expense, Debt, DebtPayment, Other}
}

// ParseTxType matches s against the known types, ignoring case and surrounding space.
func ParseTxType(s string) (TxType, error) {
	s = strings.TrimSpace(s)
	for _, t := range TxTypes() {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", ErrInvalidType
}

func (t TxType) String() string { return string(t) }

// Valid reports whether t is one of the known transaction types.
func (t TxType) Valid() bool {
	switch t {
	case Income, Expense, Debt, DebtPayment, Other:
		return true
	default:
		return false
	}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses an ISO YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

// String returns the ISO form, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns "YYYY-MM", or "" for the zero date.
func (d Date) MonthKey() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01")
}

// Equal compares calendar days only.
func (d Date) Equal(o Date) bool {
	return d.String() == o.String()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// HasDate reports whether the stored date could be parsed.
func (t Transaction) HasDate() bool {
	return !t.Date.IsZero()
}

// Validate checks a transaction before it is written. Stored rows are never
// validated; they are normalized instead.
func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	// amount_bdt overflows for amounts near the float64 limit
	if t.AmountEUR <= 0 || !finite(t.AmountEUR) || !finite(t.AmountBDT) {
		return ErrInvalidAmount
	}
	if t.RateEURBDT <= 0 {
		return ErrInvalidRate
	}
	if len(t.Remarks) > 500 {
		return ErrRemarksLength
	}
	return nil
}

// Row renders the transaction in Transactions sheet column order.
func (t Transaction) Row() []any {
	return []any{
		t.ID,
		t.Date.String(),
		string(t.Type),
		t.Category,
		t.Remarks,
		t.AmountEUR,
		t.RateEURBDT,
		t.AmountBDT,
		t.CreatedAt,
	}
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategory
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// Row renders the category in Categories sheet column order.
func (c Category) Row() []any {
	return []any{c.Name, string(c.Type)}
}

// Row renders the rate in Rates sheet column order.
func (r Rate) Row() []any {
	return []any{r.Date.String(), r.Rate}
}

// Convert returns amountEUR expressed in BDT at the given rate. No rounding is
// applied; rounding belongs to display formatting.
func Convert(amountEUR, rate float64) float64 {
	return amountEUR * rate
}

// DefaultCategories is the seed used when the Categories table is empty.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Salary", Type: Income},
		{Name: "Freelance", Type: Income},
		{Name: "Rent", Type: Expense},
		{Name: "Food", Type: Expense},
		{Name: "Transport", Type: Expense},
		{Name: "Bills", Type: Expense},
		{Name: "Shopping", Type: Expense},
		{Name: "General", Type: Other},
		{Name: "Loan Taken", Type: Debt},
		{Name: "Loan Repayment", Type: DebtPayment},
	}
}
