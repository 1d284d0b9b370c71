package core

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-02-29" || d.MonthKey() != "2024-02" {
		t.Fatalf("got %s / %s", d.String(), d.MonthKey())
	}
	if _, err := ParseDate("29/02/2024"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if (Date{}).String() != "" {
		t.Fatalf("zero date should render empty")
	}
}

func TestDateOfIgnoresClock(t *testing.T) {
	loc := time.FixedZone("BDT", 6*3600)
	a := DateOf(time.Date(2025, 3, 4, 23, 59, 0, 0, loc))
	b := NewDate(2025, 3, 4)
	if !a.Equal(b) {
		t.Fatalf("expected %s == %s", a, b)
	}
}

func TestParseTxType(t *testing.T) {
	cases := map[string]TxType{
		"Income":       Income,
		"expense":      Expense,
		" DEBT ":       Debt,
		"debt payment": DebtPayment,
		"Other":        Other,
	}
	for in, want := range cases {
		got, err := ParseTxType(in)
		if err != nil || got != want {
			t.Fatalf("ParseTxType(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseTxType("Transfer"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:       NewDate(2025, 1, 1),
		Type:       Expense,
		Category:   "Food",
		AmountEUR:  10,
		RateEURBDT: 130,
		AmountBDT:  1300,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	mut := func(f func(*Transaction)) Transaction {
		tx := good
		f(&tx)
		return tx
	}
	bads := []struct {
		tx   Transaction
		want error
	}{
		{mut(func(tx *Transaction) { tx.Date = Date{} }), ErrInvalidDate},
		{mut(func(tx *Transaction) { tx.Type = "Transfer" }), ErrInvalidType},
		{mut(func(tx *Transaction) { tx.AmountEUR = 0 }), ErrInvalidAmount},
		{mut(func(tx *Transaction) { tx.AmountEUR = math.Inf(1) }), ErrInvalidAmount},
		{mut(func(tx *Transaction) { tx.AmountEUR, tx.AmountBDT = 1e307, Convert(1e307, 130) }), ErrInvalidAmount},
		{mut(func(tx *Transaction) { tx.RateEURBDT = 0 }), ErrInvalidRate},
		{mut(func(tx *Transaction) { tx.Remarks = strings.Repeat("x", 501) }), ErrRemarksLength},
	}
	for i, tc := range bads {
		if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestTransactionRowOrder(t *testing.T) {
	tx := Transaction{
		ID: "TX-1", Date: NewDate(2025, 5, 6), Type: Income, Category: "Salary",
		Remarks: "may", AmountEUR: 100, RateEURBDT: 120, AmountBDT: 12000,
		CreatedAt: "2025-05-06T10:00:00",
	}
	row := tx.Row()
	if len(row) != 9 {
		t.Fatalf("expected 9 cells, got %d", len(row))
	}
	if row[1] != "2025-05-06" || row[2] != "Income" || row[7] != 12000.0 {
		t.Fatalf("unexpected row %v", row)
	}
}

func TestConvert(t *testing.T) {
	if got := Convert(100, 120); got != 12000 {
		t.Fatalf("Convert(100,120) = %v", got)
	}
	if got := Convert(10.5, 130.25); got != 10.5*130.25 {
		t.Fatalf("Convert should not round, got %v", got)
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "  ", Type: Expense}).Validate(); !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
	if err := (Category{Name: "Gym", Type: "Nope"}).Validate(); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	for _, c := range DefaultCategories() {
		if err := c.Validate(); err != nil {
			t.Fatalf("default %q invalid: %v", c.Name, err)
		}
	}
}

func TestNewTransactionID(t *testing.T) {
	now := time.Date(2025, 7, 8, 9, 10, 11, 0, time.UTC)
	id := NewTransactionID(now)
	if !regexp.MustCompile(`^TX-20250708-091011-[0-9A-F]{4}$`).MatchString(id) {
		t.Fatalf("unexpected id %q", id)
	}
}

func TestAmountArithmetic(t *testing.T) {
	a := Amount{EUR: 10, BDT: 1300}
	b := Amount{EUR: 4, BDT: 500}
	if got := a.Sub(b); got != (Amount{EUR: 6, BDT: 800}) {
		t.Fatalf("Sub = %+v", got)
	}
	if got := a.Add(b); got != (Amount{EUR: 14, BDT: 1800}) {
		t.Fatalf("Add = %+v", got)
	}
}
