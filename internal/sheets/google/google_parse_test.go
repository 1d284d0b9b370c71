package google

import "testing"

func TestToRows(t *testing.T) {
	values := [][]interface{}{
		{"date", "eur_bdt_rate"},
		{"2026-02-07", 119.5},
		{" 2026-02-08 ", float64(120)},
		{},
		{"2026-02-09", nil, true},
	}
	rows := toRows(values)
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	if rows[1][1] != "119.5" || rows[2][0] != "2026-02-08" || rows[2][1] != "120" {
		t.Fatalf("unexpected rows %v", rows)
	}
	if len(rows[3]) != 0 {
		t.Fatalf("empty row should stay empty, got %v", rows[3])
	}
	if rows[4][1] != "" || rows[4][2] != "TRUE" {
		t.Fatalf("unexpected row %v", rows[4])
	}
}

func TestSheetRange(t *testing.T) {
	cases := map[string]string{
		"Rates":         "'Rates'",
		"2026 Expenses": "'2026 Expenses'",
		"Bob's":         "'Bob''s'",
	}
	for in, want := range cases {
		if got := sheetRange(in); got != want {
			t.Fatalf("sheetRange(%q) = %q want %q", in, got, want)
		}
	}
}

func TestCellStringLargeNumber(t *testing.T) {
	if got := cellString(1234567.89); got != "1234567.89" {
		t.Fatalf("got %q", got)
	}
	if got := cellString(1e21); got != "1000000000000000000000" {
		t.Fatalf("got %q", got)
	}
}
