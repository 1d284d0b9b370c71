package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"12.34", 12.34, true},
		{"12,34", 12.34, true},
		{" 2.50 ", 2.5, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"1e400", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseCell(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1,234.50", 1234.5, true},
		{"€12", 12, true},
		{"৳ 1,300", 1300, true},
		{"12,5", 12.5, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"1e400", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseCell(tc.in)
		if ok != tc.ok || got != tc.out {
			t.Fatalf("ParseCell(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.out, tc.ok)
		}
	}
}

func TestFormatting(t *testing.T) {
	cases := []struct {
		got, want string
	}{
		{FormatEUR(1234.5), "€1,234.50"},
		{FormatEUR(-3), "-€3.00"},
		{FormatBDT(162345.6), "৳162,346"},
		{FormatBDT(-1300), "-৳1,300"},
		{FormatBDTPrecise(1300.25), "৳1,300.25"},
		{FormatAmount(10, 1300, ViewEURBDT), "€10.00 (৳1,300)"},
		{FormatAmount(10, 1300, ViewBDT), "৳1,300"},
		{FormatAmount(10, 1300, ViewEUR), "€10.00"},
	}
	for i, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("case %d: got %q want %q", i, tc.got, tc.want)
		}
	}
}

func TestParseView(t *testing.T) {
	if ParseView("BDT") != ViewBDT || ParseView("eur_bdt") != ViewEURBDT || ParseView("junk") != ViewEUR {
		t.Fatalf("unexpected view mapping")
	}
	if ViewEURBDT.Label() != "EUR (BDT)" {
		t.Fatalf("label = %q", ViewEURBDT.Label())
	}
}
