package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/sheets/memory"
)

func testConfig(fxURL string) *config.Config {
	return &config.Config{
		DataBackend:       config.BackendMemory,
		TransactionsSheet: "Transactions",
		CategoriesSheet:   "Categories",
		RatesSheet:        "Rates",
		DataCacheTTL:      15 * time.Second,
		HeaderCacheTTL:    2 * time.Minute,
		RateCacheTTL:      5 * time.Minute,
		FXPrimaryURL:      fxURL,
		FXSecondaryURL:    fxURL,
		FXTimeout:         time.Second,
	}
}

func TestWireRecordsThroughProviders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"BDT":120}}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	wb := memory.New("app-test")
	now := func() time.Time { return time.Date(2026, 2, 7, 9, 0, 0, 0, time.Local) }
	app, err := Wire(testConfig(srv.URL), &backend.BackendResult{Workbook: wb}, now, log.Default("test"))
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if err := app.Entry.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}
	tx, err := app.Entry.Record(ctx, services.EntryForm{Type: "Expense", Category: "Food", Date: "2026-02-07", Amount: "100"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if tx.AmountBDT != 12000.0 {
		t.Fatalf("amount_bdt = %v", tx.AmountBDT)
	}
	rates, _ := wb.Values(ctx, "Rates")
	if len(rates) != 2 || rates[1][0] != "2026-02-07" || rates[1][1] != "120" {
		t.Fatalf("Rates sheet = %v", rates)
	}
}

func TestWireLoadsSeedFile(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(seed, []byte("categories:\n  - name: Groceries\n    type: Expense\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig("http://127.0.0.1:1")
	cfg.CategoriesSeedFile = seed

	app, err := Wire(cfg, &backend.BackendResult{Workbook: memory.New("seed")}, time.Now, log.Default("test"))
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()
	if err := app.Entry.Bootstrap(context.Background()); err != nil {
		t.Fatal(err)
	}
	names, _ := app.Ledger.CategoryNames(context.Background())
	if len(names) != 1 || names[0] != "Groceries" {
		t.Fatalf("categories = %v", names)
	}

	cfg.CategoriesSeedFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := Wire(cfg, &backend.BackendResult{Workbook: memory.New("x")}, time.Now, nil); err == nil {
		t.Fatal("expected seed load error")
	}
}

func TestSetupLogger(t *testing.T) {
	l := SetupLogger("debug")
	if l.Component() != log.ComponentApp || !l.Enabled(context.Background(), -4) {
		t.Fatalf("unexpected logger component %q", l.Component())
	}
	SetupLogger("info")
}
