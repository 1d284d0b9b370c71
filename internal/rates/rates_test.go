package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/sheets"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/store"
)

// provider serves a fixed status/body and counts hits.
type provider struct {
	srv  *httptest.Server
	hits atomic.Int64
	path atomic.Value
}

func newProvider(t *testing.T, status int, body string) *provider {
	t.Helper()
	p := &provider{}
	p.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.hits.Add(1)
		p.path.Store(r.URL.RequestURI())
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(p.srv.Close)
	return p
}

func (p *provider) lastPath() string {
	s, _ := p.path.Load().(string)
	return s
}

var (
	feb7 = core.NewDate(2026, 2, 7)
	// noon on 2026-02-07 in the local zone
	todayFeb7 = func() time.Time { return time.Date(2026, 2, 7, 12, 0, 0, 0, time.Local) }
	todayFeb8 = func() time.Time { return time.Date(2026, 2, 8, 12, 0, 0, 0, time.Local) }
)

func TestFrankfurterRate(t *testing.T) {
	p := newProvider(t, 200, `{"amount":1.0,"base":"EUR","date":"2026-02-06","rates":{"BDT":130.25}}`)
	f := NewFrankfurter(p.srv.URL+"/", p.srv.Client())
	rate, err := f.Rate(context.Background(), feb7)
	if err != nil || rate != 130.25 {
		t.Fatalf("Rate = %v, %v", rate, err)
	}
	if got := p.lastPath(); got != "/2026-02-07?from=EUR&to=BDT" {
		t.Fatalf("unexpected request %q", got)
	}
}

func TestProviderFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"status", 500, "boom", "HTTP 500"},
		{"missing key", 200, `{"rates":{"USD":1.1}}`, "missing BDT"},
		{"zero rate", 200, `{"rates":{"BDT":0}}`, "invalid rate"},
		{"string rate", 200, `{"rates":{"BDT":"abc"}}`, "invalid rate"},
		{"malformed", 200, `{"rates":`, "malformed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newProvider(t, tc.status, tc.body)
			_, err := NewFrankfurter(p.srv.URL, p.srv.Client()).Rate(context.Background(), feb7)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestERAPITodayOnly(t *testing.T) {
	p := newProvider(t, 200, `{"result":"success","rates":{"BDT":119.5}}`)
	e := NewERAPI(p.srv.URL, p.srv.Client(), todayFeb8)
	if _, err := e.Rate(context.Background(), feb7); !errors.Is(err, ErrTodayOnly) {
		t.Fatalf("expected ErrTodayOnly, got %v", err)
	}
	if p.hits.Load() != 0 {
		t.Fatal("no request expected for a past date")
	}

	e.Now = todayFeb7
	rate, err := e.Rate(context.Background(), feb7)
	if err != nil || rate != 119.5 {
		t.Fatalf("Rate = %v, %v", rate, err)
	}
	if got := p.lastPath(); got != "/v6/latest/EUR" {
		t.Fatalf("unexpected request %q", got)
	}
}

func TestChainCombinedError(t *testing.T) {
	primary := newProvider(t, 500, "down")
	secondary := newProvider(t, 200, `{"rates":{"BDT":119.5}}`)
	chain := NewChain(
		NewFrankfurter(primary.srv.URL, primary.srv.Client()),
		NewERAPI(secondary.srv.URL, secondary.srv.Client(), todayFeb8),
	)
	_, _, err := chain.Fetch(context.Background(), feb7)
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"all FX providers failed", "Frankfurter failed", "HTTP 500", "ER-API failed", "only supports today"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error %q missing %q", msg, want)
		}
	}
	if !errors.Is(err, ErrTodayOnly) || !errors.Is(err, ErrRateUnavailable) {
		t.Fatalf("errors.Is failed on %v", err)
	}
	var ce *ChainError
	if !errors.As(err, &ce) || len(ce.Failures) != 2 {
		t.Fatalf("expected ChainError with 2 failures, got %#v", err)
	}
}

func newResolver(t *testing.T, primary, secondary *provider, now func() time.Time) (*Resolver, *ledger.Ledger, *memory.Workbook) {
	t.Helper()
	wb := memory.New("rates-test")
	wb.Seed(sheets.RatesSheet, sheets.RatesHeaders)
	l := ledger.New(store.New(wb, store.Options{}), ledger.Tables{})
	chain := NewChain(
		NewFrankfurter(primary.srv.URL, primary.srv.Client()),
		NewERAPI(secondary.srv.URL, secondary.srv.Client(), now),
	)
	return NewResolver(l, chain, nil), l, wb
}

func TestResolverLocksFallbackRate(t *testing.T) {
	primary := newProvider(t, 500, "down")
	secondary := newProvider(t, 200, `{"rates":{"BDT":119.5}}`)
	r, _, wb := newResolver(t, primary, secondary, todayFeb7)
	ctx := context.Background()

	rate, err := r.Resolve(ctx, feb7)
	if err != nil || rate != 119.5 {
		t.Fatalf("Resolve = %v, %v", rate, err)
	}
	vals, _ := wb.Values(ctx, sheets.RatesSheet)
	if len(vals) != 2 || vals[1][0] != "2026-02-07" || vals[1][1] != "119.5" {
		t.Fatalf("rate not persisted: %v", vals)
	}

	hits := primary.hits.Load() + secondary.hits.Load()
	rate, err = r.Resolve(ctx, feb7)
	if err != nil || rate != 119.5 {
		t.Fatalf("second Resolve = %v, %v", rate, err)
	}
	if primary.hits.Load()+secondary.hits.Load() != hits {
		t.Fatal("second call must not reach any provider")
	}
	if len(mustValues(t, wb)) != 2 {
		t.Fatal("second call must not write another row")
	}
}

func TestResolverPrefersStoredRate(t *testing.T) {
	primary := newProvider(t, 200, `{"rates":{"BDT":130}}`)
	secondary := newProvider(t, 200, `{"rates":{"BDT":131}}`)
	r, _, wb := newResolver(t, primary, secondary, todayFeb7)
	wb.Seed(sheets.RatesSheet, sheets.RatesHeaders, []string{"2026-02-07", "120"})

	rate, err := r.Resolve(context.Background(), feb7)
	if err != nil || rate != 120 {
		t.Fatalf("Resolve = %v, %v", rate, err)
	}
	if primary.hits.Load() != 0 || secondary.hits.Load() != 0 {
		t.Fatal("stored rate must short-circuit providers")
	}
}

func TestResolverBothFailNotToday(t *testing.T) {
	primary := newProvider(t, 500, "down")
	secondary := newProvider(t, 200, `{"rates":{"BDT":119.5}}`)
	r, _, wb := newResolver(t, primary, secondary, todayFeb8)

	_, err := r.Resolve(context.Background(), feb7)
	if err == nil || !strings.Contains(err.Error(), "only supports today") {
		t.Fatalf("expected combined error, got %v", err)
	}
	if len(mustValues(t, wb)) != 1 {
		t.Fatal("nothing should be written when resolution fails")
	}
}

func TestResolverRejectsZeroDate(t *testing.T) {
	primary := newProvider(t, 200, `{"rates":{"BDT":130}}`)
	r, _, _ := newResolver(t, primary, primary, todayFeb7)
	if _, err := r.Resolve(context.Background(), core.Date{}); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

// gatedFetcher blocks every fetch until release is closed.
type gatedFetcher struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int64
	ctxErr  atomic.Value
}

func (f *gatedFetcher) Fetch(ctx context.Context, date core.Date) (float64, string, error) {
	if f.calls.Add(1) == 1 {
		close(f.started)
	}
	<-f.release
	if err := ctx.Err(); err != nil {
		f.ctxErr.Store(err)
		return 0, "", err
	}
	return 121.25, "gated", nil
}

func TestResolverSharedCallSurvivesCallerCancel(t *testing.T) {
	wb := memory.New("rates-test")
	wb.Seed(sheets.RatesSheet, sheets.RatesHeaders)
	l := ledger.New(store.New(wb, store.Options{}), ledger.Tables{})
	f := &gatedFetcher{started: make(chan struct{}), release: make(chan struct{})}
	r := NewResolver(l, f, nil)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := r.Resolve(ctx, feb7)
		firstErr <- err
	}()
	<-f.started
	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller: expected context.Canceled, got %v", err)
	}

	type result struct {
		rate float64
		err  error
	}
	second := make(chan result, 1)
	go func() {
		rate, err := r.Resolve(context.Background(), feb7)
		second <- result{rate, err}
	}()
	close(f.release)

	got := <-second
	if got.err != nil || got.rate != 121.25 {
		t.Fatalf("second caller = %v, %v", got.rate, got.err)
	}
	if err, _ := f.ctxErr.Load().(error); err != nil {
		t.Fatalf("shared fetch saw cancelled context: %v", err)
	}
	if n := f.calls.Load(); n > 2 {
		t.Fatalf("fetch called %d times", n)
	}
	vals := mustValues(t, wb)
	if len(vals) != 2 || vals[1][1] != "121.25" {
		t.Fatalf("rate not locked: %v", vals)
	}
}

func mustValues(t *testing.T, wb *memory.Workbook) [][]string {
	t.Helper()
	vals, err := wb.Values(context.Background(), sheets.RatesSheet)
	if err != nil {
		t.Fatal(err)
	}
	return vals
}
