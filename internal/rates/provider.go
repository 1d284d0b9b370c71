// Package rates fetches EUR->BDT exchange rates from public providers and
// locks one rate per calendar date.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
)

// Default provider endpoints and timeout.
const (
	DefaultFrankfurterURL = "https://api.frankfurter.app"
	DefaultERAPIURL       = "https://open.er-api.com"
	DefaultTimeout        = 25 * time.Second
)

var (
	// ErrTodayOnly is returned by the latest-only provider for any date
	// other than today.
	ErrTodayOnly = errors.New("open.er-api.com fallback only supports today's rate")
	// ErrRateUnavailable matches a ChainError where every provider failed.
	ErrRateUnavailable = errors.New("exchange rate unavailable")
)

// Provider returns the EUR->BDT rate for a date.
type Provider interface {
	Name() string
	Rate(ctx context.Context, date core.Date) (float64, error)
}

// NewHTTPClient returns a client with the provider timeout applied.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// ratesResponse is the part of both providers' payloads we read.
type ratesResponse struct {
	Rates map[string]json.RawMessage `json:"rates"`
}

// Frankfurter serves historical ECB reference rates.
type Frankfurter struct {
	BaseURL string
	Client  *http.Client
}

func NewFrankfurter(baseURL string, client *http.Client) *Frankfurter {
	if baseURL == "" {
		baseURL = DefaultFrankfurterURL
	}
	if client == nil {
		client = NewHTTPClient(DefaultTimeout)
	}
	return &Frankfurter{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

func (f *Frankfurter) Name() string { return "Frankfurter" }

// Rate calls GET {base}/{YYYY-MM-DD}?from=EUR&to=BDT.
func (f *Frankfurter) Rate(ctx context.Context, date core.Date) (float64, error) {
	url := fmt.Sprintf("%s/%s?from=EUR&to=BDT", f.BaseURL, date.String())
	return fetchBDT(ctx, f.Client, url, "Frankfurter")
}

// ERAPI serves only the latest rates, so it can stand in for today alone.
type ERAPI struct {
	BaseURL string
	Client  *http.Client
	Now     func() time.Time
}

func NewERAPI(baseURL string, client *http.Client, now func() time.Time) *ERAPI {
	if baseURL == "" {
		baseURL = DefaultERAPIURL
	}
	if client == nil {
		client = NewHTTPClient(DefaultTimeout)
	}
	if now == nil {
		now = time.Now
	}
	return &ERAPI{BaseURL: strings.TrimRight(baseURL, "/"), Client: client, Now: now}
}

func (e *ERAPI) Name() string { return "ER-API" }

// Rate calls GET {base}/v6/latest/EUR when date is today, and fails with
// ErrTodayOnly without any request otherwise.
func (e *ERAPI) Rate(ctx context.Context, date core.Date) (float64, error) {
	if !date.Equal(core.DateOf(e.Now())) {
		return 0, ErrTodayOnly
	}
	return fetchBDT(ctx, e.Client, e.BaseURL+"/v6/latest/EUR", "ER-API")
}

func fetchBDT(ctx context.Context, client *http.Client, url, name string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%s HTTP %d: %s", name, resp.StatusCode, snippet(body))
	}

	var data ratesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return 0, fmt.Errorf("%s malformed response: %w", name, err)
	}
	raw, ok := data.Rates["BDT"]
	if !ok {
		return 0, fmt.Errorf("%s missing BDT: %s", name, snippet(body))
	}
	var rate float64
	if err := json.Unmarshal(raw, &rate); err != nil || rate <= 0 {
		return 0, fmt.Errorf("%s invalid rate: %s", name, snippet(body))
	}
	return rate, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
