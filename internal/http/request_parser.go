package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

// ReportParams holds the month and currency view selected on a page.
type ReportParams struct {
	Month string // YYYY-MM, "" when absent or malformed
	View  core.View
}

// ParseReportParams reads month and view from the query string. A malformed
// month is dropped so the newest month is shown instead.
func ParseReportParams(query url.Values) ReportParams {
	return ReportParams{
		Month: parseMonthKey(query.Get("month")),
		View:  core.ParseView(query.Get("view")),
	}
}

// ChartParams holds the insights page selection.
type ChartParams struct {
	Month    string
	Currency report.Currency
}

// ParseChartParams reads currency (EUR|BDT) and month from the query string.
func ParseChartParams(query url.Values) ChartParams {
	return ChartParams{
		Month:    parseMonthKey(query.Get("month")),
		Currency: report.ParseCurrency(query.Get("currency")),
	}
}

func parseMonthKey(v string) string {
	v = strings.TrimSpace(v)
	if _, err := time.Parse("2006-01", v); err != nil {
		return ""
	}
	return v
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(r.Body)
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' || p.body[0] == '[' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	// Fall back to form parsing
	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// EntryForm builds the entry form from a parsed request body. The type is
// kept raw; EntryService.Record validates it.
func (p *RequestBodyParser) EntryForm() services.EntryForm {
	return services.EntryForm{
		Type:     core.TxType(p.Get("type")),
		Category: p.Get("category"),
		Date:     p.Get("date"),
		Remarks:  p.Get("remarks"),
		Amount:   p.Get("amount"),
	}
}

// sanitizeInput drops control characters other than tab and newlines and
// trims surrounding space.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
