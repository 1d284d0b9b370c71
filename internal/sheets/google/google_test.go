package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
)

// fakeSheets serves the three Values endpoints the client uses.
type fakeSheets struct {
	mu     sync.Mutex
	tables map[string][][]interface{}
	calls  []string
	inputs []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	const prefix = "/v4/spreadsheets/sheet-1/values/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.Error(w, "unexpected path "+r.URL.Path, http.StatusNotFound)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet:
		title := strings.Trim(rest, "'")
		f.calls = append(f.calls, "get "+title)
		if r.URL.Query().Get("valueRenderOption") != "UNFORMATTED_VALUE" {
			http.Error(w, "expected UNFORMATTED_VALUE", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"range": rest, "values": f.tables[title]})
	case strings.HasSuffix(rest, ":append"):
		title := strings.Trim(strings.TrimSuffix(rest, ":append"), "'")
		f.calls = append(f.calls, "append "+title)
		f.inputs = append(f.inputs, r.URL.Query().Get("valueInputOption"))
		if r.URL.Query().Get("insertDataOption") != "INSERT_ROWS" {
			http.Error(w, "expected INSERT_ROWS", http.StatusBadRequest)
			return
		}
		var body struct {
			Values [][]interface{} `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.tables[title] = append(f.tables[title], body.Values...)
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-1"})
	case strings.HasSuffix(rest, ":clear"):
		title := strings.Trim(strings.TrimSuffix(rest, ":clear"), "'")
		f.calls = append(f.calls, "clear "+title)
		delete(f.tables, title)
		_ = json.NewEncoder(w).Encode(map[string]any{"clearedRange": title})
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c, err := NewWithOptions(context.Background(), "sheet-1",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewWithOptions: %v", err)
	}
	return c
}

func TestClientValuesAppendClear(t *testing.T) {
	f := &fakeSheets{tables: map[string][][]interface{}{
		"Rates": {{"date", "eur_bdt_rate"}, {"2026-02-06", 121.25}},
	}}
	c := newTestClient(t, f)
	ctx := context.Background()

	if c.ID() != "sheet-1" {
		t.Fatalf("unexpected id %q", c.ID())
	}

	rows, err := c.Values(ctx, "Rates")
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if len(rows) != 2 || rows[1][1] != "121.25" {
		t.Fatalf("unexpected rows %v", rows)
	}

	if err := c.AppendRow(ctx, "Rates", []any{"2026-02-07", 119.5}); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
	rows, _ = c.Values(ctx, "Rates")
	if len(rows) != 3 || rows[2][0] != "2026-02-07" || rows[2][1] != "119.5" {
		t.Fatalf("append not visible: %v", rows)
	}

	if err := c.Clear(ctx, "Rates"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	rows, _ = c.Values(ctx, "Rates")
	if len(rows) != 0 {
		t.Fatalf("expected cleared sheet, got %v", rows)
	}

	want := []string{"get Rates", "append Rates", "get Rates", "clear Rates", "get Rates"}
	if strings.Join(f.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v", f.calls)
	}
}

func TestClientErrorsAreWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":400,"message":"Unable to parse range"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()
	c, err := NewWithOptions(context.Background(), "sheet-1",
		goption.WithEndpoint(srv.URL+"/"), goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Values(context.Background(), "Missing")
	if err == nil || !strings.Contains(err.Error(), "read 'Missing'") {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
}

func TestNilServiceIsAnError(t *testing.T) {
	c := &Client{spreadsheetID: "x"}
	ctx := context.Background()
	if _, err := c.Values(ctx, "T"); err == nil {
		t.Fatal("expected error from Values")
	}
	if err := c.AppendRow(ctx, "T", nil); err == nil {
		t.Fatal("expected error from AppendRow")
	}
	if err := c.Clear(ctx, "T"); err == nil {
		t.Fatal("expected error from Clear")
	}
}

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GOOGLE_SERVICE_ACCOUNT_JSON", "GOOGLE_SERVICE_ACCOUNT_FILE", "GOOGLE_APPLICATION_CREDENTIALS",
		"GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE",
		"GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE",
	} {
		t.Setenv(k, "")
	}
}

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	_, err := NewFromEnv(context.Background())
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing credentials") {
		t.Fatalf("expected missing credentials, got %v", err)
	}
}

func TestNewFromEnv_InvalidOAuthClient(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", "invalid-json")
	t.Setenv("GOOGLE_OAUTH_TOKEN_JSON", `{"access_token":"test"}`)
	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "oauth config") {
		t.Fatalf("expected oauth config error, got %v", err)
	}
}

func TestNewFromEnv_MissingOAuthToken(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", `{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`)
	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing OAuth token") {
		t.Fatalf("expected missing token error, got %v", err)
	}
}

func TestOAuthTokenSource(t *testing.T) {
	client := []byte(`{"installed":{"client_id":"id","client_secret":"s","redirect_uris":["http://localhost"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`)
	ts, err := oauthTokenSource(context.Background(), client, []byte(`{"access_token":"abc","token_type":"Bearer","expiry":"2999-01-01T00:00:00Z"}`))
	if err != nil {
		t.Fatalf("oauthTokenSource: %v", err)
	}
	tok, err := ts.Token()
	if err != nil || tok.AccessToken != "abc" {
		t.Fatalf("unexpected token %+v err=%v", tok, err)
	}
	if _, err := oauthTokenSource(context.Background(), client, []byte(`{bad`)); err == nil {
		t.Fatal("expected token parse error")
	}
}

func TestAppendRowStoresCellsRaw(t *testing.T) {
	f := &fakeSheets{tables: map[string][][]interface{}{}}
	c := newTestClient(t, f)
	ctx := context.Background()

	row := []any{"TX-1", "2026-02-07", "Expense", "Food", `=IMPORTXML("http://x","//a")`, 100.0}
	if err := c.AppendRow(ctx, "Transactions", row); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
	if len(f.inputs) != 1 || f.inputs[0] != "RAW" {
		t.Fatalf("valueInputOption = %v, want RAW", f.inputs)
	}
	rows, err := c.Values(ctx, "Transactions")
	if err != nil || len(rows) != 1 {
		t.Fatalf("Values = %v, %v", rows, err)
	}
	if rows[0][4] != `=IMPORTXML("http://x","//a")` || rows[0][5] != "100" {
		t.Fatalf("cells not kept as sent: %v", rows[0])
	}
}
