package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finbook/internal/auth"
	"finbook/internal/services"
	"finbook/internal/store/jsonfile"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := jsonfile.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	tokens := auth.NewTokenIssuer("server-test-secret-0123456789", time.Hour)
	srv := NewServer(":0", Deps{
		Store:     st,
		Tokens:    tokens,
		Users:     services.NewUserService(st),
		Txns:      services.NewTransactionService(st, nil),
		Budgets:   services.NewBudgetService(st, nil),
		Goals:     services.NewGoalService(st, nil),
		Recurring: services.NewRecurringService(st, nil),
		Reminders: services.NewReminderService(st, nil),
	})
	t.Cleanup(func() { srv.cacheManager.Stop(); srv.rateLimiter.stop() })
	return srv
}

// do issues an in-process request, optionally with a bearer token and
// JSON body, and decodes a JSON response into out when non-nil.
func do(t *testing.T, srv *Server, method, path, token, body string, out any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if out != nil && rr.Code < 300 {
		if err := json.NewDecoder(rr.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return rr
}

// signup registers a user and returns a bearer token for it. The login
// body carries credentials only; register-only fields like currency are
// rejected by the strict decoder.
func signup(t *testing.T, srv *Server, username string) string {
	t.Helper()
	reg := fmt.Sprintf(`{"username":%q,"password":"hunter2-long","currency":"eur"}`, username)
	if rr := do(t, srv, "POST", "/api/register", "", reg, nil); rr.Code != http.StatusCreated {
		t.Fatalf("register: status=%d body=%s", rr.Code, rr.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	creds := fmt.Sprintf(`{"username":%q,"password":"hunter2-long"}`, username)
	rr := do(t, srv, "POST", "/api/login", "", creds, &login)
	if rr.Code != http.StatusOK || login.Token == "" {
		t.Fatalf("login: status=%d body=%s", rr.Code, rr.Body.String())
	}
	return login.Token
}

func addTxn(t *testing.T, srv *Server, token, kind, amount, category, date string) {
	t.Helper()
	body := fmt.Sprintf(`{"kind":%q,"amount":%q,"category":%q,"date":%q}`, kind, amount, category, date)
	if rr := do(t, srv, "POST", "/api/transactions", token, body, nil); rr.Code != http.StatusCreated {
		t.Fatalf("create transaction: status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, "GET", path, "", "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)
	creds := `{"username":"alice","password":"hunter2-long","currency":"eur"}`

	var user struct {
		Username string `json:"username"`
		Currency string `json:"currency"`
	}
	rr := do(t, srv, "POST", "/api/register", "", creds, &user)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", rr.Code, rr.Body.String())
	}
	if user.Currency != "EUR" {
		t.Fatalf("currency = %q, want EUR", user.Currency)
	}

	if rr := do(t, srv, "POST", "/api/register", "", creds, nil); rr.Code != http.StatusConflict {
		t.Fatalf("duplicate register status=%d", rr.Code)
	}

	var login struct {
		Token string `json:"token"`
	}
	good := `{"username":"alice","password":"hunter2-long"}`
	if rr := do(t, srv, "POST", "/api/login", "", good, &login); rr.Code != http.StatusOK || login.Token == "" {
		t.Fatalf("login status=%d body=%s", rr.Code, rr.Body.String())
	}

	// The login decoder is strict; register-only fields are rejected.
	if rr := do(t, srv, "POST", "/api/login", "", creds, nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("login with extra field status=%d", rr.Code)
	}

	bad := `{"username":"alice","password":"wrong-password"}`
	if rr := do(t, srv, "POST", "/api/login", "", bad, nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status=%d", rr.Code)
	}

	if rr := do(t, srv, "GET", "/api/transactions", "", "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("no token status=%d", rr.Code)
	}
	if rr := do(t, srv, "GET", "/api/transactions", "not-a-token", "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token status=%d", rr.Code)
	}

	weak := `{"username":"bob","password":"short"}`
	if rr := do(t, srv, "POST", "/api/register", "", weak, nil); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("weak password status=%d", rr.Code)
	}
}

func TestTransactionCRUD(t *testing.T) {
	srv := newTestServer(t)
	token := signup(t, srv, "alice")

	var created struct {
		ID  int64  `json:"id"`
		Ref string `json:"ref"`
	}
	body := `{"kind":"expense","amount":"12.50","category":"groceries","date":"2026-08-01","description":"weekly shop"}`
	rr := do(t, srv, "POST", "/api/transactions", token, body, &created)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	if created.ID != 1 || !strings.HasPrefix(created.Ref, "TXN-") {
		t.Fatalf("created = %+v", created)
	}

	var fetched struct {
		Category string `json:"category"`
	}
	if rr := do(t, srv, "GET", "/api/transactions/1", token, "", &fetched); rr.Code != http.StatusOK {
		t.Fatalf("get status=%d", rr.Code)
	}
	if fetched.Category != "Groceries" {
		t.Fatalf("category = %q, want normalized Groceries", fetched.Category)
	}

	var updated struct {
		Ref    string `json:"ref"`
		Amount struct {
			Cents int64 `json:"cents"`
		} `json:"amount"`
	}
	update := `{"kind":"expense","amount":"20.00","category":"groceries","date":"2026-08-01"}`
	if rr := do(t, srv, "PUT", "/api/transactions/1", token, update, &updated); rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	if updated.Ref != created.Ref {
		t.Fatalf("update changed ref: %q != %q", updated.Ref, created.Ref)
	}
	if updated.Amount.Cents != 2000 {
		t.Fatalf("amount cents = %d, want 2000", updated.Amount.Cents)
	}

	if rr := do(t, srv, "DELETE", "/api/transactions/1", token, "", nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	if rr := do(t, srv, "GET", "/api/transactions/1", token, "", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d", rr.Code)
	}

	bad := `{"kind":"transfer","amount":"1.00","category":"x","date":"2026-08-01"}`
	if rr := do(t, srv, "POST", "/api/transactions", token, bad, nil); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad kind status=%d", rr.Code)
	}
	if rr := do(t, srv, "POST", "/api/transactions", token, "{broken", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("broken json status=%d", rr.Code)
	}
}

func TestOwnerIsolation(t *testing.T) {
	srv := newTestServer(t)
	alice := signup(t, srv, "alice")
	bob := signup(t, srv, "bob")

	addTxn(t, srv, alice, "expense", "10.00", "food", "2026-08-01")

	var txns []json.RawMessage
	if rr := do(t, srv, "GET", "/api/transactions", bob, "", &txns); rr.Code != http.StatusOK {
		t.Fatalf("list status=%d", rr.Code)
	}
	if len(txns) != 0 {
		t.Fatalf("bob sees %d of alice's transactions", len(txns))
	}
	if rr := do(t, srv, "GET", "/api/transactions/1", bob, "", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("cross-owner get status=%d", rr.Code)
	}
}

func TestSearchWarnings(t *testing.T) {
	srv := newTestServer(t)
	token := signup(t, srv, "alice")
	addTxn(t, srv, token, "expense", "10.00", "food", "2026-08-01")
	addTxn(t, srv, token, "expense", "99.00", "travel", "2026-08-02")

	var res struct {
		Matches  []json.RawMessage `json:"matches"`
		Warnings []string          `json:"warnings"`
	}
	rr := do(t, srv, "GET", "/api/transactions/search?category=food&min_amount=oops", token, "", &res)
	if rr.Code != http.StatusOK {
		t.Fatalf("search status=%d", rr.Code)
	}
	if len(res.Matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(res.Matches))
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("expected warning for unparseable min_amount")
	}
}

func TestReportsAndAnalytics(t *testing.T) {
	srv := newTestServer(t)
	token := signup(t, srv, "alice")
	addTxn(t, srv, token, "income", "1000.00", "salary", "2026-06-01")
	addTxn(t, srv, token, "expense", "400.00", "rent", "2026-06-02")
	addTxn(t, srv, token, "income", "1000.00", "salary", "2026-07-01")
	addTxn(t, srv, token, "expense", "300.00", "rent", "2026-07-02")

	var monthly struct {
		Summary struct {
			Net struct {
				Cents int64 `json:"cents"`
			} `json:"net"`
		} `json:"summary"`
	}
	rr := do(t, srv, "GET", "/api/reports/monthly?year=2026&month=6", token, "", &monthly)
	if rr.Code != http.StatusOK {
		t.Fatalf("monthly status=%d", rr.Code)
	}
	if monthly.Summary.Net.Cents != 60000 {
		t.Fatalf("june net = %d, want 60000", monthly.Summary.Net.Cents)
	}

	var cats struct {
		Categories []struct {
			Category string `json:"category"`
		} `json:"categories"`
	}
	if rr := do(t, srv, "GET", "/api/reports/categories", token, "", &cats); rr.Code != http.StatusOK {
		t.Fatalf("categories status=%d", rr.Code)
	}
	if len(cats.Categories) != 1 || cats.Categories[0].Category != "Rent" {
		t.Fatalf("categories = %+v", cats.Categories)
	}

	var trend struct {
		Months int               `json:"months"`
		Points []json.RawMessage `json:"points"`
	}
	if rr := do(t, srv, "GET", "/api/reports/trend?months=3", token, "", &trend); rr.Code != http.StatusOK {
		t.Fatalf("trend status=%d", rr.Code)
	}
	if trend.Months != 3 {
		t.Fatalf("trend months = %d", trend.Months)
	}

	var pred struct {
		Predicted struct {
			Cents int64 `json:"cents"`
		} `json:"predicted_net"`
	}
	if rr := do(t, srv, "GET", "/api/analytics/prediction", token, "", &pred); rr.Code != http.StatusOK {
		t.Fatalf("prediction status=%d body=%s", rr.Code, rr.Body.String())
	}

	if rr := do(t, srv, "GET", "/api/analytics/health", token, "", nil); rr.Code != http.StatusOK {
		t.Fatalf("health score status=%d", rr.Code)
	}

	empty := signup(t, srv, "bob")
	if rr := do(t, srv, "GET", "/api/analytics/prediction", empty, "", nil); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("prediction without history status=%d", rr.Code)
	}
}

func TestDashboardCacheInvalidation(t *testing.T) {
	srv := newTestServer(t)
	token := signup(t, srv, "alice")
	addTxn(t, srv, token, "income", "100.00", "salary", "2026-08-01")

	var first struct {
		AllTime struct {
			Income struct {
				Cents int64 `json:"cents"`
			} `json:"income"`
		} `json:"all_time"`
	}
	if rr := do(t, srv, "GET", "/api/reports/dashboard", token, "", &first); rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	if first.AllTime.Income.Cents != 10000 {
		t.Fatalf("income = %d, want 10000", first.AllTime.Income.Cents)
	}

	addTxn(t, srv, token, "income", "50.00", "salary", "2026-08-02")

	var second struct {
		AllTime struct {
			Income struct {
				Cents int64 `json:"cents"`
			} `json:"income"`
		} `json:"all_time"`
	}
	if rr := do(t, srv, "GET", "/api/reports/dashboard", token, "", &second); rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	if second.AllTime.Income.Cents != 15000 {
		t.Fatalf("income after write = %d, want 15000 (stale cache?)", second.AllTime.Income.Cents)
	}
}

func TestBudgetEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := signup(t, srv, "alice")
	addTxn(t, srv, token, "expense", "150.00", "food", "2026-08-10")

	budget := `{"category":"food","month":"2026-08","limit":"300.00"}`
	if rr := do(t, srv, "PUT", "/api/budgets", token, budget, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("set budget status=%d body=%s", rr.Code, rr.Body.String())
	}

	var progress struct {
		Month   string `json:"month"`
		Budgets []struct {
			Category string  `json:"category"`
			Percent  float64 `json:"percent"`
			Status   string  `json:"status"`
		} `json:"budgets"`
	}
	rr := do(t, srv, "GET", "/api/budgets?month=2026-08", token, "", &progress)
	if rr.Code != http.StatusOK {
		t.Fatalf("progress status=%d", rr.Code)
	}
	if len(progress.Budgets) != 1 {
		t.Fatalf("budgets = %+v", progress.Budgets)
	}
	row := progress.Budgets[0]
	if row.Category != "Food" || row.Percent != 50 || row.Status != "OK" {
		t.Fatalf("row = %+v", row)
	}

	if rr := do(t, srv, "GET", "/api/budgets?month=08-2026", token, "", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad month status=%d", rr.Code)
	}

	if rr := do(t, srv, "DELETE", "/api/budgets?month=2026-08", token, "", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("delete without category status=%d", rr.Code)
	}
	if rr := do(t, srv, "DELETE", "/api/budgets?month=2026-08&category=Food", token, "", nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete budget status=%d", rr.Code)
	}
	if rr := do(t, srv, "DELETE", "/api/budgets?month=2026-08&category=Food", token, "", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("delete missing budget status=%d", rr.Code)
	}
}

func TestGoalEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := signup(t, srv, "alice")

	var goal struct {
		ID int64 `json:"id"`
	}
	body := `{"name":"Emergency fund","target":"1000.00","deadline":"2027-01-01"}`
	if rr := do(t, srv, "POST", "/api/goals", token, body, &goal); rr.Code != http.StatusCreated {
		t.Fatalf("create goal status=%d body=%s", rr.Code, rr.Body.String())
	}

	path := fmt.Sprintf("/api/goals/%d/progress", goal.ID)
	if rr := do(t, srv, "POST", path, token, `{"amount":"250.00"}`, nil); rr.Code != http.StatusOK {
		t.Fatalf("progress status=%d", rr.Code)
	}
	if rr := do(t, srv, "POST", path, token, `{"amount":"-5.00"}`, nil); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("negative progress status=%d", rr.Code)
	}

	var goals []struct {
		Saved struct {
			Cents int64 `json:"cents"`
		} `json:"saved"`
		Percent float64 `json:"percent"`
	}
	if rr := do(t, srv, "GET", "/api/goals", token, "", &goals); rr.Code != http.StatusOK {
		t.Fatalf("list goals status=%d", rr.Code)
	}
	if len(goals) != 1 || goals[0].Saved.Cents != 25000 || goals[0].Percent != 25 {
		t.Fatalf("goals = %+v", goals)
	}

	if rr := do(t, srv, "DELETE", fmt.Sprintf("/api/goals/%d", goal.ID), token, "", nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete goal status=%d", rr.Code)
	}
}

func TestRecurringEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := signup(t, srv, "alice")

	past := time.Now().AddDate(0, 0, -15).Format("2006-01-02")
	rule := fmt.Sprintf(`{"kind":"expense","amount":"9.99","category":"streaming","frequency":"weekly","next_date":%q}`, past)
	if rr := do(t, srv, "POST", "/api/recurring", token, rule, nil); rr.Code != http.StatusCreated {
		t.Fatalf("create rule status=%d body=%s", rr.Code, rr.Body.String())
	}

	var applied struct {
		Created []struct {
			Description string `json:"description"`
		} `json:"created"`
	}
	if rr := do(t, srv, "POST", "/api/recurring/apply", token, "", &applied); rr.Code != http.StatusOK {
		t.Fatalf("apply status=%d body=%s", rr.Code, rr.Body.String())
	}
	// 15 days back on a weekly cadence covers 3 due dates.
	if len(applied.Created) != 3 {
		t.Fatalf("created %d transactions, want 3", len(applied.Created))
	}
	if applied.Created[0].Description != "(recurring)" {
		t.Fatalf("description = %q", applied.Created[0].Description)
	}

	// Second apply is a no-op.
	if rr := do(t, srv, "POST", "/api/recurring/apply", token, "", &applied); rr.Code != http.StatusOK {
		t.Fatalf("second apply status=%d", rr.Code)
	}
	if len(applied.Created) != 0 {
		t.Fatalf("second apply created %d transactions", len(applied.Created))
	}

	var rules []struct {
		ID int64 `json:"id"`
	}
	if rr := do(t, srv, "GET", "/api/recurring", token, "", &rules); rr.Code != http.StatusOK {
		t.Fatalf("list rules status=%d", rr.Code)
	}
	if len(rules) != 1 {
		t.Fatalf("rules = %+v", rules)
	}
	if rr := do(t, srv, "DELETE", fmt.Sprintf("/api/recurring/%d", rules[0].ID), token, "", nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete rule status=%d", rr.Code)
	}
}

func TestReminderEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := signup(t, srv, "alice")

	soon := time.Now().AddDate(0, 0, 3).Format("2006-01-02")
	far := time.Now().AddDate(0, 0, 30).Format("2006-01-02")
	for _, due := range []string{soon, far} {
		body := fmt.Sprintf(`{"title":"pay bill","due_date":%q}`, due)
		if rr := do(t, srv, "POST", "/api/reminders", token, body, nil); rr.Code != http.StatusCreated {
			t.Fatalf("create reminder status=%d body=%s", rr.Code, rr.Body.String())
		}
	}

	var all []json.RawMessage
	if rr := do(t, srv, "GET", "/api/reminders", token, "", &all); rr.Code != http.StatusOK {
		t.Fatalf("list status=%d", rr.Code)
	}
	if len(all) != 2 {
		t.Fatalf("reminders = %d, want 2", len(all))
	}

	var due []json.RawMessage
	if rr := do(t, srv, "GET", "/api/reminders/due-soon", token, "", &due); rr.Code != http.StatusOK {
		t.Fatalf("due-soon status=%d", rr.Code)
	}
	if len(due) != 1 {
		t.Fatalf("due soon = %d, want 1", len(due))
	}
}

func TestCSVExportImport(t *testing.T) {
	srv := newTestServer(t)
	token := signup(t, srv, "alice")
	addTxn(t, srv, token, "expense", "12.34", "food", "2026-08-01")

	rr := do(t, srv, "GET", "/api/export/transactions.csv", token, "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("export status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "12.34") {
		t.Fatalf("export missing amount: %s", rr.Body.String())
	}

	csv := "kind,amount,category,date\nincome,500.00,Salary,2026-08-05\nexpense,bogus,Food,2026-08-06\n"
	req := httptest.NewRequest("POST", "/api/import/transactions", strings.NewReader(csv))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status=%d body=%s", rec.Code, rec.Body.String())
	}
	var result struct {
		Imported int `json:"imported"`
		Skipped  int `json:"skipped"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode import result: %v", err)
	}
	if result.Imported != 1 || result.Skipped != 1 {
		t.Fatalf("result = %+v", result)
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	srv := newTestServer(t)
	rr := do(t, srv, "POST", "/api/login", "", `{"username":"x","password":"y"}`, nil)
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q", got)
	}
}
