package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ledgerd/internal/auth"
	"ledgerd/internal/core"
	"ledgerd/internal/service"
	"ledgerd/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *auth.Verifier) {
	t.Helper()
	verifier := auth.NewVerifier("test-secret")
	transactions := service.NewTransactions(storage.NewMemoryStore(), nil)
	srv := NewServer(":0", verifier, transactions, []string{"http://localhost:3000"})
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv, verifier
}

func doRequest(srv *Server, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func message(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	msg, _ := body["message"].(string)
	return msg
}

const validIncome = `{"title":"Salary","amount":5000,"category":"Salary","description":"x","date":"2024-06-01"}`

func TestAuthGate(t *testing.T) {
	srv, verifier := newTestServer(t)

	t.Run("no token is 401", func(t *testing.T) {
		for _, route := range []struct{ method, path string }{
			{http.MethodPost, "/api/v1/add-income"},
			{http.MethodGet, "/api/v1/get-incomes"},
			{http.MethodDelete, "/api/v1/delete-income/1"},
			{http.MethodPost, "/api/v1/add-expense"},
			{http.MethodGet, "/api/v1/get-expenses"},
			{http.MethodDelete, "/api/v1/delete-expense/1"},
		} {
			rr := doRequest(srv, route.method, route.path, "", "")
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("%s %s: want 401, got %d", route.method, route.path, rr.Code)
			}
		}
	})

	t.Run("invalid token is 403", func(t *testing.T) {
		rr := doRequest(srv, http.MethodGet, "/api/v1/get-incomes", "forged", "")
		if rr.Code != http.StatusForbidden {
			t.Fatalf("want 403, got %d", rr.Code)
		}
	})

	t.Run("expired token is 403", func(t *testing.T) {
		expired := verifier.Mint("u1", -time.Minute)
		rr := doRequest(srv, http.MethodGet, "/api/v1/get-incomes", expired, "")
		if rr.Code != http.StatusForbidden {
			t.Fatalf("want 403, got %d", rr.Code)
		}
	})
}

func TestIncomeLifecycle(t *testing.T) {
	srv, verifier := newTestServer(t)
	token := verifier.Mint("u1", time.Hour)

	rr := doRequest(srv, http.MethodPost, "/api/v1/add-income", token, validIncome)
	if rr.Code != http.StatusOK {
		t.Fatalf("create: want 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	if got := message(t, rr); got != "Income Added" {
		t.Fatalf("create message: got %q", got)
	}

	rr = doRequest(srv, http.MethodGet, "/api/v1/get-incomes", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list: want 200, got %d", rr.Code)
	}
	var incomes []core.Transaction
	if err := json.Unmarshal(rr.Body.Bytes(), &incomes); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(incomes) != 1 {
		t.Fatalf("want 1 income, got %d", len(incomes))
	}
	if incomes[0].Amount.Cents != 500000 {
		t.Fatalf("amount: want 500000 cents, got %d", incomes[0].Amount.Cents)
	}
	if incomes[0].OwnerID != "u1" || incomes[0].ID == "" {
		t.Fatalf("server-assigned fields missing: %+v", incomes[0])
	}

	rr = doRequest(srv, http.MethodDelete, "/api/v1/delete-income/"+incomes[0].ID, token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: want 200, got %d", rr.Code)
	}
	if got := message(t, rr); got != "Income Deleted" {
		t.Fatalf("delete message: got %q", got)
	}

	rr = doRequest(srv, http.MethodGet, "/api/v1/get-incomes", token, "")
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Fatalf("list after delete: want empty array, got %s", body)
	}
}

func TestCreateValidationResponses(t *testing.T) {
	srv, verifier := newTestServer(t)
	token := verifier.Mint("u1", time.Hour)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing title", `{"amount":10,"category":"c","description":"d","date":"2024-06-01"}`, "All fields are required!"},
		{"missing date", `{"title":"t","amount":10,"category":"c","description":"d"}`, "All fields are required!"},
		{"zero amount", `{"title":"t","amount":0,"category":"c","description":"d","date":"2024-06-01"}`, "Amount must be a positive number!"},
		{"negative amount", `{"title":"t","amount":-5,"category":"c","description":"d","date":"2024-06-01"}`, "Amount must be a positive number!"},
		{"non-numeric amount", `{"title":"t","amount":"abc","category":"c","description":"d","date":"2024-06-01"}`, "Amount must be a positive number!"},
		{"string amount", `{"title":"t","amount":"12.34","category":"c","description":"d","date":"2024-06-01"}`, "Amount must be a positive number!"},
		{"missing amount", `{"title":"t","category":"c","description":"d","date":"2024-06-01"}`, "Amount must be a positive number!"},
		{"bad date", `{"title":"t","amount":10,"category":"c","description":"d","date":"junk"}`, "Date must be a valid calendar date!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doRequest(srv, http.MethodPost, "/api/v1/add-expense", token, tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d (%s)", rr.Code, rr.Body.String())
			}
			if got := message(t, rr); got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
			// Nothing may be persisted by a rejected create.
			rr = doRequest(srv, http.MethodGet, "/api/v1/get-expenses", token, "")
			if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
				t.Fatalf("rejected create persisted: %s", body)
			}
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		rr := doRequest(srv, http.MethodPost, "/api/v1/add-expense", token, "{not json")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rr.Code)
		}
	})
}

func TestOwnershipAcrossUsers(t *testing.T) {
	srv, verifier := newTestServer(t)
	alice := verifier.Mint("alice", time.Hour)
	bob := verifier.Mint("bob", time.Hour)

	doRequest(srv, http.MethodPost, "/api/v1/add-income", alice, validIncome)

	rr := doRequest(srv, http.MethodGet, "/api/v1/get-incomes", alice, "")
	var incomes []core.Transaction
	json.Unmarshal(rr.Body.Bytes(), &incomes)
	if len(incomes) != 1 {
		t.Fatalf("alice: want 1 income, got %d", len(incomes))
	}

	rr = doRequest(srv, http.MethodGet, "/api/v1/get-incomes", bob, "")
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Fatalf("bob sees alice's records: %s", body)
	}

	rr = doRequest(srv, http.MethodDelete, "/api/v1/delete-income/"+incomes[0].ID, bob, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("cross-owner delete: want 404, got %d", rr.Code)
	}
	if got := message(t, rr); got != "Income not found or unauthorized" {
		t.Fatalf("merged error message: got %q", got)
	}

	// Alice's record must be intact.
	rr = doRequest(srv, http.MethodGet, "/api/v1/get-incomes", alice, "")
	json.Unmarshal(rr.Body.Bytes(), &incomes)
	if len(incomes) != 1 {
		t.Fatalf("alice's record altered by bob")
	}
}

func TestDeleteMissingRecord(t *testing.T) {
	srv, verifier := newTestServer(t)
	token := verifier.Mint("u1", time.Hour)

	rr := doRequest(srv, http.MethodDelete, "/api/v1/delete-expense/999", token, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rr.Code)
	}
}

func TestListNewestFirst(t *testing.T) {
	srv, verifier := newTestServer(t)
	token := verifier.Mint("u1", time.Hour)

	doRequest(srv, http.MethodPost, "/api/v1/add-income", token,
		`{"title":"first","amount":1,"category":"c","description":"d","date":"2024-01-01"}`)
	doRequest(srv, http.MethodPost, "/api/v1/add-income", token,
		`{"title":"second","amount":2,"category":"c","description":"d","date":"2023-01-01"}`)

	rr := doRequest(srv, http.MethodGet, "/api/v1/get-incomes", token, "")
	var incomes []core.Transaction
	json.Unmarshal(rr.Body.Bytes(), &incomes)
	if len(incomes) != 2 {
		t.Fatalf("want 2 incomes, got %d", len(incomes))
	}
	// Ordering is by creation time, not effective date.
	if incomes[0].Title != "second" {
		t.Fatalf("want newest created first, got %q", incomes[0].Title)
	}
}

func TestUnknownAPIRoute(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doRequest(srv, http.MethodGet, "/api/v1/nope", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rr.Code)
	}
	if got := message(t, rr); got != "API route not found" {
		t.Fatalf("got %q", got)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doRequest(srv, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: want 200, got %d", path, rr.Code)
		}
	}
}

func TestExtractClientIP(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"direct client, no headers", "203.0.113.7:4000", "", "", "203.0.113.7"},
		{"direct client spoofing xff", "203.0.113.7:4000", "10.9.9.9", "", "203.0.113.7"},
		{"direct client spoofing xri", "203.0.113.7:4000", "", "10.9.9.9", "203.0.113.7"},
		{"trusted proxy forwards xff", "127.0.0.1:4000", "203.0.113.7", "", "203.0.113.7"},
		{"trusted proxy forwards xff chain", "10.0.0.2:4000", "203.0.113.7, 10.0.0.2", "", "203.0.113.7"},
		{"trusted proxy forwards xri", "192.168.1.10:4000", "", "203.0.113.7", "203.0.113.7"},
		{"trusted proxy with garbage header", "127.0.0.1:4000", "not-an-ip", "", "127.0.0.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/get-incomes", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xri != "" {
				req.Header.Set("X-Real-IP", tc.xri)
			}
			if got := extractClientIP(req); got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestRateLimitNotDodgedByHeaderRotation(t *testing.T) {
	srv, _ := newTestServer(t)

	// A direct (untrusted) client rotating X-Forwarded-For still burns a
	// single per-IP budget: after 60 mutating requests the 61st is limited.
	var last *httptest.ResponseRecorder
	for i := 0; i < 61; i++ {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/delete-income/1", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.%d.%d", i/250, i%250))
		last = httptest.NewRecorder()
		srv.Handler.ServeHTTP(last, req)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("rotated headers dodged the rate limit: got %d", last.Code)
	}
}

func TestCORSHeaders(t *testing.T) {
	srv, verifier := newTestServer(t)
	token := verifier.Mint("u1", time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/get-incomes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allowed origin not echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/get-incomes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unknown origin must not be allowed, got %q", got)
	}
}
