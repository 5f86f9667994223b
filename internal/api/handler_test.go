package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/auth"
	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/ledger"
	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/middleware"
	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/models"
	"github.com/nayanjaiswal1/ai-based-fms-sub001/internal/storage/sqlite"
)

type testServer struct {
	server *httptest.Server
	token  string
	t      *testing.T
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "api-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	lgr := ledger.New(store)
	processor := ledger.NewProcessor(store, lgr, nil)
	planner := ledger.NewPlanner(lgr)

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate("alice", "alice@example.com")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	handler := NewHandler(store, processor, lgr, planner)
	server := httptest.NewServer(handler.Router(middleware.RequireAuth(jwtManager)))
	t.Cleanup(server.Close)

	return &testServer{server: server, token: token, t: t}
}

// do sends an authenticated JSON request and decodes the response into out
// when out is non-nil.
func (ts *testServer) do(method, path string, body any, out any) int {
	ts.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			ts.t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.server.URL+path, reader)
	if err != nil {
		ts.t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+ts.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.server.Client().Do(req)
	if err != nil {
		ts.t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			ts.t.Fatalf("failed to decode response: %v", err)
		}
	}
	return resp.StatusCode
}

type balancesResponse struct {
	GroupID  string                 `json:"group_id"`
	Balances []models.MemberBalance `json:"balances"`
}

func (ts *testServer) balances(groupID string) map[string]float64 {
	ts.t.Helper()
	var resp balancesResponse
	if code := ts.do("GET", "/api/v1/groups/"+groupID+"/balances", nil, &resp); code != http.StatusOK {
		ts.t.Fatalf("balances returned %d", code)
	}
	out := make(map[string]float64)
	for _, b := range resp.Balances {
		out[b.UserID] = b.Balance
	}
	return out
}

func TestAPIFullFlow(t *testing.T) {
	ts := newTestServer(t)

	// Create a group; the authenticated caller joins automatically.
	var group models.Group
	code := ts.do("POST", "/api/v1/groups", map[string]string{"name": "Ski Trip"}, &group)
	if code != http.StatusCreated {
		t.Fatalf("create group returned %d", code)
	}
	if group.ID == "" {
		t.Fatal("group ID missing from response")
	}

	for _, userID := range []string{"bob", "carol"} {
		code = ts.do("POST", "/api/v1/groups/"+group.ID+"/members", map[string]string{"user_id": userID}, nil)
		if code != http.StatusCreated {
			t.Fatalf("add member %s returned %d", userID, code)
		}
	}

	// Equal split resolves shares server-side.
	var txn models.Transaction
	code = ts.do("POST", "/api/v1/groups/"+group.ID+"/transactions", map[string]any{
		"amount":      120.0,
		"paid_by":     "alice",
		"split_type":  "equal",
		"splits":      map[string]float64{"alice": 0, "bob": 0, "carol": 0},
		"description": "lift tickets",
	}, &txn)
	if code != http.StatusCreated {
		t.Fatalf("add transaction returned %d", code)
	}
	if len(txn.Splits) != 3 || math.Abs(txn.Splits["bob"]-40.0) > 0.01 {
		t.Errorf("unexpected resolved splits: %v", txn.Splits)
	}

	got := ts.balances(group.ID)
	if math.Abs(got["alice"]-80.0) > 0.01 || math.Abs(got["bob"]-(-40.0)) > 0.01 {
		t.Errorf("unexpected balances after expense: %v", got)
	}

	// Suggestions route money from debtors to the creditor.
	var suggestions struct {
		Suggestions []models.SettlementSuggestion `json:"suggestions"`
	}
	code = ts.do("GET", "/api/v1/groups/"+group.ID+"/settlements/suggestions", nil, &suggestions)
	if code != http.StatusOK {
		t.Fatalf("suggestions returned %d", code)
	}
	if len(suggestions.Suggestions) != 2 {
		t.Fatalf("got %d suggestions, want 2: %+v", len(suggestions.Suggestions), suggestions.Suggestions)
	}
	for _, s := range suggestions.Suggestions {
		if s.To != "alice" || math.Abs(s.Amount-40.0) > 0.01 {
			t.Errorf("unexpected suggestion: %+v", s)
		}
	}

	// Bob pays alice back.
	var settlement models.Transaction
	code = ts.do("POST", "/api/v1/groups/"+group.ID+"/settlements", map[string]any{
		"from_user_id": "bob",
		"to_user_id":   "alice",
		"amount":       40.0,
	}, &settlement)
	if code != http.StatusCreated {
		t.Fatalf("settlement returned %d", code)
	}
	if !settlement.IsSettlement {
		t.Error("settlement response not flagged as settlement")
	}

	got = ts.balances(group.ID)
	if math.Abs(got["bob"]) > 0.01 || math.Abs(got["alice"]-40.0) > 0.01 {
		t.Errorf("unexpected balances after settlement: %v", got)
	}

	// Listing shows both entries, newest first.
	var list struct {
		Transactions []models.Transaction `json:"transactions"`
	}
	code = ts.do("GET", "/api/v1/groups/"+group.ID+"/transactions", nil, &list)
	if code != http.StatusOK {
		t.Fatalf("list transactions returned %d", code)
	}
	if len(list.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(list.Transactions))
	}

	// Deleting the expense leaves only the settlement's effect.
	code = ts.do("DELETE", "/api/v1/transactions/"+txn.ID, nil, nil)
	if code != http.StatusOK {
		t.Fatalf("delete transaction returned %d", code)
	}
	got = ts.balances(group.ID)
	if math.Abs(got["alice"]-(-40.0)) > 0.01 || math.Abs(got["bob"]-40.0) > 0.01 {
		t.Errorf("unexpected balances after delete: %v", got)
	}
}

func TestAPIErrors(t *testing.T) {
	ts := newTestServer(t)

	var group models.Group
	if code := ts.do("POST", "/api/v1/groups", map[string]string{"name": "Errors"}, &group); code != http.StatusCreated {
		t.Fatalf("create group returned %d", code)
	}
	if code := ts.do("POST", "/api/v1/groups/"+group.ID+"/members", map[string]string{"user_id": "bob"}, nil); code != http.StatusCreated {
		t.Fatal("add member failed")
	}

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		wantCode int
	}{
		{
			name:   "split mismatch",
			method: "POST",
			path:   "/api/v1/groups/" + group.ID + "/transactions",
			body: map[string]any{
				"amount":  100.0,
				"paid_by": "alice",
				"splits":  map[string]float64{"bob": 50.0},
			},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:   "non-positive amount",
			method: "POST",
			path:   "/api/v1/groups/" + group.ID + "/transactions",
			body: map[string]any{
				"amount":  -10.0,
				"paid_by": "alice",
				"splits":  map[string]float64{"bob": -10.0},
			},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "unknown group",
			method:   "GET",
			path:     "/api/v1/groups/does-not-exist",
			wantCode: http.StatusNotFound,
		},
		{
			name:     "unknown transaction",
			method:   "DELETE",
			path:     "/api/v1/transactions/does-not-exist",
			wantCode: http.StatusNotFound,
		},
		{
			name:     "self settlement",
			method:   "POST",
			path:     "/api/v1/groups/" + group.ID + "/settlements",
			body:     map[string]any{"from_user_id": "bob", "to_user_id": "bob", "amount": 10.0},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "settlement below tolerance",
			method:   "POST",
			path:     "/api/v1/groups/" + group.ID + "/settlements",
			body:     map[string]any{"from_user_id": "bob", "to_user_id": "alice", "amount": 0.005},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "missing group name",
			method:   "POST",
			path:     "/api/v1/groups",
			body:     map[string]string{},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errBody map[string]string
			code := ts.do(tt.method, tt.path, tt.body, &errBody)
			if code != tt.wantCode {
				t.Errorf("got status %d, want %d (body %v)", code, tt.wantCode, errBody)
			}
			if errBody["error"] == "" {
				t.Error("expected an error message in the body")
			}
		})
	}
}

func TestAPIAuth(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name  string
		setup func(*http.Request)
	}{
		{name: "missing header", setup: func(r *http.Request) {}},
		{name: "malformed header", setup: func(r *http.Request) {
			r.Header.Set("Authorization", "Token abc")
		}},
		{name: "garbage token", setup: func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer not.a.jwt")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest("GET", ts.server.URL+"/api/v1/groups/some-id/balances", nil)
			if err != nil {
				t.Fatalf("failed to build request: %v", err)
			}
			tt.setup(req)

			resp, err := ts.server.Client().Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("got status %d, want 401", resp.StatusCode)
			}
		})
	}

	t.Run("health is public", func(t *testing.T) {
		resp, err := ts.server.Client().Get(ts.server.URL + "/health")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("health returned %d, want 200", resp.StatusCode)
		}
	})
}

func TestRequestLogCarriesCaller(t *testing.T) {
	ts := newTestServer(t)

	var group models.Group
	if code := ts.do("POST", "/api/v1/groups", map[string]string{"name": "Logged"}, &group); code != http.StatusCreated {
		t.Fatalf("create group returned %d", code)
	}

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	if code := ts.do("GET", "/api/v1/groups/"+group.ID+"/balances", nil, nil); code != http.StatusOK {
		t.Fatalf("balances returned %d", code)
	}

	if !strings.Contains(buf.String(), `"user_id":"alice"`) {
		t.Errorf("request log missing authenticated caller: %s", buf.String())
	}
}

func TestMetricsCoverAllRoutes(t *testing.T) {
	ts := newTestServer(t)

	var group models.Group
	if code := ts.do("POST", "/api/v1/groups", map[string]string{"name": "Measured"}, &group); code != http.StatusCreated {
		t.Fatalf("create group returned %d", code)
	}
	if code := ts.do("GET", "/api/v1/groups/"+group.ID+"/balances", nil, nil); code != http.StatusOK {
		t.Fatalf("balances returned %d", code)
	}

	resp, err := ts.server.Client().Get(ts.server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read metrics: %v", err)
	}
	metrics := string(body)

	// Every route gets both the counter and the latency histogram, labeled
	// with the route template rather than the raw path.
	for _, want := range []string{
		`expense_ledger_http_request_duration_seconds_count{endpoint="/api/v1/groups/{id}/balances",method="GET"}`,
		`expense_ledger_http_request_duration_seconds_count{endpoint="/api/v1/groups",method="POST"}`,
		`expense_ledger_http_requests_total{endpoint="/api/v1/groups/{id}/balances",method="GET",status="200"}`,
	} {
		if !strings.Contains(metrics, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
	if strings.Contains(metrics, `endpoint="/api/v1/groups/`+group.ID) {
		t.Error("metrics labeled with raw path instead of route template")
	}
}

func TestAPIGroupLifecycle(t *testing.T) {
	ts := newTestServer(t)

	var group models.Group
	if code := ts.do("POST", "/api/v1/groups", map[string]string{"name": "Short-lived", "currency": "EUR"}, &group); code != http.StatusCreated {
		t.Fatalf("create group returned %d", code)
	}
	if group.Currency != "EUR" {
		t.Errorf("currency = %s, want EUR", group.Currency)
	}

	if code := ts.do("DELETE", "/api/v1/groups/"+group.ID, nil, nil); code != http.StatusOK {
		t.Fatalf("deactivate group returned %d", code)
	}

	// Deactivated groups refuse new transactions.
	code := ts.do("POST", fmt.Sprintf("/api/v1/groups/%s/transactions", group.ID), map[string]any{
		"amount":  10.0,
		"paid_by": "alice",
		"splits":  map[string]float64{"alice": 10.0},
	}, nil)
	if code != http.StatusNotFound {
		t.Errorf("transaction against deactivated group returned %d, want 404", code)
	}
}
