package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pulsegate/pulsegate/internal/drafts"
	"github.com/pulsegate/pulsegate/internal/scan"
	"github.com/pulsegate/pulsegate/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	svc := scan.NewService(st, drafts.LogClient{}, nil, nil)

	mux := http.NewServeMux()
	NewHandler(st, svc).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, st
}

const delinquentScan = `{"accounts":[{
	"account_id": "acct-1",
	"payment": {"days_overdue": 90, "consecutive_late": 5, "outstanding_amount": 60000},
	"relationship": {"annual_value": 12000, "tenure_months": 6}
}]}`

func TestScanEndpointAdvancesDelinquentAccount(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/internal/scan", "application/json", strings.NewReader(delinquentScan))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var outcomes []scan.Outcome
	if err := json.NewDecoder(resp.Body).Decode(&outcomes); err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outcomes))
	}
	if outcomes[0].Stage != 1 {
		t.Errorf("Stage = %d, want 1", outcomes[0].Stage)
	}
	if outcomes[0].PaymentScore != 85 {
		t.Errorf("PaymentScore = %v, want 85", outcomes[0].PaymentScore)
	}
}

func TestGetStateReturnsStageZeroForUnknownAccount(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/accounts/acct-unknown/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var st stateResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Stage != 0 {
		t.Errorf("Stage = %d, want 0", st.Stage)
	}
	if st.Terminal {
		t.Error("Terminal = true for an account that was never scanned")
	}
}

func TestResolveEndpointResetsState(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/internal/scan", "application/json", strings.NewReader(delinquentScan))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = http.Post(srv.URL+"/api/v1/accounts/acct-1/resolve", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var st stateResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Stage != 0 {
		t.Errorf("Stage after resolve = %d, want 0", st.Stage)
	}
	if st.MessagesUnanswered != 0 {
		t.Errorf("MessagesUnanswered after resolve = %d, want 0", st.MessagesUnanswered)
	}
}

func TestListScoresReturnsPersistedHistory(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/internal/scan", "application/json", strings.NewReader(delinquentScan))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/v1/accounts/acct-1/scores?domain=payment_risk")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var scores []scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&scores); err != nil {
		t.Fatal(err)
	}
	if len(scores) != 1 {
		t.Fatalf("got %d scores, want 1", len(scores))
	}
	if scores[0].Score != 85 || scores[0].Band != "CRITICAL" {
		t.Errorf("score = %v band = %s, want 85 CRITICAL", scores[0].Score, scores[0].Band)
	}
	if !scores[0].Escalate {
		t.Error("Escalate = false for a critical payment score")
	}
}

func TestListScoresWithoutDomainReturnsAllDomains(t *testing.T) {
	srv, _ := newTestServer(t)

	const body = `{"accounts":[{
		"account_id": "acct-2",
		"payment": {"days_overdue": 90, "consecutive_late": 5, "outstanding_amount": 60000},
		"technical": {"uptime_pct": 99.95, "error_rate_pct": 0.05, "open_incidents": 0, "failed_syncs_7d": 0},
		"relationship": {"annual_value": 12000, "tenure_months": 6}
	}]}`
	resp, err := http.Post(srv.URL+"/internal/scan", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/v1/accounts/acct-2/scores")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var scores []scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&scores); err != nil {
		t.Fatal(err)
	}
	if len(scores) != 2 {
		t.Fatalf("got %d scores without a domain filter, want 2", len(scores))
	}
	domains := map[string]bool{}
	for _, sc := range scores {
		domains[sc.Domain] = true
	}
	if !domains["payment_risk"] || !domains["technical_health"] {
		t.Errorf("domains = %v, want payment_risk and technical_health", domains)
	}

	resp, err = http.Get(srv.URL + "/api/v1/accounts/acct-2/scores?domain=payment_risk")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	scores = nil
	if err := json.NewDecoder(resp.Body).Decode(&scores); err != nil {
		t.Fatal(err)
	}
	if len(scores) != 1 {
		t.Fatalf("got %d scores filtered to payment_risk, want 1", len(scores))
	}
}

func TestListScoresRejectsBadLimit(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/accounts/acct-1/scores?limit=zero")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight reached the inner handler")
	})

	h := CORS(inner)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/accounts", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "X-API-Key") {
		t.Errorf("Allow-Headers = %q, want it to include X-API-Key", got)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("empty key passes everything", func(t *testing.T) {
		h := APIKeyAuth("")(inner)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("wrong key rejected", func(t *testing.T) {
		h := APIKeyAuth("secret")(inner)
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-API-Key", "nope")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("matching key passes", func(t *testing.T) {
		h := APIKeyAuth("secret")(inner)
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-API-Key", "secret")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}
