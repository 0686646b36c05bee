package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mathiasdan123/billalloc/internal/model"
	"github.com/mathiasdan123/billalloc/internal/rates"
	"github.com/mathiasdan123/billalloc/internal/recommend"
)

func newTestServer(t *testing.T) (*Server, *rates.Memory) {
	t.Helper()
	repo := rates.NewMemory()
	svc := recommend.NewService(repo, nil, time.Second, zerolog.Nop())
	return New(svc, repo, zerolog.Nop()), repo
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v\n%s", err, rec.Body.String())
	}
}

func recommendBody() recommend.Input {
	return recommend.Input{
		Session: model.SessionFacts{
			DurationMinutes: 45,
			Payer:           "Aetna",
			Categories:      []string{"therapeutic_exercise"},
		},
		Codes: []model.Code{
			{ID: 1, Code: "97110", Description: "Therapeutic exercise", BaseRateCents: 4500},
			{ID: 2, Code: "97530", Description: "Therapeutic activities", BaseRateCents: 4200},
		},
	}
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateRecommendation(t *testing.T) {
	s, repo := newTestServer(t)
	cents := int64(5200)
	if err := repo.UpsertRate(context.Background(), model.PayerRate{
		Payer: "aetna", Code: "97110", InNetworkCents: &cents,
	}); err != nil {
		t.Fatalf("seed rate: %v", err)
	}

	rec := doJSON(t, s.Handler(), http.MethodPost, "/v1/recommendations", recommendBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var out model.Recommendation
	decodeInto(t, rec, &out)
	if len(out.LineItems) == 0 {
		t.Fatal("no line items in response")
	}
	if out.LineItems[0].Code != "97110" {
		t.Errorf("top code = %s, want 97110", out.LineItems[0].Code)
	}
	if out.TotalUnits == 0 || out.TotalEstimatedCents == 0 {
		t.Errorf("totals not populated: %+v", out)
	}
	if out.Fallback {
		t.Error("unexpected fallback")
	}
}

func TestCreateRecommendation_Validation(t *testing.T) {
	s, _ := newTestServer(t)

	in := recommendBody()
	in.Session.DurationMinutes = 0
	rec := doJSON(t, s.Handler(), http.MethodPost, "/v1/recommendations", in)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero duration: status = %d, want 400", rec.Code)
	}

	in = recommendBody()
	in.Session.Payer = ""
	rec = doJSON(t, s.Handler(), http.MethodPost, "/v1/recommendations", in)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing payer: status = %d, want 400", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/recommendations", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", w.Code)
	}
}

func TestCreateRecommendation_EmptyCatalog(t *testing.T) {
	s, _ := newTestServer(t)
	in := recommendBody()
	in.Codes = nil

	rec := doJSON(t, s.Handler(), http.MethodPost, "/v1/recommendations", in)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestPutAndListRates(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	for code, cents := range map[string]int64{"97110": 5200, "97530": 4500} {
		rec := doJSON(t, h, http.MethodPut, "/v1/payers/Aetna/rates/"+code,
			map[string]any{"in_network_cents": cents})
		if rec.Code != http.StatusOK {
			t.Fatalf("put %s: status = %d: %s", code, rec.Code, rec.Body.String())
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/v1/payers/Aetna/rates", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}

	var out struct {
		Summary model.RateSummary  `json:"summary"`
		Rates   []model.RankedRate `json:"rates"`
	}
	decodeInto(t, rec, &out)
	if out.Summary.CodeCount != 2 {
		t.Errorf("CodeCount = %d, want 2", out.Summary.CodeCount)
	}
	if len(out.Rates) != 2 || out.Rates[0].Code != "97110" {
		t.Errorf("rates = %+v, want 97110 ranked first", out.Rates)
	}
}

func TestListRates_EmptyPayer(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/v1/payers/Nobody/rates", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out struct {
		Rates []model.RankedRate `json:"rates"`
	}
	decodeInto(t, rec, &out)
	if out.Rates == nil {
		t.Error("rates must encode as [], not null")
	}
}

func TestPutRate_InvalidCode(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodPut, "/v1/payers/Aetna/rates/---",
		map[string]any{"in_network_cents": 100})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
