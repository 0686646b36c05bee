package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mathiasdan123/billalloc/internal/model"
)

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		t.Errorf("encode reply: %v", err)
	}
}

func testRequest() Request {
	return Request{
		Session: model.SessionFacts{
			DurationMinutes: 45,
			Payer:           "Aetna",
			Categories:      []string{"therapeutic_exercise"},
			Objective:       "Performed progressive resistance exercise, 3x10.",
		},
		Codes: []model.Code{
			{Code: "97110", Description: "Therapeutic exercise", BaseRateCents: 4500},
			{Code: "97530", Description: "Therapeutic activities", BaseRateCents: 4200},
		},
		PolicyText: "Aetna: one distinct code per unit",
		UnitBudget: 3,
	}
}

func TestPropose_ParsesProposal(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		chatReply(t, w, `{"line_items":[{"code":"97110","units":2,"justification":"Documented resistance exercise"}],"narrative":"Two units of 97110.","compliance_score":92}`)
	}))
	defer srv.Close()

	a := NewHTTP(srv.URL, "test-key", "gpt-4o-mini", time.Second, zerolog.Nop())
	p, err := a.Propose(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("unexpected message layout: %+v", gotReq.Messages)
	}
	if !strings.Contains(gotReq.Messages[1].Content, "unit budget 3") {
		t.Error("user prompt missing unit budget")
	}
	if !strings.Contains(gotReq.Messages[1].Content, "97110") {
		t.Error("user prompt missing available codes")
	}

	if len(p.Lines) != 1 || p.Lines[0].Code != "97110" || p.Lines[0].Units != 2 {
		t.Fatalf("unexpected lines: %+v", p.Lines)
	}
	if p.Narrative != "Two units of 97110." || p.ComplianceScore != 92 {
		t.Errorf("narrative/score not carried: %+v", p)
	}
}

// Models sometimes wrap the JSON in prose or code fences; the outermost
// braces are still extracted.
func TestPropose_FencedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "Here is the structure:\n```json\n{\"line_items\":[{\"code\":\"97530\",\"units\":1}]}\n```")
	}))
	defer srv.Close()

	a := NewHTTP(srv.URL, "", "m", time.Second, zerolog.Nop())
	p, err := a.Propose(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if len(p.Lines) != 1 || p.Lines[0].Code != "97530" {
		t.Fatalf("unexpected lines: %+v", p.Lines)
	}
}

func TestPropose_EmptyLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, `{"line_items":[],"narrative":"nothing billable"}`)
	}))
	defer srv.Close()

	a := NewHTTP(srv.URL, "", "m", time.Second, zerolog.Nop())
	_, err := a.Propose(context.Background(), testRequest())
	if !errors.Is(err, ErrEmptyProposal) {
		t.Fatalf("expected ErrEmptyProposal, got %v", err)
	}
}

func TestPropose_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewHTTP(srv.URL, "", "m", time.Second, zerolog.Nop())
	_, err := a.Propose(context.Background(), testRequest())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestPropose_NoJSONInReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "I cannot produce a structure for this session.")
	}))
	defer srv.Close()

	a := NewHTTP(srv.URL, "", "m", time.Second, zerolog.Nop())
	_, err := a.Propose(context.Background(), testRequest())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestPropose_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	a := NewHTTP(srv.URL, "", "m", time.Minute, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := a.Propose(ctx, testRequest())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on cancellation, got %v", err)
	}
}

func TestParseProposal(t *testing.T) {
	if _, err := parseProposal(""); !errors.Is(err, ErrUnavailable) {
		t.Errorf("empty content: got %v", err)
	}
	if _, err := parseProposal(`{"line_items":[{"code":"97110","units":`); !errors.Is(err, ErrUnavailable) {
		t.Errorf("truncated JSON: got %v", err)
	}
	p, err := parseProposal(`{"line_items":[{"code":"97110","units":1,"modifier":"GP"}]}`)
	if err != nil {
		t.Fatalf("parseProposal: %v", err)
	}
	if p.Lines[0].Modifier != "GP" {
		t.Errorf("modifier = %q", p.Lines[0].Modifier)
	}
}
