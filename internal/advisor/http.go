package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mathiasdan123/billalloc/internal/normalize"
)

const defaultTimeout = 20 * time.Second

// HTTPAdvisor calls an OpenAI-compatible chat-completions endpoint and
// extracts a structured proposal from the model's JSON reply.
type HTTPAdvisor struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	log      zerolog.Logger
}

// NewHTTP builds an HTTPAdvisor. timeout <= 0 uses the default; the call is
// always bounded so the caller is never blocked indefinitely.
func NewHTTP(endpoint, apiKey, modelName string, timeout time.Duration, log zerolog.Logger) *HTTPAdvisor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPAdvisor{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		model:    modelName,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const systemPrompt = `You are a billing-code assistant for outpatient therapy documentation.
Given a documented session, the codes available to this practice, and the payer's
rules, propose the billable line items. Respond with a single JSON object:
{"line_items":[{"code":"97110","units":1,"modifier":"","justification":"..."}],
"narrative":"...","compliance_score":0-100}.
Only use codes from the available list. Justify every line from the narrative.`

func (a *HTTPAdvisor) Propose(ctx context.Context, req Request) (*Proposal, error) {
	body, err := json.Marshal(chatRequest{
		Model:          a.model,
		Temperature:    0,
		ResponseFormat: &respFormat{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(req)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	start := time.Now()
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrUnavailable)
	}

	proposal, err := parseProposal(chat.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	a.log.Info().
		Int("lines", len(proposal.Lines)).
		Int("self_score", proposal.ComplianceScore).
		Dur("duration", time.Since(start)).
		Msg("advisor proposal received")
	return proposal, nil
}

// parseProposal extracts the JSON object from the model reply. Models
// occasionally wrap JSON in prose or code fences; take the outermost braces.
func parseProposal(content string) (*Proposal, error) {
	first := strings.Index(content, "{")
	last := strings.LastIndex(content, "}")
	if first < 0 || last <= first {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrUnavailable)
	}

	var p Proposal
	if err := json.Unmarshal([]byte(content[first:last+1]), &p); err != nil {
		return nil, fmt.Errorf("%w: parse proposal: %v", ErrUnavailable, err)
	}
	if len(p.Lines) == 0 {
		return nil, ErrEmptyProposal
	}
	return &p, nil
}

func buildUserPrompt(req Request) string {
	var b strings.Builder
	s := req.Session

	fmt.Fprintf(&b, "Session: %d minutes, unit budget %d (15-minute units). Payer: %s.\n",
		s.DurationMinutes, req.UnitBudget, s.Payer)
	if s.DiagnosisCode != "" {
		fmt.Fprintf(&b, "Diagnosis: %s\n", s.DiagnosisCode)
	}
	if len(s.Categories) > 0 {
		fmt.Fprintf(&b, "Interventions performed: %s\n", strings.Join(s.Categories, ", "))
	}

	b.WriteString("\nDocumentation:\n")
	for _, section := range []struct{ name, text string }{
		{"Subjective", s.Subjective},
		{"Objective", s.Objective},
		{"Assessment", s.Assessment},
		{"Plan", s.Plan},
	} {
		if section.text != "" {
			fmt.Fprintf(&b, "%s: %s\n", section.name, section.text)
		}
	}

	b.WriteString("\nAvailable codes:\n")
	for _, c := range req.Codes {
		fmt.Fprintf(&b, "- %s: %s (list rate %s)\n",
			c.Code, c.Description, normalize.FormatCents(c.BaseRateCents))
	}

	if req.PolicyText != "" {
		fmt.Fprintf(&b, "\nPayer rules:\n%s\n", req.PolicyText)
	}
	if req.RateSummary != "" {
		fmt.Fprintf(&b, "\nReimbursement context:\n%s\n", req.RateSummary)
	}
	return b.String()
}
