// Package advisor defines the clinical-judgment advisor boundary: an opaque
// external service that proposes a code/unit structure grounded in the
// session narrative. The engine validates and reconciles its output; it is
// never trusted verbatim.
package advisor

import (
	"context"
	"errors"

	"github.com/mathiasdan123/billalloc/internal/model"
)

// ErrUnavailable marks transport-level advisor failures: timeouts,
// connection errors, malformed responses.
var ErrUnavailable = errors.New("advisor unavailable")

// ErrEmptyProposal marks a well-formed advisor response that carried no
// usable line items.
var ErrEmptyProposal = errors.New("advisor returned no line items")

// Request carries everything the advisor needs: session facts, narrative,
// the available codes, and textual payer-rule and rate context.
type Request struct {
	Session     model.SessionFacts
	Codes       []model.Code
	PolicyText  string
	RateSummary string
	UnitBudget  int
}

// ProposedLine is one advisor-proposed line item, pre-validation.
type ProposedLine struct {
	Code          string `json:"code"`
	Units         int    `json:"units"`
	Modifier      string `json:"modifier,omitempty"`
	Justification string `json:"justification"`
}

// Proposal is the advisor's full answer. The self-reported compliance score
// is advisory; the integration layer recomputes all totals itself.
type Proposal struct {
	Lines           []ProposedLine `json:"line_items"`
	Narrative       string         `json:"narrative"`
	ComplianceScore int            `json:"compliance_score"`
}

// Advisor proposes a billing structure for a documented session.
type Advisor interface {
	Propose(ctx context.Context, req Request) (*Proposal, error)
}
