// Package recommend orchestrates one allocation request end to end:
// resolve policy -> rank -> allocate or consult the advisor -> validate ->
// assemble. Every request gets a complete Recommendation back except when
// the supplied code catalog is empty, which is fatal so the caller can block
// claim submission instead of submitting an empty claim.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mathiasdan123/billalloc/internal/advisor"
	"github.com/mathiasdan123/billalloc/internal/alloc"
	"github.com/mathiasdan123/billalloc/internal/catalog"
	"github.com/mathiasdan123/billalloc/internal/model"
	"github.com/mathiasdan123/billalloc/internal/policy"
	"github.com/mathiasdan123/billalloc/internal/rates"
)

// ErrEmptyCatalog is the fatal configuration error: no codes were supplied,
// so not even the fallback path can produce a non-empty allocation.
var ErrEmptyCatalog = errors.New("no billable codes in supplied catalog")

// PhaseError wraps an error with the pipeline phase where it occurred.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Input is one allocation request: session facts plus the practice's code
// catalog and an optional explicit payer preference record.
type Input struct {
	Session     model.SessionFacts  `json:"session" yaml:"session"`
	Codes       []model.Code        `json:"codes" yaml:"codes"`
	Preferences *policy.Preferences `json:"preferences,omitempty" yaml:"preferences,omitempty"`
}

// Service computes billing recommendations. Stateless across requests;
// concurrent calls are independent.
type Service struct {
	engine         *alloc.Engine
	rates          rates.Source
	advisor        advisor.Advisor // nil: advisor skipped, engine allocation used
	advisorTimeout time.Duration
	log            zerolog.Logger
}

// NewService wires a Service. adv may be nil to run purely deterministic.
func NewService(src rates.Source, adv advisor.Advisor, advisorTimeout time.Duration, log zerolog.Logger) *Service {
	if advisorTimeout <= 0 {
		advisorTimeout = 20 * time.Second
	}
	return &Service{
		engine:         alloc.NewEngine(src, log),
		rates:          src,
		advisor:        adv,
		advisorTimeout: advisorTimeout,
		log:            log,
	}
}

// Recommend executes one allocation request.
func (s *Service) Recommend(ctx context.Context, in Input) (*model.Recommendation, error) {
	requestID := uuid.New()
	log := s.log.With().Str("request_id", requestID.String()).Logger()

	cat := catalog.New(in.Codes)
	if cat.Len() == 0 {
		return nil, ErrEmptyCatalog
	}

	pol := policy.Resolve(in.Session.Payer, in.Preferences)
	budget := alloc.UnitBudget(in.Session.DurationMinutes, pol)

	log.Info().
		Str("payer", pol.Payer).
		Int("unit_budget", budget).
		Int("categories", len(in.Session.Categories)).
		Bool("distinct_per_unit", pol.RequiresDistinctCodePerUnit).
		Msg("allocation request")

	rankings, err := s.engine.Rank(ctx, pol.Payer, in.Session.Categories, cat)
	if err != nil {
		return nil, &PhaseError{Phase: "rank", Err: err}
	}

	out := outcome{policy: pol, budget: budget}

	if s.advisor != nil {
		s.consultAdvisor(ctx, log, in, cat, pol, budget, &out)
	} else {
		items := s.engine.Allocate(rankings, budget, pol)
		if len(items) > 0 {
			out.items = items
			out.narrative = rankedNarrative(pol)
		}
	}

	if len(out.items) == 0 {
		// Deterministic single-code fallback guarantees a usable answer
		// whenever the budget allows one.
		out.fallback = true
		out.items = s.buildFallback(cat, budget)
		out.narrative = fallbackNarrative(pol)
		log.Info().Int("units", totalUnits(out.items)).Msg("using fallback allocation")
	}

	rec := assemble(requestID, out)

	log.Info().
		Int("line_items", len(rec.LineItems)).
		Int("total_units", rec.TotalUnits).
		Int64("total_estimated_cents", rec.TotalEstimatedCents).
		Int("compliance_score", rec.ComplianceScore).
		Bool("reimbursement_optimized", rec.ReimbursementOptimized).
		Bool("fallback", rec.Fallback).
		Msg("recommendation assembled")

	return rec, nil
}

// consultAdvisor calls the advisor with a bounded timeout and reconciles its
// proposal. Any failure leaves out.items empty so the fallback path runs;
// advisor failure is never surfaced to the caller as a hard error.
func (s *Service) consultAdvisor(ctx context.Context, log zerolog.Logger, in Input, cat *catalog.Catalog, pol model.PayerPolicy, budget int, out *outcome) {
	req := advisor.Request{
		Session:    in.Session,
		Codes:      cat.Codes(),
		PolicyText: policy.GuidelineText(pol),
		UnitBudget: budget,
	}

	ranked, err := s.rates.RankedRatesFor(ctx, pol.Payer)
	if err != nil {
		log.Warn().Err(err).Msg("rate summary unavailable for advisor prompt")
	} else {
		req.RateSummary = rates.SummaryText(rates.Summarize(pol.Payer, ranked))
	}

	actx, cancel := context.WithTimeout(ctx, s.advisorTimeout)
	defer cancel()

	proposal, err := s.advisor.Propose(actx, req)
	if err != nil {
		log.Warn().Err(err).Msg("advisor failed, falling back")
		return
	}

	items, dropped := s.validateProposal(ctx, log, proposal, cat, pol, budget)
	out.droppedLines = dropped
	if len(items) == 0 {
		log.Warn().Int("dropped", dropped).Msg("no valid advisor line items, falling back")
		return
	}

	out.items = items
	out.narrative = proposal.Narrative
	if out.narrative == "" {
		out.narrative = rankedNarrative(pol)
	}
	out.advisorUsed = true
}

func totalUnits(items []model.LineItem) int {
	n := 0
	for _, li := range items {
		n += li.Units
	}
	return n
}
