package recommend

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mathiasdan123/billalloc/internal/model"
)

// fallbackScore is the fixed conservative compliance score for fallback
// recommendations.
const fallbackScore = 55

// outcome collects what the pipeline decided before assembly.
type outcome struct {
	items        []model.LineItem
	narrative    string
	policy       model.PayerPolicy
	budget       int
	fallback     bool
	advisorUsed  bool
	droppedLines int
}

// assemble merges validated line items into the final recommendation with
// recomputed totals. No failure mode: always returns a complete object, even
// when every amount is zero.
func assemble(requestID uuid.UUID, out outcome) *model.Recommendation {
	rec := &model.Recommendation{
		RequestID:           requestID,
		LineItems:           out.items,
		Narrative:           out.narrative,
		Fallback:            out.fallback,
		DroppedAdvisorLines: out.droppedLines,
	}
	if rec.LineItems == nil {
		rec.LineItems = []model.LineItem{}
	}

	anyPayerRate := false
	for _, li := range rec.LineItems {
		rec.TotalUnits += li.Units
		rec.TotalEstimatedCents += li.EstimateCents()
		if li.RateCents != nil {
			anyPayerRate = true
		}
	}

	// Optimized only when real payer-rate data informed a non-fallback
	// selection.
	rec.ReimbursementOptimized = anyPayerRate && !out.fallback
	rec.ComplianceScore = complianceScore(rec, out)
	return rec
}

// complianceScore is the heuristic 0-100 defensibility indicator. Fallback
// recommendations always get the fixed conservative score.
func complianceScore(rec *model.Recommendation, out outcome) int {
	if out.fallback {
		return fallbackScore
	}

	score := 100
	anyUnrated := false
	for _, li := range rec.LineItems {
		if li.RateCents == nil {
			anyUnrated = true
		}
	}
	if anyUnrated {
		score -= 15
	}
	if rec.TotalUnits < out.budget {
		score -= 10
	}
	if !out.policy.HasPreferences {
		score -= 5
	}
	if out.droppedLines > 0 {
		score -= 10
	}
	if score < 0 {
		score = 0
	}
	return score
}

func rankedNarrative(pol model.PayerPolicy) string {
	mode := "units stacked on each category's highest-reimbursing code"
	if pol.RequiresDistinctCodePerUnit {
		mode = "one distinct code per unit, highest-reimbursing codes first"
	}
	return fmt.Sprintf("Reimbursement-ranked allocation for %s: %s. Codes restricted to the documented interventions' equivalency classes.", pol.Payer, mode)
}

func fallbackNarrative(pol model.PayerPolicy) string {
	return fmt.Sprintf("Conservative fallback allocation for %s: single general-purpose code at reduced units. Review documentation before claim submission.", pol.Payer)
}
