package alloc

import (
	"github.com/mathiasdan123/billalloc/internal/model"
)

// Allocate assigns the unit budget to ranked candidates under the payer
// policy. Distinct-code payers get one unit each across the flattened pool;
// otherwise each category's top code carries an even share, with the
// integer-division remainder going entirely to the first line item.
//
// An empty result means no category resolved to a usable code; the caller is
// responsible for the fallback path.
func (e *Engine) Allocate(rankings [][]Candidate, budget int, policy model.PayerPolicy) []model.LineItem {
	if budget <= 0 {
		return nil
	}

	var items []model.LineItem
	if policy.RequiresDistinctCodePerUnit {
		items = e.allocateDistinct(rankings, budget)
	} else {
		items = e.allocateStacked(rankings, budget)
	}

	clamped := applyCodeRules(items, policy, e.log)
	if clamped > 0 {
		e.log.Info().Int("clamped_lines", clamped).Msg("per-code unit caps applied")
	}
	return items
}

// allocateDistinct flattens all candidates into one pool sorted descending
// by rate and greedily assigns one unit to the highest-rate unused code until
// the budget or the pool is exhausted.
func (e *Engine) allocateDistinct(rankings [][]Candidate, budget int) []model.LineItem {
	var pool []Candidate
	for _, ranking := range rankings {
		pool = append(pool, ranking...)
	}
	sortCandidates(pool)

	used := map[string]struct{}{}
	var items []model.LineItem
	for _, cand := range pool {
		if budget == 0 {
			break
		}
		if _, taken := used[cand.Code.Code]; taken {
			continue
		}
		used[cand.Code.Code] = struct{}{}
		items = append(items, lineItem(cand, 1))
		budget--
	}
	return items
}

// allocateStacked gives each performed category's top-ranked code an even
// share of the budget. Categories visited after the budget runs out receive
// no line item. The leftover from integer division is appended to the first
// line item chosen.
func (e *Engine) allocateStacked(rankings [][]Candidate, budget int) []model.LineItem {
	if len(rankings) == 0 {
		return nil
	}
	per := budget / len(rankings)
	remaining := budget

	var items []model.LineItem
	for _, ranking := range rankings {
		if remaining == 0 {
			break
		}
		if len(ranking) == 0 {
			continue
		}
		units := per
		if units < 1 {
			units = 1
		}
		if units > remaining {
			units = remaining
		}
		remaining -= units
		items = append(items, lineItem(ranking[0], units))
	}

	if remaining > 0 && len(items) > 0 {
		items[0].Units += remaining
	}
	return items
}

func lineItem(cand Candidate, units int) model.LineItem {
	return model.LineItem{
		CodeID:        cand.Code.ID,
		Code:          cand.Code.Code,
		Description:   cand.Code.Description,
		Units:         units,
		RateCents:     cand.RateCents,
		BaseRateCents: cand.Code.BaseRateCents,
		Justification: cand.Justification,
	}
}
