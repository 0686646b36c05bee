package alloc

import (
	"github.com/rs/zerolog"

	"github.com/mathiasdan123/billalloc/internal/model"
)

// applyCodeRules clamps each line item to the payer's explicit per-code unit
// cap and attaches required modifiers. Clamped surplus is not redistributed:
// under-allocating the budget is preferable to a compliance violation.
// Returns the number of clamped lines.
func applyCodeRules(items []model.LineItem, policy model.PayerPolicy, log zerolog.Logger) int {
	clamped := 0
	for i := range items {
		rule, ok := policy.RuleFor(items[i].Code)
		if !ok {
			continue
		}
		if rule.RequiredModifier != "" && items[i].Modifier == "" {
			items[i].Modifier = rule.RequiredModifier
		}
		if rule.MaxUnits > 0 && items[i].Units > rule.MaxUnits {
			log.Info().
				Str("code", items[i].Code).
				Int("units", items[i].Units).
				Int("cap", rule.MaxUnits).
				Msg("clamping units to per-code cap")
			items[i].Units = rule.MaxUnits
			clamped++
		}
	}
	return clamped
}

// ApplyCodeRules is the exported form used when validating advisor-proposed
// line items against the same payer rules.
func ApplyCodeRules(items []model.LineItem, policy model.PayerPolicy, log zerolog.Logger) int {
	return applyCodeRules(items, policy, log)
}

// CapTotalUnits trims units from the tail of the item list until the total
// fits the budget. Items reduced to zero units are removed. Returns the
// surviving items and whether anything was trimmed.
func CapTotalUnits(items []model.LineItem, budget int) ([]model.LineItem, bool) {
	total := 0
	for _, li := range items {
		total += li.Units
	}
	if total <= budget {
		return items, false
	}

	excess := total - budget
	for i := len(items) - 1; i >= 0 && excess > 0; i-- {
		cut := items[i].Units
		if cut > excess {
			cut = excess
		}
		items[i].Units -= cut
		excess -= cut
	}

	kept := items[:0]
	for _, li := range items {
		if li.Units > 0 {
			kept = append(kept, li)
		}
	}
	return kept, true
}

// DedupeDistinct enforces the one-code-per-unit constraint on an externally
// proposed item list: the first occurrence of a code keeps a single unit,
// later occurrences are dropped. No-op when the policy allows stacking.
func DedupeDistinct(items []model.LineItem, policy model.PayerPolicy) []model.LineItem {
	if !policy.RequiresDistinctCodePerUnit {
		return items
	}
	seen := map[string]struct{}{}
	kept := items[:0]
	for _, li := range items {
		if _, dup := seen[li.Code]; dup {
			continue
		}
		seen[li.Code] = struct{}{}
		li.Units = 1
		kept = append(kept, li)
	}
	return kept
}
