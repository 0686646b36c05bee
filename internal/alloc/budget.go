// Package alloc implements the code ranking and allocation engine: given the
// intervention categories performed, a unit budget, and a resolved payer
// policy, it produces a ranked, constraint-satisfying allocation of codes to
// 15-minute units.
package alloc

import "github.com/mathiasdan123/billalloc/internal/model"

// unitMinutes is the billable unit granularity.
const unitMinutes = 15

// UnitBudget derives the unit budget from session duration, capped by the
// payer's per-visit maximum when that is smaller.
func UnitBudget(durationMinutes int, policy model.PayerPolicy) int {
	if durationMinutes <= 0 {
		return 0
	}
	u := durationMinutes / unitMinutes
	if policy.MaxTotalUnitsPerVisit != nil && *policy.MaxTotalUnitsPerVisit < u {
		u = *policy.MaxTotalUnitsPerVisit
	}
	if u < 0 {
		return 0
	}
	return u
}
