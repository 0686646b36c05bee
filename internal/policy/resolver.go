// Package policy resolves payer display names into a PayerPolicy value
// object. The policy table is enumerated data keyed by payer aliases with a
// catch-all default, so entries are testable in isolation. Resolution is a
// pure function: no I/O, no failure mode.
package policy

import (
	"strings"

	"github.com/mathiasdan123/billalloc/internal/model"
	"github.com/mathiasdan123/billalloc/internal/normalize"
)

// Preferences is an optional explicit preference record for a payer,
// merged verbatim ahead of the table defaults.
type Preferences struct {
	MaxUnitsPerVisit *int             `yaml:"max_units_per_visit"`
	Guidelines       []string         `yaml:"guidelines"`
	CodeRules        []model.CodeRule `yaml:"code_rules"`
}

// entry is one row of the enumerated payer policy table.
type entry struct {
	// aliases are normalized substrings that identify the payer.
	aliases               []string
	maxTotalUnitsPerVisit *int
	distinctCodePerUnit   bool
	narrative             string
}

func intPtr(v int) *int { return &v }

// table enumerates known payers in match-priority order. The more specific
// alias sets come first; matching stops at the first hit.
var table = []entry{
	{
		aliases:               []string{"medicare"},
		maxTotalUnitsPerVisit: intPtr(8),
		narrative:             "Medicare: bill under the 8-minute rule; requires documented medical necessity per unit",
	},
	{
		aliases:               []string{"medicaid"},
		maxTotalUnitsPerVisit: intPtr(4),
		narrative:             "Medicaid: prior authorization commonly required beyond 4 units per visit",
	},
	{
		aliases:             []string{"aetna"},
		distinctCodePerUnit: true,
		narrative:           "Aetna: enforces one distinct procedure code per 15-minute unit; avoid stacking units on a single code",
	},
	{
		aliases:             []string{"cigna"},
		distinctCodePerUnit: true,
		narrative:           "Cigna: distinct codes per unit preferred; expect documentation review on repeated identical units",
	},
	{
		aliases:   []string{"united", "uhc", "optum"},
		narrative: "UnitedHealthcare: units must map to documented skilled intervention time",
	},
	{
		aliases:   []string{"blue cross", "bcbs", "anthem"},
		narrative: "Blue Cross: standard timed-code billing; stacking units on one code is accepted with supporting documentation",
	},
}

const defaultNarrative = "No payer-specific rules on file; use standard timed-code billing practice"

// match returns the table entry whose alias appears in the normalized payer
// name, or ok=false for the catch-all path.
func match(norm string) (entry, bool) {
	for _, e := range table {
		for _, a := range e.aliases {
			if strings.Contains(norm, a) {
				return e, true
			}
		}
	}
	return entry{}, false
}

// Resolve derives the applicable policy for a payer display name, merging an
// optional explicit preference record ahead of the table entry.
func Resolve(payerName string, prefs *Preferences) model.PayerPolicy {
	norm := normalize.Payer(payerName)
	p := model.PayerPolicy{
		Payer:     norm,
		CodeRules: map[string]model.CodeRule{},
	}

	if prefs != nil {
		p.HasPreferences = true
		p.MaxTotalUnitsPerVisit = prefs.MaxUnitsPerVisit
		p.Guidelines = append(p.Guidelines, prefs.Guidelines...)
		for _, r := range prefs.CodeRules {
			r.Code = normalize.Code(r.Code)
			if r.Code == "" {
				continue
			}
			p.CodeRules[r.Code] = r
		}
	}

	e, ok := match(norm)
	if !ok {
		p.Guidelines = append(p.Guidelines, defaultNarrative)
		return p
	}

	p.RequiresDistinctCodePerUnit = e.distinctCodePerUnit
	// Explicit preference caps win over table caps.
	if p.MaxTotalUnitsPerVisit == nil {
		p.MaxTotalUnitsPerVisit = e.maxTotalUnitsPerVisit
	}
	p.Guidelines = append(p.Guidelines, e.narrative)
	return p
}

// GuidelineText renders the policy guidelines as one block for the advisor
// prompt and for logging.
func GuidelineText(p model.PayerPolicy) string {
	return strings.Join(p.Guidelines, "\n")
}
