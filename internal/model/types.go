// Package model holds the domain types shared across the allocation engine:
// billable codes, payer rates and policies, session facts, and the
// recommendation returned to the calling workflow. Money values are int64
// cents; percentages are int32 basis points.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Code is one billable procedure code from the practice's catalog.
// Immutable reference data supplied by the caller per request.
type Code struct {
	ID            int64  `json:"id" yaml:"id"`
	Code          string `json:"code" yaml:"code"`
	Description   string `json:"description" yaml:"description"`
	Category      string `json:"category,omitempty" yaml:"category,omitempty"`
	BaseRateCents int64  `json:"base_rate_cents" yaml:"base_rate_cents"`
}

// EquivalentCode is one member of an intervention category's equivalency
// class, with the clinical justification for the substitution.
type EquivalentCode struct {
	Code          string `yaml:"code"`
	Justification string `yaml:"justification"`
}

// PayerRate is the on-file reimbursement terms for one (payer, code) pair.
// One row per pair; upserts overwrite, no history kept.
type PayerRate struct {
	Payer             string     `json:"payer"`
	PayerDisplay      string     `json:"payer_display,omitempty"`
	Code              string     `json:"code"`
	InNetworkCents    *int64     `json:"in_network_cents"`
	OutNetworkCents   *int64     `json:"out_network_cents"`
	CoinsuranceBPS    *int32     `json:"coinsurance_bps"`
	CopayCents        *int64     `json:"copay_cents"`
	DeductibleApplies bool       `json:"deductible_applies"`
	EffectiveDate     *time.Time `json:"effective_date,omitempty"`
}

// CodeRule is an explicit per-code payer rule: a unit cap, a required
// modifier, or both.
type CodeRule struct {
	Code             string `yaml:"code"`
	MaxUnits         int    `yaml:"max_units"`
	RequiredModifier string `yaml:"required_modifier"`
}

// PayerPolicy is the resolved constraint set for one payer. Derived, never
// stored.
type PayerPolicy struct {
	Payer                       string
	MaxTotalUnitsPerVisit       *int
	RequiresDistinctCodePerUnit bool
	Guidelines                  []string
	CodeRules                   map[string]CodeRule
	// HasPreferences is true when an explicit preference record contributed
	// to this policy, as opposed to table defaults alone.
	HasPreferences bool
}

// RuleFor returns the explicit per-code rule for code, if any.
func (p *PayerPolicy) RuleFor(code string) (CodeRule, bool) {
	r, ok := p.CodeRules[code]
	return r, ok
}

// SessionFacts describes one documented therapy encounter.
type SessionFacts struct {
	DurationMinutes int      `json:"duration_minutes" yaml:"duration_minutes"`
	Subjective      string   `json:"subjective,omitempty" yaml:"subjective,omitempty"`
	Objective       string   `json:"objective,omitempty" yaml:"objective,omitempty"`
	Assessment      string   `json:"assessment,omitempty" yaml:"assessment,omitempty"`
	Plan            string   `json:"plan,omitempty" yaml:"plan,omitempty"`
	Categories      []string `json:"categories" yaml:"categories"`
	Payer           string   `json:"payer" yaml:"payer"`
	DiagnosisCode   string   `json:"diagnosis_code,omitempty" yaml:"diagnosis_code,omitempty"`
}

// LineItem is one billed code with its assigned units. RateCents is nil when
// no payer rate was on file and the base rate was used for the estimate.
type LineItem struct {
	CodeID        int64  `json:"code_id"`
	Code          string `json:"code"`
	Description   string `json:"description"`
	Units         int    `json:"units"`
	Modifier      string `json:"modifier,omitempty"`
	RateCents     *int64 `json:"rate_cents"`
	BaseRateCents int64  `json:"base_rate_cents"`
	Justification string `json:"justification,omitempty"`
}

// EstimateCents is the estimated reimbursement for this line: payer rate
// when known, base rate otherwise, times units.
func (li *LineItem) EstimateCents() int64 {
	per := li.BaseRateCents
	if li.RateCents != nil {
		per = *li.RateCents
	}
	return per * int64(li.Units)
}

// Recommendation is the final output: ordered line items plus totals and a
// heuristic compliance score.
type Recommendation struct {
	RequestID              uuid.UUID  `json:"request_id"`
	LineItems              []LineItem `json:"line_items"`
	TotalUnits             int        `json:"total_units"`
	TotalEstimatedCents    int64      `json:"total_estimated_cents"`
	Narrative              string     `json:"narrative"`
	ComplianceScore        int        `json:"compliance_score"`
	ReimbursementOptimized bool       `json:"reimbursement_optimized"`
	Fallback               bool       `json:"fallback"`
	DroppedAdvisorLines    int        `json:"dropped_advisor_lines,omitempty"`
}

// RankedRate is one entry of a payer's descending rate ranking.
type RankedRate struct {
	Code           string `json:"code"`
	InNetworkCents int64  `json:"in_network_cents"`
}

// RateSummary aggregates a payer's on-file rates for reporting and for the
// advisor prompt.
type RateSummary struct {
	Payer        string      `json:"payer"`
	CodeCount    int         `json:"code_count"`
	AverageCents int64       `json:"average_cents"`
	Highest      *RankedRate `json:"highest,omitempty"`
	Lowest       *RankedRate `json:"lowest,omitempty"`
}
