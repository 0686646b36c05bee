package model

import (
	"time"

	"github.com/google/uuid"
)

// StageFeeRate is the normalized, DB-ready representation of one fee-schedule
// line, COPY-loaded into billing.stage_fee_rates before the upsert transform.
type StageFeeRate struct {
	IngestBatchID   uuid.UUID
	SourceRowNumber int64

	Payer             string
	PayerDisplay      *string
	Code              string
	InNetworkCents    *int64
	OutNetworkCents   *int64
	CoinsuranceBPS    *int32
	CopayCents        *int64
	DeductibleApplies bool
	EffectiveDate     *time.Time
}

// StageColumns returns the ordered column names for COPY into
// billing.stage_fee_rates.
func StageColumns() []string {
	return []string{
		"ingest_batch_id",
		"source_row_number",
		"payer_norm",
		"payer_display",
		"code",
		"in_network_cents",
		"out_network_cents",
		"coinsurance_bps",
		"copay_cents",
		"deductible_applies",
		"effective_date",
	}
}

// CopyValues returns the row values in the same order as StageColumns(),
// suitable for pgx CopyFromSource.
func (r *StageFeeRate) CopyValues() []any {
	return []any{
		r.IngestBatchID,
		r.SourceRowNumber,
		r.Payer,
		r.PayerDisplay,
		r.Code,
		r.InNetworkCents,
		r.OutNetworkCents,
		r.CoinsuranceBPS,
		r.CopayCents,
		r.DeductibleApplies,
		r.EffectiveDate,
	}
}
