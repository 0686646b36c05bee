// Package feeschedule ingests payer fee-schedule Parquet files into the rate
// repository. This is the contract-ingestion side of the rate table: the only
// writer; the allocation engine itself never writes.
package feeschedule

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mathiasdan123/billalloc/internal/model"
	"github.com/mathiasdan123/billalloc/internal/normalize"
)

// Row mirrors the Parquet schema for a single fee-schedule line. Money fields
// are float64 dollars matching the Parquet representation; they get converted
// to integer cents during normalization.
type Row struct {
	PayerName   string  `parquet:"payer_name"`
	Code        string  `parquet:"code"`
	Description *string `parquet:"description,optional"`

	InNetworkRate     *float64 `parquet:"in_network_rate,optional"`
	OutNetworkRate    *float64 `parquet:"out_network_rate,optional"`
	CoinsurancePct    *float64 `parquet:"coinsurance_percentage,optional"`
	Copay             *float64 `parquet:"copay,optional"`
	DeductibleApplies *bool    `parquet:"deductible_applies,optional"`

	EffectiveDate *string `parquet:"effective_date,optional"`
}

// ToStageRow normalizes a Parquet row into the COPY-ready staging shape.
func ToStageRow(row *Row, batchID uuid.UUID, rowNum int64) (*model.StageFeeRate, error) {
	payer := normalize.Payer(row.PayerName)
	if payer == "" {
		return nil, fmt.Errorf("row %d: empty payer_name", rowNum)
	}
	code := normalize.Code(row.Code)
	if code == "" {
		return nil, fmt.Errorf("row %d: empty code", rowNum)
	}

	s := &model.StageFeeRate{
		IngestBatchID:   batchID,
		SourceRowNumber: rowNum,
		Payer:           payer,
		Code:            code,
		InNetworkCents:  normalize.DollarsToCents(row.InNetworkRate),
		OutNetworkCents: normalize.DollarsToCents(row.OutNetworkRate),
		CoinsuranceBPS:  normalize.PercentToBasisPoints(row.CoinsurancePct),
		CopayCents:      normalize.DollarsToCents(row.Copay),
	}
	if display := row.PayerName; display != "" {
		s.PayerDisplay = &display
	}
	if row.DeductibleApplies != nil {
		s.DeductibleApplies = *row.DeductibleApplies
	}
	if row.EffectiveDate != nil {
		s.EffectiveDate = normalize.ParseDate(*row.EffectiveDate)
	}
	return s, nil
}
