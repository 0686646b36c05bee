package rates

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mathiasdan123/billalloc/internal/model"
)

// PG is the Postgres-backed rate repository on billing.payer_rates.
type PG struct {
	pool *pgxpool.Pool
}

// NewPG wraps an existing pool; lifecycle of the pool stays with the caller.
func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

const rateForSQL = `
SELECT payer_norm, payer_display, code, in_network_cents, out_network_cents,
       coinsurance_bps, copay_cents, deductible_applies, effective_date
FROM billing.payer_rates
WHERE payer_norm = $1 AND code = $2`

func (r *PG) RateFor(ctx context.Context, payer, code string) (*model.PayerRate, error) {
	var rate model.PayerRate
	var display *string
	err := r.pool.QueryRow(ctx, rateForSQL, payer, code).Scan(
		&rate.Payer, &display, &rate.Code,
		&rate.InNetworkCents, &rate.OutNetworkCents,
		&rate.CoinsuranceBPS, &rate.CopayCents,
		&rate.DeductibleApplies, &rate.EffectiveDate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("rate lookup", err)
	}
	if display != nil {
		rate.PayerDisplay = *display
	}
	return &rate, nil
}

const rankedRatesSQL = `
SELECT code, in_network_cents
FROM billing.payer_rates
WHERE payer_norm = $1 AND in_network_cents IS NOT NULL
ORDER BY in_network_cents DESC, code ASC`

func (r *PG) RankedRatesFor(ctx context.Context, payer string) ([]model.RankedRate, error) {
	rows, err := r.pool.Query(ctx, rankedRatesSQL, payer)
	if err != nil {
		return nil, unavailable("ranked rates", err)
	}
	defer rows.Close()

	var ranked []model.RankedRate
	for rows.Next() {
		var rr model.RankedRate
		if err := rows.Scan(&rr.Code, &rr.InNetworkCents); err != nil {
			return nil, unavailable("ranked rates scan", err)
		}
		ranked = append(ranked, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("ranked rates", err)
	}
	return ranked, nil
}

const upsertRateSQL = `
INSERT INTO billing.payer_rates
  (payer_norm, payer_display, code, in_network_cents, out_network_cents,
   coinsurance_bps, copay_cents, deductible_applies, effective_date, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
ON CONFLICT (payer_norm, code) DO UPDATE SET
  payer_display      = EXCLUDED.payer_display,
  in_network_cents   = EXCLUDED.in_network_cents,
  out_network_cents  = EXCLUDED.out_network_cents,
  coinsurance_bps    = EXCLUDED.coinsurance_bps,
  copay_cents        = EXCLUDED.copay_cents,
  deductible_applies = EXCLUDED.deductible_applies,
  effective_date     = EXCLUDED.effective_date,
  updated_at         = now()`

func (r *PG) UpsertRate(ctx context.Context, rate model.PayerRate) error {
	var display *string
	if rate.PayerDisplay != "" {
		display = &rate.PayerDisplay
	}
	_, err := r.pool.Exec(ctx, upsertRateSQL,
		rate.Payer, display, rate.Code,
		rate.InNetworkCents, rate.OutNetworkCents,
		rate.CoinsuranceBPS, rate.CopayCents,
		rate.DeductibleApplies, rate.EffectiveDate,
	)
	if err != nil {
		return unavailable("upsert rate", err)
	}
	return nil
}

var _ Repository = (*PG)(nil)
