// Package rates provides read access to per-payer, per-code reimbursement
// rates and the single upsert write path used by contract ingestion.
//
// "No rate on file" is not an error: RateFor returns (nil, nil). Adapter
// failures (connectivity) are reported distinctly so callers can degrade a
// single code to "no rate known" while logging the failure separately.
package rates

import (
	"context"
	"errors"
	"fmt"

	"github.com/mathiasdan123/billalloc/internal/model"
	"github.com/mathiasdan123/billalloc/internal/normalize"
)

// ErrUnavailable marks repository-level failures, as opposed to "no data on
// file". Test with errors.Is.
var ErrUnavailable = errors.New("rate repository unavailable")

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrUnavailable, err))
}

// Source is the read side consumed by the allocation engine.
type Source interface {
	// RateFor returns the rate on file for (payer, code), or (nil, nil)
	// when none exists. payer must already be normalized.
	RateFor(ctx context.Context, payer, code string) (*model.PayerRate, error)

	// RankedRatesFor returns all rated codes for a payer sorted descending
	// by in-network rate, excluding codes with no in-network rate on file.
	RankedRatesFor(ctx context.Context, payer string) ([]model.RankedRate, error)
}

// Repository adds the single mutation path: replace-by-key upsert.
type Repository interface {
	Source
	UpsertRate(ctx context.Context, rate model.PayerRate) error
}

// SummaryText renders a RateSummary as prose for the advisor prompt.
func SummaryText(s model.RateSummary) string {
	if s.CodeCount == 0 {
		return fmt.Sprintf("No negotiated rates on file for %s; list rates apply.", s.Payer)
	}
	return fmt.Sprintf("%s has %d rated codes, average %s per unit; highest %s at %s, lowest %s at %s.",
		s.Payer, s.CodeCount,
		normalize.FormatCents(s.AverageCents),
		s.Highest.Code, normalize.FormatCents(s.Highest.InNetworkCents),
		s.Lowest.Code, normalize.FormatCents(s.Lowest.InNetworkCents))
}

// Summarize computes the aggregate view of a payer's ranking.
func Summarize(payer string, ranked []model.RankedRate) model.RateSummary {
	s := model.RateSummary{Payer: payer, CodeCount: len(ranked)}
	if len(ranked) == 0 {
		return s
	}
	var total int64
	for _, r := range ranked {
		total += r.InNetworkCents
	}
	s.AverageCents = total / int64(len(ranked))
	hi := ranked[0]
	lo := ranked[len(ranked)-1]
	s.Highest = &hi
	s.Lowest = &lo
	return s
}
