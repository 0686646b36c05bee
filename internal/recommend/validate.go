package recommend

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/mathiasdan123/billalloc/internal/advisor"
	"github.com/mathiasdan123/billalloc/internal/alloc"
	"github.com/mathiasdan123/billalloc/internal/catalog"
	"github.com/mathiasdan123/billalloc/internal/model"
	"github.com/mathiasdan123/billalloc/internal/rates"
)

// validateProposal reconciles an advisor proposal into catalog-backed line
// items: unknown codes are dropped (counted, logged), real payer rates are
// attached when on file, and the payer's distinct-code rule, per-code caps,
// and unit budget are enforced. Totals are recomputed downstream; nothing
// self-reported survives.
func (s *Service) validateProposal(ctx context.Context, log zerolog.Logger, proposal *advisor.Proposal, cat *catalog.Catalog, pol model.PayerPolicy, budget int) ([]model.LineItem, int) {
	var items []model.LineItem
	dropped := 0

	for _, line := range proposal.Lines {
		code, ok := cat.ByCode(line.Code)
		if !ok {
			dropped++
			log.Warn().Str("code", line.Code).Msg("advisor proposed code absent from catalog, dropped")
			continue
		}
		if line.Units <= 0 {
			dropped++
			log.Warn().Str("code", line.Code).Int("units", line.Units).Msg("advisor proposed non-positive units, dropped")
			continue
		}

		li := model.LineItem{
			CodeID:        code.ID,
			Code:          code.Code,
			Description:   code.Description,
			Units:         line.Units,
			Modifier:      line.Modifier,
			BaseRateCents: code.BaseRateCents,
			Justification: line.Justification,
		}

		// Attach the actual payer rate when available; leave unset rather
		// than guessing. A failed lookup degrades to "no rate known".
		rate, err := s.rates.RateFor(ctx, pol.Payer, code.Code)
		if err != nil {
			if errors.Is(err, rates.ErrUnavailable) {
				log.Warn().Err(err).Str("code", code.Code).Msg("rate lookup failed during validation")
			}
		} else if rate != nil && rate.InNetworkCents != nil {
			li.RateCents = rate.InNetworkCents
		}

		items = append(items, li)
	}

	items = alloc.DedupeDistinct(items, pol)
	alloc.ApplyCodeRules(items, pol, log)
	items, trimmed := alloc.CapTotalUnits(items, budget)
	if trimmed {
		log.Info().Int("unit_budget", budget).Msg("advisor proposal trimmed to unit budget")
	}
	return items, dropped
}

// buildFallback is the deterministic single-code allocation: the catalog's
// general-purpose code with min(budget, 2) units. Callers have already
// verified the catalog is non-empty.
func (s *Service) buildFallback(cat *catalog.Catalog, budget int) []model.LineItem {
	code, ok := cat.Default()
	if !ok || budget <= 0 {
		return nil
	}
	units := 2
	if budget < units {
		units = budget
	}
	return []model.LineItem{{
		CodeID:        code.ID,
		Code:          code.Code,
		Description:   code.Description,
		Units:         units,
		BaseRateCents: code.BaseRateCents,
		Justification: "Conservative default allocation; documentation-based optimization unavailable",
	}}
}
