package alloc

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mathiasdan123/billalloc/internal/catalog"
	"github.com/mathiasdan123/billalloc/internal/model"
	"github.com/mathiasdan123/billalloc/internal/rates"
)

// Candidate is one (category, code) pairing with its payer rate, if known.
// RateCents nil means no rate on file; such candidates rank last and fall
// back to the base rate only for amount estimation, never for ordering.
type Candidate struct {
	Category      string
	Code          model.Code
	RateCents     *int64
	Justification string
}

// Engine ranks candidate codes and allocates units. It only reads from the
// rate source; it never writes.
type Engine struct {
	rates         rates.Source
	log           zerolog.Logger
	lookupWorkers int
}

// NewEngine creates an Engine with a bounded number of concurrent rate
// lookups per request.
func NewEngine(src rates.Source, log zerolog.Logger) *Engine {
	return &Engine{rates: src, log: log, lookupWorkers: 4}
}

// Rank builds a descending ranking of catalog-approved candidates for each
// performed category, in the given category order. Codes absent from the
// practice catalog are excluded; a failed rate lookup degrades that one code
// to "no rate known" and is logged, never fatal.
func (e *Engine) Rank(ctx context.Context, payer string, categories []string, cat *catalog.Catalog) ([][]Candidate, error) {
	// Collect the distinct codes to look up across all categories.
	perCategory := make([][]Candidate, len(categories))
	codeSet := map[string]struct{}{}
	for i, category := range categories {
		for _, eq := range catalog.CodesFor(category) {
			code, ok := cat.ByCode(eq.Code)
			if !ok {
				continue
			}
			perCategory[i] = append(perCategory[i], Candidate{
				Category:      category,
				Code:          code,
				Justification: eq.Justification,
			})
			codeSet[code.Code] = struct{}{}
		}
	}

	rateByCode := e.lookupRates(ctx, payer, codeSet)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i := range perCategory {
		for j := range perCategory[i] {
			perCategory[i][j].RateCents = rateByCode[perCategory[i][j].Code.Code]
		}
		sortCandidates(perCategory[i])
	}
	return perCategory, nil
}

// lookupRates fetches payer rates for a code set with bounded concurrency.
// The lookups are read-only and independent, so they run in parallel.
func (e *Engine) lookupRates(ctx context.Context, payer string, codes map[string]struct{}) map[string]*int64 {
	results := make(map[string]*int64, len(codes))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, e.lookupWorkers)

	for code := range codes {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			rate, err := e.rates.RateFor(ctx, payer, code)
			if err != nil {
				// Degrade to "no rate known"; a single failed lookup must
				// not abort the whole allocation.
				e.log.Warn().Err(err).Str("payer", payer).Str("code", code).Msg("rate lookup failed")
				return
			}
			if rate == nil || rate.InNetworkCents == nil {
				return
			}
			mu.Lock()
			results[code] = rate.InNetworkCents
			mu.Unlock()
		}(code)
	}
	wg.Wait()
	return results
}

// sortCandidates orders rated candidates descending by rate, unrated last.
// The sort is stable so catalog order breaks ties deterministically.
func sortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		ri, rj := cands[i].RateCents, cands[j].RateCents
		switch {
		case ri != nil && rj != nil:
			return *ri > *rj
		case ri != nil:
			return true
		default:
			return false
		}
	})
}
