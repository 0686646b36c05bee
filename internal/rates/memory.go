package rates

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mathiasdan123/billalloc/internal/model"
	"github.com/mathiasdan123/billalloc/internal/normalize"
)

// Memory is an in-process rate repository, used by tests and by the one-shot
// CLI path when no database is configured.
type Memory struct {
	mu    sync.RWMutex
	rates map[string]model.PayerRate // key: payer + "\x00" + code
}

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{rates: map[string]model.PayerRate{}}
}

func key(payer, code string) string { return payer + "\x00" + code }

func (m *Memory) RateFor(_ context.Context, payer, code string) (*model.PayerRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rate, ok := m.rates[key(payer, code)]
	if !ok {
		return nil, nil
	}
	return &rate, nil
}

func (m *Memory) RankedRatesFor(_ context.Context, payer string) ([]model.RankedRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ranked []model.RankedRate
	for _, r := range m.rates {
		if r.Payer != payer || r.InNetworkCents == nil {
			continue
		}
		ranked = append(ranked, model.RankedRate{Code: r.Code, InNetworkCents: *r.InNetworkCents})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].InNetworkCents != ranked[j].InNetworkCents {
			return ranked[i].InNetworkCents > ranked[j].InNetworkCents
		}
		return ranked[i].Code < ranked[j].Code
	})
	return ranked, nil
}

func (m *Memory) UpsertRate(_ context.Context, rate model.PayerRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[key(rate.Payer, rate.Code)] = rate
	return nil
}

var _ Repository = (*Memory)(nil)

// ratesFile is the YAML shape for --rates-file: payer -> code -> dollars.
type ratesFile struct {
	Rates map[string]map[string]float64 `yaml:"rates"`
}

// LoadMemoryFromFile builds a Memory repository from a YAML rates file.
// Amounts are dollars in the file and stored as cents.
func LoadMemoryFromFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rates file: %w", err)
	}
	var rf ratesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse rates file: %w", err)
	}
	m := NewMemory()
	for payer, codes := range rf.Rates {
		norm := normalize.Payer(payer)
		for code, dollars := range codes {
			cents := normalize.Cents(dollars)
			m.rates[key(norm, normalize.Code(code))] = model.PayerRate{
				Payer:          norm,
				PayerDisplay:   payer,
				Code:           normalize.Code(code),
				InNetworkCents: &cents,
			}
		}
	}
	return m, nil
}
