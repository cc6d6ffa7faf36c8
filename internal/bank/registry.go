package bank

import (
	"fmt"
	"sort"
	"sync"

	"github.com/edwardmsalem/sms-gateway/internal/config"
	"github.com/edwardmsalem/sms-gateway/internal/models"
)

// Registry holds the configured SIM banks, keyed by bank id. Written once at
// startup and read-mostly afterwards; the lock only matters for the rare
// runtime Add.
type Registry struct {
	mu    sync.RWMutex
	banks map[string]models.SimBank
}

// NewRegistry builds a registry from configuration.
func NewRegistry(entries []config.BankConfig) *Registry {
	r := &Registry{banks: make(map[string]models.SimBank, len(entries))}
	for _, e := range entries {
		r.banks[e.ID] = models.SimBank{
			ID:       e.ID,
			Host:     e.Host,
			Port:     e.Port,
			Username: e.Username,
			Password: e.Password,
		}
	}
	return r
}

// Get looks up a bank by id.
func (r *Registry) Get(id string) (models.SimBank, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.banks[id]
	if !ok {
		return models.SimBank{}, fmt.Errorf("bank %q: %w", id, ErrBankNotFound)
	}
	return b, nil
}

// Add registers a bank at runtime. An existing entry with the same id is
// replaced.
func (r *Registry) Add(b models.SimBank) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.banks[b.ID] = b
}

// List returns all configured banks ordered by id.
func (r *Registry) List() []models.SimBank {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.SimBank, 0, len(r.banks))
	for _, b := range r.banks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
