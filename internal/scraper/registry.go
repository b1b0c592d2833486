package scraper

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/IshaanNene/PriceGoat/internal/config"
	"github.com/IshaanNene/PriceGoat/internal/types"
)

// Registry holds scrapers in registration order. The order decides both
// the fan-out order and how ties are broken in the price analysis.
type Registry struct {
	mu       sync.RWMutex
	scrapers []Scraper
	byID     map[string]Scraper
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Scraper)}
}

// Default registers the built-in scrapers that cfg enables, MercadoLibre
// first and Falabella second.
func Default(cfg *config.Config, logger *slog.Logger) *Registry {
	r := NewRegistry()
	if site := cfg.Site(config.SiteMercadoLibre); site.Enabled {
		_ = r.Register(NewMercadoLibre(site, logger))
	}
	if site := cfg.Site(config.SiteFalabella); site.Enabled {
		_ = r.Register(NewFalabella(site, logger))
	}
	return r
}

// Register appends s. Ids must be unique.
func (r *Registry) Register(s Scraper) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[s.ID()]; exists {
		return fmt.Errorf("register %q: %w", s.ID(), types.ErrDuplicateSite)
	}
	r.byID[s.ID()] = s
	r.scrapers = append(r.scrapers, s)
	return nil
}

// Get returns the scraper registered under id.
func (r *Registry) Get(id string) (Scraper, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// All returns a copy of the registered scrapers in order.
func (r *Registry) All() []Scraper {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Scraper(nil), r.scrapers...)
}

// IDs returns the registered site ids in order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.scrapers))
	for i, s := range r.scrapers {
		ids[i] = s.ID()
	}
	return ids
}

// Len returns the number of registered scrapers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scrapers)
}

// Select returns a new registry holding only the given ids, kept in the
// registration order.
func (r *Registry) Select(ids []string) (*Registry, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := r.Get(id); !ok {
			return nil, fmt.Errorf("select %q: %w", id, types.ErrUnknownSite)
		}
		want[id] = true
	}

	out := NewRegistry()
	for _, s := range r.All() {
		if want[s.ID()] {
			_ = out.Register(s)
		}
	}
	return out, nil
}
