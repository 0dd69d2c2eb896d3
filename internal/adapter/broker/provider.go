// Package broker turns raw CSV rows from each supported broker into
// canonical ledger transactions.
package broker

import (
	"fmt"
	"slices"

	"github.com/iho/tradebook/internal/domain"
	"github.com/iho/tradebook/internal/usecase"
)

// Registry holds the providers known to the importer.
type Registry struct {
	providers map[domain.Provider]usecase.Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[domain.Provider]usecase.Provider)}
}

// Register adds a provider. Panics on a duplicate name.
func (r *Registry) Register(p usecase.Provider) {
	if _, ok := r.providers[p.Name()]; ok {
		panic("duplicate provider: " + string(p.Name()))
	}
	r.providers[p.Name()] = p
}

// Get returns the provider registered under name.
func (r *Registry) Get(name domain.Provider) (usecase.Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", domain.ErrUnsupportedProvider, name, r.Names())
	}
	return p, nil
}

// Resolve returns the provider for name. The generic provider is built from
// mapping on every call.
func (r *Registry) Resolve(name domain.Provider, mapping *domain.ColumnMapping) (usecase.Provider, error) {
	if name == domain.ProviderGeneric {
		if mapping == nil {
			return nil, fmt.Errorf("%w: generic import needs a column mapping", domain.ErrUnsupportedProvider)
		}
		return NewGeneric(*mapping)
	}
	return r.Get(name)
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []domain.Provider {
	names := make([]domain.Provider, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultRegistry returns a registry with all built-in providers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&Robinhood{})
	r.Register(&Fidelity{})
	r.Register(&Schwab{})
	r.Register(&Webull{})
	return r
}
