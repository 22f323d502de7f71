package search

import (
	"sort"

	"github.com/amityadav/refiner/internal/errs"
)

// Registry holds all registered search providers
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: map[string]Provider{},
	}
}

// Register adds a provider to the registry, replacing any with the same name.
func (r *Registry) Register(provider Provider) {
	r.providers[provider.Name()] = provider
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, errs.Config("search provider %q is not registered (available: %v)", name, r.Names())
	}
	return p, nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered providers
func (r *Registry) Count() int {
	return len(r.providers)
}
