// Package provider holds the registry that maps a closed set of provider
// names to generation adapters. Adding a provider means registering one more
// conforming adapter; dispatch logic never changes.
package provider

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nvega/genbridge/internal/gen"
)

// Static errors for registry operations.
var (
	// ErrUnknownProvider is returned by Lookup for unregistered names.
	ErrUnknownProvider = errors.New("registry: unknown provider")
	// ErrBlankName is returned when an adapter reports an empty name.
	ErrBlankName = errors.New("registry: adapter has a blank name")
	// ErrDuplicateName is returned when two adapters share a name.
	ErrDuplicateName = errors.New("registry: duplicate provider name")
)

// Registry is an immutable name -> adapter lookup, constructed once at
// startup.
type Registry struct {
	providers map[string]gen.Provider
}

// NewRegistry validates and indexes the given adapters.
func NewRegistry(providers ...gen.Provider) (*Registry, error) {
	index := make(map[string]gen.Provider, len(providers))
	for _, p := range providers {
		name := p.Name()
		if name == "" {
			return nil, ErrBlankName
		}
		if _, exists := index[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		index[name] = p
	}
	return &Registry{providers: index}, nil
}

// Lookup returns the adapter registered under name.
func (r *Registry) Lookup(name string) (gen.Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
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
