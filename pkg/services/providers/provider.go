package providers

import (
	"context"
	"fmt"
	"sort"

	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

// Provider yields a point-in-time snapshot for one resource kind. The
// evaluation engine never performs I/O itself; providers are the only
// components talking to cloud APIs, and they finish all of it before a
// snapshot is handed over.
type Provider interface {
	Resource() string
	Collect(ctx context.Context) (domain.Snapshot, error)
}

// Registry maps resource kinds to their snapshot providers.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) (*Registry, error) {
	reg := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		resource := p.Resource()
		if _, exists := reg.providers[resource]; exists {
			return nil, fmt.Errorf("duplicate provider for resource kind %q", resource)
		}
		reg.providers[resource] = p
	}
	return reg, nil
}

func (r *Registry) Get(resource string) (Provider, error) {
	p, ok := r.providers[resource]
	if !ok {
		return nil, fmt.Errorf("no provider registered for resource kind %q", resource)
	}
	return p, nil
}

// Resources returns the registered resource kinds ordered by name.
func (r *Registry) Resources() []string {
	out := make([]string, 0, len(r.providers))
	for resource := range r.providers {
		out = append(out, resource)
	}
	sort.Strings(out)
	return out
}
