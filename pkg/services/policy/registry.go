package policy

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sudoersllc/opsbox-rego/pkg/models/domain"
)

// Registry maps policy names to their definitions. Registration happens
// once, at process initialization; Freeze marks the end of that phase,
// after which lookups read the map without locking. Registering after
// Freeze is a configuration error.
type Registry struct {
	mu       sync.Mutex
	frozen   atomic.Bool
	policies map[string]domain.Policy
}

func NewRegistry() *Registry {
	return &Registry{policies: make(map[string]domain.Policy)}
}

// Register validates and adds a policy definition. A malformed
// predicate tree, invalid default, or duplicate name fails here so that
// evaluation never encounters a structural error.
func (r *Registry) Register(p domain.Policy) error {
	if err := validatePolicy(p); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return configErrorf("policy %q: registry is frozen", p.Name)
	}
	if _, exists := r.policies[p.Name]; exists {
		return configErrorf("policy %q is already registered", p.Name)
	}
	r.policies[p.Name] = p
	return nil
}

// Freeze ends the registration phase. All registrations happen-before
// Freeze returns; concurrent lookups after that are lock-free.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen.Store(true)
}

func (r *Registry) Lookup(name string) (domain.Policy, error) {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	p, ok := r.policies[name]
	if !ok {
		return domain.Policy{}, &NotFoundError{Name: name}
	}
	return p, nil
}

// Policies returns all registered policies ordered by name.
func (r *Registry) Policies() []domain.Policy {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	out := make([]domain.Policy, 0, len(r.policies))
	for _, p := range r.policies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
