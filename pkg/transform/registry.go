package transform

import (
	"fmt"
	"sync"
)

// Registry holds the available transforms, indexed by name and by accepted
// input type.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Transform
	order  []string
}

// NewRegistry creates an empty transform registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Transform)}
}

// Register adds transforms. Registering a name twice is an error; the
// registry is additive only.
func (r *Registry) Register(transforms ...Transform) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range transforms {
		name := t.Name()
		if _, ok := r.byName[name]; ok {
			return fmt.Errorf("transform %q already registered", name)
		}
		r.byName[name] = t
		r.order = append(r.order, name)
	}
	return nil
}

// Get looks up a transform by name.
func (r *Registry) Get(name string) (Transform, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// All returns every transform in registration order.
func (r *Registry) All() []Transform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Transform, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// ForInput returns the transforms applicable to an entity type, in
// registration order.
func (r *Registry) ForInput(entityType string) []Transform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Transform
	for _, name := range r.order {
		if t := r.byName[name]; Accepts(t, entityType) {
			out = append(out, t)
		}
	}
	return out
}
