package capability

import (
	"sync"
)

type (
	// Registry maps qualified capability names to their runtime descriptors.
	Registry struct {
		mu     sync.RWMutex
		byName map[string]Descriptor
	}
)

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used when a handle is not
// configured with its own.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Descriptor),
	}
}

// Register makes the descriptor resolvable under its name. Registering the
// same name again replaces the previous descriptor.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byName[d.Name] = d
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byName[name]
	return d, ok
}

// RegisterType registers a descriptor for capability type T under its derived
// qualified name and returns it. The error mirrors Resolve: types without a
// qualified name cannot be registered this way.
func RegisterType[T any](r *Registry, methods ...string) (Descriptor, error) {
	name, err := TypeName[T]()
	if err != nil {
		return Descriptor{}, err
	}
	d := NewDescriptor(name, methods...)
	r.Register(d)
	return d, nil
}
