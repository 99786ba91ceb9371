package container

import (
	"fmt"
	"sync"
)

// Registry is the name-keyed table of registered Modules, adapted
// from container.ModuleRegistry with the Adapter/Transport split
// collapsed: every kernel subsystem registers as a Module, and the
// handful that also need a Start/Stop network lifecycle additionally
// satisfy the Transport interface, checked with a type assertion at
// initialization time rather than a separate registration call.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Register adds a module. Errors on a duplicate name or a dependency
// that does not name an already-registered module — registration
// order must follow dependency order, which keeps the boot sequence
// legible as the straight-line list in modules.go's buildModules.
func (r *Registry) Register(m Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[m.Name()]; exists {
		return fmt.Errorf("container: module %q already registered", m.Name())
	}
	for _, dep := range m.Dependencies() {
		if _, exists := r.modules[dep]; !exists {
			return fmt.Errorf("container: module %q depends on unregistered module %q", m.Name(), dep)
		}
	}
	r.modules[m.Name()] = m
	return nil
}

// Get returns the named module, if registered.
func (r *Registry) Get(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}

// All returns every registered module in unspecified order; callers
// that care about boot order use Initializer, which sorts by
// priority and dependency.
func (r *Registry) All() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Module, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, m)
	}
	return out
}
