package container

import (
	"context"
	"fmt"
	"sort"
)

// Initializer runs every registered module's Initialize in an order
// that respects both Dependencies and Priority, starting each module
// that is also a Transport right after its own Initialize. Adapted from
// container.Initializer's Kahn's-algorithm topologicalSort, trimmed
// to the kernel's single initialization pass: no parallel mode, since
// boot here is one thread bringing up a handful of in-process
// subsystems, not a cluster of adapters worth parallelizing.
type Initializer struct {
	registry *Registry
}

// NewInitializer builds an Initializer over registry.
func NewInitializer(registry *Registry) *Initializer {
	return &Initializer{registry: registry}
}

// Initialize runs every module's Initialize method in dependency-then-
// priority order, Starting each module that implements Transport as
// soon as its Initialize succeeds.
// On any failure it stops the transports already started and returns
// the error, leaving no half-started Transport behind.
func (init *Initializer) Initialize(ctx context.Context, c *Container) error {
	modules := init.topologicalSort(init.registry.All())

	var started []Transport
	for _, m := range modules {
		if err := m.Initialize(ctx, c); err != nil {
			for i := len(started) - 1; i >= 0; i-- {
				_ = started[i].Stop(ctx)
			}
			return fmt.Errorf("container: initializing module %q: %w", m.Name(), err)
		}
		if t, ok := m.(Transport); ok {
			if err := t.Start(ctx); err != nil {
				for i := len(started) - 1; i >= 0; i-- {
					_ = started[i].Stop(ctx)
				}
				return fmt.Errorf("container: starting transport %q: %w", m.Name(), err)
			}
			c.addTransport(t)
			started = append(started, t)
		}
	}
	return nil
}

// topologicalSort orders modules so every dependency initializes
// before its dependents, breaking ties by ascending Priority — same
// shape as container.Initializer.topologicalSort.
func (init *Initializer) topologicalSort(modules []Module) []Module {
	byName := make(map[string]Module, len(modules))
	inDegree := make(map[string]int, len(modules))
	dependents := make(map[string][]string, len(modules))

	for _, m := range modules {
		byName[m.Name()] = m
		inDegree[m.Name()] = 0
	}
	for _, m := range modules {
		for _, dep := range m.Dependencies() {
			if _, ok := byName[dep]; ok {
				dependents[dep] = append(dependents[dep], m.Name())
				inDegree[m.Name()]++
			}
		}
	}

	var ready []Module
	for _, m := range modules {
		if inDegree[m.Name()] == 0 {
			ready = append(ready, m)
		}
	}

	var result []Module
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i].Priority() < ready[j].Priority() })
		next := ready[0]
		ready = ready[1:]
		result = append(result, next)

		for _, depName := range dependents[next.Name()] {
			inDegree[depName]--
			if inDegree[depName] == 0 {
				ready = append(ready, byName[depName])
			}
		}
	}

	if len(result) < len(modules) {
		// A cycle exists; registry.Register already rejects
		// dependencies on unregistered modules, so this can only
		// happen from a dependency cycle among registered modules.
		// Fall back to priority order rather than dropping modules.
		sorted := append([]Module(nil), modules...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Priority() < sorted[j].Priority() })
		return sorted
	}

	return result
}
