package audit

import (
	"context"
	"fmt"
	"sync"
)

// Factory selects an audit backend by name, the same Create/Register
// shape used by telemetry.Factory and, before it,
// messagebus.DefaultMessageBusFactory.
type Factory struct {
	mu       sync.RWMutex
	creators map[string]func(ctx context.Context, cfg interface{}) (Store, error)
}

// NewFactory pre-registers the inmemory, postgres, and mongo backends.
func NewFactory() *Factory {
	f := &Factory{creators: make(map[string]func(context.Context, interface{}) (Store, error))}

	f.creators["inmemory"] = func(_ context.Context, cfg interface{}) (Store, error) {
		capacity := 1024
		if c, ok := cfg.(int); ok {
			capacity = c
		}
		return NewInMemoryStore(capacity), nil
	}
	f.creators["postgres"] = func(ctx context.Context, cfg interface{}) (Store, error) {
		pc, ok := cfg.(PostgresConfig)
		if !ok {
			return nil, fmt.Errorf("audit: postgres backend requires a PostgresConfig")
		}
		return NewPostgresStore(ctx, pc)
	}
	f.creators["mongo"] = func(ctx context.Context, cfg interface{}) (Store, error) {
		mc, ok := cfg.(MongoConfig)
		if !ok {
			return nil, fmt.Errorf("audit: mongo backend requires a MongoConfig")
		}
		return NewMongoStore(ctx, mc)
	}
	return f
}

// Register adds a new backend. It errors on an already-registered name.
func (f *Factory) Register(name string, create func(ctx context.Context, cfg interface{}) (Store, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.creators[name]; exists {
		return fmt.Errorf("audit: backend %q already registered", name)
	}
	f.creators[name] = create
	return nil
}

// Create builds a Store for the named backend.
func (f *Factory) Create(ctx context.Context, name string, cfg interface{}) (Store, error) {
	f.mu.RLock()
	create, ok := f.creators[name]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("audit: unknown backend %q", name)
	}
	return create(ctx, cfg)
}
