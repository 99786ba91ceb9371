package telemetry

import (
	"context"
	"fmt"
	"sync"
)

// Sink receives telemetry events. ipc.Scheduler does not publish to a
// Sink. Of the backends here, InMemorySink drops an event for any
// subscriber whose buffer is full, while RedisSink's Publish waits for
// the server's reply to XADD.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Factory creates named Sink backends, mirroring
// messagebus.DefaultMessageBusFactory's Create/Register shape.
type Factory struct {
	mu       sync.RWMutex
	creators map[string]func(cfg interface{}) (Sink, error)
}

// NewFactory returns a Factory with the built-in backends registered:
// inmemory, nats, kafka, redis.
func NewFactory() *Factory {
	f := &Factory{creators: make(map[string]func(cfg interface{}) (Sink, error))}

	_ = f.Register("inmemory", func(cfg interface{}) (Sink, error) {
		c, ok := cfg.(InMemoryConfig)
		if !ok {
			c = DefaultInMemoryConfig()
		}
		return NewInMemorySink(c), nil
	})
	_ = f.Register("nats", func(cfg interface{}) (Sink, error) {
		c, ok := cfg.(NATSConfig)
		if !ok {
			return nil, fmt.Errorf("telemetry: invalid NATS config type %T", cfg)
		}
		return NewNATSSink(c)
	})
	_ = f.Register("kafka", func(cfg interface{}) (Sink, error) {
		c, ok := cfg.(KafkaConfig)
		if !ok {
			return nil, fmt.Errorf("telemetry: invalid Kafka config type %T", cfg)
		}
		return NewKafkaSink(c)
	})
	_ = f.Register("redis", func(cfg interface{}) (Sink, error) {
		c, ok := cfg.(RedisConfig)
		if !ok {
			return nil, fmt.Errorf("telemetry: invalid Redis config type %T", cfg)
		}
		return NewRedisSink(c)
	})

	return f
}

// Register adds a named backend constructor.
func (f *Factory) Register(name string, creator func(cfg interface{}) (Sink, error)) error {
	if name == "" {
		return fmt.Errorf("telemetry: backend name cannot be empty")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.creators[name]; exists {
		return fmt.Errorf("telemetry: backend %q already registered", name)
	}
	f.creators[name] = creator
	return nil
}

// Create builds the named backend.
func (f *Factory) Create(name string, cfg interface{}) (Sink, error) {
	f.mu.RLock()
	creator, ok := f.creators[name]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("telemetry: unknown backend %q", name)
	}
	sink, err := creator(cfg)
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating %q sink: %w", name, err)
	}
	return sink, nil
}
