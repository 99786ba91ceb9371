package telemetry

import (
	"context"
	"sync"
)

// InMemoryConfig configures the in-memory sink.
type InMemoryConfig struct {
	BufferSize int
}

// DefaultInMemoryConfig matches the teacher's DefaultInMemoryConfig
// buffer-size default.
func DefaultInMemoryConfig() InMemoryConfig {
	return InMemoryConfig{BufferSize: 1000}
}

// InMemorySink fans published events out to local subscribers — the
// backend console.Server's WebSocket handler and tests use, grounded on
// messagebus.InMemoryAdapter's subject-to-subscriber fan-out, reduced
// to a single fan-out list since telemetry events have no subject
// routing to speak of.
type InMemorySink struct {
	cfg InMemoryConfig

	mu          sync.RWMutex
	subscribers []chan Event
	closed      bool
}

// NewInMemorySink creates a sink with no subscribers yet.
func NewInMemorySink(cfg InMemoryConfig) *InMemorySink {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	return &InMemorySink{cfg: cfg}
}

// Publish fans ev out to every subscriber's channel, dropping the
// event for any subscriber whose buffer is full rather than blocking.
func (s *InMemorySink) Publish(ctx context.Context, ev Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribe registers a new listener and returns its channel plus an
// unsubscribe func.
func (s *InMemorySink) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, s.cfg.BufferSize)

	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, c := range s.subscribers {
			if c == ch {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				close(c)
				return
			}
		}
	}
	return ch, unsubscribe
}

// Close marks the sink closed; further Publish calls are no-ops.
func (s *InMemorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil
	return nil
}
