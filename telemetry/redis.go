package telemetry

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis Streams-backed sink.
type RedisConfig struct {
	Addr   string
	Stream string
}

// DefaultRedisConfig mirrors messagebus.RedisConfig's address default.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{Addr: "localhost:6379", Stream: "dx:kernel:events"}
}

// RedisSink appends events to a Redis stream via XADD.
type RedisSink struct {
	cfg    RedisConfig
	client *redis.Client
}

// NewRedisSink connects to cfg.Addr.
func NewRedisSink(cfg RedisConfig) (*RedisSink, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("telemetry: Redis address is required")
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	return &RedisSink{cfg: cfg, client: client}, nil
}

// Publish encodes ev and XADDs it to the configured stream.
func (s *RedisSink) Publish(ctx context.Context, ev Event) error {
	payload, err := encode(ev)
	if err != nil {
		return err
	}
	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.cfg.Stream,
		Values: map[string]interface{}{"envelope": payload},
	}).Err()
}

// Close closes the underlying client.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
