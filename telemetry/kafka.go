package telemetry

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures the Kafka-backed sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// DefaultKafkaConfig mirrors messagebus.KafkaConfig's shape, reduced
// to the fields a telemetry producer needs.
func DefaultKafkaConfig() KafkaConfig {
	return KafkaConfig{Topic: "dx.kernel.events"}
}

// KafkaSink publishes events to a Kafka topic via kafka.Writer.
type KafkaSink struct {
	cfg    KafkaConfig
	writer *kafka.Writer
}

// NewKafkaSink builds a producer-only writer against cfg.Brokers.
func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("telemetry: Kafka brokers are required")
	}
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
		Async:    true,
	}
	return &KafkaSink{cfg: cfg, writer: writer}, nil
}

// Publish encodes ev and writes it asynchronously to the topic.
func (s *KafkaSink) Publish(ctx context.Context, ev Event) error {
	payload, err := encode(ev)
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.RequestID),
		Value: payload,
	})
}

// Close flushes and closes the writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
