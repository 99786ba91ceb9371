// Package config holds the kernel's tunables, following the teacher's
// DefaultXxxConfig() convention used throughout its adapters.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config bundles every tunable constant spec.md names or implies.
type Config struct {
	// InlineMax is the largest payload, in bytes, eligible for the
	// Inline (copied) transport strategy; anything larger requires
	// Shared (page-sharing) delivery. spec.md §3 example value: 256.
	InlineMax uint32

	// MailboxCapacity is the bounded FIFO depth of a single mailbox.
	// Exceeding it triggers the overflow-cleanup recovery policy
	// (spec.md §4.2).
	MailboxCapacity int

	// SchedulingQuantumDefault is the number of timer ticks granted
	// to a thread each time pick_next selects it.
	SchedulingQuantumDefault int32

	// TelemetryBackend selects the telemetry.Sink backend: "inmemory",
	// "nats", "kafka", or "redis".
	TelemetryBackend string

	// AuditBackend selects the audit.Store backend: "inmemory",
	// "postgres" or "mongo". Empty selects the in-memory store.
	AuditBackend string

	// MetricsExporter selects the OpenTelemetry metrics exporter:
	// "stdout" or "prometheus". metrics.Setup rejects "otlp" with an
	// error.
	MetricsExporter string

	// TracingExporter selects the OpenTelemetry tracing exporter:
	// "stdout", "otlp", "jaeger", or "zipkin".
	TracingExporter string

	// SendAndReceiveTimeout is loaded from the environment but no code
	// in this repository reads it; the kernel itself has no built-in
	// timeout (spec.md §5, "Cancellation / timeout: not supported
	// intrinsically").
	SendAndReceiveTimeout time.Duration
}

// Default returns the configuration spec.md's worked examples assume.
func Default() Config {
	return Config{
		InlineMax:                256,
		MailboxCapacity:          64,
		SchedulingQuantumDefault: 10,
		TelemetryBackend:         "inmemory",
		AuditBackend:             "",
		MetricsExporter:          "stdout",
		TracingExporter:          "stdout",
		SendAndReceiveTimeout:    5 * time.Second,
	}
}

// FromEnv starts from Default and overrides any field whose DX_*
// environment variable is set. The teacher's repo has no env-config
// library in its dependency stack (every adapter is configured in Go
// code via DefaultXxxConfig()), so this follows the same plain
// os.Getenv convention rather than pulling in one for this alone.
func FromEnv() Config {
	cfg := Default()

	if v := os.Getenv("DX_INLINE_MAX"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.InlineMax = uint32(n)
		}
	}
	if v := os.Getenv("DX_MAILBOX_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MailboxCapacity = n
		}
	}
	if v := os.Getenv("DX_SCHEDULING_QUANTUM_DEFAULT"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			cfg.SchedulingQuantumDefault = int32(n)
		}
	}
	if v := os.Getenv("DX_TELEMETRY_BACKEND"); v != "" {
		cfg.TelemetryBackend = v
	}
	if v := os.Getenv("DX_AUDIT_BACKEND"); v != "" {
		cfg.AuditBackend = v
	}
	if v := os.Getenv("DX_METRICS_EXPORTER"); v != "" {
		cfg.MetricsExporter = v
	}
	if v := os.Getenv("DX_TRACING_EXPORTER"); v != "" {
		cfg.TracingExporter = v
	}
	if v := os.Getenv("DX_SEND_AND_RECEIVE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SendAndReceiveTimeout = d
		}
	}

	return cfg
}
