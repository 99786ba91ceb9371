package dxkernel

import (
	"context"
	"fmt"

	"github.com/dgaur/dx-kernel/abi"
	"github.com/dgaur/dx-kernel/audit"
	"github.com/dgaur/dx-kernel/cleanup"
	"github.com/dgaur/dx-kernel/config"
	"github.com/dgaur/dx-kernel/console"
	"github.com/dgaur/dx-kernel/container"
	"github.com/dgaur/dx-kernel/framework/core"
	"github.com/dgaur/dx-kernel/hal"
	"github.com/dgaur/dx-kernel/ipc"
	"github.com/dgaur/dx-kernel/metrics"
	"github.com/dgaur/dx-kernel/rpc"
	"github.com/dgaur/dx-kernel/telemetry"
	"github.com/dgaur/dx-kernel/thread"
	"github.com/dgaur/dx-kernel/tracing"
)

// buildModules constructs every container.Module the kernel needs, in
// the order spec.md §9 requires: the thread registry and its reserved
// identities first, then the scheduler (which needs their mailboxes),
// then cleanup (which needs the scheduler), then the ambient/domain
// stack, which only ever reads the scheduler's counters or the
// registry's snapshot.
func buildModules(cfg config.Config, sim *hal.Simulation, k *Kernel) []container.Module {
	return []container.Module{
		newThreadsModule(k),
		newSchedulerModule(cfg, sim, k),
		newCleanupModule(k),
		newTelemetryModule(cfg, k),
		newAuditModule(cfg, k),
		newMetricsModule(k),
		newTracingModule(k),
		newConsoleModule(k),
		newRPCModule(k),
	}
}

// threadsModule brings up the registry and the reserved thread
// identities (spec.md §9's replacement for __null_thread and
// __cleanup_thread as globals).
type threadsModule struct {
	container.BaseModule
	k *Kernel
}

func newThreadsModule(k *Kernel) *threadsModule {
	return &threadsModule{BaseModule: container.NewBaseModule("threads", nil, core.PriorityCritical), k: k}
}

func (m *threadsModule) Initialize(ctx context.Context, c *container.Container) error {
	m.k.Registry = thread.NewRegistry()
	bootThread(m.k, abi.NullThread, 0)
	bootThread(m.k, abi.Cleanup, abi.CapDeleteThread)
	bootThread(m.k, abi.Boot, abi.CapDeleteThread)
	return container.Set(c, "registry", m.k.Registry)
}

// schedulerModule brings up the IPC-and-scheduling core itself and
// attaches mailboxes to every thread threadsModule registered.
type schedulerModule struct {
	container.BaseModule
	cfg config.Config
	sim *hal.Simulation
	k   *Kernel
}

func newSchedulerModule(cfg config.Config, sim *hal.Simulation, k *Kernel) *schedulerModule {
	return &schedulerModule{
		BaseModule: container.NewBaseModule("scheduler", []string{"threads"}, core.PriorityHigh),
		cfg:        cfg,
		sim:        sim,
		k:          k,
	}
}

func (m *schedulerModule) Initialize(ctx context.Context, c *container.Container) error {
	m.k.Scheduler = ipc.New(m.cfg, m.k.Registry, m.sim, m.sim, m.sim, abi.NullThread, abi.Cleanup)
	for _, t := range m.k.Registry.All() {
		mb := m.k.Scheduler.RegisterMailbox(t.ID)
		t.SetMailbox(mb)
	}
	return container.Set(c, "scheduler", m.k.Scheduler)
}

// cleanupModule brings up the thread-deletion protocol's agent.
type cleanupModule struct {
	container.BaseModule
	k *Kernel
}

func newCleanupModule(k *Kernel) *cleanupModule {
	return &cleanupModule{BaseModule: container.NewBaseModule("cleanup", []string{"threads", "scheduler"}, core.PriorityHigh), k: k}
}

func (m *cleanupModule) Initialize(ctx context.Context, c *container.Container) error {
	m.k.Cleanup = cleanup.New(abi.Cleanup, m.k.Registry, m.k.Scheduler)
	return container.Set(c, "cleanup", m.k.Cleanup)
}

// telemetryModule brings up the selected event sink.
type telemetryModule struct {
	container.BaseModule
	cfg config.Config
	k   *Kernel
}

func newTelemetryModule(cfg config.Config, k *Kernel) *telemetryModule {
	return &telemetryModule{BaseModule: container.NewBaseModule("telemetry", []string{"threads"}, core.PriorityNormal), cfg: cfg, k: k}
}

func (m *telemetryModule) Initialize(ctx context.Context, c *container.Container) error {
	backend := m.cfg.TelemetryBackend
	if backend == "" {
		backend = "inmemory"
	}

	var cfgArg interface{}
	switch backend {
	case "inmemory":
		cfgArg = telemetry.DefaultInMemoryConfig()
	case "nats":
		cfgArg = telemetry.DefaultNATSConfig()
	case "kafka":
		cfgArg = telemetry.DefaultKafkaConfig()
	case "redis":
		cfgArg = telemetry.DefaultRedisConfig()
	}

	sink, err := telemetry.NewFactory().Create(backend, cfgArg)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	m.k.Telemetry = sink
	return container.Set(c, "telemetry", sink)
}

// auditModule brings up the panic/cleanup-completion audit store, if configured.
type auditModule struct {
	container.BaseModule
	cfg config.Config
	k   *Kernel
}

func newAuditModule(cfg config.Config, k *Kernel) *auditModule {
	return &auditModule{BaseModule: container.NewBaseModule("audit", []string{"threads"}, core.PriorityNormal), cfg: cfg, k: k}
}

func (m *auditModule) Initialize(ctx context.Context, c *container.Container) error {
	if m.cfg.AuditBackend == "" {
		m.k.Audit = audit.NewInMemoryStore(1024)
		return container.Set(c, "audit", m.k.Audit)
	}

	var cfgArg interface{}
	switch m.cfg.AuditBackend {
	case "postgres":
		cfgArg = audit.DefaultPostgresConfig()
	case "mongo":
		cfgArg = audit.DefaultMongoConfig()
	}

	store, err := audit.NewFactory().Create(ctx, m.cfg.AuditBackend, cfgArg)
	if err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	m.k.Audit = store
	return container.Set(c, "audit", store)
}

// metricsModule brings up the OpenTelemetry meter provider and Recorder.
type metricsModule struct {
	container.BaseModule
	k *Kernel
}

func newMetricsModule(k *Kernel) *metricsModule {
	return &metricsModule{BaseModule: container.NewBaseModule("metrics", nil, core.PriorityNormal), k: k}
}

func (m *metricsModule) Initialize(ctx context.Context, c *container.Container) error {
	if _, err := metrics.Setup(ctx, metrics.Config{Exporter: m.k.Config.MetricsExporter}); err != nil {
		return fmt.Errorf("metrics setup: %w", err)
	}
	recorder, err := metrics.New()
	if err != nil {
		return fmt.Errorf("metrics recorder: %w", err)
	}
	m.k.Metrics = recorder
	return container.Set(c, "metrics", recorder)
}

// tracingModule brings up the send_and_receive span tracer.
type tracingModule struct {
	container.BaseModule
	k *Kernel
}

func newTracingModule(k *Kernel) *tracingModule {
	return &tracingModule{BaseModule: container.NewBaseModule("tracing", nil, core.PriorityNormal), k: k}
}

func (m *tracingModule) Initialize(ctx context.Context, c *container.Container) error {
	tracer, err := tracing.New(tracing.Config{
		Enabled:     m.k.Config.TracingExporter != "",
		ServiceName: "dx-kernel",
		Exporter:    m.k.Config.TracingExporter,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	m.k.Tracer = tracer
	return container.Set(c, "tracing", tracer)
}

// consoleModule brings up the HTTP debug surface. It is also a
// container.Transport: Initialize only builds the server, Start opens
// the listening socket.
type consoleModule struct {
	container.BaseModule
	k *Kernel
}

func newConsoleModule(k *Kernel) *consoleModule {
	return &consoleModule{
		BaseModule: container.NewBaseModule("console", []string{"threads", "scheduler", "telemetry"}, core.PriorityLow),
		k:          k,
	}
}

func (m *consoleModule) Initialize(ctx context.Context, c *container.Container) error {
	events, _ := m.k.Telemetry.(*telemetry.InMemorySink)
	m.k.Console = console.New(console.DefaultConfig(), m.k.Scheduler, m.k.Registry, events, nil)
	return nil
}

func (m *consoleModule) Start(ctx context.Context) error { return m.k.Console.Start(ctx) }
func (m *consoleModule) Stop(ctx context.Context) error  { return m.k.Console.Stop(ctx) }

// rpcModule brings up the gRPC debug service. Also a container.Transport.
type rpcModule struct {
	container.BaseModule
	k *Kernel
}

func newRPCModule(k *Kernel) *rpcModule {
	return &rpcModule{BaseModule: container.NewBaseModule("rpc", []string{"threads", "scheduler"}, core.PriorityLow), k: k}
}

func (m *rpcModule) Initialize(ctx context.Context, c *container.Container) error {
	m.k.RPC = rpc.New(rpc.DefaultConfig(), m.k.Scheduler)
	return nil
}

func (m *rpcModule) Start(ctx context.Context) error { return m.k.RPC.Start(ctx) }
func (m *rpcModule) Stop(ctx context.Context) error  { return m.k.RPC.Stop(ctx) }
