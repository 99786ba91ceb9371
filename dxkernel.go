// Package dxkernel is the repository's composition root: it wires the
// thread registry, IPC-and-scheduling core, cleanup protocol, and the
// ambient/domain stack (telemetry, audit, metrics, tracing, debug
// console, gRPC debug service) into one bootable unit. Grounded on
// framework.go's BaseFramework (Initialize/Shutdown/GetComponent),
// retargeted to drive container.Initializer instead of the teacher's
// still-unimplemented component map.
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
	"github.com/dgaur/dx-kernel/hal"
	"github.com/dgaur/dx-kernel/ipc"
	"github.com/dgaur/dx-kernel/metrics"
	"github.com/dgaur/dx-kernel/rpc"
	"github.com/dgaur/dx-kernel/telemetry"
	"github.com/dgaur/dx-kernel/thread"
	"github.com/dgaur/dx-kernel/tracing"
)

// Version identifies this implementation of the IPC-and-scheduling core.
const Version = "0.1.0"

// Kernel is the booted, running instance: every field is populated by
// the time New returns successfully.
type Kernel struct {
	Config    config.Config
	Registry  *thread.Registry
	Scheduler *ipc.Scheduler
	Cleanup   *cleanup.Agent
	Telemetry telemetry.Sink
	Audit     audit.Store
	Metrics   *metrics.Recorder
	Tracer    *tracing.Tracer
	Console   *console.Server
	RPC       *rpc.Server

	container *container.Container
}

// New boots a Kernel against sim, the in-memory stand-in for the
// out-of-scope HAL/address-space layer (or a real implementation of
// hal.AddressSpace/ContextSwitcher/CurrentThreadAccessor in
// production). Every subsystem is brought up through
// container.Initializer, which enforces spec.md §9's ordering: the
// null and cleanup threads exist before the scheduler runs its first
// lottery, and the cleanup agent exists before any DELETE_THREAD call
// is honored.
func New(ctx context.Context, cfg config.Config, sim *hal.Simulation) (*Kernel, error) {
	k := &Kernel{Config: cfg}

	c := container.New(container.DefaultConfig())
	registry := container.NewRegistry()

	for _, m := range buildModules(cfg, sim, k) {
		if err := registry.Register(m); err != nil {
			return nil, fmt.Errorf("dxkernel: %w", err)
		}
	}

	init := container.NewInitializer(registry)
	if err := init.Initialize(ctx, c); err != nil {
		return nil, fmt.Errorf("dxkernel: boot failed: %w", err)
	}

	k.container = c
	return k, nil
}

// Shutdown stops every started transport and closes every closable
// dependency (telemetry sink, audit store).
func (k *Kernel) Shutdown(ctx context.Context) error {
	return k.container.Shutdown(ctx)
}

// bootThread registers id in k.Registry with caps. Used by the
// threads module to bring up the reserved identities spec.md §9 lists;
// their mailboxes are attached later, by the scheduler module.
func bootThread(k *Kernel, id abi.ThreadID, caps abi.Capability) {
	t := thread.New(id, caps)
	k.Registry.Register(t)
}
