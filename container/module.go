package container

import (
	"context"

	"github.com/dgaur/dx-kernel/framework/core"
)

// Module is a single kernel subsystem (thread registry, IPC
// scheduler, cleanup agent, telemetry, ...) that participates in the
// boot sequence. Adapted from container.Module.
type Module interface {
	core.Component
	Initialize(ctx context.Context, c *Container) error
	Dependencies() []string
	// Priority orders initialization: lower runs first. spec.md §9's
	// ordering constraints are expressed entirely through this and
	// Dependencies — e.g. the scheduler module depends on the thread
	// module and carries a higher (later) priority number than it.
	Priority() core.Priority
}

// BaseModule is embedded by concrete modules for the Component/
// Dependencies/Priority boilerplate, same role as container.BaseModule.
type BaseModule struct {
	name         string
	dependencies []string
	priority     core.Priority
}

// NewBaseModule builds the embeddable boilerplate.
func NewBaseModule(name string, dependencies []string, priority core.Priority) BaseModule {
	return BaseModule{name: name, dependencies: dependencies, priority: priority}
}

func (m BaseModule) Name() string              { return m.name }
func (m BaseModule) Type() core.ComponentType  { return core.ComponentTypeModule }
func (m BaseModule) Dependencies() []string    { return m.dependencies }
func (m BaseModule) Priority() core.Priority   { return m.priority }

// Transport is a Module that additionally has its own Start/Stop
// lifecycle, started right after its own Initialize. console.Server and
// rpc.Server are wrapped as Transports; everything else is a plain Module.
type Transport interface {
	Module
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
