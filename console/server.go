package console

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dgaur/dx-kernel/abi"
	"github.com/dgaur/dx-kernel/framework/core"
	"github.com/dgaur/dx-kernel/telemetry"
	"github.com/dgaur/dx-kernel/thread"
)

// StatsSource is the minimal surface the console needs from the IPC
// scheduler. Satisfied by *ipc.Scheduler; kept as an interface here to
// avoid a console->ipc->console import cycle risk and to keep the
// console testable without a live scheduler.
type StatsSource interface {
	Stats() abi.KernelStats
}

// ThreadView is the JSON shape of one row in the /threads listing.
type ThreadView struct {
	ID        int32  `json:"id"`
	State     string `json:"state"`
	WaitingOn *int32 `json:"waiting_on,omitempty"`
	TickCount int32  `json:"tick_count"`
	RefCount  int32  `json:"ref_count"`
}

// Server is the kernel's debug HTTP+WebSocket surface. Implements
// core.Lifecycle and core.Component, same as RESTAdapter/WebSocketAdapter.
type Server struct {
	cfg      Config
	stats    StatsSource
	registry *thread.Registry
	events   *telemetry.InMemorySink // optional; nil disables the WS stream
	upgrader websocket.Upgrader

	router    *gin.Engine
	server    *http.Server
	running   bool
	validator *Validator
}

// New builds a console server. events may be nil if telemetry isn't
// configured with the inmemory backend. validator may be nil to skip
// OpenAPI request validation.
func New(cfg Config, stats StatsSource, registry *thread.Registry, events *telemetry.InMemorySink, validator *Validator) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		cfg:       cfg,
		stats:     stats,
		registry:  registry,
		events:    events,
		validator: validator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		router: gin.New(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealthz)

	// Only the data-bearing endpoints are validated against the
	// OpenAPI document; health/WS/pprof are not part of that contract.
	api := s.router.Group("/")
	if s.validator != nil {
		api.Use(s.validator.Middleware())
	}
	api.GET("/stats", s.handleStats)
	api.GET("/threads", s.handleThreads)

	if s.cfg.WSPath != "" && s.events != nil {
		s.router.GET(s.cfg.WSPath, s.handleEvents)
	}

	if s.cfg.EnablePprof {
		s.router.GET("/debug/pprof/", gin.WrapF(pprof.Index))
		s.router.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
		s.router.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
		s.router.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
		s.router.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	}
}

// Start runs the HTTP server in the background. Implements core.Lifecycle.
func (s *Server) Start(ctx context.Context) error {
	s.running = true
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.router,
	}
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			_ = err
		}
	}()
	return nil
}

// Stop shuts the server down. Implements core.Lifecycle.
func (s *Server) Stop(ctx context.Context) error {
	s.running = false
	if s.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// IsRunning implements core.Lifecycle.
func (s *Server) IsRunning() bool { return s.running }

// Name implements core.Component.
func (s *Server) Name() string { return "console" }

// Type implements core.Component.
func (s *Server) Type() core.ComponentType { return core.ComponentTypeTransport }

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.stats.Stats())
}

func (s *Server) handleThreads(c *gin.Context) {
	threads := s.registry.All()
	out := make([]ThreadView, 0, len(threads))
	for _, t := range threads {
		v := ThreadView{
			ID:        int32(t.ID),
			State:     t.State().String(),
			TickCount: t.TickCount(),
			RefCount:  t.RefCount(),
		}
		if waiting, ok := t.WaitingOn(); ok {
			w := int32(waiting)
			v.WaitingOn = &w
		}
		out = append(out, v)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleEvents(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch, unsubscribe := s.events.Subscribe()
	defer unsubscribe()

	for ev := range ch {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}
