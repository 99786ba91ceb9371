// Package rpc is the kernel's gRPC debug-service scaffold, grounded on
// framework/adapters/transport/grpc.go (GRPCAdapter). That file's own
// NOTE says the framework layer manages the server's lifecycle and
// leaves concrete service registration to the embedding application;
// this package keeps that boundary. Rather than hand-authoring fake
// protoc-generated stubs, the one debug service it exposes is
// registered directly against a manually-built grpc.ServiceDesc using
// google.golang.org/protobuf/types/known/structpb.Struct as the wire
// type — a real proto.Message, so the codec path is unchanged from a
// generated service, without fabricating generated code.
package rpc

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dgaur/dx-kernel/abi"
	"github.com/dgaur/dx-kernel/framework/core"
)

// Config mirrors GRPCConfig, trimmed to the fields this scaffold uses.
type Config struct {
	Port                  int
	MaxConcurrentStreams  uint32
	MaxReceiveMessageSize int
}

// DefaultConfig mirrors transport.DefaultGRPCConfig.
func DefaultConfig() Config {
	return Config{
		Port:                  50151,
		MaxConcurrentStreams:  100,
		MaxReceiveMessageSize: 4 * 1024 * 1024,
	}
}

// StatsSource is the minimal surface the debug service needs from the
// IPC scheduler. Satisfied by *ipc.Scheduler.
type StatsSource interface {
	Stats() abi.KernelStats
}

// Server exposes the kernel's debug gRPC service. Implements
// core.Lifecycle and core.Component, same as GRPCAdapter.
type Server struct {
	cfg     Config
	stats   StatsSource
	server  *grpc.Server
	running bool
}

// New builds a Server bound to stats.
func New(cfg Config, stats StatsSource) *Server {
	s := &Server{cfg: cfg, stats: stats}
	s.server = grpc.NewServer(
		grpc.MaxConcurrentStreams(cfg.MaxConcurrentStreams),
		grpc.MaxRecvMsgSize(cfg.MaxReceiveMessageSize),
	)
	s.server.RegisterService(&debugServiceDesc, s)
	return s
}

// GetStats implements the GetStats RPC: it takes no fields from the
// request and returns the scheduler's counters as a generic struct.
func (s *Server) GetStats(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	stats := s.stats.Stats()
	out, err := structpb.NewStruct(map[string]interface{}{
		"message_count":        float64(stats.MessageCount),
		"pending_count":        float64(stats.PendingCount),
		"incomplete_count":     float64(stats.IncompleteCount),
		"send_error_count":     float64(stats.SendErrorCount),
		"receive_error_count":  float64(stats.ReceiveErrorCount),
		"lottery_count":        float64(stats.LotteryCount),
		"idle_count":           float64(stats.IdleCount),
		"direct_handoff_count": float64(stats.DirectHandoffCount),
		"thread_count":         float64(stats.ThreadCount),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding stats: %v", err)
	}
	return out, nil
}

// Start listens and serves in the background. Implements core.Lifecycle.
func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("rpc: listening: %w", err)
	}
	s.running = true
	go func() {
		_ = s.server.Serve(lis)
	}()
	return nil
}

// Stop gracefully drains in-flight RPCs. Implements core.Lifecycle.
func (s *Server) Stop(ctx context.Context) error {
	s.running = false
	s.server.GracefulStop()
	return nil
}

// IsRunning implements core.Lifecycle.
func (s *Server) IsRunning() bool { return s.running }

// Name implements core.Component.
func (s *Server) Name() string { return "rpc" }

// Type implements core.Component.
func (s *Server) Type() core.ComponentType { return core.ComponentTypeTransport }
