package rpc

import (
	"context"
	"testing"

	"github.com/dgaur/dx-kernel/abi"
)

type fakeStats struct{ s abi.KernelStats }

func (f fakeStats) Stats() abi.KernelStats { return f.s }

func TestGetStatsEncodesCounters(t *testing.T) {
	want := abi.KernelStats{MessageCount: 7, ThreadCount: 2, LotteryCount: 3}
	s := New(DefaultConfig(), fakeStats{s: want})

	out, err := s.GetStats(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}

	fields := out.GetFields()
	if got := fields["message_count"].GetNumberValue(); got != 7 {
		t.Fatalf("message_count = %v, want 7", got)
	}
	if got := fields["thread_count"].GetNumberValue(); got != 2 {
		t.Fatalf("thread_count = %v, want 2", got)
	}
	if got := fields["lottery_count"].GetNumberValue(); got != 3 {
		t.Fatalf("lottery_count = %v, want 3", got)
	}
}

func TestNewRegistersDebugService(t *testing.T) {
	s := New(DefaultConfig(), fakeStats{})
	if s.server == nil {
		t.Fatalf("grpc server not initialized")
	}
	if _, ok := s.server.GetServiceInfo()["dx.kernel.DebugService"]; !ok {
		t.Fatalf("DebugService not registered")
	}
}
