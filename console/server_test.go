package console

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgaur/dx-kernel/abi"
	"github.com/dgaur/dx-kernel/thread"
)

type fakeStats struct{ s abi.KernelStats }

func (f fakeStats) Stats() abi.KernelStats { return f.s }

func TestHealthzReturnsOK(t *testing.T) {
	s := New(DefaultConfig(), fakeStats{}, thread.NewRegistry(), nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestStatsReturnsSchedulerCounters(t *testing.T) {
	want := abi.KernelStats{MessageCount: 42, ThreadCount: 3}
	s := New(DefaultConfig(), fakeStats{s: want}, thread.NewRegistry(), nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestThreadsListsRegisteredThreads(t *testing.T) {
	registry := thread.NewRegistry()
	registry.Register(thread.New(abi.ThreadID(1), abi.Capability(0)))
	registry.Register(thread.New(abi.ThreadID(2), abi.Capability(0)))

	s := New(DefaultConfig(), fakeStats{}, registry, nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/threads", nil)
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestNewEmbeddedValidatorLoadsBundledSpec(t *testing.T) {
	v, err := NewEmbeddedValidator()
	if err != nil {
		t.Fatalf("NewEmbeddedValidator: %v", err)
	}
	if v.router == nil {
		t.Fatalf("validator has no router")
	}
}

func TestValidatorRejectsUnknownRoute(t *testing.T) {
	v, err := NewEmbeddedValidator()
	if err != nil {
		t.Fatalf("NewEmbeddedValidator: %v", err)
	}
	s := New(DefaultConfig(), fakeStats{}, thread.NewRegistry(), nil, v)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for a route absent from the OpenAPI document", rec.Code)
	}
}

func TestValidatorAcceptsKnownRoute(t *testing.T) {
	v, err := NewEmbeddedValidator()
	if err != nil {
		t.Fatalf("NewEmbeddedValidator: %v", err)
	}
	s := New(DefaultConfig(), fakeStats{}, thread.NewRegistry(), nil, v)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for a route present in the OpenAPI document", rec.Code)
	}
}
