package thread

import (
	"testing"

	"github.com/dgaur/dx-kernel/abi"
)

func TestThreadBlockedOnRoundTrip(t *testing.T) {
	a := New(1, 0)
	b := New(2, 0)

	a.SetBlockedOn(b.ID)

	if got := a.State(); got != BlockedOnThread {
		t.Fatalf("state = %v, want BlockedOnThread", got)
	}
	waiting, ok := a.WaitingOn()
	if !ok || waiting != b.ID {
		t.Fatalf("WaitingOn() = (%v, %v), want (%v, true)", waiting, ok, b.ID)
	}

	a.SetState(Ready)
	if _, ok := a.WaitingOn(); ok {
		t.Fatalf("WaitingOn() still reports blocked after SetState(Ready)")
	}
}

func TestThreadRefCounting(t *testing.T) {
	th := New(1, 0)
	th.AddRef()
	th.AddRef()
	if got := th.RefCount(); got != 2 {
		t.Fatalf("RefCount() = %d, want 2", got)
	}
	if got := th.Release(); got != 1 {
		t.Fatalf("Release() = %d, want 1", got)
	}
}

func TestCapabilities(t *testing.T) {
	th := New(1, abi.CapDeleteThread)
	if !th.Capabilities().Has(abi.CapDeleteThread) {
		t.Fatalf("expected CapDeleteThread to be set")
	}
	other := New(2, 0)
	if other.Capabilities().Has(abi.CapDeleteThread) {
		t.Fatalf("expected CapDeleteThread to be unset")
	}
}

func TestRegistryRegisterLookupRemove(t *testing.T) {
	r := NewRegistry()
	th := New(42, 0)

	if !r.Register(th) {
		t.Fatalf("Register() = false on first call")
	}
	if r.Register(th) {
		t.Fatalf("Register() = true on duplicate identity")
	}

	got, ok := r.Lookup(42)
	if !ok || got != th {
		t.Fatalf("Lookup(42) = (%v, %v), want (%v, true)", got, ok, th)
	}

	// Still alive: Remove must refuse.
	if r.Remove(42) {
		t.Fatalf("Remove() succeeded on a live thread")
	}

	th.SetState(Dead)
	th.AddRef()
	if r.Remove(42) {
		t.Fatalf("Remove() succeeded while refCount > 0")
	}

	th.Release()
	if !r.Remove(42) {
		t.Fatalf("Remove() failed on a dead, unreferenced thread")
	}
	if _, ok := r.Lookup(42); ok {
		t.Fatalf("thread still present after Remove()")
	}
}
