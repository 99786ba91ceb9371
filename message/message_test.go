package message

import (
	"testing"

	"github.com/dgaur/dx-kernel/abi"
	"github.com/dgaur/dx-kernel/hal"
)

func TestWordPayloadRoundTrip(t *testing.T) {
	sim := hal.NewSimulation()
	m := NewWord(1, 2, abi.Write, abi.MessageID(7), 0xdeadbeef)

	if err := m.CollectPayload(sim, 0, 0, 256, 0); err != nil {
		t.Fatalf("CollectPayload: %v", err)
	}
	if err := m.DeliverPayload(sim); err != nil {
		t.Fatalf("DeliverPayload: %v", err)
	}
	ptr, size := m.ReadPayload()
	if ptr != 0xdeadbeef || size != 0 {
		t.Fatalf("ReadPayload() = (%x, %d), want (0xdeadbeef, 0)", ptr, size)
	}
}

func TestInlinePayloadRoundTrip(t *testing.T) {
	sim := hal.NewSimulation()
	sim.Poke(0x1000, []byte("hello"))

	m := NewInline(1, 2, abi.Write, abi.MessageID(7))
	if err := m.CollectPayload(sim, 0x1000, 5, 256, 0); err != nil {
		t.Fatalf("CollectPayload: %v", err)
	}
	if err := m.DeliverPayload(sim); err != nil {
		t.Fatalf("DeliverPayload: %v", err)
	}
	ptr, size := m.ReadPayload()
	if size != 5 {
		t.Fatalf("ReadPayload() size = %d, want 5", size)
	}
	got, ok := sim.Peek(ptr)
	if !ok || string(got) != "hello" {
		t.Fatalf("Peek(%x) = (%q, %v), want (hello, true)", ptr, got, ok)
	}
}

func TestInlinePayloadRejectsOversize(t *testing.T) {
	sim := hal.NewSimulation()
	m := NewInline(1, 2, abi.Write, abi.MessageID(7))
	if err := m.CollectPayload(sim, 0x1000, 1024, 256, 0); err == nil {
		t.Fatalf("expected error for oversize inline payload")
	}
}

func TestSharedPayloadRequiresCapabilityForKernelSuperpage(t *testing.T) {
	sim := hal.NewSimulation()
	sim.KernelSuperpages = []hal.FrameRange{{StartFrame: 0x10, FrameCount: 4}}

	frames := hal.FrameRange{StartFrame: 0x10, FrameCount: 1}
	m := NewShared(1, 2, abi.Write, abi.MessageID(7), frames, 0)

	if err := m.CollectPayload(sim, 0, 0, 256, 0); err == nil {
		t.Fatalf("expected AccessDenied without CapShareKernelMemory")
	}
	if err := m.CollectPayload(sim, 0, 0, 256, hal.CapShareKernelMemory); err != nil {
		t.Fatalf("CollectPayload with capability: %v", err)
	}
}

func TestSharedPayloadDeliversMappedAddress(t *testing.T) {
	sim := hal.NewSimulation()
	frames := hal.FrameRange{StartFrame: 0x20, FrameCount: 2}
	m := NewShared(1, 2, abi.Write, abi.MessageID(7), frames, 0x9000_0000)

	if err := m.CollectPayload(sim, 0, 0, 256, 0); err != nil {
		t.Fatalf("CollectPayload: %v", err)
	}
	if err := m.DeliverPayload(sim); err != nil {
		t.Fatalf("DeliverPayload: %v", err)
	}
	ptr, size := m.ReadPayload()
	if ptr != 0x9000_0000 {
		t.Fatalf("ReadPayload() ptr = %x, want requested destAddr", ptr)
	}
	if size != 2*0x1000 {
		t.Fatalf("ReadPayload() size = %d, want %d", size, 2*0x1000)
	}
}

func TestIsBlockingAndAtomic(t *testing.T) {
	m := NewWord(1, 2, abi.Write, abi.Atomic, 0)
	if !m.IsAtomic() {
		t.Fatalf("expected IsAtomic() on abi.Atomic id")
	}
	if m.IsBlocking() {
		t.Fatalf("expected IsBlocking() false by default")
	}
	m.Control = abi.Blocking
	if !m.IsBlocking() {
		t.Fatalf("expected IsBlocking() true after setting Blocking control flag")
	}
}

func TestPoolIndexLifecycle(t *testing.T) {
	m := NewWord(1, 2, abi.Write, abi.MessageID(1), 0)
	if got := m.PoolIndex(); got != poolIndexNone {
		t.Fatalf("PoolIndex() = %d, want poolIndexNone", got)
	}
	m.SetPoolIndex(3)
	if got := m.PoolIndex(); got != 3 {
		t.Fatalf("PoolIndex() = %d, want 3", got)
	}
	m.ClearPoolIndex()
	if got := m.PoolIndex(); got != poolIndexNone {
		t.Fatalf("PoolIndex() = %d, want poolIndexNone after clear", got)
	}
}
