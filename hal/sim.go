package hal

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dgaur/dx-kernel/abi"
)

// Simulation is an in-memory stand-in for the real address-space
// layer and context-switch primitive, used by the kernel's own tests
// and the demo command. It is scaffolding, not a redefinition of the
// hal contracts: it satisfies AddressSpace and ContextSwitcher with
// plain Go slices and maps instead of page tables.
type Simulation struct {
	mu      sync.Mutex
	shares  map[uintptr]FrameRange
	arena   map[uintptr][]byte
	nextH   uint64
	current atomic.Int64

	// KernelSuperpages lists frame ranges the simulation classifies as
	// RegionKernelSuperpage; everything else is RegionUser.
	KernelSuperpages []FrameRange

	// SwitchLog records every SwitchTo call, for assertions in tests.
	SwitchLog []abi.ThreadID
}

// NewSimulation creates an empty simulation with current thread set
// to boot.
func NewSimulation() *Simulation {
	s := &Simulation{shares: make(map[uintptr]FrameRange)}
	s.current.Store(int64(abi.Boot))
	return s
}

// SwitchTo implements ContextSwitcher.
func (s *Simulation) SwitchTo(to abi.ThreadID) {
	s.mu.Lock()
	s.SwitchLog = append(s.SwitchLog, to)
	s.mu.Unlock()
	s.current.Store(int64(to))
}

// Current implements CurrentThreadAccessor.
func (s *Simulation) Current() abi.ThreadID {
	return abi.ThreadID(s.current.Load())
}

// ClassifyRegion implements AddressSpace.
func (s *Simulation) ClassifyRegion(frames FrameRange) RegionClass {
	for _, sp := range s.KernelSuperpages {
		if frames.StartFrame >= sp.StartFrame && frames.StartFrame < sp.StartFrame+uintptr(sp.FrameCount) {
			return RegionKernelSuperpage
		}
	}
	return RegionUser
}

// RegisterShare implements AddressSpace.
func (s *Simulation) RegisterShare(sender abi.ThreadID, frames FrameRange) (uintptr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextH++
	handle := uintptr(s.nextH)
	s.shares[handle] = frames
	return handle, nil
}

// MapShared implements AddressSpace. The simulation has no real
// virtual memory, so it returns destAddr when supplied, and a
// deterministic synthetic address otherwise.
func (s *Simulation) MapShared(recipient abi.ThreadID, handle uintptr, destAddr uintptr) (uintptr, error) {
	s.mu.Lock()
	_, ok := s.shares[handle]
	s.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("unknown share handle %d", handle)
	}
	if destAddr != 0 {
		return destAddr, nil
	}
	return 0x4000_0000 + handle*0x1000, nil
}

// CopyIn implements AddressSpace by treating ptr as an index into a
// process-global byte arena the simulation owns; tests populate it via
// Poke.
func (s *Simulation) CopyIn(sender abi.ThreadID, ptr uintptr, n uint32) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.arena[ptr]
	if !ok || uint32(len(buf)) < n {
		return nil, fmt.Errorf("no readable buffer at %d", ptr)
	}
	out := make([]byte, n)
	copy(out, buf[:n])
	return out, nil
}

// CopyOut implements AddressSpace by allocating a fresh arena slot.
func (s *Simulation) CopyOut(recipient abi.ThreadID, data []byte) (uintptr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextH++
	ptr := uintptr(s.nextH) | 0x8000_0000
	if s.arena == nil {
		s.arena = make(map[uintptr][]byte)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.arena[ptr] = cp
	return ptr, nil
}

// Poke seeds the simulation's arena at ptr, for sender-side test setup
// ahead of a CopyIn.
func (s *Simulation) Poke(ptr uintptr, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.arena == nil {
		s.arena = make(map[uintptr][]byte)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.arena[ptr] = cp
}

// Peek reads back whatever CopyOut or Poke last placed at ptr, for
// assertions in tests.
func (s *Simulation) Peek(ptr uintptr) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.arena[ptr]
	return buf, ok
}
