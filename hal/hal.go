// Package hal names the contracts the IPC-and-scheduling core relies
// on but never implements itself: interrupt dispatch, the timer tick,
// the context-switch primitive, the current-thread accessor, and the
// address-space / frame-sharing layer (spec.md §1, "Out of scope").
// The core only ever holds these as interfaces; production
// implementations live elsewhere in the kernel. Package hal also
// provides an in-memory Simulation used by tests and the demo
// command, grounded on the teacher's pattern of a minimal in-memory
// adapter standing in for a real backend (messagebus.InMemoryAdapter).
package hal

import "github.com/dgaur/dx-kernel/abi"

// ContextSwitcher performs the hardware context switch away from one
// thread and into another. The IPC-scheduler calls it from yield()
// when pick_next chooses a thread other than the caller; spec.md §5
// requires this never happen while the scheduler's lock is held.
type ContextSwitcher interface {
	SwitchTo(to abi.ThreadID)
}

// CurrentThreadAccessor answers "which thread is running right now".
type CurrentThreadAccessor interface {
	Current() abi.ThreadID
}

// RegionClass classifies a range of physical frames for the Shared
// message variant's authorization check (spec.md §9, Open Questions).
type RegionClass int

const (
	// RegionUser is ordinary, freely shareable user memory.
	RegionUser RegionClass = iota
	// RegionKernelSuperpage is kernel-owned memory that may only be
	// shared by a sender holding CapShareKernelMemory.
	RegionKernelSuperpage
)

// ShareCapability gates sharing of a restricted region class.
type ShareCapability uint32

// CapShareKernelMemory authorizes sharing RegionKernelSuperpage frames.
const CapShareKernelMemory ShareCapability = 1

// FrameRange names the frames backing a Shared message's payload.
type FrameRange struct {
	StartFrame uintptr
	FrameCount uint32
}

// AddressSpace is the frame-sharing/address-space layer the core
// treats as a black box: it only asks this layer to classify a frame
// range, register frames for sharing, and later map them into the
// recipient.
type AddressSpace interface {
	// ClassifyRegion reports what kind of memory backs frames, so the
	// Shared variant's collectPayload can apply the spec.md §9
	// authorization policy.
	ClassifyRegion(frames FrameRange) RegionClass

	// RegisterShare marks frames shareable on behalf of sender and
	// returns an opaque share handle the recipient's address space
	// can later resolve. Fails if no frame-share entry is available.
	RegisterShare(sender abi.ThreadID, frames FrameRange) (handle uintptr, err error)

	// MapShared maps the frames behind handle into recipient's address
	// space, at destAddr if non-zero, or at an address the layer
	// chooses otherwise. Returns the address actually used.
	MapShared(recipient abi.ThreadID, handle uintptr, destAddr uintptr) (mappedAt uintptr, err error)

	// CopyIn copies n bytes from a sender-supplied pointer into the
	// kernel's custody, for the Inline variant.
	CopyIn(sender abi.ThreadID, ptr uintptr, n uint32) ([]byte, error)

	// CopyOut places bytes into a slot in recipient's per-address-space
	// medium-payload pool (the Inline/Word window of spec.md §6),
	// returning the address the recipient will read from.
	CopyOut(recipient abi.ThreadID, data []byte) (ptr uintptr, err error)
}
