// Package abi defines the wire-level types shared between the kernel's
// IPC-and-scheduling core and its callers: thread identities, message
// type tags, status codes, the syscall argument blocks, and the
// kernel-stats record.
package abi

import "fmt"

// ThreadID is a stable numeric thread identity, unique across the
// process lifetime. The negative sentinel values below are reserved.
type ThreadID int32

// Reserved thread identities.
const (
	// Invalid means "no such thread" / an uninitialized identity.
	Invalid ThreadID = -1
	// Loopback means "the current thread" when used as a destination.
	Loopback ThreadID = -2
	// Boot is the identity of the first thread the kernel starts.
	Boot ThreadID = -16
	// Cleanup is the dedicated thread that owns thread deletion.
	Cleanup ThreadID = -15
	// NullThread is the message sink and idle-time source: sends to
	// it always succeed and are silently discarded.
	NullThread ThreadID = -256
)

func (id ThreadID) String() string {
	switch id {
	case Invalid:
		return "INVALID"
	case Loopback:
		return "LOOPBACK"
	case Boot:
		return "BOOT"
	case Cleanup:
		return "CLEANUP"
	case NullThread:
		return "NULL_THREAD"
	default:
		return fmt.Sprintf("thread(%d)", int32(id))
	}
}

// IsReserved reports whether id names one of the fixed sentinel
// identities rather than an application thread.
func (id ThreadID) IsReserved() bool {
	switch id {
	case Invalid, Loopback, Boot, Cleanup, NullThread:
		return true
	default:
		return false
	}
}

// Capability is a single bit in a thread's capability set.
type Capability uint32

const (
	// CapDeleteThread authorizes deleting a thread other than self.
	CapDeleteThread Capability = 1 << iota
)

// Has reports whether set contains cap.
func (c Capability) Has(cap Capability) bool {
	return c&cap != 0
}
