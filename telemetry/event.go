// Package telemetry mirrors scheduler and cleanup-protocol events to a
// pluggable sink, grounded on the teacher's messagebus package: same
// factory-of-named-backends shape
// (framework/adapters/messagebus/factory.go's DefaultMessageBusFactory)
// and the same bounded-channel, never-block-the-caller discipline as
// its InMemoryAdapter. Unlike the teacher's bus, a Sink is
// publish-only — nothing in the kernel ever waits on a telemetry
// reply.
package telemetry

import "time"

// Kind names the category of a scheduler/cleanup event.
type Kind string

const (
	KindLottery         Kind = "lottery"
	KindDirectHandoff   Kind = "direct_handoff"
	KindIdle            Kind = "idle"
	KindMailboxOverflow Kind = "mailbox_overflow"
	KindDeleteThread    Kind = "delete_thread"
	KindDeleteComplete  Kind = "delete_thread_complete"
	KindPanic           Kind = "panic"
)

// Event is one fire-and-forget telemetry record.
type Event struct {
	Kind        Kind
	Timestamp   time.Time
	ThreadID    int32
	PeerID      int32
	RequestID   string
	Status      string
	Detail      string
}
