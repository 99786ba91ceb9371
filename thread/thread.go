// Package thread models the "external" thread contract spec.md §3
// describes: the IPC core never creates or schedules a thread's code,
// it only references threads by stable identity, tracks the
// observable attributes it needs (state, tick count, mailbox, ref
// count), and checks capabilities at cleanup time.
package thread

import (
	"sync"
	"sync/atomic"

	"github.com/dgaur/dx-kernel/abi"
)

// State is a thread's scheduling state as observed by the IPC core.
type State int

const (
	// Ready means eligible to be picked by the scheduler.
	Ready State = iota
	// BlockedOnThread means the thread sent a BLOCKING message and is
	// waiting on the reply; WaitingOn names the thread it is blocked on.
	BlockedOnThread
	// MarkedForDeletion means the cleanup protocol has begun draining
	// this thread's mailbox but has not yet reclaimed it.
	MarkedForDeletion
	// Dead means the thread's storage may be reclaimed once its
	// reference count reaches zero.
	Dead
)

func (s State) String() string {
	switch s {
	case Ready:
		return "READY"
	case BlockedOnThread:
		return "BLOCKED_ON_THREAD"
	case MarkedForDeletion:
		return "MARKED_FOR_DELETION"
	case Dead:
		return "DEAD"
	default:
		return "UNKNOWN"
	}
}

// Mailbox is the minimal surface the thread package needs from a
// mailbox; it is satisfied by *mailbox.Mailbox. Kept as an interface
// here (rather than importing package mailbox) to avoid a import
// cycle, since mailbox.Mailbox in turn names its owning thread only
// by abi.ThreadID, never by a *Thread pointer (spec.md §9's
// cyclic-reference stratification rule).
type Mailbox interface {
	Len() int
}

// Thread is the core's view of a single thread of control.
type Thread struct {
	ID abi.ThreadID

	mu           sync.Mutex
	state        State
	waitingOn    abi.ThreadID // valid iff state == BlockedOnThread
	tickCount    int32
	capabilities abi.Capability
	mailbox      Mailbox

	// refCount counts references taken with AddRef and dropped with
	// Release. Messages and the scheduler's pick path take none, so it
	// stays zero unless a caller adds one. Storage is reclaimed by the
	// registry only once this reaches zero after Dead.
	refCount int32
}

// New creates a thread in the Ready state with zero references.
func New(id abi.ThreadID, caps abi.Capability) *Thread {
	return &Thread{
		ID:           id,
		state:        Ready,
		capabilities: caps,
	}
}

// SetMailbox attaches the thread's mailbox. Called once, at
// registration time, by whichever syscall creates the thread.
func (t *Thread) SetMailbox(mb Mailbox) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mailbox = mb
}

// Mailbox returns the thread's mailbox, or nil if unset.
func (t *Thread) Mailbox() Mailbox {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mailbox
}

// State returns the thread's current scheduling state.
func (t *Thread) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// SetState transitions the thread to a new state. Use SetBlockedOn to
// enter BlockedOnThread, since that state also carries the waited-on
// identity.
func (t *Thread) SetState(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
	if s != BlockedOnThread {
		t.waitingOn = abi.Invalid
	}
}

// SetBlockedOn marks the thread as blocked waiting on other's reply.
func (t *Thread) SetBlockedOn(other abi.ThreadID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = BlockedOnThread
	t.waitingOn = other
}

// WaitingOn returns the thread this thread is blocked on, and true,
// iff State() == BlockedOnThread.
func (t *Thread) WaitingOn() (abi.ThreadID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != BlockedOnThread {
		return abi.Invalid, false
	}
	return t.waitingOn, true
}

// TickCount returns the thread's remaining quantum.
func (t *Thread) TickCount() int32 {
	return atomic.LoadInt32(&t.tickCount)
}

// SetTickCount resets the thread's remaining quantum, typically to
// config.Config.SchedulingQuantumDefault when the thread is picked.
func (t *Thread) SetTickCount(n int32) {
	atomic.StoreInt32(&t.tickCount, n)
}

// DecrementTick decrements the remaining quantum by one and returns
// the new value.
func (t *Thread) DecrementTick() int32 {
	return atomic.AddInt32(&t.tickCount, -1)
}

// Capabilities returns the thread's capability set.
func (t *Thread) Capabilities() abi.Capability {
	return t.capabilities
}

// AddRef increments the reference count held on this thread.
func (t *Thread) AddRef() {
	atomic.AddInt32(&t.refCount, 1)
}

// Release drops a reference. Returns the resulting count; the
// registry reclaims the thread once this reaches zero while the
// thread is Dead.
func (t *Thread) Release() int32 {
	return atomic.AddInt32(&t.refCount, -1)
}

// RefCount returns the current reference count.
func (t *Thread) RefCount() int32 {
	return atomic.LoadInt32(&t.refCount)
}
