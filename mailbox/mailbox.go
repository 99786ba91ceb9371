// Package mailbox implements the per-thread mailbox of spec.md §4.2:
// a bounded FIFO of pending messages, plus the bookkeeping the IPC
// scheduler needs to find which thread is blocked waiting on a
// send_and_receive reply, and to support the cleanup protocol's
// mailbox-draining step.
package mailbox

import (
	"sync"

	"github.com/dgaur/dx-kernel/abi"
	"github.com/dgaur/dx-kernel/kernelerr"
	"github.com/dgaur/dx-kernel/message"
)

// Mailbox is one thread's message queue. Capacity is fixed at
// construction time, matching spec.md §4.2's bounded-FIFO requirement;
// there is no dynamic growth.
type Mailbox struct {
	mu       sync.Mutex
	owner    abi.ThreadID
	capacity int
	queue    []*message.Message
	disabled bool

	// blockingSenders tracks threads with an outstanding blocking send
	// to owner, so find_blocking_thread (spec.md §4.2) can answer
	// "who is waiting on this mailbox" without scanning every thread.
	blockingSenders map[abi.ThreadID]*message.Message
}

// New creates an empty mailbox for owner with the given bounded
// capacity.
func New(owner abi.ThreadID, capacity int) *Mailbox {
	return &Mailbox{
		owner:           owner,
		capacity:        capacity,
		blockingSenders: make(map[abi.ThreadID]*message.Message),
	}
}

// Len reports the number of messages currently queued.
func (mb *Mailbox) Len() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.queue)
}

// Put enqueues m for delivery to this mailbox's owner.
//
// NULL_THREAD is a supplement over the base spec (SPEC_FULL.md §4.2):
// any send to abi.NullThread quietly succeeds without enqueuing
// anything, matching the source's discard-target semantics for
// fire-and-forget diagnostic sends.
//
// Returns MailboxDisabled if the mailbox has been disabled ahead of
// thread deletion, MailboxOverflow if the mailbox is already at
// capacity, and MessageDeadlock if m is a blocking send from a thread
// that owner is already blocked sending to (the direct A-sends-to-B,
// B-sends-to-A cycle spec.md §4.4 calls out).
func (mb *Mailbox) Put(m *message.Message, senderWaitingOn func(abi.ThreadID) (abi.ThreadID, bool)) error {
	if m.Destination == abi.NullThread {
		return nil
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()

	if mb.disabled {
		return kernelerr.New(abi.MailboxDisabled, "mailbox disabled for deletion")
	}
	if len(mb.queue) >= mb.capacity {
		return kernelerr.New(abi.MailboxOverflow, "mailbox at capacity")
	}
	if m.IsBlocking() {
		if waiting, ok := senderWaitingOn(mb.owner); ok && waiting == m.Source {
			return kernelerr.New(abi.MessageDeadlock, "direct send cycle detected")
		}
		mb.blockingSenders[m.Source] = m
	}

	mb.queue = append(mb.queue, m)
	return nil
}

// Get dequeues and returns the oldest pending message, or nil if the
// mailbox is empty.
func (mb *Mailbox) Get() *message.Message {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if len(mb.queue) == 0 {
		return nil
	}
	m := mb.queue[0]
	mb.queue = mb.queue[1:]
	if m.IsBlocking() {
		delete(mb.blockingSenders, m.Source)
	}
	return m
}

// FindBlockingThread returns the outstanding blocking message, if any,
// that sender has queued in this mailbox. The scheduler's direct
// hand-off path does not call it; it uses its own handoffTarget.
func (mb *Mailbox) FindBlockingThread(sender abi.ThreadID) (*message.Message, bool) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	m, ok := mb.blockingSenders[sender]
	return m, ok
}

// Disable marks the mailbox unavailable for further Put calls, the
// first step of the cleanup protocol (spec.md §7).
func (mb *Mailbox) Disable() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.disabled = true
}

// Enabled reports whether the mailbox currently accepts new messages.
func (mb *Mailbox) Enabled() bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return !mb.disabled
}

// Drain empties the mailbox and returns everything that was pending,
// for the cleanup protocol's drain_messages step. The mailbox must
// already be disabled; Drain does not disable it itself so callers
// control ordering explicitly.
func (mb *Mailbox) Drain() []*message.Message {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	drained := mb.queue
	mb.queue = nil
	mb.blockingSenders = make(map[abi.ThreadID]*message.Message)
	return drained
}
