// Package ipc is the IPC-and-scheduling core itself: the single
// object spec.md §5 calls the "I/O Manager", combining message
// delivery (send/receive/send_and_receive) with thread scheduling
// (pick_next/yield/timer tick) because the two are the same decision —
// a thread becomes runnable exactly when it has mail. All of the
// scheduler's state transitions happen under one lock, matching
// spec.md §5's single-CPU, interrupts-off critical section; the only
// thing ever done after releasing that lock is the actual hardware
// context switch.
package ipc

import (
	"sync"
	"sync/atomic"

	"github.com/dgaur/dx-kernel/abi"
	"github.com/dgaur/dx-kernel/config"
	"github.com/dgaur/dx-kernel/hal"
	"github.com/dgaur/dx-kernel/kernelerr"
	"github.com/dgaur/dx-kernel/mailbox"
	"github.com/dgaur/dx-kernel/message"
	"github.com/dgaur/dx-kernel/pool"
	"github.com/dgaur/dx-kernel/thread"
)

// Scheduler is the IPC-and-scheduling core. One instance exists per
// kernel; spec.md §9 replaces the source's four global singletons
// (__io_manager, __cleanup_thread, __null_thread, __idle_thread) with
// explicit fields here, set once by New.
type Scheduler struct {
	cfg config.Config

	registry  *thread.Registry
	pool      *pool.Pool
	switcher  hal.ContextSwitcher
	addrSpace hal.AddressSpace
	current   hal.CurrentThreadAccessor

	// mu is the scheduler's single lock. Send, Receive and PickNext
	// hold it across every mailbox-and-pool transition; it is always
	// released before SwitchTo is called.
	mu sync.Mutex

	mailboxes map[abi.ThreadID]*mailbox.Mailbox

	idleID    abi.ThreadID
	cleanupID abi.ThreadID

	// handoffTarget names a thread pick_next must choose next
	// regardless of the lottery, set by send_and_receive's direct
	// hand-off path (spec.md §5).
	handoffTarget abi.ThreadID

	messageCount       uint64
	incompleteCount    uint64
	sendErrorCount     uint64
	receiveErrorCount  uint64
	lotteryCount       uint64
	idleCount          uint64
	directHandoffCount uint64
}

// New creates a scheduler. idleID and cleanupID must already be
// registered in registry before any Send/PickNext call; spec.md §9
// requires the idle and null threads exist before any lottery runs,
// and the cleanup thread exist before any deletion is requested.
func New(cfg config.Config, registry *thread.Registry, addrSpace hal.AddressSpace, switcher hal.ContextSwitcher, current hal.CurrentThreadAccessor, idleID, cleanupID abi.ThreadID) *Scheduler {
	return &Scheduler{
		cfg:           cfg,
		registry:      registry,
		pool:          pool.New(int64(cfg.SchedulingQuantumDefault)*7919 + 1),
		switcher:      switcher,
		addrSpace:     addrSpace,
		current:       current,
		mailboxes:     make(map[abi.ThreadID]*mailbox.Mailbox),
		idleID:        idleID,
		cleanupID:     cleanupID,
		handoffTarget: abi.Invalid,
	}
}

// RegisterMailbox attaches a mailbox for id, capacity taken from
// cfg.MailboxCapacity. Must be called once per thread before that
// thread can be a send destination.
func (s *Scheduler) RegisterMailbox(id abi.ThreadID) *mailbox.Mailbox {
	s.mu.Lock()
	defer s.mu.Unlock()
	mb := mailbox.New(id, s.cfg.MailboxCapacity)
	s.mailboxes[id] = mb
	return mb
}

// Mailbox returns the mailbox registered for id, if any.
func (s *Scheduler) Mailbox(id abi.ThreadID) (*mailbox.Mailbox, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mb, ok := s.mailboxes[id]
	return mb, ok
}

// waitingOn adapts the registry's thread lookup to the function shape
// mailbox.Put needs for its deadlock check.
func (s *Scheduler) waitingOn(id abi.ThreadID) (abi.ThreadID, bool) {
	t, ok := s.registry.Lookup(id)
	if !ok {
		return abi.Invalid, false
	}
	return t.WaitingOn()
}

// Send implements spec.md §5's send(): collect the payload in sender
// context, enqueue into the destination mailbox, and add a lottery
// ticket to the global pool for every message the mailbox accepted.
// A send to abi.NullThread is discarded and gets no ticket.
func (s *Scheduler) Send(m *message.Message, srcPtr uintptr, srcSize uint32, shareCaps hal.ShareCapability) error {
	if err := m.CollectPayload(s.addrSpace, srcPtr, srcSize, s.cfg.InlineMax, shareCaps); err != nil {
		s.bumpSendError()
		return err
	}

	s.mu.Lock()
	mb, ok := s.mailboxes[m.Destination]
	if !ok {
		s.mu.Unlock()
		s.bumpSendError()
		return kernelerr.New(abi.InvalidData, "unknown destination thread")
	}
	if err := mb.Put(m, s.waitingOn); err != nil {
		destination := m.Destination
		s.mu.Unlock()
		s.bumpSendError()
		if kernelerr.Is(err, abi.MailboxOverflow) {
			s.scheduleOverflowCleanup(destination)
		}
		return err
	}
	if m.Destination != abi.NullThread {
		s.pool.Insert(m)
	}
	atomic.AddUint64(&s.messageCount, 1)
	s.mu.Unlock()
	return nil
}

// scheduleOverflowCleanup implements spec.md §7's self-healing policy
// for an unresponsive peer: a mailbox that has overflowed gets its
// owner scheduled for deletion, by dropping a DELETE_THREAD message
// addressed to the cleanup thread, payload the overflowing mailbox's
// owner id. Best-effort: if the cleanup mailbox itself cannot accept
// the request, there is nothing further to do here short of a panic,
// and a single missed cleanup request is not fatal.
func (s *Scheduler) scheduleOverflowCleanup(victim abi.ThreadID) {
	if victim == s.cleanupID || victim == s.idleID {
		return
	}

	del := message.NewWord(victim, s.cleanupID, abi.DeleteThread, abi.Atomic, uintptr(victim))

	s.mu.Lock()
	defer s.mu.Unlock()
	mb, ok := s.mailboxes[s.cleanupID]
	if !ok {
		return
	}
	if err := mb.Put(del, s.waitingOn); err != nil {
		return
	}
	s.pool.Insert(del)
	atomic.AddUint64(&s.messageCount, 1)
}

// Receive implements spec.md §5's receive(): pull the oldest message
// from self's own mailbox and deliver its payload into self's address
// space. Returns (nil, nil) if the mailbox is empty — the caller
// decides whether to block and yield or poll again.
func (s *Scheduler) Receive(self abi.ThreadID) (*message.Message, error) {
	s.mu.Lock()
	mb, ok := s.mailboxes[self]
	if !ok {
		s.mu.Unlock()
		return nil, kernelerr.New(abi.InvalidData, "unknown receiving thread")
	}

	m := mb.Get()
	if m != nil {
		// The message is being delivered right now, whether or not a
		// lottery ever drew it as a ticket; drop any stale pool entry so
		// pick_next never resolves a ticket to an already-consumed message.
		s.pool.Remove(m)
	}
	s.mu.Unlock()
	if m == nil {
		return nil, nil
	}
	if err := m.DeliverPayload(s.addrSpace); err != nil {
		atomic.AddUint64(&s.receiveErrorCount, 1)
		return nil, err
	}
	return m, nil
}

// SendAndReceive implements spec.md §5's send_and_receive(): send a
// blocking request, mark the caller blocked on the reply, and arrange
// for pick_next to hand the CPU directly to the recipient rather than
// re-entering the lottery — priority inheritance for the common
// synchronous-transaction case.
func (s *Scheduler) SendAndReceive(self abi.ThreadID, m *message.Message, srcPtr uintptr, srcSize uint32, shareCaps hal.ShareCapability) error {
	if self == m.Destination {
		s.bumpSendError()
		return kernelerr.New(abi.MessageDeadlock, "blocking send to self")
	}

	m.Control |= abi.Blocking

	if err := s.Send(m, srcPtr, srcSize, shareCaps); err != nil {
		return err
	}

	caller, ok := s.registry.Lookup(self)
	if !ok {
		return kernelerr.New(abi.InvalidData, "unknown calling thread")
	}
	caller.SetBlockedOn(m.Destination)

	s.mu.Lock()
	s.handoffTarget = m.Destination
	s.mu.Unlock()
	return nil
}

// RecordAbort increments the incomplete-transaction counter. Spec.md
// §4.4 counts a synchronous transaction as "incomplete" only once it
// is known it will never get its ordinary reply — i.e. on the abort
// path, not at send time — so this is called from wherever an ABORT
// reply is synthesized (cleanup.Agent.abortBlockedSender), never from
// SendAndReceive itself.
func (s *Scheduler) RecordAbort() {
	atomic.AddUint64(&s.incompleteCount, 1)
}

func (s *Scheduler) bumpSendError() {
	atomic.AddUint64(&s.sendErrorCount, 1)
}

// PickNext implements spec.md §5's pick_next(): direct hand-off first,
// then the lottery over the pending pool (chasing a chain of blocked
// destinations to find the actual runnable thread they unblock), then
// idle. Whichever branch wins, the chosen thread's tick count is reset
// to cfg.SchedulingQuantumDefault.
func (s *Scheduler) PickNext() (next abi.ThreadID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if t, ok := s.registry.Lookup(next); ok {
			t.SetTickCount(s.cfg.SchedulingQuantumDefault)
		}
	}()

	if s.handoffTarget != abi.Invalid {
		target := s.handoffTarget
		s.handoffTarget = abi.Invalid
		if t, ok := s.registry.Lookup(target); ok && t.State() != thread.Dead {
			atomic.AddUint64(&s.directHandoffCount, 1)
			return target
		}
	}

	if m := s.pool.SelectRandom(); m != nil {
		atomic.AddUint64(&s.lotteryCount, 1)
		if runnable, ok := s.resolveRunnable(m.Destination); ok {
			return runnable
		}
		// The winning ticket's destination resolved to a dead end (a
		// transitive block on a thread that no longer exists, or a
		// cycle); io_manager.cpp's select_next_thread asserts this
		// cannot happen rather than retrying the draw, since a
		// well-formed pool never holds a ticket for a thread cleanup
		// hasn't already reclaimed. Fall through to idle for this tick
		// instead of asserting.
	}

	atomic.AddUint64(&s.idleCount, 1)
	return s.idleID
}

// resolveRunnable follows a chain of BlockedOnThread threads starting
// at id until it finds one that is actually Ready to run, implementing
// the "chained hand-off" spec.md §5 describes for transitive
// send_and_receive chains (A blocks on B, B blocks on C: waking C
// should ultimately favor running C, not re-queuing A).
func (s *Scheduler) resolveRunnable(id abi.ThreadID) (abi.ThreadID, bool) {
	seen := map[abi.ThreadID]bool{}
	for {
		if seen[id] {
			return abi.Invalid, false
		}
		seen[id] = true

		t, ok := s.registry.Lookup(id)
		if !ok || t.State() == thread.Dead {
			return abi.Invalid, false
		}
		if t.State() != thread.BlockedOnThread {
			return id, true
		}
		waiting, ok := t.WaitingOn()
		if !ok {
			return id, true
		}
		id = waiting
	}
}

// Yield implements spec.md §5's yield(): ask pick_next for the next
// thread and, if it differs from the caller, perform the context
// switch. The switch always happens after s.mu is released.
func (s *Scheduler) Yield(self abi.ThreadID) {
	next := s.PickNext()
	if next != self {
		s.switcher.SwitchTo(next)
	}
}

// TimerTick implements spec.md §5's timer-tick handler: decrement the
// running thread's quantum and yield once it's exhausted.
func (s *Scheduler) TimerTick() {
	self := s.current.Current()
	t, ok := s.registry.Lookup(self)
	if !ok {
		return
	}
	if t.DecrementTick() <= 0 {
		t.SetTickCount(s.cfg.SchedulingQuantumDefault)
		s.Yield(self)
	}
}

// Stats populates the scheduler-owned fields of a KernelStats record;
// the address-space/memory fields remain the caller's responsibility.
func (s *Scheduler) Stats() abi.KernelStats {
	return abi.KernelStats{
		MessageCount:       atomic.LoadUint64(&s.messageCount),
		PendingCount:       uint64(s.pool.Len()),
		IncompleteCount:    atomic.LoadUint64(&s.incompleteCount),
		SendErrorCount:     atomic.LoadUint64(&s.sendErrorCount),
		ReceiveErrorCount:  atomic.LoadUint64(&s.receiveErrorCount),
		LotteryCount:       atomic.LoadUint64(&s.lotteryCount),
		IdleCount:          atomic.LoadUint64(&s.idleCount),
		DirectHandoffCount: atomic.LoadUint64(&s.directHandoffCount),
		ThreadCount:        s.registry.Count(),
	}
}

// Pool exposes the pending pool for the cleanup protocol's
// drain_messages step, which must remove a victim's outstanding
// tickets from the lottery.
func (s *Scheduler) Pool() *pool.Pool {
	return s.pool
}
