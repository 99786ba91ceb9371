package ipc

import (
	"math"
	"testing"

	"github.com/dgaur/dx-kernel/abi"
	"github.com/dgaur/dx-kernel/hal"
	"github.com/dgaur/dx-kernel/kernelerr"
	"github.com/dgaur/dx-kernel/message"
	"github.com/dgaur/dx-kernel/thread"
)

// A blocking send whose source and destination are the same thread can
// never resolve: nothing else will ever run to produce the reply. It
// must be rejected up front, and the caller must be left exactly as it
// was, not parked waiting for itself.
func TestSelfDeadlockSendAndReceiveRejected(t *testing.T) {
	sched, reg, _ := newTestScheduler(t)
	self := registerThread(sched, reg, 10)

	m := message.NewWord(self.ID, self.ID, abi.Write, abi.MessageID(1), 0)
	err := sched.SendAndReceive(self.ID, m, 0, 0, 0)
	if !kernelerr.Is(err, abi.MessageDeadlock) {
		t.Fatalf("SendAndReceive() err = %v, want MessageDeadlock", err)
	}
	if self.State() != thread.Ready {
		t.Fatalf("self state = %v, want Ready (never blocked)", self.State())
	}
	if waiting, ok := self.WaitingOn(); ok {
		t.Fatalf("self unexpectedly waiting on %v", waiting)
	}
	if got := sched.Stats().IncompleteCount; got != 0 {
		t.Fatalf("IncompleteCount = %d, want 0", got)
	}
}

// With no traffic at all, asking pick_next for work 1000 times in a
// row must always land on idle and never touch the lottery pool.
func TestIdleFor1000TicksWithNoTrafficNeverDrawsLottery(t *testing.T) {
	sched, _, _ := newTestScheduler(t)

	for i := 0; i < 1000; i++ {
		if got := sched.PickNext(); got != sched.idleID {
			t.Fatalf("tick %d: PickNext() = %v, want idle %v", i, got, sched.idleID)
		}
	}

	stats := sched.Stats()
	if stats.IdleCount != 1000 {
		t.Fatalf("IdleCount = %d, want 1000", stats.IdleCount)
	}
	if stats.LotteryCount != 0 {
		t.Fatalf("LotteryCount = %d, want 0", stats.LotteryCount)
	}
}

// Two threads each hold exactly one ticket at a time; over many draws
// the lottery must not systematically favor one over the other.
func TestLotteryFairnessWithinFiveSigmaOver10000Draws(t *testing.T) {
	sched, reg, _ := newTestScheduler(t)
	source := registerThread(sched, reg, 9)
	a := registerThread(sched, reg, 10)
	b := registerThread(sched, reg, 11)

	const trials = 10000
	wins := map[abi.ThreadID]int{}

	for i := 0; i < trials; i++ {
		id := abi.MessageID(i + 1)
		ma := message.NewWord(source.ID, a.ID, abi.Write, id, 0)
		mb := message.NewWord(source.ID, b.ID, abi.Write, id, 0)
		if err := sched.Send(ma, 0, 0, 0); err != nil {
			t.Fatalf("Send(a): %v", err)
		}
		if err := sched.Send(mb, 0, 0, 0); err != nil {
			t.Fatalf("Send(b): %v", err)
		}

		winner := sched.PickNext()
		wins[winner]++

		// pick_next only names a tentative winner; it does not remove
		// the ticket. Only receive() actually takes a message (and its
		// ticket) out, so both mailboxes are drained here regardless of
		// which thread the lottery favored this round.
		if _, err := sched.Receive(a.ID); err != nil {
			t.Fatalf("Receive(a): %v", err)
		}
		if _, err := sched.Receive(b.ID); err != nil {
			t.Fatalf("Receive(b): %v", err)
		}
	}

	expected := float64(trials) / 2
	sigma := math.Sqrt(trials * 0.5 * 0.5)
	for _, id := range []abi.ThreadID{a.ID, b.ID} {
		diff := math.Abs(float64(wins[id]) - expected)
		if diff > 5*sigma {
			t.Fatalf("thread %v won %d/%d, more than 5 sigma (%.1f) from expected %.1f", id, wins[id], trials, 5*sigma, expected)
		}
	}
}

// pick_next's lottery draw only names a tentative winner (spec.md §3
// lifecycle step 4 / §4.4 step 2): a message that is drawn but not yet
// received keeps its ticket, so |pending_pool| == Σ|thread.mailbox|
// holds across a draw, and a thread with several outstanding messages
// keeps weighting every subsequent draw rather than just the first.
func TestPickNextDoesNotRemoveTheDrawnTicket(t *testing.T) {
	sched, reg, _ := newTestScheduler(t)
	a := registerThread(sched, reg, 10)
	b := registerThread(sched, reg, 11)

	m := message.NewWord(a.ID, b.ID, abi.Write, abi.MessageID(1), 0)
	if err := sched.Send(m, 0, 0, 0); err != nil {
		t.Fatalf("Send: %v", err)
	}

	for i := 0; i < 5; i++ {
		next := sched.PickNext()
		if next != b.ID {
			t.Fatalf("PickNext() #%d = %v, want %v (sole ticket holder)", i, next, b.ID)
		}
		if got := sched.Pool().Len(); got != 1 {
			t.Fatalf("Pool().Len() after draw #%d = %d, want 1 (draw must not remove)", i, got)
		}
	}

	if _, err := sched.Receive(b.ID); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if got := sched.Pool().Len(); got != 0 {
		t.Fatalf("Pool().Len() after Receive = %d, want 0", got)
	}
}

// Once a mailbox is full, further sends to it must fail with overflow
// rather than silently blocking the sender or growing the queue, and
// the failure must be visible as a counted error rather than a panic.
func TestMailboxOverflowReportsErrorWithoutMutatingMailbox(t *testing.T) {
	sched, reg, _ := newTestScheduler(t)
	sched.RegisterMailbox(sched.cleanupID)
	source := registerThread(sched, reg, 9)
	victim := registerThread(sched, reg, 10)

	mb, ok := sched.Mailbox(victim.ID)
	if !ok {
		t.Fatalf("victim has no registered mailbox")
	}
	capacity := sched.cfg.MailboxCapacity

	for i := 0; i < capacity; i++ {
		m := message.NewWord(source.ID, victim.ID, abi.Write, abi.MessageID(i+1), 0)
		if err := sched.Send(m, 0, 0, 0); err != nil {
			t.Fatalf("Send() #%d: %v", i, err)
		}
	}
	if got := mb.Len(); got != capacity {
		t.Fatalf("mailbox len = %d, want %d (full)", got, capacity)
	}

	overflow := message.NewWord(source.ID, victim.ID, abi.Write, abi.MessageID(999), 0)
	err := sched.Send(overflow, 0, 0, 0)
	if !kernelerr.Is(err, abi.MailboxOverflow) {
		t.Fatalf("Send() err = %v, want MailboxOverflow", err)
	}
	if got := mb.Len(); got != capacity {
		t.Fatalf("mailbox len after overflow = %d, want unchanged %d", got, capacity)
	}
	if got := sched.Stats().SendErrorCount; got != 1 {
		t.Fatalf("SendErrorCount = %d, want 1", got)
	}

	req, err := sched.Receive(sched.cleanupID)
	if err != nil {
		t.Fatalf("Receive(cleanup): %v", err)
	}
	if req == nil {
		t.Fatalf("expected a DELETE_THREAD request queued for the cleanup thread")
	}
	if req.Type != abi.DeleteThread {
		t.Fatalf("req.Type = %v, want abi.DeleteThread", req.Type)
	}
	if req.Destination != sched.cleanupID {
		t.Fatalf("req.Destination = %v, want cleanup thread %v", req.Destination, sched.cleanupID)
	}
	payload, _ := req.ReadPayload()
	if abi.ThreadID(payload) != victim.ID {
		t.Fatalf("req payload = %v, want victim id %v", payload, victim.ID)
	}
}

// A shared payload handed from sender to receiver must name the same
// underlying bytes on both ends: a write the receiver makes after
// delivery must be visible to the sender reading through its own
// pointer.
func TestSharedPayloadWriteByReceiverVisibleToSenderThroughScheduler(t *testing.T) {
	sched, reg, sim := newTestScheduler(t)
	sender := registerThread(sched, reg, 10)
	receiver := registerThread(sched, reg, 11)

	frames := hal.FrameRange{StartFrame: 0x30, FrameCount: 2}
	const destAddr = 0x2000 // the address the two threads have agreed names the shared pages

	m := message.NewShared(sender.ID, receiver.ID, abi.Write, abi.MessageID(1), frames, destAddr)
	if err := sched.Send(m, 0, 0, 0); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got, err := sched.Receive(receiver.ID)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if got == nil {
		t.Fatalf("Receive() = nil, want shared message")
	}
	recvPtr, _ := got.ReadPayload()
	if recvPtr != destAddr {
		t.Fatalf("recvPtr = %x, want requested destAddr %x", recvPtr, uintptr(destAddr))
	}

	payload := []byte{0xAB}
	sim.Poke(recvPtr, payload)

	seen, ok := sim.Peek(destAddr)
	if !ok || len(seen) == 0 || seen[0] != 0xAB {
		t.Fatalf("sender-side read at shared address = %v, ok=%v, want [0xAB]", seen, ok)
	}
}
