// Package cleanup implements the thread-deletion protocol of spec.md
// §7. Agent.DeleteThread runs the whole protocol synchronously on the
// caller's goroutine: it authorizes the request, disables the
// victim's mailbox, drains whatever was still pending for it (failing
// any blocked senders with an ABORT reply), and only then lets the
// registry reclaim the victim's storage.
package cleanup

import (
	"github.com/dgaur/dx-kernel/abi"
	"github.com/dgaur/dx-kernel/ipc"
	"github.com/dgaur/dx-kernel/kernelerr"
	"github.com/dgaur/dx-kernel/message"
	"github.com/dgaur/dx-kernel/thread"
)

// Agent is the cleanup thread's logic, built by dxkernel.Kernel's
// cleanup module and called directly; no goroutine reads the cleanup
// thread's mailbox on its behalf. It is deliberately
// not itself a thread.Thread subtype: the protocol only needs a
// registry, a scheduler, and the capability to check, matching
// spec.md §9's preference for composition over a deeper type
// hierarchy.
type Agent struct {
	id       abi.ThreadID
	registry *thread.Registry
	sched    *ipc.Scheduler
}

// New creates a cleanup agent bound to id, the identity already
// registered as the kernel's cleanup thread (abi.Cleanup, by
// convention, though any reserved or allocated identity works).
func New(id abi.ThreadID, registry *thread.Registry, sched *ipc.Scheduler) *Agent {
	return &Agent{id: id, registry: registry, sched: sched}
}

// DeleteThread runs the full protocol for victim on behalf of
// requester. requester must hold abi.CapDeleteThread; spec.md §7 draws
// no distinction between self-deletion and deleting another thread
// beyond this one capability check.
func (a *Agent) DeleteThread(requester, victim abi.ThreadID) error {
	req, ok := a.registry.Lookup(requester)
	if !ok {
		return kernelerr.New(abi.InvalidData, "unknown requesting thread")
	}
	if !req.Capabilities().Has(abi.CapDeleteThread) {
		return kernelerr.New(abi.AccessDenied, "requester lacks CapDeleteThread")
	}

	victimThread, ok := a.registry.Lookup(victim)
	if !ok {
		return kernelerr.New(abi.InvalidData, "unknown victim thread")
	}
	if victim.IsReserved() {
		return kernelerr.New(abi.AccessDenied, "reserved threads cannot be deleted")
	}

	victimThread.SetState(thread.MarkedForDeletion)

	mb, ok := a.sched.Mailbox(victim)
	if !ok {
		return kernelerr.New(abi.InvalidData, "victim has no mailbox")
	}
	mb.Disable()

	a.drainMessages(victim, mb)

	victimThread.SetState(thread.Dead)
	if victimThread.RefCount() == 0 {
		a.registry.Remove(victim)
	}
	return nil
}

// drainMessages empties the victim's mailbox, removes every drained
// message's pool ticket, and injects a Status-bearing ABORT reply to
// every thread that was blocked waiting on a reply from victim — so a
// deleted thread's pen pals are never left hung forever (spec.md §7).
func (a *Agent) drainMessages(victim abi.ThreadID, mb mailboxDraining) {
	drained := mb.Drain()
	pool := a.sched.Pool()

	for _, m := range drained {
		pool.Remove(m)
		if !m.IsBlocking() {
			continue
		}
		a.abortBlockedSender(m)
	}
}

// abortBlockedSender wakes a sender whose blocking request was still
// sitting, undelivered, in the deleted victim's mailbox: it synthesizes
// an ABORT reply and sends it back, mirroring how a live recipient
// would eventually have replied.
func (a *Agent) abortBlockedSender(original *message.Message) {
	status := abi.ThreadExited
	reply := message.NewWord(a.id, original.Source, abi.Abort, original.ID, uintptr(status))
	_ = a.sched.Send(reply, 0, 0, 0)
	if senderThread, ok := a.registry.Lookup(original.Source); ok {
		senderThread.SetState(thread.Ready)
	}
	a.sched.RecordAbort()
}

// mailboxDraining is the minimal surface drainMessages needs from a
// mailbox, kept as an interface purely so this file's tests can supply
// a fake without constructing a full mailbox.Mailbox.
type mailboxDraining interface {
	Drain() []*message.Message
}
