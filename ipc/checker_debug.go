//go:build dxdebug

// Package ipc's debug build tag mirrors the source's debug-only
// message_tests.cpp internal consistency checker: a handful of
// invariant assertions expensive enough that production kernels skip
// them, but cheap enough to run in every test build.
package ipc

import (
	"fmt"

	"github.com/dgaur/dx-kernel/abi"
	"github.com/dgaur/dx-kernel/thread"
)

// CheckInvariants walks the scheduler's registry, mailboxes, and
// pending pool, panicking on the first invariant violation it finds,
// including spec.md §8's |pending_pool| == Σ|thread.mailbox| and the
// pool's own pool_index back-reference consistency. Intended to be
// called between steps of a scenario test, never from production code.
func (s *Scheduler) CheckInvariants() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.registry.All() {
		if t.State() == thread.BlockedOnThread {
			waiting, ok := t.WaitingOn()
			if !ok {
				panic(fmt.Sprintf("thread %v is BlockedOnThread with no WaitingOn target", t.ID))
			}
			if waiting == t.ID {
				panic(fmt.Sprintf("thread %v is blocked on itself", t.ID))
			}
		}
		if t.RefCount() < 0 {
			panic(fmt.Sprintf("thread %v has negative reference count %d", t.ID, t.RefCount()))
		}
	}

	mailboxTotal := 0
	for id, mb := range s.mailboxes {
		if mb.Len() < 0 {
			panic(fmt.Sprintf("mailbox %v has negative length", id))
		}
		mailboxTotal += mb.Len()
	}
	if poolLen := s.pool.Len(); poolLen != mailboxTotal {
		panic(fmt.Sprintf("pending pool holds %d tickets, want %d (sum of mailbox lengths)", poolLen, mailboxTotal))
	}
	if err := s.pool.CheckInvariants(); err != nil {
		panic(fmt.Sprintf("pending pool: %v", err))
	}

	if s.handoffTarget != abi.Invalid {
		if _, ok := s.registry.Lookup(s.handoffTarget); !ok {
			panic(fmt.Sprintf("pending hand-off target %v is not registered", s.handoffTarget))
		}
	}
}
