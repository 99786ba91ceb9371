package pool

import (
	"testing"

	"github.com/dgaur/dx-kernel/abi"
	"github.com/dgaur/dx-kernel/message"
)

func newTicket(id int) *message.Message {
	return message.NewWord(abi.ThreadID(id), abi.ThreadID(id+1), abi.Write, abi.MessageID(id), 0)
}

func TestInsertRemoveIsEmpty(t *testing.T) {
	p := New(1)
	if !p.IsEmpty() {
		t.Fatalf("expected new pool to be empty")
	}
	m := newTicket(1)
	p.Insert(m)
	if p.IsEmpty() {
		t.Fatalf("expected pool to be non-empty after Insert")
	}
	p.Remove(m)
	if !p.IsEmpty() {
		t.Fatalf("expected pool to be empty after Remove")
	}
}

func TestRemoveIsNoopWhenNotPending(t *testing.T) {
	p := New(1)
	m := newTicket(1)
	p.Remove(m) // should not panic
	if !p.IsEmpty() {
		t.Fatalf("expected pool to remain empty")
	}
}

func TestSwapRemoveKeepsBackReferencesConsistent(t *testing.T) {
	p := New(1)
	a, b, c := newTicket(1), newTicket(2), newTicket(3)
	p.Insert(a)
	p.Insert(b)
	p.Insert(c)

	p.Remove(a) // forces swap of c into a's old slot

	if got := b.PoolIndex(); got < 0 {
		t.Fatalf("b.PoolIndex() = %d, want pending", got)
	}
	if got := c.PoolIndex(); got < 0 {
		t.Fatalf("c.PoolIndex() = %d, want pending", got)
	}
	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}

	p.Remove(b)
	p.Remove(c)
	if !p.IsEmpty() {
		t.Fatalf("expected pool empty after removing all tickets")
	}
}

func TestSelectRandomLeavesTicketPending(t *testing.T) {
	p := New(42)
	tickets := make([]*message.Message, 10)
	for i := range tickets {
		tickets[i] = newTicket(i)
		p.Insert(tickets[i])
	}

	for i := 0; i < 100; i++ {
		m := p.SelectRandom()
		if m == nil {
			t.Fatalf("SelectRandom() returned nil while pool non-empty")
		}
		if m.PoolIndex() < 0 {
			t.Fatalf("ticket no longer marked pending after SelectRandom")
		}
	}
	if p.Len() != len(tickets) {
		t.Fatalf("Len() = %d, want %d: a draw must not remove the ticket", p.Len(), len(tickets))
	}

	for _, m := range tickets {
		p.Remove(m)
	}
	if !p.IsEmpty() {
		t.Fatalf("expected pool empty after explicitly removing every ticket")
	}
}

func TestSelectRandomOnEmptyPoolReturnsNil(t *testing.T) {
	p := New(1)
	if got := p.SelectRandom(); got != nil {
		t.Fatalf("SelectRandom() on empty pool = %v, want nil", got)
	}
}

func TestCheckInvariantsPassesOnAConsistentPool(t *testing.T) {
	p := New(1)
	a, b, c := newTicket(1), newTicket(2), newTicket(3)
	p.Insert(a)
	p.Insert(b)
	p.Insert(c)
	p.Remove(a) // exercises the swap-remove path before checking

	if err := p.CheckInvariants(); err != nil {
		t.Fatalf("CheckInvariants() = %v, want nil", err)
	}
}

func TestCheckInvariantsCatchesAStalePoolIndex(t *testing.T) {
	p := New(1)
	m := newTicket(1)
	p.Insert(m)
	m.SetPoolIndex(5) // corrupt the back-reference directly

	if err := p.CheckInvariants(); err == nil {
		t.Fatalf("CheckInvariants() = nil, want error for stale pool_index")
	}
}

func TestSelectRandomDistributionIsRoughlyUniform(t *testing.T) {
	p := New(7)
	const n = 8
	tickets := make([]*message.Message, n)
	for i := range tickets {
		tickets[i] = newTicket(i)
		p.Insert(tickets[i])
	}

	counts := make(map[*message.Message]int)
	const trials = 20000
	for trial := 0; trial < trials; trial++ {
		counts[p.SelectRandom()]++
	}

	expected := float64(trials) / float64(n)
	for m, c := range counts {
		ratio := float64(c) / expected
		if ratio < 0.9 || ratio > 1.1 {
			t.Fatalf("ticket %v drawn %d times, want near %f (ratio %f)", m, c, expected, ratio)
		}
	}
}
