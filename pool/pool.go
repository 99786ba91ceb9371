// Package pool implements the global pending-message pool of spec.md
// §4.3: every message currently available as a lottery ticket lives
// here, addressable in O(1) for insert, remove, and random selection.
// Grounded on the source's arena-and-index-array pattern (spec.md §9):
// a dense slice holds the tickets, and each Message's pool_index field
// (message.Message.PoolIndex/SetPoolIndex) is the back-reference that
// makes swap-remove possible without a linear scan.
package pool

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/dgaur/dx-kernel/message"
)

// Pool is the single global pending-message pool. The IPC-scheduler
// holds exactly one, behind its own lock; Pool's own mutex exists so
// the pool can also be inspected safely from the debug console without
// taking the scheduler's lock.
type Pool struct {
	mu      sync.Mutex
	tickets []*message.Message
	rng     *rand.Rand
}

// New creates an empty pool. seed is exposed (rather than always using
// a process-global source) so lottery-fairness tests can run
// deterministically.
func New(seed int64) *Pool {
	return &Pool{rng: rand.New(rand.NewSource(seed))}
}

// Insert adds m to the pool as a new lottery ticket. Panics if m is
// already pending, since that indicates a scheduler bug rather than a
// recoverable runtime condition.
func (p *Pool) Insert(m *message.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m.PoolIndex() >= 0 {
		panic("pool: message already pending")
	}
	m.SetPoolIndex(int32(len(p.tickets)))
	p.tickets = append(p.tickets, m)
}

// Remove takes m out of the pool, swapping the last ticket into its
// slot so the operation stays O(1). A no-op if m is not pending.
func (p *Pool) Remove(m *message.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(m)
}

func (p *Pool) removeLocked(m *message.Message) {
	idx := m.PoolIndex()
	if idx < 0 {
		return
	}
	last := len(p.tickets) - 1
	if int(idx) != last {
		moved := p.tickets[last]
		p.tickets[idx] = moved
		moved.SetPoolIndex(idx)
	}
	p.tickets[last] = nil
	p.tickets = p.tickets[:last]
	m.ClearPoolIndex()
}

// IsEmpty reports whether the pool currently holds no tickets.
func (p *Pool) IsEmpty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tickets) == 0
}

// Len reports the number of tickets currently pending, for
// abi.KernelStats.PendingCount.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tickets)
}

// SelectRandom names a tentative lottery winner by drawing one ticket
// uniformly at random. It does not remove the ticket: spec.md §3's
// message lifecycle and §4.4's pick_next both draw without consuming,
// so a message with outstanding mail keeps weighting the lottery on
// every tick until receive() (or the cleanup drain path) actually
// takes it out of the pool via Remove. Returns nil if the pool is
// empty.
func (p *Pool) SelectRandom() *message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tickets) == 0 {
		return nil
	}
	i := p.rng.Intn(len(p.tickets))
	return p.tickets[i]
}

// CheckInvariants verifies the pool's internal arena-and-index-array
// bookkeeping: every ticket's pool_index back-reference must name the
// slot that actually holds it, so Remove's swap-remove never corrupts
// a live ticket's index. Returns the first violation found, or nil.
// Intended for the debug-build consistency checker, not production use.
func (p *Pool) CheckInvariants() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, m := range p.tickets {
		if m == nil {
			return fmt.Errorf("pool: nil ticket at slot %d", i)
		}
		if int(m.PoolIndex()) != i {
			return fmt.Errorf("pool: ticket at slot %d reports pool_index %d", i, m.PoolIndex())
		}
	}
	return nil
}
