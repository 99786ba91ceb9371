package thread

import (
	"sync"

	"github.com/dgaur/dx-kernel/abi"
)

// Registry is the process-wide table of live threads, keyed by
// identity. spec.md §9 calls for replacing the source's four global
// singletons (__io_manager, __cleanup_thread, __null_thread,
// __idle_thread) with a single explicitly-initialized context;
// Registry is the thread-identity slice of that context.
type Registry struct {
	mu      sync.RWMutex
	threads map[abi.ThreadID]*Thread
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{threads: make(map[abi.ThreadID]*Thread)}
}

// Register adds a thread to the registry. Returns false if the
// identity is already registered.
func (r *Registry) Register(t *Thread) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.threads[t.ID]; exists {
		return false
	}
	r.threads[t.ID] = t
	return true
}

// Lookup returns the thread with the given identity, if any.
func (r *Registry) Lookup(id abi.ThreadID) (*Thread, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.threads[id]
	return t, ok
}

// Remove deletes a thread's entry once it is Dead and its reference
// count has reached zero. Returns false if the thread is still
// referenced or still alive.
func (r *Registry) Remove(id abi.ThreadID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threads[id]
	if !ok {
		return false
	}
	if t.State() != Dead || t.RefCount() > 0 {
		return false
	}
	delete(r.threads, id)
	return true
}

// Count returns the number of live registry entries, for
// abi.KernelStats.ThreadCount.
func (r *Registry) Count() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint64(len(r.threads))
}

// All returns a snapshot of every registered thread, for the debug
// console's thread listing.
func (r *Registry) All() []*Thread {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Thread, 0, len(r.threads))
	for _, t := range r.threads {
		out = append(out, t)
	}
	return out
}
