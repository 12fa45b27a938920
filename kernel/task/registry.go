package task

import "sync"

// Registry maps live PIDs to their PCB, the lookup sys_kill needs since a
// process may signal any other process, not just a descendant (spec.md
// §6's kill(pid, sig)). kernel/sched owns the one instance that matters;
// tests construct their own.
type Registry struct {
	mu    sync.Mutex
	byPID map[uint64]*PCB
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byPID: make(map[uint64]*PCB)}
}

// Register adds p, keyed by its PID.
func (r *Registry) Register(p *PCB) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPID[p.PID()] = p
}

// Unregister removes pid, e.g. once its zombie has been fully reaped.
func (r *Registry) Unregister(pid uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byPID, pid)
}

// Get looks up a process by PID.
func (r *Registry) Get(pid uint64) (*PCB, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byPID[pid]
	return p, ok
}
