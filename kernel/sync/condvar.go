package sync

import (
	stdsync "sync"

	"rvkernel/kernel/kerr"
)

// CondvarBlocking is a condition variable whose waiters are parked off the
// ready queue and woken one at a time by Signal. Grounded on
// original_source/src/sync/condvar.rs's CondvarBlocking.
type CondvarBlocking struct {
	mu      stdsync.Mutex
	waiting []uint64
}

var _ Condvar = (*CondvarBlocking)(nil)

// NewCondvarBlocking creates a condvar with no waiters.
func NewCondvarBlocking() *CondvarBlocking { return &CondvarBlocking{} }

// Signal wakes the oldest waiting task, if any.
func (c *CondvarBlocking) Signal(sched Scheduler) {
	c.mu.Lock()
	var woken uint64
	var didWake bool
	if len(c.waiting) > 0 {
		woken = c.waiting[0]
		c.waiting = c.waiting[1:]
		didWake = true
	}
	c.mu.Unlock()
	if didWake {
		sched.Wake(woken)
	}
}

// Wait releases m, blocks the calling task until Signal wakes it, then
// reacquires m before returning.
func (c *CondvarBlocking) Wait(sched Scheduler, taskID uint64, m Mutex) *kerr.Error {
	if err := m.Unlock(sched, taskID); err != nil {
		return err
	}
	c.mu.Lock()
	c.waiting = append(c.waiting, taskID)
	c.mu.Unlock()

	sched.Block(taskID)

	return m.Lock(sched, taskID)
}
