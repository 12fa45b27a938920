package sync

import (
	stdsync "sync"

	"rvkernel/kernel/kerr"
)

// MutexSpin is a non-ownership-queueing mutex: a task that cannot acquire
// it repeatedly yields the rest of its time slice (Suspend) and retries.
// Grounded on original_source/src/sync/mutex.rs's MutexSpin.
type MutexSpin struct {
	mu     stdsync.Mutex
	locked *uint64 // current owner's task ID, nil if free
}

var _ Mutex = (*MutexSpin)(nil)

// NewMutexSpin creates an unlocked spinning mutex.
func NewMutexSpin() *MutexSpin { return &MutexSpin{} }

// Lock spins (via sched.Suspend) until the mutex is free, then takes it.
func (m *MutexSpin) Lock(sched Scheduler, taskID uint64) *kerr.Error {
	for {
		m.mu.Lock()
		if m.locked != nil {
			if *m.locked == taskID {
				m.mu.Unlock()
				return kerr.New(kerr.DoubleLockMutex, "sync", "task already holds this mutex")
			}
			m.mu.Unlock()
			sched.Suspend(taskID)
			continue
		}
		id := taskID
		m.locked = &id
		m.mu.Unlock()
		return nil
	}
}

// Unlock releases the mutex. taskID must match the current holder. sched
// is unused (no task needs waking for a spinning mutex) but kept so
// MutexSpin satisfies the same Mutex interface as MutexBlocking.
func (m *MutexSpin) Unlock(sched Scheduler, taskID uint64) *kerr.Error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked != nil && *m.locked != taskID {
		return kerr.New(kerr.DoubleUnlockMutex, "sync", "task does not hold this mutex")
	}
	m.locked = nil
	return nil
}

// MutexBlocking is a FIFO-fair, scheduler-blocking mutex: a task that
// cannot acquire it is parked off the ready queue and explicitly woken
// when ownership is handed to it. Grounded on
// original_source/src/sync/mutex.rs's MutexBlocking.
type MutexBlocking struct {
	mu      stdsync.Mutex
	locked  *uint64
	next    *uint64
	waiting []uint64
}

var _ Mutex = (*MutexBlocking)(nil)

// NewMutexBlocking creates an unlocked blocking mutex.
func NewMutexBlocking() *MutexBlocking { return &MutexBlocking{} }

// Lock blocks (via sched.Block) the calling task until it is handed
// ownership.
func (m *MutexBlocking) Lock(sched Scheduler, taskID uint64) *kerr.Error {
	for {
		m.mu.Lock()
		if m.locked != nil {
			if *m.locked == taskID {
				m.mu.Unlock()
				return kerr.New(kerr.DoubleLockMutex, "sync", "task already holds this mutex")
			}
			m.waiting = append(m.waiting, taskID)
			m.mu.Unlock()
			sched.Block(taskID)
			continue
		}
		m.next = nil
		id := taskID
		m.locked = &id
		m.mu.Unlock()
		return nil
	}
}

// Unlock releases the mutex, handing it to the next waiting task (if any)
// by waking it. The handoff is recorded (m.next) and the lock cleared
// before sched.Wake runs, so the woken task's own Lock call always finds
// the mutex free.
func (m *MutexBlocking) Unlock(sched Scheduler, taskID uint64) *kerr.Error {
	m.mu.Lock()
	if m.locked != nil && *m.locked != taskID {
		m.mu.Unlock()
		return kerr.New(kerr.DoubleUnlockMutex, "sync", "task does not hold this mutex")
	}
	var woken uint64
	var didWake bool
	if m.next == nil && len(m.waiting) > 0 {
		id := m.waiting[0]
		m.waiting = m.waiting[1:]
		m.next = &id
		woken, didWake = id, true
	}
	m.locked = nil
	m.mu.Unlock()
	if didWake {
		sched.Wake(woken)
	}
	return nil
}
