package sync

import (
	stdsync "sync"

	"rvkernel/kernel/kerr"
)

// SemaphoreSpin is a counting semaphore whose waiters spin (suspend and
// retry) instead of being parked by the scheduler. Grounded on
// original_source/src/sync/semaphore.rs's SemaphoreSpin.
type SemaphoreSpin struct {
	mu    stdsync.Mutex
	count int64
}

var _ Semaphore = (*SemaphoreSpin)(nil)

// NewSemaphoreSpin creates a spinning semaphore with the given initial
// count (may be negative, matching the signed counter semantics of the
// blocking variant).
func NewSemaphoreSpin(count int64) *SemaphoreSpin {
	return &SemaphoreSpin{count: count}
}

// Down waits (spinning) until the count is positive, then decrements it.
func (s *SemaphoreSpin) Down(sched Scheduler, taskID uint64) (int64, *kerr.Error) {
	for {
		s.mu.Lock()
		if s.count <= 0 {
			s.mu.Unlock()
			sched.Suspend(taskID)
			continue
		}
		s.count--
		n := s.count
		s.mu.Unlock()
		return n, nil
	}
}

// Up increments the count.
func (s *SemaphoreSpin) Up(sched Scheduler, taskID uint64) (int64, *kerr.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	return s.count, nil
}

// SemaphoreBlocking is a counting semaphore whose waiters are parked off
// the ready queue and explicitly woken by Up. Grounded on
// original_source/src/sync/semaphore.rs's SemaphoreBlocking.
type SemaphoreBlocking struct {
	mu      stdsync.Mutex
	count   int64
	waiting []uint64
}

var _ Semaphore = (*SemaphoreBlocking)(nil)

// NewSemaphoreBlocking creates a blocking semaphore with the given initial
// count.
func NewSemaphoreBlocking(count int64) *SemaphoreBlocking {
	return &SemaphoreBlocking{count: count}
}

// Up increments the count and, if it crossed back above zero relative to
// the waiting queue (i.e. the counter is still <= 0 after the increment
// but someone is waiting), wakes the oldest waiter.
func (s *SemaphoreBlocking) Up(sched Scheduler, taskID uint64) (int64, *kerr.Error) {
	s.mu.Lock()
	s.count++
	n := s.count
	var woken uint64
	var didWake bool
	if n <= 0 && len(s.waiting) > 0 {
		woken = s.waiting[0]
		s.waiting = s.waiting[1:]
		didWake = true
	}
	s.mu.Unlock()
	if didWake {
		sched.Wake(woken)
	}
	return n, nil
}

// Down decrements the count; if it goes negative, the calling task blocks
// until a matching Up wakes it.
func (s *SemaphoreBlocking) Down(sched Scheduler, taskID uint64) (int64, *kerr.Error) {
	s.mu.Lock()
	s.count--
	n := s.count
	blocked := n < 0
	if blocked {
		s.waiting = append(s.waiting, taskID)
	}
	s.mu.Unlock()
	if blocked {
		sched.Block(taskID)
		s.mu.Lock()
		n = s.count
		s.mu.Unlock()
	}
	return n, nil
}
