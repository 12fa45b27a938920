// Package sched implements the ready queue, sleep timer, and single-hart
// dispatch loop spec.md §4.8 describes, grounded on
// original_source/src/task/scheduler.rs's TaskScheduler/TASK_SCHEDULER and
// original_source/src/task/process.rs's Processor/PROCESSOR.
package sched

import (
	"container/heap"
	"sync"

	"rvkernel/kernel/task"
)

// timerEntry parks a task until an absolute microsecond deadline.
type timerEntry struct {
	expireUs uint64
	tcb      *task.TCB
}

// timerHeap orders entries by expireUs ascending, so the next timer to
// fire is always the heap root. The original orders a max-heap on the
// negated deadline to get the same effect; negating a usize that can
// exceed the signed range risks silently wrapping, so this orders the
// unsigned deadline directly instead.
type timerHeap []timerEntry

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].expireUs < h[j].expireUs }
func (h timerHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) { *h = append(*h, x.(timerEntry)) }

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler holds every task waiting for the hart: the FIFO ready queue
// and the sleep-timer min-heap. It never runs a task itself; Processor
// does that by popping from here.
type Scheduler struct {
	mu    sync.Mutex
	ready []*task.TCB
	timer timerHeap
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// PutReady appends t to the tail of the ready queue.
func (s *Scheduler) PutReady(t *task.TCB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = append(s.ready, t)
}

// PopReady removes and returns the task at the head of the ready queue.
func (s *Scheduler) PopReady() (*task.TCB, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ready) == 0 {
		return nil, false
	}
	t := s.ready[0]
	s.ready = s.ready[1:]
	return t, true
}

// PutTimer parks t until nowUs+delayUs, the sleep() syscall's effect.
func (s *Scheduler) PutTimer(nowUs, delayUs uint64, t *task.TCB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	heap.Push(&s.timer, timerEntry{expireUs: nowUs + delayUs, tcb: t})
}

// CheckTimers moves every task whose deadline has passed back onto the
// ready queue, and drops (without requeuing) any timer entry whose task
// has already gone zombie by some other path.
func (s *Scheduler) CheckTimers(nowUs uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.timer) > 0 {
		top := s.timer[0]
		if top.tcb.IsZombie() {
			heap.Pop(&s.timer)
			continue
		}
		if top.expireUs > nowUs {
			break
		}
		heap.Pop(&s.timer)
		top.tcb.MarkSuspended()
		s.ready = append(s.ready, top.tcb)
	}
}

// RemoveTimer drops t's pending timer entry, if it has one (e.g. it
// exited before its sleep elapsed).
func (s *Scheduler) RemoveTimer(t *task.TCB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.timer[:0]
	for _, e := range s.timer {
		if e.tcb != t {
			kept = append(kept, e)
		}
	}
	s.timer = kept
	heap.Init(&s.timer)
}

// RootReady finds the ready root task (tid 0) of the process pid, the
// lookup sys_kill needs before any task of a just-created process has
// ever actually run (mirrors TaskScheduler::get_root_ready).
func (s *Scheduler) RootReady(pid uint64) (*task.TCB, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.ready {
		if t.TID() == 0 && t.Process().PID() == pid {
			return t, true
		}
	}
	return nil, false
}
