package sync

import (
	stdsync "sync"
	"runtime"
)

// fakeScheduler backs Block/Wake with a real per-task channel so tests can
// drive these primitives with actual concurrent goroutines standing in for
// tasks, instead of faking cooperative yields that would otherwise need a
// real scheduler loop to make progress.
type fakeScheduler struct {
	mu    stdsync.Mutex
	chans map[uint64]chan struct{}
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{chans: make(map[uint64]chan struct{})}
}

func (f *fakeScheduler) chanFor(taskID uint64) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chans[taskID]
	if !ok {
		c = make(chan struct{}, 1)
		f.chans[taskID] = c
	}
	return c
}

func (f *fakeScheduler) Block(taskID uint64) {
	<-f.chanFor(taskID)
}

func (f *fakeScheduler) Wake(taskID uint64) {
	select {
	case f.chanFor(taskID) <- struct{}{}:
	default:
	}
}

func (f *fakeScheduler) Suspend(taskID uint64) {
	runtime.Gosched()
}
