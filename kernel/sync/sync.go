// Package sync implements the kernel's user-visible synchronization
// primitives (spec.md §4.9: mutex, semaphore, condvar, each in a spinning
// and a scheduler-blocking variant), grounded on
// original_source/src/sync/{mutex,semaphore,condvar}.rs. It is named sync
// like the standard library package it complements; files that need both
// alias the standard one as stdsync.
package sync

import "rvkernel/kernel/kerr"

// Scheduler is the narrow slice of scheduling behavior these primitives
// need: give up the remaining time slice but stay runnable (Suspend), stop
// being scheduled until explicitly resumed (Block), and make a
// previously-blocked task runnable again (Wake). kernel/sched provides the
// real implementation; tests drive these primitives with a fake.
type Scheduler interface {
	Suspend(taskID uint64)
	Block(taskID uint64)
	Wake(taskID uint64)
}

// Mutex is the common interface both MutexSpin and MutexBlocking satisfy.
type Mutex interface {
	Lock(sched Scheduler, taskID uint64) *kerr.Error
	Unlock(sched Scheduler, taskID uint64) *kerr.Error
}

// Semaphore is the common interface both SemaphoreSpin and
// SemaphoreBlocking satisfy.
type Semaphore interface {
	Up(sched Scheduler, taskID uint64) (int64, *kerr.Error)
	Down(sched Scheduler, taskID uint64) (int64, *kerr.Error)
}

// Condvar is satisfied by CondvarBlocking.
type Condvar interface {
	Signal(sched Scheduler)
	Wait(sched Scheduler, taskID uint64, m Mutex) *kerr.Error
}
