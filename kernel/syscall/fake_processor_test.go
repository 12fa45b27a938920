package syscall

import (
	"rvkernel/kernel/kerr"
	"rvkernel/kernel/task"
)

// fakeProcessor is a processor double that tracks a single current task
// without ever touching a real context switch, so handlers that call
// Suspend/Block/Wake can be exercised on host. SleepCurrent and
// ExitCurrent just record their call rather than switching away, since
// nothing here ever resumes a second task.
type fakeProcessor struct {
	current *task.TCB

	suspended  []uint64
	blocked    []uint64
	woken      []uint64
	slept      *sleptCall
	exitCalled bool
	exitCode   int32
}

type sleptCall struct {
	taskID         uint64
	nowUs, delayUs uint64
}

func (f *fakeProcessor) Current() (*task.TCB, bool) {
	return f.current, f.current != nil
}

func (f *fakeProcessor) Suspend(taskID uint64) {
	f.suspended = append(f.suspended, taskID)
}

func (f *fakeProcessor) Block(taskID uint64) {
	f.blocked = append(f.blocked, taskID)
}

func (f *fakeProcessor) Wake(taskID uint64) {
	f.woken = append(f.woken, taskID)
}

func (f *fakeProcessor) SleepCurrent(taskID uint64, nowUs, delayUs uint64) {
	f.slept = &sleptCall{taskID: taskID, nowUs: nowUs, delayUs: delayUs}
}

func (f *fakeProcessor) ExitCurrent(rt *task.Runtime, initProc *task.PCB, exitCode int32) *kerr.Error {
	f.exitCalled = true
	f.exitCode = exitCode
	f.current = nil
	return nil
}
