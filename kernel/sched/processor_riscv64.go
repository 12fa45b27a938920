package sched

import (
	"sync"

	"rvkernel/kernel/kerr"
	"rvkernel/kernel/signal"
	ksync "rvkernel/kernel/sync"
	"rvkernel/kernel/task"
	"rvkernel/kernel/trap"
)

const module = "sched"

// Processor tracks the task presently assigned to the hart and the idle
// context schedule() switches away to while hunting for the next ready
// task (spec.md §4.8's Processor/PROCESSOR). Every method here performs a
// real context switch via trap.Switch and is therefore never exercised
// by a hosted test, the same way kernel/trap's trampoline and switch
// primitives aren't: this code only runs meaningfully once compiled for
// the real target and entered from a real trap-return path.
type Processor struct {
	sched *Scheduler

	mu          sync.Mutex
	current     *task.TCB
	blocked     map[uint64]*task.TCB
	idleTaskCtx trap.TaskContext
}

var _ ksync.Scheduler = (*Processor)(nil)

// NewProcessor returns a Processor with no current task, backed by sched.
func NewProcessor(sched *Scheduler) *Processor {
	return &Processor{sched: sched, blocked: make(map[uint64]*task.TCB)}
}

// Current returns the task presently running on the hart, if any.
func (p *Processor) Current() (*task.TCB, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.current != nil
}

func (p *Processor) switchFrom(curr *trap.TaskContext) {
	trap.Switch(curr, &p.idleTaskCtx)
}

// Schedule runs forever: check sleeping tasks, pop the next ready task,
// switch the hart into it. nowUs reports the current wall-clock
// microsecond count (spec.md §4.8's get_timer_us, a board-level
// collaborator). It panics if the ready queue ever runs dry, matching
// the teacher's own "There was no task available" panic: a task is
// always runnable once the init process has been enqueued.
func (p *Processor) Schedule(nowUs func() uint64) {
	for {
		p.sched.CheckTimers(nowUs())
		t, ok := p.sched.PopReady()
		if !ok {
			panic("sched: no ready task in the queue")
		}
		if t.IsZombie() {
			continue
		}
		t.MarkRunning()
		p.mu.Lock()
		p.current = t
		p.mu.Unlock()
		trap.Switch(&p.idleTaskCtx, t.TaskContext())
	}
}

// Suspend implements ksync.Scheduler: the calling task gives up the rest
// of its slice but stays runnable. taskID must match the current task;
// a mismatched caller is a no-op rather than an error, since the
// scheduler interface gives sync primitives no way to report one.
func (p *Processor) Suspend(taskID uint64) {
	p.mu.Lock()
	t := p.current
	if t == nil || t.TID() != taskID {
		p.mu.Unlock()
		return
	}
	p.current = nil
	p.mu.Unlock()

	t.MarkSuspended()
	p.sched.PutReady(t)
	p.switchFrom(t.TaskContext())
}

// Block implements ksync.Scheduler: the calling task is parked off the
// ready queue entirely, recoverable only by a matching Wake(taskID).
func (p *Processor) Block(taskID uint64) {
	p.mu.Lock()
	t := p.current
	if t == nil || t.TID() != taskID {
		p.mu.Unlock()
		return
	}
	p.current = nil
	p.blocked[taskID] = t
	p.mu.Unlock()

	t.MarkBlocked()
	p.switchFrom(t.TaskContext())
}

// SleepCurrent parks the current task on the scheduler's sleep-timer
// heap until nowUs+delayUs (sys_sleep), rather than in p.blocked: the
// timer heap reinserts it onto the ready queue itself once CheckTimers
// sees its deadline pass, with no matching Wake call involved.
func (p *Processor) SleepCurrent(taskID uint64, nowUs, delayUs uint64) {
	p.mu.Lock()
	t := p.current
	if t == nil || t.TID() != taskID {
		p.mu.Unlock()
		return
	}
	p.current = nil
	p.mu.Unlock()

	t.MarkBlocked()
	p.sched.PutTimer(nowUs, delayUs, t)
	p.switchFrom(t.TaskContext())
}

// Wake implements ksync.Scheduler: a task parked by Block is returned to
// the ready queue. Waking a taskID with no parked task is a no-op (it may
// already have been woken, or never actually blocked).
func (p *Processor) Wake(taskID uint64) {
	p.mu.Lock()
	t, ok := p.blocked[taskID]
	if ok {
		delete(p.blocked, taskID)
	}
	p.mu.Unlock()
	if !ok {
		return
	}
	t.MarkReady()
	p.sched.PutReady(t)
}

// ExitCurrent runs the current task's exit teardown and switches away
// from it for good (spec.md §4.8's exit_current_and_run_other_task).
func (p *Processor) ExitCurrent(rt *task.Runtime, initProc *task.PCB, exitCode int32) *kerr.Error {
	p.mu.Lock()
	t := p.current
	p.current = nil
	p.mu.Unlock()
	if t == nil {
		return kerr.New(kerr.ProcessHaveNotTask, module, "no current task to exit")
	}
	p.sched.RemoveTimer(t)
	t.Exit(rt, initProc, exitCode)
	p.switchFrom(t.TaskContext())
	return nil
}

// HandleCurrentSignals drains the current task's pending signals into
// its trap context (spec.md §4.10's handle_current_task_signals): it
// suspends and retries while frozen (SIGSTOP) and not yet killed, then
// reports whichever fatal signal remains uncaught, if any.
func (p *Processor) HandleCurrentSignals() (signal.Signal, bool, *kerr.Error) {
	for {
		p.mu.Lock()
		t := p.current
		p.mu.Unlock()
		if t == nil {
			return 0, false, kerr.New(kerr.ProcessHaveNotTask, module, "no current task")
		}

		ctrl := t.Process().Signal()
		ctrl.Dispatch(t.TrapContext())
		if !ctrl.ShouldYieldWhileFrozen() || ctrl.IsKilled() {
			break
		}
		p.Suspend(t.TID())
	}

	p.mu.Lock()
	t := p.current
	p.mu.Unlock()
	if t == nil {
		return 0, false, kerr.New(kerr.ProcessHaveNotTask, module, "no current task")
	}
	sig, ok := t.Process().Signal().BadSignal()
	return sig, ok, nil
}
