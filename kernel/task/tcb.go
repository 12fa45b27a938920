package task

import (
	"sync"

	"rvkernel/kernel/id"
	"rvkernel/kernel/kerr"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/trap"
)

// TCB is one thread of execution within a process (spec.md §4's TCB: a
// kernel-stack ID and the per-task resource — user stack and trap-context
// page — plus its saved TaskContext and TrapContext).
type TCB struct {
	mu sync.Mutex

	tid     *id.Tracker
	process *PCB
	kstack  *kernelStack

	status      Status
	taskCtx     *trap.TaskContext
	trapCtx     *trap.TrapContext
	userSPTop   mem.VirtAddr
	exitCode    int32
	hasExitCode bool
}

// TID returns the task's unique identifier within its process.
func (t *TCB) TID() uint64 { return t.tid.ID() }

// Process returns the owning process.
func (t *TCB) Process() *PCB { return t.process }

// TaskContext returns the context kernel/sched's Switch primitive saves
// and restores.
func (t *TCB) TaskContext() *trap.TaskContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.taskCtx
}

// TrapContext returns the task's live trap context, the one Dispatch
// mutates on every trap and trap_return reads to resume user mode.
func (t *TCB) TrapContext() *trap.TrapContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trapCtx
}

// Status returns the task's current scheduling state.
func (t *TCB) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *TCB) setStatus(s Status) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// MarkReady transitions the task back onto the ready queue (e.g. after a
// blocking primitive wakes it).
func (t *TCB) MarkReady() { t.setStatus(StatusReady) }

// MarkRunning marks the task as the one currently executing on the hart.
func (t *TCB) MarkRunning() { t.setStatus(StatusRunning) }

// MarkSuspended marks the task as cooperatively yielded, still runnable.
func (t *TCB) MarkSuspended() { t.setStatus(StatusSuspended) }

// MarkBlocked marks the task as waiting on a synchronization primitive or
// I/O; only an explicit Wake (via kernel/sync's Scheduler contract) moves
// it back to Ready.
func (t *TCB) MarkBlocked() { t.setStatus(StatusBlocked) }

// MarkZombie marks the task exited with exitCode, pending reaping by
// wait_tid/wait_pid.
func (t *TCB) MarkZombie(exitCode int32) {
	t.mu.Lock()
	t.status = StatusZombie
	t.exitCode = exitCode
	t.hasExitCode = true
	t.mu.Unlock()
}

// IsZombie reports whether the task has exited and is awaiting reaping.
func (t *TCB) IsZombie() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status == StatusZombie
}

// ExitCode returns the task's exit code, valid only once IsZombie is true.
func (t *TCB) ExitCode() (int32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exitCode, t.hasExitCode
}

// newTCB builds a TCB with a fresh kernel stack, wiring its initial
// TrapContext (create_app_init_context) and TaskContext (goto_trap_return)
// per spec.md §4.7.
func newTCB(rt *Runtime, process *PCB, tidTracker *id.Tracker, entry, userSPTop mem.VirtAddr) (*TCB, *kerr.Error) {
	kstack, err := rt.newKernelStack()
	if err != nil {
		return nil, err
	}
	kernelTop := kstack.topVA()
	trapCtx := trap.NewAppInitContext(
		entry, userSPTop,
		rt.KernelSpace.Token(), rt.TrapHandlerVA, kernelTop,
	)
	taskCtx := trap.NewTaskContext(rt.TrapReturnVA, kernelTop)

	return &TCB{
		tid:       tidTracker,
		process:   process,
		kstack:    kstack,
		status:    StatusReady,
		taskCtx:   taskCtx,
		trapCtx:   trapCtx,
		userSPTop: userSPTop,
	}, nil
}

func (t *TCB) releaseKernelStack(rt *Runtime) *kerr.Error {
	return t.kstack.release(rt)
}

// forkTCB builds a child's root TCB as a copy of parent's saved contexts
// (spec.md §4.6 steps 5-6), not a fresh app-init context: fork()'s child
// must resume exactly where the parent's fork() call trapped, only with
// a0 eventually patched to 0 and the kernel-stack-top fields rewritten to
// the child's own kernel stack.
func forkTCB(rt *Runtime, process *PCB, tidTracker *id.Tracker, parent *TCB) (*TCB, *kerr.Error) {
	kstack, err := rt.newKernelStack()
	if err != nil {
		return nil, err
	}
	kernelTop := kstack.topVA()

	trapCtx := parent.TrapContext().CloneForFork(kernelTop)
	taskCtx := parent.TaskContext().CloneForFork(rt.TrapReturnVA, kernelTop)

	parent.mu.Lock()
	userSPTop := parent.userSPTop
	parent.mu.Unlock()

	return &TCB{
		tid:       tidTracker,
		process:   process,
		kstack:    kstack,
		status:    StatusReady,
		taskCtx:   taskCtx,
		trapCtx:   trapCtx,
		userSPTop: userSPTop,
	}, nil
}
