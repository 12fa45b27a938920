package task

import (
	"rvkernel/kernel/fs"
	"rvkernel/kernel/id"
	"rvkernel/kernel/kerr"
	"rvkernel/kernel/signal"
)

// Fork builds a child process that is a copy of t's process (spec.md
// §4.6's fork()). Only the root task (tid 0) may fork; a non-root caller
// gets kerr.ForkWithNoRootTask, mirroring the teacher's "only the root
// task is allowed to call this method" restriction, generalized into an
// explicit checked error instead of an assertion.
func (t *TCB) Fork(rt *Runtime, pids *id.Allocator) (*PCB, *kerr.Error) {
	if t.TID() != 0 {
		return nil, kerr.New(kerr.ForkWithNoRootTask, module, "only the root task may fork")
	}
	parent := t.process

	parent.mu.Lock()
	path := parent.path
	baseSize := parent.baseSize
	entryPoint := parent.entryPoint
	fdTable := append([]fs.File(nil), parent.fdTable...)
	parentSpace := parent.space
	parent.mu.Unlock()

	pidTracker, err := pids.Alloc()
	if err != nil {
		return nil, err
	}
	pid := pidTracker.ID()

	childSpace, err := parentSpace.Fork(uint16(pid), rt.FrameAlloc)
	if err != nil {
		return nil, err
	}

	child := &PCB{
		pid:        pidTracker,
		rt:         rt,
		path:       path,
		entryPoint: entryPoint,
		baseSize:   baseSize,
		space:      childSpace,
		parent:     parent,
		children:   make(map[uint64]*PCB),
		fdTable:    fdTable,
		signal:     signal.New(),
		tidAlloc:   id.NewAllocator(maxTIDsPerProcess),
		tasks:      make(map[uint64]*TCB),
	}

	childTidTracker, err := child.tidAlloc.Alloc()
	if err != nil {
		return nil, err
	}
	childRoot, err := forkTCB(rt, child, childTidTracker, t)
	if err != nil {
		return nil, err
	}
	child.tasks[0] = childRoot

	parent.mu.Lock()
	parent.children[pid] = child
	parent.mu.Unlock()

	return child, nil
}
