package task

import (
	"rvkernel/kernel/elf"
	"rvkernel/kernel/kerr"
	"rvkernel/kernel/trap"
)

// Exec replaces t's process image with a new ELF binary (spec.md §4.6's
// exec()). Only a single-task process may exec, since rebuilding the
// address space out from under sibling threads has no sensible semantics
// (kerr.ExecWithMultiTasks, mirroring the teacher's check).
func (t *TCB) Exec(rt *Runtime, path string, img *elf.Image) *kerr.Error {
	p := t.process

	p.mu.Lock()
	if len(p.tasks) != 1 {
		p.mu.Unlock()
		return kerr.New(kerr.ExecWithMultiTasks, module, "exec requires exactly one live task")
	}
	p.mu.Unlock()

	newSpace, entry, userSPTop, baseSize, err := buildUserSpace(uint16(p.PID()), rt.FrameAlloc, rt.TrampolinePPN, img, t.TID())
	if err != nil {
		return err
	}

	kernelTop := t.kstack.topVA()
	newTrapCtx := trap.NewAppInitContext(entry, userSPTop, rt.KernelSpace.Token(), rt.TrapHandlerVA, kernelTop)
	newTaskCtx := trap.NewTaskContext(rt.TrapReturnVA, kernelTop)

	p.mu.Lock()
	oldSpace := p.space
	p.path = path
	p.space = newSpace
	p.entryPoint = uintptr(entry)
	p.baseSize = baseSize
	p.mu.Unlock()
	if err := oldSpace.Close(); err != nil {
		return err
	}

	t.mu.Lock()
	t.trapCtx = newTrapCtx
	t.taskCtx = newTaskCtx
	t.userSPTop = userSPTop
	t.mu.Unlock()

	return nil
}
