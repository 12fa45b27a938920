package task

import (
	"rvkernel/kernel/id"
	"rvkernel/kernel/kerr"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
	"rvkernel/kernel/mem/vmm"
)

// Runtime bundles the boot-time values only cmd/kernel knows: the frame
// allocator, the singleton kernel space, the trampoline's physical frame,
// and the fixed kernel-side addresses every task's trap context needs to
// find its way back into the kernel (spec.md §4.7's trap entry/exit
// protocol). A TCB needs all of these to build its initial TrapContext and
// TaskContext; nothing in this package other than NewRuntime constructs
// one, since their values come from outside this module's scope.
type Runtime struct {
	FrameAlloc    *pmm.Allocator
	KernelSpace   *vmm.Space
	TrampolinePPN mem.PPN
	// TrapHandlerVA is the kernel address trap_handler runs at once a trap
	// has been saved; it becomes TrapContext.TrapHandlerVA.
	TrapHandlerVA uintptr
	// TrapReturnVA is the trampoline-mapped address of the restore half of
	// the trampoline; it becomes a task's initial TaskContext.RA so the
	// first switch into it lands in the trampoline rather than in Go code.
	TrapReturnVA uintptr

	kstackIDs *id.Allocator
}

// NewRuntime wires up the kernel-stack ID allocator alongside the boot
// values. maxKernelStacks bounds how many tasks may be alive at once
// (spec.md §7's IDExhausted applies here the same as everywhere else).
func NewRuntime(frameAlloc *pmm.Allocator, kernelSpace *vmm.Space, trampolinePPN mem.PPN, trapHandlerVA, trapReturnVA uintptr, maxKernelStacks uint64) *Runtime {
	return &Runtime{
		FrameAlloc:    frameAlloc,
		KernelSpace:   kernelSpace,
		TrampolinePPN: trampolinePPN,
		TrapHandlerVA: trapHandlerVA,
		TrapReturnVA:  trapReturnVA,
		kstackIDs:     id.NewAllocator(maxKernelStacks),
	}
}

// kernelStack is one task's kernel-mode stack, mapped into the shared
// kernel space at a slot keyed by its recycled ID (spec.md §4.4).
type kernelStack struct {
	tracker *id.Tracker
	start   mem.VPN
	end     mem.VPN
}

func (r *Runtime) newKernelStack() (*kernelStack, *kerr.Error) {
	tracker, err := r.kstackIDs.Alloc()
	if err != nil {
		return nil, err
	}
	start, end := vmm.KernelStackRange(tracker.ID())
	if _, err := r.KernelSpace.InsertFramed(start, end, vmm.FlagRead|vmm.FlagWrite); err != nil {
		tracker.Release()
		return nil, err
	}
	return &kernelStack{tracker: tracker, start: start, end: end}, nil
}

func (k *kernelStack) topVA() uintptr {
	return uintptr(k.end.Address())
}

func (k *kernelStack) release(r *Runtime) *kerr.Error {
	if err := r.KernelSpace.RemoveArea(k.start, k.end); err != nil {
		return err
	}
	k.tracker.Release()
	return nil
}
