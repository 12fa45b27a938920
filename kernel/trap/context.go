// Package trap implements the two register-snapshot types the trampoline
// and scheduler operate on, plus the pure dispatch logic trap_handler runs
// once scause has been classified (spec.md §4.7). TaskContext switching
// lives in kernel/trap/switch_riscv64.s; the user<->kernel register save
// path is the hardware-trap-vector-specific half of this contract, kept in
// trampoline_riscv64.s.
package trap

import "rvkernel/kernel/mem"

// TrapContext is the full register snapshot saved on a task's trap-context
// page when it traps from user mode, plus the handful of kernel-side values
// needed to return there safely (spec.md §4.7).
type TrapContext struct {
	X              [32]uint64 // general-purpose registers x0..x31
	Sstatus        uint64
	Sepc           uint64
	KernelSatp     uint64  // kernel page-table token, installed on trap entry
	TrapHandlerVA  uintptr // kernel-space trap_handler entry point
	KernelSPVA     uintptr // this task's kernel stack top
}

// sp is x2, a0 is x10, a1 is x11 in the RISC-V calling convention.
const (
	regSP = 2
	regA0 = 10
	regA1 = 11
)

// SP returns the saved user stack pointer.
func (c *TrapContext) SP() uint64 { return c.X[regSP] }

// SetSP overwrites the saved user stack pointer.
func (c *TrapContext) SetSP(v uint64) { c.X[regSP] = v }

// A0 / A1 access the first two argument/return registers, used for syscall
// arguments and results and for passing arguments into a freshly exec'd or
// forked program.
func (c *TrapContext) A0() uint64     { return c.X[regA0] }
func (c *TrapContext) SetA0(v uint64) { c.X[regA0] = v }
func (c *TrapContext) SetA1(v uint64) { c.X[regA1] = v }

// CloneForFork returns a copy of c with KernelSPVA rewritten to the
// child's own kernel stack top, leaving every other saved register
// (including sepc and a0, still holding the parent's fork() call site)
// untouched. The caller patches a0 to 0 separately once the child's TCB
// exists, distinguishing the child's first return from the parent's.
func (c *TrapContext) CloneForFork(kernelSPVA uintptr) *TrapContext {
	clone := *c
	clone.KernelSPVA = kernelSPVA
	return &clone
}

// NewAppInitContext builds the TrapContext a freshly loaded (or exec'd)
// task's TID-0 thread starts from: every register zero except sepc (the
// ELF entry point), sp (the top of the mapped user stack), and the
// kernel-side bookkeeping needed for the next trap.
func NewAppInitContext(entry, userSP mem.VirtAddr, kernelSatp uint64, trapHandlerVA, kernelSPVA uintptr) *TrapContext {
	ctx := &TrapContext{
		Sepc:          uint64(entry),
		KernelSatp:    kernelSatp,
		TrapHandlerVA: trapHandlerVA,
		KernelSPVA:    kernelSPVA,
	}
	ctx.SetSP(uint64(userSP))
	return ctx
}

// TaskContext is the callee-saved register set kernel/trap.Switch swaps in
// and out on a cooperative context switch (spec.md §4.7). RISC-V's calling
// convention leaves ra, sp, and s0..s11 callee-saved; everything else is
// caller-saved and need not survive a Switch call.
type TaskContext struct {
	RA uintptr
	SP uintptr
	S  [12]uintptr
}

// CloneForFork returns a copy of c retargeted to start execution at
// trapReturnVA on kernelStackTop, the same "resume as if this kernel
// stack had just called trap_return" trick NewTaskContext uses for a
// task loaded from scratch. The callee-saved S registers are copied
// from c rather than zeroed, matching the parent's task context value
// at the fork() call site.
func (c *TaskContext) CloneForFork(trapReturnVA, kernelStackTop uintptr) *TaskContext {
	clone := *c
	clone.RA = trapReturnVA
	clone.SP = kernelStackTop
	return &clone
}

// NewTaskContext builds the TaskContext a brand-new task (one never
// switched to before) starts from: ra points at trapReturnVA so the first
// Switch into this task resumes at trap_return and falls straight through
// to user mode, and sp is the top of its kernel stack.
func NewTaskContext(trapReturnVA, kernelStackTop uintptr) *TaskContext {
	return &TaskContext{RA: trapReturnVA, SP: kernelStackTop}
}
