// Package cpu declares the RISC-V privileged-mode primitives the rest of the
// kernel builds on: CSR access, TLB/instruction-cache maintenance, and the
// halt instruction. Each function below has no Go body; its implementation
// lives in the matching cpu_riscv64.s file, the same split the teacher uses
// for cpu_amd64.go (e.g. EnableInterrupts, FlushTLBEntry, ReadCR2).
package cpu

// EnableInterrupts sets sstatus.SIE, allowing the supervisor timer and
// external interrupts to preempt the running task.
func EnableInterrupts()

// DisableInterrupts clears sstatus.SIE.
func DisableInterrupts()

// Halt parks the hart in a wfi loop. Used by Panic and by the idle path
// when every task has exited.
func Halt()

// WriteSTVEC installs va (the trampoline's user-trap entry address) as the
// supervisor trap vector base.
func WriteSTVEC(va uintptr)

// ReadSATP returns the current contents of the satp CSR (the active MMU
// token: mode, ASID and root PPN).
func ReadSATP() uint64

// WriteSATP installs token as the active page table and implicitly orders
// subsequent loads/stores against the new mapping once paired with
// SfenceVMAAll.
func WriteSATP(token uint64)

// SfenceVMAAll flushes every TLB entry. Used after a full satp switch.
func SfenceVMAAll()

// SfenceVMA flushes the TLB entry (if any) for the single page containing
// virtAddr, leaving the rest of the TLB untouched.
func SfenceVMA(virtAddr uintptr)

// SyncICache flushes the instruction cache. Required after writing
// instructions the hart will later fetch (e.g. loading a fresh ELF image).
func SyncICache()

// Ecall issues the SBI legacy-extension call (eid, arg0, arg1, arg2) and
// returns the two-register result (a0, a1) the firmware hands back.
func Ecall(eid, arg0, arg1, arg2 uintptr) (uintptr, uintptr)

// ReadTime returns the free-running mtime counter exposed to supervisor
// mode via the time CSR, the source kernel/syscall's gettimeofday and
// sleep convert against TicksPerSec.
func ReadTime() uint64
