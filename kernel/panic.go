// Package kernel holds the handful of process-wide entry points (Panic) that
// every other kernel package may need to call regardless of layering.
package kernel

import (
	"rvkernel/kernel/kerr"
	"rvkernel/kernel/kfmt"
)

var (
	// haltFn actually stops the hart. Wired to cpu.Halt by halt_riscv64.go's
	// init on the real target; tests set it directly instead, since this
	// package stays portable and cpu's primitives are riscv64-only.
	haltFn func()

	errRuntimePanic = &kerr.Error{Module: "rt", Message: "unknown cause"}
)

// Panic outputs the supplied error (if not nil) to the console and halts the
// CPU. Calls to Panic never return; this is the kernel's only unconditional
// stop, reserved for invariants the kernel considers structurally impossible
// (spec.md §7).
func Panic(e interface{}) {
	var err *kerr.Error

	switch t := e.(type) {
	case *kerr.Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	kfmt.Printf("\n-----------------------------------\n")
	if err != nil {
		kfmt.Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	kfmt.Printf("*** kernel panic: system halted ***")
	kfmt.Printf("\n-----------------------------------\n")

	haltFn()
}
