// Command kernel is the boot entry point: it wires every leaf package
// into a running system and hands the hart to the scheduler. The actual
// hardware handoff (linker-script symbols, the boot assembly that clears
// bss and calls Kmain, the SBI firmware itself) is out of scope and lives
// outside this module; Kmain assumes those have already run and it is
// executing with interrupts disabled on a single hart, exactly the
// precondition the teacher's own Kmain documents.
package main

import (
	"rvkernel/kernel"
	"rvkernel/kernel/cpu"
	"rvkernel/kernel/elf"
	"rvkernel/kernel/fs"
	"rvkernel/kernel/id"
	"rvkernel/kernel/kerr"
	"rvkernel/kernel/kfmt"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
	"rvkernel/kernel/mem/vmm"
	"rvkernel/kernel/sbi"
	"rvkernel/kernel/sched"
	"rvkernel/kernel/syscall"
	"rvkernel/kernel/task"
	"rvkernel/kernel/trap"
)

// consoleWriter adapts sbi.Console's byte-at-a-time PutChar into an
// io.Writer, the shape kfmt.SetOutputSink and kfmt.PrefixWriter expect.
type consoleWriter struct{ console sbi.Console }

func (w consoleWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		w.console.PutChar(b)
	}
	return len(p), nil
}

// Board-level configuration a real linker script and device tree would
// otherwise supply; fixed here since that collaborator is out of scope.
const (
	maxPIDs           = 1 << 16
	maxKernelStacks   = 1 << 16
	timerFreqHz       = 10_000_000
	ticksPerTimeSlice = timerFreqHz / mem.TicksPerSec
)

func nowUs() uint64 {
	return cpu.ReadTime() / (timerFreqHz / 1_000_000)
}

// rearmTimer reschedules the next supervisor timer interrupt one time
// slice out (spec.md §4.8's preemption tick).
func rearmTimer(clock sbi.Timer) func() {
	return func() {
		clock.SetTimer(cpu.ReadTime() + ticksPerTimeSlice)
	}
}

// Kmain boots the kernel: build the frame allocator and kernel space, load
// the init process, enqueue it, and hand the hart to the scheduler loop.
// loadInitProcess supplies the init binary's raw ELF bytes; in-scope
// callers load it from wherever the (out-of-scope) block-device/filesystem
// stack resolves INIT_PROCESS_PATH to.
func Kmain(frameBase, frameCount uint64, loader elf.Loader, initBinary []byte) {
	firmware := sbi.EcallFirmware{}

	kfmt.SetOutputSink(&kfmt.PrefixWriter{Sink: consoleWriter{firmware}, Prefix: []byte("[kernel] ")})
	kfmt.Printf("booting\n")

	frameAlloc := pmm.NewAllocator(mem.PPN(frameBase), mem.PPN(frameBase+frameCount))

	kernelSpace, err := vmm.NewSpace(0, frameAlloc, 0, mem.VPN(mem.TrampolineVA>>mem.PageShift)+1)
	if err != nil {
		kernel.Panic(err)
	}
	trampolineFrame, ferr := frameAlloc.Alloc()
	if ferr != nil {
		kernel.Panic(ferr)
	}
	if err := kernelSpace.MapFixed(vmm.TrampolineVPN(), trampolineFrame.PPN(), vmm.FlagRead|vmm.FlagExec); err != nil {
		kernel.Panic(err)
	}

	rt := task.NewRuntime(frameAlloc, kernelSpace, trampolineFrame.PPN(),
		uintptr(trapHandlerVA), vmm.TrampolineVA, maxKernelStacks)

	pids := id.NewAllocator(maxPIDs)
	registry := task.NewRegistry()
	scheduler := sched.NewScheduler()
	processor := sched.NewProcessor(scheduler)

	stdio := []fs.File{fs.NewStdin(firmware), fs.NewStdout(firmware), fs.NewStdout(firmware)}

	img, perr := loader.Load(initBinary)
	if perr != nil {
		kernel.Panic(&kerr.Error{Kind: kerr.ParseElf, Module: "kmain", Message: perr.Error()})
	}

	initProc, nerr := task.NewProcess(rt, pids, mem.InitProcessPath, img, nil, stdio)
	if nerr != nil {
		kernel.Panic(nerr)
	}
	registry.Register(initProc)
	kfmt.Printf("loaded %s pid=%d\n", mem.InitProcessPath, initProc.PID())

	root, _ := initProc.RootTask()
	scheduler.PutReady(root)

	server := syscall.NewServer(rt, scheduler, processor, registry, pids, firmware, nowUs)
	server.InitProc = initProc
	server.RegisterProgram(mem.InitProcessPath, img)

	trap.SetHooks(trap.Hooks{
		Syscall: server.Dispatch,
		RaiseSignal: func(bad trap.BadSignal) {
			if t, ok := processor.Current(); ok {
				t.Process().Signal().RaiseBad(bad)
			}
		},
		RearmTimer: rearmTimer(firmware),
		Yield: func() {
			if t, ok := processor.Current(); ok {
				processor.Suspend(t.TID())
			}
		},
	})

	rearmTimer(firmware)()
	processor.Schedule(nowUs)
}

// trapHandlerVA is the kernel-space address trap_return switches to on
// entry; it is a linker-script symbol outside this module's scope, kept
// here only as the placeholder Kmain's caller overwrites before boot.
var trapHandlerVA uintptr

// main is never reached on the real target: the boot assembly (outside
// this module) calls Kmain directly after clearing bss. It exists only
// so this package satisfies package main for hosts that build it.
func main() {}
