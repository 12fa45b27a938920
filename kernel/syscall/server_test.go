package syscall

import (
	"testing"

	"rvkernel/kernel/elf"
	"rvkernel/kernel/fs"
	"rvkernel/kernel/id"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
	"rvkernel/kernel/mem/vmm"
	"rvkernel/kernel/sbi"
	"rvkernel/kernel/sched"
	"rvkernel/kernel/signal"
	"rvkernel/kernel/task"
)

func testRuntime(t *testing.T) *task.Runtime {
	t.Helper()
	frameAlloc := pmm.NewAllocator(0, 65536)
	kernelSpace, err := vmm.NewSpace(0, frameAlloc, 0, vmm.TrampolineVPN()+1)
	if err != nil {
		t.Fatalf("kernel space: %v", err)
	}
	trampolineFrame, err := frameAlloc.Alloc()
	if err != nil {
		t.Fatalf("trampoline frame: %v", err)
	}
	if err := vmm.MapTrampoline(kernelSpace, trampolineFrame.PPN()); err != nil {
		t.Fatalf("map trampoline: %v", err)
	}
	return task.NewRuntime(frameAlloc, kernelSpace, trampolineFrame.PPN(), 0xffffffff00000000, 0xffffffff00001000, 64)
}

func testImage() *elf.Image {
	return &elf.Image{
		Segments: []elf.Segment{
			{
				VirtAddr: mem.VirtAddr(0x1000),
				Data:     []byte{1, 2, 3, 4},
				MemSize:  uint64(mem.PageSize),
				Flags:    elf.FlagRead | elf.FlagWrite | elf.FlagExec,
			},
		},
		Entry: mem.VirtAddr(0x1000),
	}
}

// testServer wires a Server around a single-task process, backed by a
// fakeProcessor so handlers that touch yield/block/sleep/exit stay
// host-testable without a real context switch. Returns the server and
// the process's one root task.
func testServer(t *testing.T) (*Server, *task.TCB) {
	t.Helper()
	rt := testRuntime(t)
	pids := id.NewAllocator(1024)
	registry := task.NewRegistry()

	p, err := task.NewProcess(rt, pids, "/init", testImage(), nil, nil)
	if err != nil {
		t.Fatalf("new process: %v", err)
	}
	registry.Register(p)
	root, _ := p.RootTask()

	fp := &fakeProcessor{current: root}
	scheduler := sched.NewScheduler()
	firmware := &sbi.FakeFirmware{}

	s := NewServer(rt, scheduler, fp, registry, pids, firmware, func() uint64 { return 42 })
	s.InitProc = p
	return s, root
}

func writePathString(t *testing.T, space *vmm.Space, path string) uint64 {
	t.Helper()
	area := space.AreaContaining(mem.VirtAddr(0x1000).VPN())
	if area == nil {
		t.Fatal("expected the test image's segment to be mapped")
	}
	if err := area.WriteBytes(0, append([]byte(path), 0)); err != nil {
		t.Fatalf("write path: %v", err)
	}
	return uint64(mem.VirtAddr(0x1000))
}

func TestGetPIDAndGetTID(t *testing.T) {
	s, root := testServer(t)
	if got := s.sysGetPID(); got != root.Process().PID() {
		t.Fatalf("expected pid %d, got %d", root.Process().PID(), got)
	}
	if got := s.sysGetTID(); got != root.TID() {
		t.Fatalf("expected tid %d, got %d", root.TID(), got)
	}
}

func TestGetPIDWithNoCurrentTaskFails(t *testing.T) {
	s, _ := testServer(t)
	s.Processor.(*fakeProcessor).current = nil
	if got := s.sysGetPID(); got != errU64() {
		t.Fatalf("expected failure sentinel, got %d", got)
	}
}

func TestYieldSuspendsTheCurrentTask(t *testing.T) {
	s, root := testServer(t)
	if got := s.sysYield(); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	fp := s.Processor.(*fakeProcessor)
	if len(fp.suspended) != 1 || fp.suspended[0] != root.TID() {
		t.Fatalf("expected root's tid suspended once, got %v", fp.suspended)
	}
}

func TestGetTimeOfDayReturnsInjectedClock(t *testing.T) {
	s, _ := testServer(t)
	if got := s.sysGetTimeOfDay(); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestSleepParksOnTheTimerHeap(t *testing.T) {
	s, root := testServer(t)
	if got := s.sysSleep(1000); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	fp := s.Processor.(*fakeProcessor)
	if fp.slept == nil || fp.slept.taskID != root.TID() || fp.slept.delayUs != 1000 {
		t.Fatalf("expected a sleep recorded for root's tid, got %+v", fp.slept)
	}
}

func TestExitPanicsAfterHandingOffToExitCurrent(t *testing.T) {
	s, _ := testServer(t)
	defer func() {
		if recover() == nil {
			t.Fatal("expected sysExit to panic: ExitCurrent never returns on real hardware")
		}
	}()
	s.sysExit(7)
}

func TestExitRecordsTheExitCode(t *testing.T) {
	s, _ := testServer(t)
	fp := s.Processor.(*fakeProcessor)
	func() {
		defer func() { recover() }()
		s.sysExit(7)
	}()
	if !fp.exitCalled || fp.exitCode != 7 {
		t.Fatalf("expected ExitCurrent called with code 7, got called=%v code=%d", fp.exitCalled, fp.exitCode)
	}
}

func TestForkRegistersChildAndZeroesItsReturnValue(t *testing.T) {
	s, root := testServer(t)
	childPID := s.sysFork()
	if childPID == errU64() {
		t.Fatal("expected fork to succeed")
	}
	if childPID == root.Process().PID() {
		t.Fatal("expected a distinct child pid")
	}
	child, ok := s.Registry.Get(childPID)
	if !ok {
		t.Fatal("expected the child to be registered")
	}
	childRoot, _ := child.RootTask()
	if childRoot.TrapContext().A0() != 0 {
		t.Fatal("expected the child's saved a0 to read 0")
	}
	if _, ok := s.Scheduler.PopReady(); !ok {
		t.Fatal("expected the child to be enqueued ready")
	}
}

func TestExecSwapsTheRegisteredProgram(t *testing.T) {
	s, root := testServer(t)
	pathAddr := writePathString(t, root.Process().Space(), "/other")

	newImg := testImage()
	newImg.Entry = mem.VirtAddr(0x1000)
	s.RegisterProgram("/other", newImg)

	if got := s.sysExec(pathAddr, 0); got != 0 {
		t.Fatalf("expected exec to succeed, got %d", got)
	}
}

func TestExecFailsForAnUnregisteredPath(t *testing.T) {
	s, root := testServer(t)
	pathAddr := writePathString(t, root.Process().Space(), "/missing")

	if got := s.sysExec(pathAddr, 0); got != errU64() {
		t.Fatalf("expected failure sentinel, got %d", got)
	}
}

func TestExecFailsWhenPathPlusArgsExceedsArgsLimit(t *testing.T) {
	rt := testRuntime(t)
	pids := id.NewAllocator(1024)
	registry := task.NewRegistry()

	// A segment roomy enough to hold an oversize args string, unlike
	// testImage's single page.
	img := &elf.Image{
		Segments: []elf.Segment{
			{
				VirtAddr: mem.VirtAddr(0x1000),
				Data:     []byte{1, 2, 3, 4},
				MemSize:  uint64(mem.ArgsLimit) * 2,
				Flags:    elf.FlagRead | elf.FlagWrite | elf.FlagExec,
			},
		},
		Entry: mem.VirtAddr(0x1000),
	}
	p, err := task.NewProcess(rt, pids, "/init", img, nil, nil)
	if err != nil {
		t.Fatalf("new process: %v", err)
	}
	registry.Register(p)
	root, _ := p.RootTask()

	fp := &fakeProcessor{current: root}
	s := NewServer(rt, sched.NewScheduler(), fp, registry, pids, &sbi.FakeFirmware{}, func() uint64 { return 42 })
	s.InitProc = p
	s.RegisterProgram("/other", testImage())

	area := root.Process().Space().AreaContaining(mem.VirtAddr(0x1000).VPN())
	if area == nil {
		t.Fatal("expected the test image's segment to be mapped")
	}
	if err := area.WriteBytes(0, append([]byte("/other"), 0)); err != nil {
		t.Fatalf("write path: %v", err)
	}

	argsOff := uint64(128)
	bigArgs := make([]byte, mem.ArgsLimit)
	for i := range bigArgs {
		bigArgs[i] = 'a'
	}
	if err := area.WriteBytes(argsOff, bigArgs); err != nil {
		t.Fatalf("write args: %v", err)
	}

	pathAddr := uint64(mem.VirtAddr(0x1000))
	argsAddr := pathAddr + argsOff
	if got := s.sysExec(pathAddr, argsAddr); got != errU64() {
		t.Fatalf("expected oversize args to fail exec, got %d", got)
	}
}

func TestWaitPidReapsAnAlreadyExitedChild(t *testing.T) {
	s, _ := testServer(t)
	childPID := s.sysFork()
	child, _ := s.Registry.Get(childPID)
	childRoot, _ := child.RootTask()
	childRoot.Exit(s.Runtime, s.InitProc, 3)

	got := s.sysWaitPID(childPID, 0)
	if got != childPID {
		t.Fatalf("expected to reap child %d, got %d", childPID, got)
	}
}

func TestWaitPidWritesExitCodeToUserMemory(t *testing.T) {
	s, root := testServer(t)
	childPID := s.sysFork()
	child, _ := s.Registry.Get(childPID)
	childRoot, _ := child.RootTask()
	childRoot.Exit(s.Runtime, s.InitProc, 5)

	statusAddr := uint64(mem.VirtAddr(0x1000)) + 4
	if got := s.sysWaitPID(childPID, statusAddr); got != childPID {
		t.Fatalf("expected to reap child %d, got %d", childPID, got)
	}
	raw, err := root.Process().Space().TranslatedByteBuffers(mem.VirtAddr(statusAddr), 4)
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	if raw[0][0] != 5 {
		t.Fatalf("expected exit code 5 written back, got %d", raw[0][0])
	}
}

func TestOpenReadWriteCloseRoundTrip(t *testing.T) {
	s, root := testServer(t)
	pathAddr := writePathString(t, root.Process().Space(), "/greeting")
	s.RegisterFile("/greeting", fs.NewMemInode([]byte("hi")))

	fd := s.sysOpen(pathAddr, OpenReadOnly)
	if fd == errU64() {
		t.Fatal("expected open to succeed")
	}

	bufAddr := uint64(mem.VirtAddr(0x1000))
	n := s.sysRead(fd, bufAddr, 2)
	if n != 2 {
		t.Fatalf("expected to read 2 bytes, got %d", n)
	}
	got, err := root.Process().Space().TranslatedByteBuffers(mem.VirtAddr(bufAddr), 2)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got[0]) != "hi" {
		t.Fatalf("expected \"hi\", got %q", got[0])
	}

	if s.sysClose(fd) != 0 {
		t.Fatal("expected close to succeed")
	}
	if s.sysRead(fd, bufAddr, 2) != errU64() {
		t.Fatal("expected read on a closed fd to fail")
	}
}

func TestWriteRejectsAReadOnlyFD(t *testing.T) {
	s, root := testServer(t)
	pathAddr := writePathString(t, root.Process().Space(), "/greeting")
	s.RegisterFile("/greeting", fs.NewMemInode([]byte("hi")))
	fd := s.sysOpen(pathAddr, OpenReadOnly)

	if s.sysWrite(fd, uint64(mem.VirtAddr(0x1000)), 2) != errU64() {
		t.Fatal("expected write on a read-only fd to fail")
	}
}

func TestPipeWritesBothDescriptors(t *testing.T) {
	s, root := testServer(t)
	userFDAddr := uint64(mem.VirtAddr(0x1000))
	if s.sysPipe(userFDAddr) != 0 {
		t.Fatal("expected pipe to succeed")
	}
	raw, err := root.Process().Space().TranslatedByteBuffers(mem.VirtAddr(userFDAddr), 8)
	if err != nil {
		t.Fatalf("read fds: %v", err)
	}
	readFD := uint32(raw[0][0]) | uint32(raw[0][1])<<8 | uint32(raw[0][2])<<16 | uint32(raw[0][3])<<24
	writeFD := uint32(raw[0][4]) | uint32(raw[0][5])<<8 | uint32(raw[0][6])<<16 | uint32(raw[0][7])<<24
	if readFD == writeFD {
		t.Fatal("expected distinct read and write descriptors")
	}

	msg := []byte("ping")
	if err := root.Process().Space().AreaContaining(mem.VirtAddr(0x1000).VPN()).WriteBytes(0, msg); err != nil {
		t.Fatalf("stage message: %v", err)
	}
	if n := s.sysWrite(uint64(writeFD), uint64(mem.VirtAddr(0x1000)), uint64(len(msg))); n != uint64(len(msg)) {
		t.Fatalf("expected to write %d bytes, got %d", len(msg), n)
	}
	if n := s.sysRead(uint64(readFD), uint64(mem.VirtAddr(0x1000)), uint64(len(msg))); n != uint64(len(msg)) {
		t.Fatalf("expected to read %d bytes, got %d", len(msg), n)
	}
}

func TestMutexUncontendedLockUnlock(t *testing.T) {
	s, root := testServer(t)
	mid := root.Process().AllocMutex(true)
	if got := s.sysMutexLock(uint64(mid)); got != 0 {
		t.Fatalf("expected lock to succeed, got %d", got)
	}
	if got := s.sysMutexUnlock(uint64(mid)); got != 0 {
		t.Fatalf("expected unlock to succeed, got %d", got)
	}
	fp := s.Processor.(*fakeProcessor)
	if len(fp.blocked) != 0 {
		t.Fatal("expected an uncontended lock never to block")
	}
}

func TestMutexDoubleLockFails(t *testing.T) {
	s, root := testServer(t)
	mid := root.Process().AllocMutex(true)
	if got := s.sysMutexLock(uint64(mid)); got != 0 {
		t.Fatalf("expected first lock to succeed, got %d", got)
	}
	if got := s.sysMutexLock(uint64(mid)); got != errU64() {
		t.Fatalf("expected relocking the same mutex by its holder to fail, got %d", got)
	}
}

func TestSemaphoreUpDownRoundTrip(t *testing.T) {
	s, root := testServer(t)
	semID := root.Process().AllocSemaphore(true, 1)
	if got := s.sysSemaphoreDown(uint64(semID)); got != 0 {
		t.Fatalf("expected down to succeed, got %d", got)
	}
	if got := s.sysSemaphoreUp(uint64(semID)); got != 0 {
		t.Fatalf("expected up to succeed, got %d", got)
	}
}

func TestCondvarSignalWithNoWaitersIsANoOp(t *testing.T) {
	s, root := testServer(t)
	cvID := root.Process().AllocCondvar()
	if got := s.sysCondvarSignal(uint64(cvID)); got != 0 {
		t.Fatalf("expected signal to succeed, got %d", got)
	}
	fp := s.Processor.(*fakeProcessor)
	if len(fp.woken) != 0 {
		t.Fatal("expected signaling an empty condvar to wake nobody")
	}
}

func TestKillByPID(t *testing.T) {
	s, root := testServer(t)
	if got := s.sysKill(root.Process().PID(), uint64(signal.SignalUSR1)); got != 0 {
		t.Fatalf("expected kill to succeed, got %d", got)
	}
}

func TestKillRejectsAnOutOfRangeSignal(t *testing.T) {
	s, root := testServer(t)
	if got := s.sysKill(root.Process().PID(), uint64(signal.SignalUSR1)+1); got != errU64() {
		t.Fatalf("expected an out-of-range signal to fail, got %d", got)
	}
}

func TestSigProcMaskReturnsThePreviousMask(t *testing.T) {
	s, _ := testServer(t)
	if got := s.sysSigProcMask(0); got != 0 {
		t.Fatalf("expected the initial mask to be 0, got %d", got)
	}
}

func TestSigActionInstallsAHandler(t *testing.T) {
	s, root := testServer(t)
	if got := s.sysSigAction(uint64(signal.SignalUSR1), 0x4000, 0); got != 0 {
		t.Fatalf("expected sigaction to succeed, got %d", got)
	}
	action := root.Process().Signal().Action(signal.SignalUSR1)
	if action.HandlerVA != 0x4000 {
		t.Fatalf("expected the handler va to stick, got %#x", action.HandlerVA)
	}
}

func TestDispatchUnknownIDFails(t *testing.T) {
	s, _ := testServer(t)
	if got := s.Dispatch(0xffff, 0, 0, 0); got != errU64() {
		t.Fatalf("expected an unknown syscall id to fail, got %d", got)
	}
}

func TestDispatchRoutesGetPID(t *testing.T) {
	s, root := testServer(t)
	if got := s.Dispatch(SysGetPID, 0, 0, 0); got != root.Process().PID() {
		t.Fatalf("expected dispatch to route to getpid, got %d", got)
	}
}
