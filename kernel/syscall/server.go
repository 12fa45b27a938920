package syscall

import (
	stdsync "sync"

	"rvkernel/kernel/elf"
	"rvkernel/kernel/fs"
	"rvkernel/kernel/id"
	"rvkernel/kernel/kerr"
	"rvkernel/kernel/sbi"
	"rvkernel/kernel/sched"
	"rvkernel/kernel/task"
)

// processor is the slice of kernel/sched.Processor's behavior syscall
// handlers need: which task is presently on the hart, and the four ways
// one stops being current (yield, block, sleep, exit). kernel/sched's
// *Processor provides the real implementation, built on a real context
// switch and therefore riscv64-only; tests drive these handlers with a
// fake so this package itself stays host-buildable and host-testable.
type processor interface {
	Current() (*task.TCB, bool)
	Suspend(taskID uint64)
	Block(taskID uint64)
	Wake(taskID uint64)
	SleepCurrent(taskID uint64, nowUs, delayUs uint64)
	ExitCurrent(rt *task.Runtime, initProc *task.PCB, exitCode int32) *kerr.Error
}

// Server bundles everything a syscall handler needs to reach: the
// scheduler and processor, the boot-time Runtime, the cross-process PID
// registry, the init process (every orphan reparents onto it), a PID
// allocator shared by fork and initial process creation, the SBI console
// (for gettimeofday), and the two narrow stand-ins for the block-device
// filesystem and ELF loader that are out of scope to implement fully:
// an in-memory path table and a named-program registry.
type Server struct {
	Scheduler *sched.Scheduler
	Processor processor
	Runtime   *task.Runtime
	Registry  *task.Registry
	PIDs      *id.Allocator
	Clock     sbi.Timer
	Console   sbi.Console

	// NowUs reports the current wall-clock microsecond count (spec.md
	// §4.8's get_timer_us). Wired to cpu.ReadTime-based conversion by
	// cmd/kernel on the real target; tests inject a fake so this package
	// stays free of cpu's riscv64-only primitives.
	NowUs func() uint64

	InitProc *task.PCB

	mu       stdsync.Mutex
	programs map[string]*elf.Image
	files    map[string]fs.Inode
}

// NewServer wires a Server around already-constructed boot dependencies.
func NewServer(rt *task.Runtime, s *sched.Scheduler, p processor, reg *task.Registry, pids *id.Allocator, console sbi.Console, nowUs func() uint64) *Server {
	return &Server{
		Scheduler: s,
		Processor: p,
		Runtime:   rt,
		Registry:  reg,
		PIDs:      pids,
		Console:   console,
		NowUs:     nowUs,
		programs:  make(map[string]*elf.Image),
		files:     make(map[string]fs.Inode),
	}
}

// RegisterProgram makes img available to exec/fork-then-exec by path,
// standing in for the out-of-scope filesystem's ELF lookup.
func (s *Server) RegisterProgram(path string, img *elf.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programs[path] = img
}

func (s *Server) program(path string) (*elf.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.programs[path]
	return img, ok
}

// RegisterFile installs inode at path in the in-memory file table, the
// concrete stand-in open() resolves against.
func (s *Server) RegisterFile(path string, inode fs.Inode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = inode
}

func (s *Server) file(path string) (fs.Inode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inode, ok := s.files[path]
	return inode, ok
}

// current returns the task presently running, or (nil, false) if none
// (a dispatch bug: every syscall runs from a trap on a current task).
func (s *Server) current() (*task.TCB, bool) {
	return s.Processor.Current()
}
