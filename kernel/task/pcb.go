package task

import (
	"sync"

	"rvkernel/kernel/elf"
	"rvkernel/kernel/fs"
	"rvkernel/kernel/id"
	"rvkernel/kernel/kerr"
	"rvkernel/kernel/mem/vmm"
	"rvkernel/kernel/signal"
	ksync "rvkernel/kernel/sync"
)

const module = "task"

// maxTIDsPerProcess bounds a single process's thread count the way
// spec.md's MAX_TID_COUNT configuration constant does.
const maxTIDsPerProcess = 1 << 16

// PCB is a process control block (spec.md §4's PCB: PID tracker, TID
// allocator, path/entry_point/base_size, Space, parent (weak), children,
// exit_code, fd_table, mutex/semaphore/condvar tables, signal block,
// tasks map TID→TCB).
type PCB struct {
	pid *id.Tracker
	rt  *Runtime

	mu sync.Mutex

	path       string
	entryPoint uintptr
	baseSize   uint64
	space      *vmm.Space

	parent   *PCB
	children map[uint64]*PCB

	zombie      bool
	exitCode    int32
	hasExitCode bool

	fdTable        []fs.File
	mutexTable     []ksync.Mutex
	semaphoreTable []ksync.Semaphore
	condvarTable   []ksync.Condvar

	signal *signal.ControlBlock

	tidAlloc *id.Allocator
	tasks    map[uint64]*TCB
}

// PID returns the process's unique identifier.
func (p *PCB) PID() uint64 { return p.pid.ID() }

// Space returns the process's address space.
func (p *PCB) Space() *vmm.Space {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.space
}

// UserToken returns the SATP value that activates this process's space.
func (p *PCB) UserToken() uint64 { return p.Space().Token() }

// Signal returns the process's signal control block.
func (p *PCB) Signal() *signal.ControlBlock { return p.signal }

// IsZombie reports whether the process has exited and is pending reaping.
func (p *PCB) IsZombie() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.zombie
}

// ExitCode returns the process's exit code, valid only once IsZombie.
func (p *PCB) ExitCode() (int32, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode, p.hasExitCode
}

// RootTask returns the process's first (tid 0) task, the only task
// allowed to Fork or Exec (spec.md: "only the root task is allowed to
// call this method").
func (p *PCB) RootTask() (*TCB, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tasks[0]
	return t, ok
}

// Task returns the task with the given TID, if alive.
func (p *PCB) Task(tid uint64) (*TCB, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tasks[tid]
	return t, ok
}

// TaskCount returns the number of live tasks in the process.
func (p *PCB) TaskCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

// File returns the file open at fd, or nil if fd is unopened.
func (p *PCB) File(fd int) fs.File {
	p.mu.Lock()
	defer p.mu.Unlock()
	if fd < 0 || fd >= len(p.fdTable) {
		return nil
	}
	return p.fdTable[fd]
}

// AllocFD installs file at the lowest free descriptor slot, returning it.
func (p *PCB) AllocFD(file fs.File) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, f := range p.fdTable {
		if f == nil {
			p.fdTable[i] = file
			return i
		}
	}
	p.fdTable = append(p.fdTable, file)
	return len(p.fdTable) - 1
}

// DeallocFD closes fd, returning kerr.FDNotExists if it wasn't open.
func (p *PCB) DeallocFD(fd int) *kerr.Error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if fd < 0 || fd >= len(p.fdTable) || p.fdTable[fd] == nil {
		return kerr.New(kerr.FileDescriptorDoesNotExist, module, "fd not open")
	}
	p.fdTable[fd] = nil
	return nil
}

// NewProcess builds a fresh process from an ELF image: allocates a PID,
// a user address space, and the root task (spec.md §4.3's process
// construction; §4.9's ELF loading contract). kernel/sched and cmd/kernel
// use this to spawn the init process; PCB.Fork builds every later one.
func NewProcess(rt *Runtime, pids *id.Allocator, path string, img *elf.Image, parent *PCB, stdio []fs.File) (*PCB, *kerr.Error) {
	pidTracker, err := pids.Alloc()
	if err != nil {
		return nil, err
	}
	pid := pidTracker.ID()

	space, entry, userSPTop, baseSize, err := buildUserSpace(uint16(pid), rt.FrameAlloc, rt.TrampolinePPN, img, 0)
	if err != nil {
		return nil, err
	}

	p := &PCB{
		pid:        pidTracker,
		rt:         rt,
		path:       path,
		entryPoint: uintptr(entry),
		baseSize:   baseSize,
		space:      space,
		parent:     parent,
		children:   make(map[uint64]*PCB),
		fdTable:    append([]fs.File(nil), stdio...),
		signal:     signal.New(),
		tidAlloc:   id.NewAllocator(maxTIDsPerProcess),
		tasks:      make(map[uint64]*TCB),
	}

	tidTracker, err := p.tidAlloc.Alloc()
	if err != nil {
		return nil, err
	}
	if tidTracker.ID() != 0 {
		panic("first task id must be 0")
	}
	root, err := newTCB(rt, p, tidTracker, entry, userSPTop)
	if err != nil {
		return nil, err
	}
	p.tasks[0] = root

	return p, nil
}
