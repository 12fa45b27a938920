package syscall

import "rvkernel/kernel/mem"

// sysGetPID implements getpid() -> pid.
func (s *Server) sysGetPID() uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	return t.Process().PID()
}

// sysGetTID implements gettid() -> tid.
func (s *Server) sysGetTID() uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	return t.TID()
}

// sysYield implements yield() -> 0: give up the rest of the time slice.
func (s *Server) sysYield() uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	s.Processor.Suspend(t.TID())
	return 0
}

// sysFork implements fork() -> child_pid|0. The parent sees the real
// child PID; the child's very first return from this same syscall (once
// scheduled) sees 0, the fork/exec convention spec.md §4.6 and every
// UNIX-descended kernel share. Distinguishing the two is done by patching
// the child's saved trap context's a0 before it is ever scheduled, since
// the child never actually executes this Go call itself.
func (s *Server) sysFork() uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	child, err := t.Fork(s.Runtime, s.PIDs)
	if err != nil {
		return errU64()
	}
	s.Registry.Register(child)

	childRoot, _ := child.RootTask()
	childRoot.TrapContext().SetA0(0)

	s.Scheduler.PutReady(childRoot)
	return child.PID()
}

// usizeBytes is the width of one RISC-V usize, the unit exec's
// ARGS_LIMIT bound counts two of (the length-prefix words it would push
// alongside path and args onto the new user stack).
const usizeBytes = 8

// sysExec implements exec(path*, args*) -> argc|-1. args is read only to
// enforce the oversize-arguments bound; pushing a real argv onto the new
// user stack needs a fixed calling convention this kernel's minimal libc
// stand-in does not define, so every exec'd program still starts with
// argc=0.
func (s *Server) sysExec(pathAddr, argsAddr uint64) uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	space := t.Process().Space()
	path, perr := space.TranslatedString(mem.VirtAddr(pathAddr))
	if perr != nil {
		return errU64()
	}
	var args string
	if argsAddr != 0 {
		a, perr := space.TranslatedString(mem.VirtAddr(argsAddr))
		if perr != nil {
			return errU64()
		}
		args = a
	}
	if uint64(len(path)+len(args)) > mem.ArgsLimit-2*usizeBytes {
		return errU64()
	}
	img, ok := s.program(path)
	if !ok {
		return errU64()
	}
	if err := t.Exec(s.Runtime, path, img); err != nil {
		return errU64()
	}
	return 0
}

// sysWaitPID implements waitpid(pid, status*) -> pid|-1|-2, writing the
// reaped child's exit code to the user int at statusAddr when it exists.
func (s *Server) sysWaitPID(pid, statusAddr uint64) uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	result, exitCode := t.Process().WaitPid(s.Registry, int64(pid))
	if result < 0 {
		return uint64(result)
	}
	if statusAddr != 0 {
		var buf [4]byte
		putU32(buf[:], uint32(exitCode))
		if err := copyOut(t.Process().Space(), statusAddr, buf[:]); err != nil {
			return errU64()
		}
	}
	return uint64(result)
}

// sysExit implements exit(code) -> !: it never returns to the caller,
// since ExitCurrent switches the hart away from the exiting task for
// good before Dispatch's caller would otherwise write a result back.
func (s *Server) sysExit(code uint64) uint64 {
	if err := s.Processor.ExitCurrent(s.Runtime, s.InitProc, int32(code)); err != nil {
		panic(err)
	}
	panic("unreachable: ExitCurrent switched away from the exiting task")
}
