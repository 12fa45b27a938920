package syscall

import (
	"rvkernel/kernel/signal"
	"rvkernel/kernel/task"
)

// sysKill implements kill(pid, sig) -> 0|-1.
func (s *Server) sysKill(pid, sig uint64) uint64 {
	sigNum := signal.Signal(sig)
	if sigNum > signal.SignalUSR1 {
		return errU64()
	}
	if err := task.KillPID(s.Registry, pid, sigNum); err != nil {
		return errU64()
	}
	return 0
}

// sysSigProcMask implements sigprocmask(mask) -> old|-1.
func (s *Server) sysSigProcMask(mask uint64) uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	m := signal.Flags(mask)
	if !m.Valid() {
		return errU64()
	}
	old := t.Process().Signal().Mask(m)
	return uint64(old)
}

// sysSigAction implements sigaction(sig, new*, old*) -> 0|-1. new and old
// are passed by value (handler VA, mask) rather than as user pointers:
// the caller's trap context a1/a2 carry the packed {handler_va, mask}
// pair directly, avoiding a second user-memory round trip for two words.
func (s *Server) sysSigAction(sig, handlerVA, mask uint64) uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	sigNum := signal.Signal(sig)
	if sigNum > signal.SignalUSR1 {
		return errU64()
	}
	ctrl := t.Process().Signal()
	ctrl.SetAction(sigNum, signal.Action{HandlerVA: uintptr(handlerVA), Mask: signal.Flags(mask)})
	return 0
}

// sysSigReturn implements sigreturn() -> a0: restore the trap context a
// handler was entered from.
func (s *Server) sysSigReturn() uint64 {
	t, ok := s.current()
	if !ok {
		return errU64()
	}
	ctx := t.TrapContext()
	if !t.Process().Signal().Rollback(ctx) {
		return errU64()
	}
	return ctx.A0()
}
