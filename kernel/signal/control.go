package signal

import (
	"rvkernel/kernel/kerr"
	"rvkernel/kernel/trap"
)

const module = "signal"

// ControlBlock is the per-process signal state (spec.md §4.10). Each
// process owns exactly one.
type ControlBlock struct {
	setted   Flags
	masked   Flags
	actions  [signalCount]Action
	handling *Signal
	backup   *trap.TrapContext
	killed   bool
	frozen   bool
}

// New returns an empty control block: nothing pending, nothing masked,
// every action defaulted to {0, 0}.
func New() *ControlBlock {
	return &ControlBlock{}
}

// IsPending implements is_pending(s) = setted[s] ∧ ¬masked[s] ∧
// (handling=None ∨ ¬actions[handling].mask[s]) (spec.md §4.10).
func (c *ControlBlock) IsPending(s Signal) bool {
	if !c.setted.Contains(s) || c.masked.Contains(s) {
		return false
	}
	if c.handling == nil {
		return true
	}
	return !c.actions[*c.handling].Mask.Contains(s)
}

// TryKill sets s pending, rejecting a signal that is already pending.
func (c *ControlBlock) TryKill(s Signal) *kerr.Error {
	if c.setted.Contains(s) {
		return kerr.New(kerr.DuplicateSignal, module, "signal already pending")
	}
	c.setted = c.setted.Set(s)
	return nil
}

// Mask replaces the blocked set, returning the previous one (sigprocmask).
func (c *ControlBlock) Mask(masking Flags) Flags {
	old := c.masked
	c.masked = masking
	return old
}

// Action returns the handler configuration for s (sigaction's old*).
func (c *ControlBlock) Action(s Signal) Action {
	return c.actions[s]
}

// SetAction installs a's handler configuration for s (sigaction's new*).
func (c *ControlBlock) SetAction(s Signal, a Action) {
	c.actions[s] = a
}

// IsKilled reports whether the process has been marked for termination.
func (c *ControlBlock) IsKilled() bool { return c.killed }

// IsFrozen reports whether the process is stopped pending a CONT.
func (c *ControlBlock) IsFrozen() bool { return c.frozen }

// Handling returns the signal currently being handled, if any.
func (c *ControlBlock) Handling() (Signal, bool) {
	if c.handling == nil {
		return 0, false
	}
	return *c.handling, true
}

// Dispatch runs the return-to-user signal loop (spec.md §4.10): inspect
// every signal in numeric order, act on the ones that are pending. ctx is
// the task's live trap context, mutated in place when a handler is
// entered. Dispatch itself never loops on frozen; ShouldYieldWhileFrozen
// tells the caller (kernel/sched) when to do that outside this call.
func (c *ControlBlock) Dispatch(ctx *trap.TrapContext) {
	for s := Signal(0); s < signalCount; s++ {
		if !c.IsPending(s) {
			continue
		}
		switch s {
		case SignalSTOP:
			c.setted = c.setted.Clear(SignalSTOP)
			c.frozen = true
		case SignalCONT:
			c.setted = c.setted.Clear(SignalCONT)
			c.frozen = false
		case SignalKILL, SignalDEF:
			c.killed = true
		default:
			a := c.actions[s]
			if a.HandlerVA == 0 {
				c.setted = c.setted.Clear(s)
				continue
			}
			backup := *ctx
			c.backup = &backup
			h := s
			c.handling = &h
			ctx.Sepc = uint64(a.HandlerVA)
			ctx.SetA0(uint64(s))
		}
	}
}

// ShouldYieldWhileFrozen reports whether the caller should yield and
// re-run Dispatch rather than returning to user mode (spec.md §4.10:
// "after handling, if frozen ∧ ¬killed, yield and repeat").
func (c *ControlBlock) ShouldYieldWhileFrozen() bool {
	return c.frozen && !c.killed
}

// Rollback implements sys_sigreturn: pop the backed-up trap context and
// clear the handling signal, restoring ctx in place. Returns false if no
// signal was being handled.
func (c *ControlBlock) Rollback(ctx *trap.TrapContext) bool {
	if c.handling == nil || c.backup == nil {
		return false
	}
	s := *c.handling
	*ctx = *c.backup
	c.setted = c.setted.Clear(s)
	c.handling = nil
	c.backup = nil
	return true
}

// BadSignal returns the first fault signal pending on the block, the
// value trap.Hooks.RaiseSignal ultimately feeds in via RaiseBad.
func (c *ControlBlock) BadSignal() (Signal, bool) {
	for _, s := range []Signal{SignalINT, SignalILL, SignalABRT, SignalFPE, SignalSEGV} {
		if c.setted.Contains(s) {
			return s, true
		}
	}
	return 0, false
}

// RaiseBad sets a trap-raised bad signal (SEGV/ILL) pending, ignoring a
// duplicate rather than surfacing an error: the trap path has no
// sensible way to report sigaction-style failures back to the faulting
// instruction.
func (c *ControlBlock) RaiseBad(bad trap.BadSignal) {
	var s Signal
	switch bad {
	case trap.BadSignalSEGV:
		s = SignalSEGV
	case trap.BadSignalILL:
		s = SignalILL
	default:
		return
	}
	c.setted = c.setted.Set(s)
}
