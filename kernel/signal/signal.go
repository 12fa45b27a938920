// Package signal implements the UNIX-style signal mechanism (spec.md
// §4.10): a fixed signal enum, a per-process pending/masked/action table,
// and the return-to-user dispatch loop that turns pending signals into
// frozen/killed/handler-entry state transitions.
package signal

import "rvkernel/kernel/trap"

// Signal names a slot in the fixed signal enum. The numeric order is the
// order sys_kill and the return-to-user dispatch loop inspect signals in.
type Signal uint32

const (
	SignalDEF Signal = iota
	SignalINT
	SignalILL
	SignalABRT
	SignalFPE
	SignalSEGV
	SignalKILL
	SignalSTOP
	SignalCONT
	SignalUSR1
	signalCount
)

// IsBad reports whether s is one of the fault signals the trap dispatcher
// raises directly (SEGV, ILL, and friends), as opposed to a
// user-delivered one.
func (s Signal) IsBad() bool {
	switch s {
	case SignalINT, SignalILL, SignalABRT, SignalFPE, SignalSEGV:
		return true
	default:
		return false
	}
}

// Flags is a bitset over Signal, one bit per enum value.
type Flags uint32

func flagBit(s Signal) Flags { return 1 << uint32(s) }

func (f Flags) Contains(s Signal) bool { return f&flagBit(s) != 0 }
func (f Flags) Set(s Signal) Flags     { return f | flagBit(s) }
func (f Flags) Clear(s Signal) Flags   { return f &^ flagBit(s) }

// Valid reports whether m only sets bits within the defined signal range,
// the check sigprocmask/sigaction run against a raw user-supplied mask.
func (f Flags) Valid() bool {
	return f&^(Flags(1)<<uint32(signalCount)-1) == 0
}

// Action is the per-signal handler configuration (spec.md §4.10:
// actions[signal] = {handler_va, mask}).
type Action struct {
	HandlerVA uintptr
	Mask      Flags
}
