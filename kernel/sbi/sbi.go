// Package sbi wraps the SBI firmware interface spec.md names as an external
// collaborator: console get/put, the timer, and shutdown. The kernel only
// ever consumes these three narrow contracts, so they are modeled as
// interfaces (Console, Timer, Shutdowner) with a real ecall-backed
// implementation for the target board and a FakeFirmware double the rest of
// the kernel's tests drive instead of real hardware.
package sbi

// Console is the SBI legacy console extension.
type Console interface {
	// PutChar writes one byte to the console.
	PutChar(c byte)
	// GetChar returns the next pending byte, or ok=false if none is
	// available yet (the firmware's legacy console_getchar returns -1).
	GetChar() (c byte, ok bool)
}

// Timer is the SBI timer extension.
type Timer interface {
	// SetTimer arms the next supervisor timer interrupt for absTicks.
	SetTimer(absTicks uint64)
}

// Shutdowner is the SBI system-reset extension. Shutdown never returns.
type Shutdowner interface {
	Shutdown()
}

// Firmware bundles the three SBI contracts the kernel depends on.
type Firmware interface {
	Console
	Timer
	Shutdowner
}

const (
	legacyPutChar  = 1
	legacyGetChar  = 2
	legacySetTimer = 0
	legacyShutdown = 8
)
