package sbi

import "rvkernel/kernel/cpu"

// EcallFirmware is the real SBI implementation: every call is an ecall trap
// into the firmware running at a higher privilege level.
type EcallFirmware struct{}

var _ Firmware = EcallFirmware{}

// PutChar implements Console.
func (EcallFirmware) PutChar(c byte) {
	cpu.Ecall(legacyPutChar, uintptr(c), 0, 0)
}

// GetChar implements Console. The legacy extension returns -1 (all bits
// set) when no byte is pending.
func (EcallFirmware) GetChar() (byte, bool) {
	ret, _ := cpu.Ecall(legacyGetChar, 0, 0, 0)
	if int(ret) == -1 {
		return 0, false
	}
	return byte(ret), true
}

// SetTimer implements Timer.
func (EcallFirmware) SetTimer(absTicks uint64) {
	cpu.Ecall(legacySetTimer, uintptr(absTicks), 0, 0)
}

// Shutdown implements Shutdowner. It does not return; the firmware resets
// the board.
func (EcallFirmware) Shutdown() {
	cpu.Ecall(legacyShutdown, 0, 0, 0)
	cpu.Halt()
}
