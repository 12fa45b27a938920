package sbi

// FakeFirmware is an in-memory Firmware double for host-run tests: a byte
// queue stands in for the console, SetTimer just records its argument, and
// Shutdown sets a flag instead of halting the process.
type FakeFirmware struct {
	In          []byte // bytes GetChar will return, in order
	Out         []byte // bytes PutChar has written
	LastTimer   uint64
	ShutdownHit bool
}

var _ Firmware = (*FakeFirmware)(nil)

// PutChar implements Console.
func (f *FakeFirmware) PutChar(c byte) {
	f.Out = append(f.Out, c)
}

// GetChar implements Console, consuming from In.
func (f *FakeFirmware) GetChar() (byte, bool) {
	if len(f.In) == 0 {
		return 0, false
	}
	c := f.In[0]
	f.In = f.In[1:]
	return c, true
}

// SetTimer implements Timer.
func (f *FakeFirmware) SetTimer(absTicks uint64) {
	f.LastTimer = absTicks
}

// Shutdown implements Shutdowner.
func (f *FakeFirmware) Shutdown() {
	f.ShutdownHit = true
}
