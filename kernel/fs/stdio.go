package fs

import (
	"sync"

	"rvkernel/kernel/kerr"
	"rvkernel/kernel/sbi"
)

// yieldFn mirrors fs/pipe's suspend-and-reschedule hook; stdin blocks on it
// while no byte is pending, matching original_source/src/fs/stdio.rs's
// "hold the console lock or yield" loop.
var yieldFn = func() {}

// SetYieldFn installs the scheduler's suspend-and-reschedule hook.
func SetYieldFn(f func()) { yieldFn = f }

// Stdin is the global readable File backed by the SBI console.
type Stdin struct {
	mu      sync.Mutex
	console sbi.Console
}

// NewStdin wraps console as the process-wide standard input.
func NewStdin(console sbi.Console) *Stdin { return &Stdin{console: console} }

func (*Stdin) Readable() bool { return true }
func (*Stdin) Writable() bool { return false }

// Read fills buf one byte at a time, yielding while no byte is pending. A
// NUL byte ends the read immediately without waiting for more input (spec
// §6's stdio note).
func (s *Stdin) Read(buf []byte) (int, *kerr.Error) {
	for i := range buf {
		var b byte
		for {
			s.mu.Lock()
			c, ok := s.console.GetChar()
			s.mu.Unlock()
			if ok {
				b = c
				break
			}
			yieldFn()
		}
		buf[i] = b
		if b == 0 {
			return i + 1, nil
		}
	}
	return len(buf), nil
}

// Write always fails: stdin is not writable.
func (*Stdin) Write([]byte) (int, *kerr.Error) {
	return 0, kerr.New(kerr.InvalidOpenFlags, "fs", "stdin is not writable")
}

// Stdout is the global writable File backed by the SBI console.
type Stdout struct {
	mu      sync.Mutex
	console sbi.Console
}

// NewStdout wraps console as the process-wide standard output.
func NewStdout(console sbi.Console) *Stdout { return &Stdout{console: console} }

func (*Stdout) Readable() bool { return false }
func (*Stdout) Writable() bool { return true }

// Read always fails: stdout is not readable.
func (*Stdout) Read([]byte) (int, *kerr.Error) {
	return 0, kerr.New(kerr.InvalidOpenFlags, "fs", "stdout is not readable")
}

// Write emits every byte of buf to the console under the stream's lock.
func (s *Stdout) Write(buf []byte) (int, *kerr.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range buf {
		s.console.PutChar(b)
	}
	return len(buf), nil
}
