package pipe

import (
	"sync"

	"rvkernel/kernel/kerr"
)

// yieldFn is called whenever a Read or Write end fails to acquire the
// buffer lock, or finds the buffer temporarily empty/full: it suspends the
// current task and returns control to the scheduler, the same
// try-lock-or-yield protocol original_source/src/fs/pipe.rs runs against
// Arc<Mutex<RingBuffer>>::try_lock. Overridden by kernel/sched at boot;
// left as a no-op for callers (and tests) that never block.
var yieldFn = func() {}

// SetYieldFn installs the scheduler's suspend-and-reschedule hook.
func SetYieldFn(f func()) { yieldFn = f }

// core is the ring buffer shared between one pipe's read and write ends,
// with explicit strong/weak-style reference counts rather than a garbage
// collector: readers holds the count of live ReadEnd handles, writers the
// count of live WriteEnd handles. Read is the "strong" side (spec.md: a
// writer may still drain data after the last writer closes); Write is the
// "weak" side (a write after the last reader closes fails instead of
// blocking forever).
type core struct {
	mu      sync.Mutex
	ring    *ringBuffer
	readers int
	writers int
}

// ReadEnd is the readable handle onto a pipe.
type ReadEnd struct{ c *core }

// WriteEnd is the writable handle onto a pipe.
type WriteEnd struct{ c *core }

// New creates a pipe with the given ring-buffer capacity and returns its
// initial read and write ends.
func New(capacity int) (*ReadEnd, *WriteEnd) {
	c := &core{ring: newRingBuffer(capacity), readers: 1, writers: 1}
	return &ReadEnd{c: c}, &WriteEnd{c: c}
}

// Fork returns another handle onto the same pipe, incrementing the reader
// count (e.g. for fork(), which duplicates the whole descriptor table).
func (r *ReadEnd) Fork() *ReadEnd {
	r.c.mu.Lock()
	r.c.readers++
	r.c.mu.Unlock()
	return &ReadEnd{c: r.c}
}

// Close releases this handle's share of the reader count.
func (r *ReadEnd) Close() {
	r.c.mu.Lock()
	r.c.readers--
	r.c.mu.Unlock()
}

// Fork returns another handle onto the same pipe, incrementing the writer
// count.
func (w *WriteEnd) Fork() *WriteEnd {
	w.c.mu.Lock()
	w.c.writers++
	w.c.mu.Unlock()
	return &WriteEnd{c: w.c}
}

// Close releases this handle's share of the writer count.
func (w *WriteEnd) Close() {
	w.c.mu.Lock()
	w.c.writers--
	w.c.mu.Unlock()
}

func (*ReadEnd) Readable() bool  { return true }
func (*ReadEnd) Writable() bool  { return false }
func (*WriteEnd) Readable() bool { return false }
func (*WriteEnd) Writable() bool { return true }

// Read drains up to len(buf) bytes, blocking (via yieldFn) while the
// buffer is empty and at least one writer remains open. Returns fewer
// bytes than requested, possibly zero, once every writer has closed.
func (r *ReadEnd) Read(buf []byte) (int, *kerr.Error) {
	want := len(buf)
	if want == 0 {
		return 0, nil
	}
	read := 0
	for read < want {
		r.c.mu.Lock()
		n := r.c.ring.len()
		if n == 0 {
			writersLeft := r.c.writers
			r.c.mu.Unlock()
			if writersLeft == 0 {
				return read, nil
			}
			yieldFn()
			continue
		}
		take := want - read
		if n < take {
			take = n
		}
		for i := 0; i < take; i++ {
			b, ok := r.c.ring.readByte()
			if !ok {
				panic("ring buffer reported bytes but readByte failed")
			}
			buf[read] = b
			read++
		}
		r.c.mu.Unlock()
		yieldFn()
	}
	return read, nil
}

// Write is a no-op placeholder satisfying the File interface for a
// read-only pipe end; calling it is a programming error.
func (r *ReadEnd) Write([]byte) (int, *kerr.Error) {
	return 0, kerr.New(kerr.InvalidOpenFlags, "pipe", "cannot write to a read end")
}

// Read is a no-op placeholder for a write-only pipe end.
func (w *WriteEnd) Read([]byte) (int, *kerr.Error) {
	return 0, kerr.New(kerr.InvalidOpenFlags, "pipe", "cannot read from a write end")
}

// Write pushes len(data) bytes into the buffer, blocking (via yieldFn)
// while it is full and at least one reader remains open. Fails with EOB
// once every reader has closed and data remains unwritten (a broken pipe).
func (w *WriteEnd) Write(data []byte) (int, *kerr.Error) {
	want := len(data)
	if want == 0 {
		return 0, nil
	}
	written := 0
	for written < want {
		w.c.mu.Lock()
		free := w.c.ring.capacity() - w.c.ring.len()
		if free == 0 {
			readersLeft := w.c.readers
			w.c.mu.Unlock()
			if readersLeft == 0 {
				return written, kerr.New(kerr.EOB, "pipe", "write end has no readers left")
			}
			yieldFn()
			continue
		}
		put := want - written
		if free < put {
			put = free
		}
		for i := 0; i < put; i++ {
			if !w.c.ring.writeByte(data[written]) {
				panic("ring buffer reported free space but writeByte failed")
			}
			written++
		}
		w.c.mu.Unlock()
		yieldFn()
	}
	return written, nil
}
