package pipe

import "testing"

func TestPipeWriteThenRead(t *testing.T) {
	r, w := New(4)
	n, err := w.Write([]byte("hi"))
	if err != nil || n != 2 {
		t.Fatalf("write: n=%d err=%v", n, err)
	}
	buf := make([]byte, 2)
	n, err = r.Read(buf)
	if err != nil || n != 2 || string(buf) != "hi" {
		t.Fatalf("read: n=%d err=%v buf=%q", n, err, buf)
	}
}

func TestPipeReadReturnsShortAfterWriterCloses(t *testing.T) {
	r, w := New(8)
	w.Write([]byte("ab"))
	w.Close()

	buf := make([]byte, 10)
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 2 || string(buf[:2]) != "ab" {
		t.Fatalf("expected short read of \"ab\", got n=%d buf=%q", n, buf[:n])
	}
}

func TestPipeWriteFailsAfterAllReadersClose(t *testing.T) {
	r, w := New(2)
	r.Close()

	// Fill the buffer so Write must check the reader count.
	w.Write([]byte("xy"))
	_, err := w.Write([]byte("z"))
	if err == nil {
		t.Fatal("expected write to a pipe with no readers to fail")
	}
}

func TestPipeForkSharesTheSameBuffer(t *testing.T) {
	r, w := New(4)
	w2 := w.Fork()
	w.Close()

	n, err := w2.Write([]byte("ok"))
	if err != nil || n != 2 {
		t.Fatalf("write via forked end: n=%d err=%v", n, err)
	}
	buf := make([]byte, 2)
	if n, err := r.Read(buf); err != nil || n != 2 {
		t.Fatalf("read: n=%d err=%v", n, err)
	}
}
