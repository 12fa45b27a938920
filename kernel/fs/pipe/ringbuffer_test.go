package pipe

import "testing"

func TestRingBufferWrapsAround(t *testing.T) {
	r := newRingBuffer(3)
	for _, b := range []byte{1, 2, 3} {
		if !r.writeByte(b) {
			t.Fatalf("expected write of %d to succeed", b)
		}
	}
	if r.writeByte(4) {
		t.Fatal("expected write to a full buffer to fail")
	}
	if b, ok := r.readByte(); !ok || b != 1 {
		t.Fatalf("expected to read 1 first, got %d (ok=%v)", b, ok)
	}
	if !r.writeByte(4) {
		t.Fatal("expected write after a read to free a slot to succeed")
	}
	for _, want := range []byte{2, 3, 4} {
		b, ok := r.readByte()
		if !ok || b != want {
			t.Fatalf("expected %d, got %d (ok=%v)", want, b, ok)
		}
	}
	if _, ok := r.readByte(); ok {
		t.Fatal("expected read of an empty buffer to fail")
	}
}
