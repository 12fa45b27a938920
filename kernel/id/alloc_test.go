package id

import "testing"

func TestAllocExhaustionAndRecycle(t *testing.T) {
	a := NewAllocator(1)

	tr, err := a.Alloc()
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if tr.ID() != 0 {
		t.Fatalf("expected id 0, got %d", tr.ID())
	}
	if _, err := a.Alloc(); err == nil {
		t.Fatal("expected exhaustion")
	}

	tr.Release()
	tr2, err := a.Alloc()
	if err != nil {
		t.Fatalf("realloc after release: %v", err)
	}
	if tr2.ID() != 0 {
		t.Fatalf("expected recycled id 0, got %d", tr2.ID())
	}
	if _, err := a.Alloc(); err == nil {
		t.Fatal("expected exhaustion again")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	a := NewAllocator(4)
	tr, err := a.Alloc()
	if err != nil {
		t.Fatal(err)
	}
	tr.Release()
	tr.Release() // must not panic or double-insert into recycled
}
