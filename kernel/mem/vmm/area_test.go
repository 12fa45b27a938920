package vmm

import (
	"bytes"
	"testing"

	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
)

func TestAreaFramedWriteReadRoundTrip(t *testing.T) {
	alloc := pmm.NewAllocator(0, 4096)
	pt, err := NewPageTable(0, alloc)
	if err != nil {
		t.Fatal(err)
	}
	ranges := NewRangeAllocator(0, 1<<20)

	start := mem.VPN(100)
	end := mem.VPN(103) // 3 pages, to exercise the cross-page path
	area, err := NewArea(pt, ranges, start, end, FlagRead|FlagWrite, Framed)
	if err != nil {
		t.Fatalf("new area: %v", err)
	}

	data := bytes.Repeat([]byte{0xAB, 0xCD}, mem.PageSize) // spans into page 2
	off := uint64(mem.PageSize) - 10
	if err := area.WriteBytes(off, data); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := area.ReadBytes(off, uint64(len(data)))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("read did not return the bytes written across the page boundary")
	}

	if err := area.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok := pt.Translate(start); ok {
		t.Fatal("expected pages to be unmapped after release")
	}
}

func TestAreaIdenticalRejectsReadWrite(t *testing.T) {
	alloc := pmm.NewAllocator(0, 4096)
	pt, err := NewPageTable(0, alloc)
	if err != nil {
		t.Fatal(err)
	}
	ranges := NewRangeAllocator(0, 1<<20)

	area, err := NewArea(pt, ranges, 0, 1, FlagRead|FlagWrite, Identical)
	if err != nil {
		t.Fatalf("new area: %v", err)
	}
	if err := area.WriteBytes(0, []byte{1}); err == nil {
		t.Fatal("expected write to an identity-mapped area to fail")
	}
	if _, err := area.ReadBytes(0, 1); err == nil {
		t.Fatal("expected read of an identity-mapped area to fail")
	}
	ppn, ok := pt.Translate(0)
	if !ok || ppn != 0 {
		t.Fatalf("expected vpn 0 to identity-map to ppn 0, got %d (ok=%v)", ppn, ok)
	}
}

func TestNewAreaRejectsOverlappingRange(t *testing.T) {
	alloc := pmm.NewAllocator(0, 4096)
	pt, err := NewPageTable(0, alloc)
	if err != nil {
		t.Fatal(err)
	}
	ranges := NewRangeAllocator(0, 1<<20)

	if _, err := NewArea(pt, ranges, 10, 20, FlagRead, Framed); err != nil {
		t.Fatal(err)
	}
	if _, err := NewArea(pt, ranges, 15, 25, FlagRead, Framed); err == nil {
		t.Fatal("expected overlapping area reservation to fail")
	}
}
