package vmm

import (
	"testing"

	"rvkernel/kernel/kerr"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
)

func newTestAllocator(t *testing.T) *pmm.Allocator {
	t.Helper()
	return pmm.NewAllocator(0, 4096)
}

func TestMapWriteTranslateUnmapRoundTrip(t *testing.T) {
	alloc := newTestAllocator(t)
	pt, err := NewPageTable(0, alloc)
	if err != nil {
		t.Fatal(err)
	}

	vpn := mem.VPN(0x12345)
	if err := pt.Map(vpn, FlagRead|FlagWrite|FlagUser); err != nil {
		t.Fatalf("map: %v", err)
	}

	b := pt.FrameBytes(vpn)
	b[10] = 0xAA

	ppn, ok := pt.Translate(vpn)
	if !ok {
		t.Fatal("expected translate to succeed")
	}
	if pt.FrameBytes(vpn)[10] != 0xAA {
		t.Fatal("expected written byte to persist")
	}
	_ = ppn

	if err := pt.Unmap(vpn); err != nil {
		t.Fatalf("unmap: %v", err)
	}
	if _, ok := pt.Translate(vpn); ok {
		t.Fatal("expected translate to fail after unmap")
	}

	// Re-map: the freshly allocated frame must be zeroed.
	if err := pt.Map(vpn, FlagRead|FlagWrite|FlagUser); err != nil {
		t.Fatalf("remap: %v", err)
	}
	if pt.FrameBytes(vpn)[10] != 0 {
		t.Fatal("expected remap to return a zero-filled frame")
	}
}

func TestMapWithoutAllocThenUnmapWithoutDealloc(t *testing.T) {
	alloc := newTestAllocator(t)
	pt, err := NewPageTable(0, alloc)
	if err != nil {
		t.Fatal(err)
	}

	frame, err := alloc.Alloc()
	if err != nil {
		t.Fatal(err)
	}
	vpn := mem.VPN(7)

	if err := pt.MapWithoutAlloc(vpn, frame.PPN(), FlagRead|FlagWrite); err != nil {
		t.Fatalf("map_without_alloc: %v", err)
	}
	got, ok := pt.Translate(vpn)
	if !ok || got != frame.PPN() {
		t.Fatalf("expected translate to return %d, got %d (ok=%v)", frame.PPN(), got, ok)
	}

	ppn, err := pt.UnmapWithoutDealloc(vpn)
	if err != nil {
		t.Fatalf("unmap_without_dealloc: %v", err)
	}
	if ppn != frame.PPN() {
		t.Fatalf("expected unmapped ppn %d, got %d", frame.PPN(), ppn)
	}
	if _, ok := pt.Translate(vpn); ok {
		t.Fatal("expected translate to fail after unmap")
	}
	frame.Release()
}

func TestMapRejectsDoubleMapping(t *testing.T) {
	alloc := newTestAllocator(t)
	pt, err := NewPageTable(0, alloc)
	if err != nil {
		t.Fatal(err)
	}
	vpn := mem.VPN(42)
	if err := pt.Map(vpn, FlagRead); err != nil {
		t.Fatal(err)
	}
	if err := pt.Map(vpn, FlagRead); err == nil || err.Kind != kerr.VPNAlreadyMapped {
		t.Fatalf("expected VPNAlreadyMapped, got %v", err)
	}
}

func TestUnmapRejectsUnmappedVPN(t *testing.T) {
	alloc := newTestAllocator(t)
	pt, err := NewPageTable(0, alloc)
	if err != nil {
		t.Fatal(err)
	}
	if err := pt.Unmap(mem.VPN(1)); err == nil || err.Kind != kerr.VPNNotMapped {
		t.Fatalf("expected VPNNotMapped, got %v", err)
	}
}

func TestInteriorMapperCollapsesWhenEmpty(t *testing.T) {
	alloc := newTestAllocator(t)
	pt, err := NewPageTable(0, alloc)
	if err != nil {
		t.Fatal(err)
	}
	vpn := mem.VPN(0x30201)
	if err := pt.Map(vpn, FlagRead); err != nil {
		t.Fatal(err)
	}
	if len(pt.mappers) == 0 {
		t.Fatal("expected interior mappers to have been created")
	}
	if err := pt.Unmap(vpn); err != nil {
		t.Fatal(err)
	}
	if len(pt.mappers) != 0 {
		t.Fatalf("expected all interior mappers to collapse, got %d remaining", len(pt.mappers))
	}
}
