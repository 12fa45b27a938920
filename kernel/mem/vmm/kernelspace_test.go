package vmm

import (
	"testing"

	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
)

type fakeLayout struct {
	text, rodata, data, bss [2]mem.VirtAddr
	trampolinePPN           mem.PPN
	memoryEnd               mem.VirtAddr
}

func (f fakeLayout) TextRange() (mem.VirtAddr, mem.VirtAddr)   { return f.text[0], f.text[1] }
func (f fakeLayout) RodataRange() (mem.VirtAddr, mem.VirtAddr) { return f.rodata[0], f.rodata[1] }
func (f fakeLayout) DataRange() (mem.VirtAddr, mem.VirtAddr)   { return f.data[0], f.data[1] }
func (f fakeLayout) BSSRange() (mem.VirtAddr, mem.VirtAddr)    { return f.bss[0], f.bss[1] }
func (f fakeLayout) TrampolinePPN() mem.PPN                    { return f.trampolinePPN }
func (f fakeLayout) MemoryEnd() mem.VirtAddr                   { return f.memoryEnd }

func TestKernelStackRangePacksDownwardWithGuardPages(t *testing.T) {
	s0, e0 := KernelStackRange(0)
	s1, e1 := KernelStackRange(1)

	if e0 != TrampolineVPN() {
		t.Fatalf("expected stack 0 to end right below the trampoline, got %d vs %d", e0, TrampolineVPN())
	}
	if e0-s0 != mem.KernelStackSize/mem.PageSize {
		t.Fatalf("unexpected stack 0 page count: %d", e0-s0)
	}
	// A guard page must separate stack 1's top from stack 0's bottom.
	if s0-e1 != mem.GuardPageSize/mem.PageSize {
		t.Fatalf("expected exactly one guard page between stacks, got gap %d", s0-e1)
	}
}

func TestTrapContextVPNPacksDownwardFromBase(t *testing.T) {
	v0 := TrapContextVPN(0)
	v1 := TrapContextVPN(1)
	if v0-v1 != 1 {
		t.Fatalf("expected consecutive TIDs to occupy consecutive pages, got %d and %d", v0, v1)
	}
	if v0 >= TrampolineVPN() {
		t.Fatal("expected trap context pages to sit below the trampoline")
	}
}

func TestNewKernelSpaceMapsSectionsAndTrampoline(t *testing.T) {
	alloc := pmm.NewAllocator(0, 4096)
	layout := fakeLayout{
		text:          [2]mem.VirtAddr{0x1000, 0x2000},
		rodata:        [2]mem.VirtAddr{0x2000, 0x3000},
		data:          [2]mem.VirtAddr{0x3000, 0x4000},
		bss:           [2]mem.VirtAddr{0x4000, 0x5000},
		trampolinePPN: mem.PPN(7),
		memoryEnd:     0x10000,
	}
	space, err := NewKernelSpace(alloc, layout, []MMIOWindow{{Start: 0x20000, End: 0x20200}})
	if err != nil {
		t.Fatalf("new kernel space: %v", err)
	}

	textVPN := mem.VirtAddr(0x1000).VPN()
	if _, ok := space.PageTable().Translate(textVPN); !ok {
		t.Fatal("expected .text to be identity-mapped")
	}
	ramVPN := mem.VirtAddr(0x6000).VPN()
	if ppn, ok := space.PageTable().Translate(ramVPN); !ok || ppn != mem.PPN(ramVPN) {
		t.Fatal("expected remaining RAM to be identity-mapped")
	}
	if ppn, ok := space.PageTable().Translate(TrampolineVPN()); !ok || ppn != layout.trampolinePPN {
		t.Fatalf("expected trampoline to be mapped to ppn %d, got %d (ok=%v)", layout.trampolinePPN, ppn, ok)
	}
}
