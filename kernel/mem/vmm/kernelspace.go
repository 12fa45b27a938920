package vmm

import (
	"rvkernel/kernel/kerr"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
)

// LinkerLayout is the external collaborator contract for the addresses the
// linker script fixes: kernel section boundaries, the trampoline's physical
// location, and the top of installed RAM. Producing these values is out of
// scope here (spec.md names the linker-script symbols as an external
// collaborator); NewKernelSpace only consumes them.
type LinkerLayout interface {
	TextRange() (mem.VirtAddr, mem.VirtAddr)
	RodataRange() (mem.VirtAddr, mem.VirtAddr)
	DataRange() (mem.VirtAddr, mem.VirtAddr)
	BSSRange() (mem.VirtAddr, mem.VirtAddr)
	// TrampolinePPN is the physical frame holding the trampoline code,
	// identity-adjacent to the kernel image but mapped at the fixed
	// maximum VPN in every address space.
	TrampolinePPN() mem.PPN
	// MemoryEnd is the first address past the end of installed RAM.
	MemoryEnd() mem.VirtAddr
}

// MMIOWindow is one memory-mapped I/O range to identity-map RW into the
// kernel space.
type MMIOWindow struct {
	Start, End mem.VirtAddr
}

// TrampolineVPN is the fixed VPN every address space maps the trampoline
// page at (spec.md §4.4, §4.7).
func TrampolineVPN() mem.VPN {
	return mem.VirtAddr(mem.TrampolineVA).VPN()
}

// MapTrampoline installs the trampoline mapping shared by every address
// space: RX, not U, at TrampolineVPN.
func MapTrampoline(s *Space, trampolinePPN mem.PPN) *kerr.Error {
	return s.MapFixed(TrampolineVPN(), trampolinePPN, FlagRead|FlagExec)
}

// KernelStackRange returns the VPN interval reserved for the kernel stack of
// kernel-stack-id kid: stacks are packed downward from just below the
// trampoline page, one guard page between consecutive stacks (spec.md
// §4.4's per-task kernel stack layout).
func KernelStackRange(kid uint64) (start, end mem.VPN) {
	slot := mem.KernelStackSize + mem.GuardPageSize
	top := mem.VirtAddr(mem.TrampolineVA) - mem.VirtAddr(kid*uint64(slot))
	bottom := top - mem.VirtAddr(mem.KernelStackSize)
	return mem.CeilVPN(bottom), mem.CeilVPN(top)
}

// TrapContextVPN returns the VPN of the per-TID trap-context page, packed
// downward from a fixed base just below the trampoline (spec.md §4.4).
func TrapContextVPN(tid uint64) mem.VPN {
	base := mem.VirtAddr(mem.TrapContextBaseVA)
	va := base - mem.VirtAddr(tid*uint64(mem.PageSize))
	return va.VPN()
}

// NewKernelSpace builds the singleton high-half kernel space: linker
// sections and MMIO windows identity-mapped with their natural permissions,
// the remainder of physical RAM identity-mapped RW for the kernel's direct
// access path, and the trampoline page mapped at the maximum VPN (spec.md
// §4.4's Kernel space construction).
func NewKernelSpace(frameAlloc *pmm.Allocator, layout LinkerLayout, mmio []MMIOWindow) (*Space, *kerr.Error) {
	hi := TrampolineVPN() + 1
	space, err := NewSpace(0, frameAlloc, 0, hi)
	if err != nil {
		return nil, err
	}

	type region struct {
		start, end mem.VirtAddr
		flags      PTEFlag
	}
	textS, textE := layout.TextRange()
	rodataS, rodataE := layout.RodataRange()
	dataS, dataE := layout.DataRange()
	bssS, bssE := layout.BSSRange()
	regions := []region{
		{textS, textE, FlagRead | FlagExec},
		{rodataS, rodataE, FlagRead},
		{dataS, dataE, FlagRead | FlagWrite},
		{bssS, bssE, FlagRead | FlagWrite},
	}
	for _, r := range regions {
		if r.start >= r.end {
			continue
		}
		if _, err := space.InsertIdentical(mem.FloorVPN(r.start), mem.CeilVPN(r.end), r.flags); err != nil {
			return nil, err
		}
	}

	for _, w := range mmio {
		if _, err := space.InsertIdentical(mem.FloorVPN(w.Start), mem.CeilVPN(w.End), FlagRead|FlagWrite); err != nil {
			return nil, err
		}
	}

	ramStart := mem.CeilVPN(bssE)
	ramEnd := mem.FloorVPN(layout.MemoryEnd())
	if ramEnd > ramStart {
		if _, err := space.InsertIdentical(ramStart, ramEnd, FlagRead|FlagWrite); err != nil {
			return nil, err
		}
	}

	if err := MapTrampoline(space, layout.TrampolinePPN()); err != nil {
		return nil, err
	}

	return space, nil
}
