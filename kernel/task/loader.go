package task

import (
	"rvkernel/kernel/elf"
	"rvkernel/kernel/kerr"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
	"rvkernel/kernel/mem/vmm"
)

// segFlagsToPTE translates an ELF segment's r/w/x bits into page table
// permission flags, always adding FlagUser since this builds a user space.
func segFlagsToPTE(f elf.SegmentFlag) vmm.PTEFlag {
	var out vmm.PTEFlag = vmm.FlagUser
	if f&elf.FlagRead != 0 {
		out |= vmm.FlagRead
	}
	if f&elf.FlagWrite != 0 {
		out |= vmm.FlagWrite
	}
	if f&elf.FlagExec != 0 {
		out |= vmm.FlagExec
	}
	return out
}

// userStackRange returns the VPN interval of tid's user-mode stack, packed
// upward from the image's high-water mark with one guard page separating
// it from the image and from its neighbors (spec.md §4.4's per-task user
// stack layout, mirrored from kernel/mem/vmm's kernel-stack packing).
func userStackRange(baseSize uint64, tid uint64) (start, end mem.VPN) {
	slot := mem.UserStackSize + mem.GuardPageSize
	bottom := mem.VirtAddr(baseSize) + mem.VirtAddr(mem.GuardPageSize) + mem.VirtAddr(tid*uint64(slot))
	top := bottom + mem.VirtAddr(mem.UserStackSize)
	return mem.FloorVPN(bottom), mem.CeilVPN(top)
}

// buildUserSpace maps an ELF image's PT_LOAD segments, tid's user stack,
// tid's trap-context page, and the trampoline into a fresh address space
// (spec.md §4.4's "User space" construction, §4.9's ELF loading contract).
// It returns the space, the entry point, the top of the user stack, and
// baseSize (the image's high-water mark, used to lay out further tasks'
// stacks above it).
func buildUserSpace(asid uint16, frameAlloc *pmm.Allocator, trampolinePPN mem.PPN, img *elf.Image, tid uint64) (*vmm.Space, mem.VirtAddr, mem.VirtAddr, uint64, *kerr.Error) {
	space, err := vmm.NewSpace(asid, frameAlloc, 0, vmm.TrampolineVPN()+1)
	if err != nil {
		return nil, 0, 0, 0, err
	}

	var baseSize uint64
	for _, seg := range img.Segments {
		start := mem.FloorVPN(seg.VirtAddr)
		end := mem.CeilVPN(seg.VirtAddr + mem.VirtAddr(seg.MemSize))
		area, err := space.InsertFramed(start, end, segFlagsToPTE(seg.Flags))
		if err != nil {
			return nil, 0, 0, 0, err
		}
		off := uint64(seg.VirtAddr) - uint64(start.Address())
		if len(seg.Data) > 0 {
			if err := area.WriteBytes(off, seg.Data); err != nil {
				return nil, 0, 0, 0, err
			}
		}
		if end := uint64(end.Address()); end > baseSize {
			baseSize = end
		}
	}

	stackStart, stackEnd := userStackRange(baseSize, tid)
	if _, err := space.InsertFramed(stackStart, stackEnd, vmm.FlagRead|vmm.FlagWrite|vmm.FlagUser); err != nil {
		return nil, 0, 0, 0, err
	}
	userStackTop := stackEnd.Address()

	trapCtxVPN := vmm.TrapContextVPN(tid)
	if _, err := space.InsertFramed(trapCtxVPN, trapCtxVPN+1, vmm.FlagRead|vmm.FlagWrite); err != nil {
		return nil, 0, 0, 0, err
	}

	if err := vmm.MapTrampoline(space, trampolinePPN); err != nil {
		return nil, 0, 0, 0, err
	}

	return space, img.Entry, userStackTop, baseSize, nil
}
