package vmm

import (
	"rvkernel/kernel/kerr"
	"rvkernel/kernel/mem"
)

// PTEFlag is one permission/status bit of a page table entry, following the
// sv39 PTE layout: bits 0-7 are V,R,W,X,U,G,A,D; bits 10-53 hold the PPN.
type PTEFlag uintptr

// Flags recognised by this kernel. Names match spec.md's PTE invariant list.
const (
	FlagValid PTEFlag = 1 << iota
	FlagRead
	FlagWrite
	FlagExec
	FlagUser
	FlagGlobal
	FlagAccessed
	FlagDirty
)

const ptePPNShift = 10

// pte is one sv39 page table entry. A zero pte has FlagValid unset and MUST
// never be traversed (spec.md §4's PTE invariant).
type pte uintptr

func newLeafPTE(ppn mem.PPN, flags PTEFlag) pte {
	return pte((uintptr(ppn) << ptePPNShift) | uintptr(flags|FlagValid))
}

func newInteriorPTE(childPPN mem.PPN) pte {
	return pte((uintptr(childPPN) << ptePPNShift) | uintptr(FlagValid))
}

func (e pte) valid() bool { return uintptr(e)&uintptr(FlagValid) != 0 }

func (e pte) hasFlags(flags PTEFlag) bool {
	return uintptr(e)&uintptr(flags) == uintptr(flags)
}

func (e pte) ppn() mem.PPN { return mem.PPN(uintptr(e) >> ptePPNShift) }

// leaf reports whether this entry carries any of R/W/X, i.e. it terminates
// the walk instead of pointing at another mapper.
func (e pte) leaf() bool { return e.hasFlags(FlagRead) || e.hasFlags(FlagExec) }

// validatePermFlags rejects permission combinations sv39 forbids: W without
// R, and any interior-only entry (leaf perms for a pure pointer) carrying U
// without V.
func validatePermFlags(flags PTEFlag) *kerr.Error {
	if flags&FlagWrite != 0 && flags&FlagRead == 0 {
		return kerr.New(kerr.InvalidPageTablePerm, "vmm", "write without read is not a valid sv39 permission")
	}
	return nil
}
