// Package elf is the narrow collaborator contract spec.md names for ELF
// loading: the kernel needs PT_LOAD segments, an entry point, and the size
// of the loaded image, nothing more (no relocation, no dynamic linking,
// consistent with spec.md's Non-goals). A minimal PT_LOAD-only parser is
// provided so fork/exec can be exercised end to end; anything beyond that
// contract is deliberately not implemented here.
package elf

import "rvkernel/kernel/mem"

// SegmentFlag mirrors the subset of ELF program-header flags the kernel's
// page-table permissions care about.
type SegmentFlag uint8

const (
	FlagExec SegmentFlag = 1 << iota
	FlagWrite
	FlagRead
)

// Segment is one PT_LOAD program header, already relocated to the virtual
// addresses the loader should map it at.
type Segment struct {
	VirtAddr mem.VirtAddr
	Data     []byte // file-backed bytes; shorter than the mapped range means the tail is BSS (zero-filled)
	MemSize  uint64
	Flags    SegmentFlag
}

// Image is the parsed subset of an ELF binary needed to build a user
// address space: its loadable segments, entry point, and the size of the
// mapped region (used to place the user stack above it).
type Image struct {
	Segments []Segment
	Entry    mem.VirtAddr
	BaseSize uint64
}

// Loader parses a raw ELF byte image into an Image. Implementations need
// only understand PT_LOAD headers.
type Loader interface {
	Load(data []byte) (*Image, error)
}
