package vmm

import (
	"rvkernel/kernel/kerr"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
)

// areaKey identifies an Area by its reserved interval, the way the teacher's
// directory structures key child entries by a stable identity rather than
// a pointer.
type areaKey struct{ start, end mem.VPN }

// Space is one address space: a page table, the VPN-range reservation book
// for that table, and the set of Areas currently mapped into it (spec.md
// §3's Space data model, §4.5).
type Space struct {
	pt     *PageTable
	ranges *RangeAllocator
	areas  map[areaKey]*Area
}

// NewSpace creates an empty address space managing the VPN interval
// [lo, hi) and backed by frameAlloc for both page-table and data frames.
func NewSpace(asid uint16, frameAlloc *pmm.Allocator, lo, hi mem.VPN) (*Space, *kerr.Error) {
	pt, err := NewPageTable(asid, frameAlloc)
	if err != nil {
		return nil, err
	}
	return &Space{
		pt:     pt,
		ranges: NewRangeAllocator(lo, hi),
		areas:  make(map[areaKey]*Area),
	}, nil
}

// PageTable exposes the underlying page table, e.g. so a scheduler can read
// Token() when switching SATP on a context switch.
func (s *Space) PageTable() *PageTable { return s.pt }

// Token returns the SATP value that activates this address space.
func (s *Space) Token() uint64 { return s.pt.Token() }

// InsertFramed reserves [start, end) and maps it with freshly allocated
// data frames.
func (s *Space) InsertFramed(start, end mem.VPN, flags PTEFlag) (*Area, *kerr.Error) {
	return s.insert(start, end, flags, Framed)
}

// InsertIdentical reserves [start, end) and identity-maps it (vpn == ppn).
// Used for kernel linker sections, MMIO windows, and the direct RAM map.
func (s *Space) InsertIdentical(start, end mem.VPN, flags PTEFlag) (*Area, *kerr.Error) {
	return s.insert(start, end, flags, Identical)
}

func (s *Space) insert(start, end mem.VPN, flags PTEFlag, kind MappingKind) (*Area, *kerr.Error) {
	area, err := NewArea(s.pt, s.ranges, start, end, flags, kind)
	if err != nil {
		return nil, err
	}
	s.areas[areaKey{start, end}] = area
	return area, nil
}

// MapFixed maps a single already-allocated frame at vpn without reserving
// it through the range allocator, for callers (e.g. the trampoline or a
// per-task trap context page) that manage their own VPN bookkeeping.
func (s *Space) MapFixed(vpn mem.VPN, ppn mem.PPN, flags PTEFlag) *kerr.Error {
	return s.pt.MapWithoutAlloc(vpn, ppn, flags)
}

// RemoveArea releases an area's frames and VPN reservation. err is
// AreaNotExists if no area exactly spans [start, end).
func (s *Space) RemoveArea(start, end mem.VPN) *kerr.Error {
	key := areaKey{start, end}
	area, ok := s.areas[key]
	if !ok {
		return kerr.New(kerr.AreaNotExists, "vmm", "no area spans the requested range")
	}
	if err := area.Release(); err != nil {
		return err
	}
	delete(s.areas, key)
	return nil
}

// Close releases every remaining area's leaf data frames, for use when a
// process exits or execs over its old image (spec.md §4.6). Page-table
// interior nodes and the root frame are not reclaimed: Go has no
// destructor to run when the last reference to this Space drops, and a
// short-lived teaching kernel can afford to leave them mapped until the
// frame allocator itself is torn down.
func (s *Space) Close() *kerr.Error {
	for key := range s.areas {
		if err := s.RemoveArea(key.start, key.end); err != nil {
			return err
		}
	}
	return nil
}

// AreaContaining returns the Area covering vpn, or nil if none does.
func (s *Space) AreaContaining(vpn mem.VPN) *Area {
	for key, area := range s.areas {
		if vpn >= key.start && vpn < key.end {
			return area
		}
	}
	return nil
}

// TranslatedByteBuffers splits the byte range [addr, addr+length) of this
// space into the sequence of page-aligned slices backing it, mirroring the
// original kernel's translated_byte_buffers: a syscall argument buffer that
// lives in user space may straddle several (possibly non-contiguous, from
// the kernel's point of view) physical frames, so callers must operate on
// it one page-resident chunk at a time rather than assuming contiguity.
func (s *Space) TranslatedByteBuffers(addr mem.VirtAddr, length uint64) ([][]byte, *kerr.Error) {
	var out [][]byte
	remaining := length
	cur := addr
	for remaining > 0 {
		vpn := cur.VPN()
		frame := s.pt.FrameBytes(vpn)
		if frame == nil {
			return nil, kerr.New(kerr.VPNNotMapped, "vmm", "buffer spans an unmapped page")
		}
		pageOff := uint64(cur.PageOffset())
		n := uint64(mem.PageSize) - pageOff
		if remaining < n {
			n = remaining
		}
		out = append(out, frame[pageOff:pageOff+n])
		remaining -= n
		cur = mem.VirtAddr(uintptr(cur) + uintptr(n))
	}
	return out, nil
}

// Fork builds a new space with the same areas as s, copying every Framed
// area's data into freshly allocated frames and re-identity-mapping every
// Identical area against the same physical pages (kernel sections, MMIO,
// the direct RAM map — these are shared, not copied, exactly as in the
// parent). This is how fork_process gives a child its own user space
// (spec.md §4.6) without a copy-on-write layer.
func (s *Space) Fork(asid uint16, frameAlloc *pmm.Allocator) (*Space, *kerr.Error) {
	lo, hi := s.ranges.Bounds()
	child, err := NewSpace(asid, frameAlloc, lo, hi)
	if err != nil {
		return nil, err
	}
	for key, area := range s.areas {
		var childArea *Area
		var ferr *kerr.Error
		switch area.Kind() {
		case Identical:
			childArea, ferr = child.InsertIdentical(key.start, key.end, area.Flags())
		case Framed:
			childArea, ferr = child.InsertFramed(key.start, key.end, area.Flags())
		}
		if ferr != nil {
			return nil, ferr
		}
		if area.Kind() != Framed {
			continue
		}
		length := uint64(key.end-key.start) * uint64(mem.PageSize)
		data, rerr := area.ReadBytes(0, length)
		if rerr != nil {
			return nil, rerr
		}
		if werr := childArea.WriteBytes(0, data); werr != nil {
			return nil, werr
		}
	}
	return child, nil
}

// TranslatedString reads a NUL-terminated string starting at addr, one byte
// at a time across page boundaries, the way the original kernel walks a
// user-space C string it cannot assume is contiguous in physical memory.
func (s *Space) TranslatedString(addr mem.VirtAddr) (string, *kerr.Error) {
	var out []byte
	cur := addr
	for {
		vpn := cur.VPN()
		frame := s.pt.FrameBytes(vpn)
		if frame == nil {
			return "", kerr.New(kerr.VPNNotMapped, "vmm", "string spans an unmapped page")
		}
		pageOff := cur.PageOffset()
		for ; uintptr(pageOff) < mem.PageSize; pageOff++ {
			b := frame[pageOff]
			if b == 0 {
				return string(out), nil
			}
			out = append(out, b)
		}
		cur = mem.VirtAddr(uintptr(cur) + (mem.PageSize - uintptr(cur.PageOffset())))
	}
}
