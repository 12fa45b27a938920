package vmm

import (
	"rvkernel/kernel/kerr"
	"rvkernel/kernel/mem"
)

// MappingKind distinguishes an Area whose pages are identity-mapped from
// one backed by freshly allocated, page-table-owned frames.
type MappingKind uint8

const (
	// Identical maps VPN to the numerically equal PPN; used only for
	// kernel identity-mapped sections and MMIO.
	Identical MappingKind = iota
	// Framed allocates and owns a data frame per page.
	Framed
)

// Area is a contiguous run of virtual pages with uniform permissions and
// mapping kind within one Space (spec.md §3's Area data model).
type Area struct {
	start, end mem.VPN
	flags      PTEFlag
	kind       MappingKind

	pt    *PageTable
	ranges *RangeAllocator
}

// NewArea reserves [start, end) in ranges and maps every page into pt
// according to kind. Writes to an Identical area are rejected at
// construction per spec.md §4.4.
func NewArea(pt *PageTable, ranges *RangeAllocator, start, end mem.VPN, flags PTEFlag, kind MappingKind) (*Area, *kerr.Error) {
	if err := ranges.Alloc(start, end); err != nil {
		return nil, err
	}

	a := &Area{start: start, end: end, flags: flags, kind: kind, pt: pt, ranges: ranges}

	for vpn := start; vpn < end; vpn++ {
		var err *kerr.Error
		switch kind {
		case Identical:
			err = pt.MapWithoutAlloc(vpn, mem.PPN(vpn), flags)
		case Framed:
			err = pt.Map(vpn, flags)
		}
		if err != nil {
			a.unmapFrom(start, vpn)
			ranges.Dealloc(start, end)
			return nil, err
		}
	}
	return a, nil
}

// Range returns the area's half-open VPN interval.
func (a *Area) Range() (mem.VPN, mem.VPN) { return a.start, a.end }

// Flags returns the area's permission flags.
func (a *Area) Flags() PTEFlag { return a.flags }

// Kind returns the area's mapping kind.
func (a *Area) Kind() MappingKind { return a.kind }

func (a *Area) unmapFrom(start, upto mem.VPN) {
	for vpn := start; vpn < upto; vpn++ {
		switch a.kind {
		case Identical:
			a.pt.UnmapWithoutDealloc(vpn)
		case Framed:
			a.pt.Unmap(vpn)
		}
	}
}

// Release unmaps every page in the area and frees its VPN reservation.
// Areas must be released explicitly (Go has no deterministic destructors);
// Space.RemoveArea does this for callers that go through the Space API.
func (a *Area) Release() *kerr.Error {
	a.unmapFrom(a.start, a.end)
	return a.ranges.Dealloc(a.start, a.end)
}

// WriteBytes copies data into the area starting at byte offset off from the
// area's base VPN. The area MUST be Framed; writes to Identical areas are
// rejected (spec.md §4.4).
func (a *Area) WriteBytes(off uint64, data []byte) *kerr.Error {
	if a.kind != Framed {
		return kerr.New(kerr.InvalidPageTablePerm, "vmm", "cannot write an identity-mapped area")
	}
	pageBytes := uint64(mem.PageSize)
	remaining := data
	cur := off
	for len(remaining) > 0 {
		vpn := a.start + mem.VPN(cur/pageBytes)
		pageOff := cur % pageBytes
		frame := a.pt.FrameBytes(vpn)
		if frame == nil {
			return kerr.New(kerr.VPNNotMapped, "vmm", "area page not mapped")
		}
		n := pageBytes - pageOff
		if uint64(len(remaining)) < n {
			n = uint64(len(remaining))
		}
		copy(frame[pageOff:pageOff+n], remaining[:n])
		remaining = remaining[n:]
		cur += n
	}
	return nil
}

// ReadBytes is the inverse of WriteBytes, reading length bytes starting at
// byte offset off from the area's base VPN.
func (a *Area) ReadBytes(off uint64, length uint64) ([]byte, *kerr.Error) {
	if a.kind != Framed {
		return nil, kerr.New(kerr.InvalidPageTablePerm, "vmm", "cannot read an identity-mapped area")
	}
	out := make([]byte, 0, length)
	pageBytes := uint64(mem.PageSize)
	cur := off
	for uint64(len(out)) < length {
		vpn := a.start + mem.VPN(cur/pageBytes)
		pageOff := cur % pageBytes
		frame := a.pt.FrameBytes(vpn)
		if frame == nil {
			return nil, kerr.New(kerr.VPNNotMapped, "vmm", "area page not mapped")
		}
		n := pageBytes - pageOff
		if remain := length - uint64(len(out)); remain < n {
			n = remain
		}
		out = append(out, frame[pageOff:pageOff+n]...)
		cur += n
	}
	return out, nil
}
