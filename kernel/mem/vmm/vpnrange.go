package vmm

import (
	"container/list"

	"rvkernel/kernel/kerr"
	"rvkernel/kernel/mem"
)

// boundary is one node of the doubly-linked run-length list spec.md §4.2
// describes: a VPN at which the used/free state flips. The list always
// starts with a boundary whose used bit describes the state of the range
// [node.vpn, next.vpn).
type boundary struct {
	vpn  mem.VPN
	used bool
}

// RangeAllocator tracks which VPN intervals within one address space are
// reserved, as a sequence of boundary nodes where consecutive nodes always
// flip the used bit (spec.md §4.2, §8's boundary-node invariant).
type RangeAllocator struct {
	lo, hi mem.VPN
	nodes  *list.List // of *boundary, strictly increasing vpn
}

// NewRangeAllocator creates an allocator over the half-open VPN interval
// [lo, hi), initially entirely free.
func NewRangeAllocator(lo, hi mem.VPN) *RangeAllocator {
	r := &RangeAllocator{lo: lo, hi: hi, nodes: list.New()}
	r.nodes.PushBack(&boundary{vpn: lo, used: false})
	return r
}

// findContaining returns the list element whose boundary describes the
// state covering vpn (the greatest boundary <= vpn), or nil if vpn is
// outside [lo, hi).
func (r *RangeAllocator) findContaining(vpn mem.VPN) *list.Element {
	if vpn < r.lo || vpn >= r.hi {
		return nil
	}
	var found *list.Element
	for e := r.nodes.Front(); e != nil; e = e.Next() {
		if e.Value.(*boundary).vpn > vpn {
			break
		}
		found = e
	}
	return found
}

// Alloc marks [s, e) as used. It fails if the range straddles an existing
// boundary with mixed state, exceeds [lo, hi), or is already used.
func (r *RangeAllocator) Alloc(s, e mem.VPN) *kerr.Error {
	return r.setState(s, e, true)
}

// Dealloc marks [s, e) as free, under the same constraints as Alloc.
func (r *RangeAllocator) Dealloc(s, e mem.VPN) *kerr.Error {
	return r.setState(s, e, false)
}

func (r *RangeAllocator) setState(s, e mem.VPN, used bool) *kerr.Error {
	if s >= e || s < r.lo || e > r.hi {
		return kerr.New(kerr.AreaAllocFailed, "vmm", "range exceeds allocator bounds")
	}

	startElem := r.findContaining(s)
	if startElem == nil {
		return kerr.New(kerr.AreaAllocFailed, "vmm", "range exceeds allocator bounds")
	}

	// Confirm the whole [s, e) run sits inside a single homogeneous
	// interval before mutating anything.
	startBound := startElem.Value.(*boundary)
	if startBound.used == used {
		return kerr.New(kerr.AreaAllocFailed, "vmm", "range already in the requested state")
	}
	if next := startElem.Next(); next != nil && next.Value.(*boundary).vpn < e {
		return kerr.New(kerr.AreaAllocFailed, "vmm", "range straddles multiple intervals")
	}

	// Split into up to three runs: [intervalStart,s) unchanged,
	// [s,e) flipped, [e,intervalEnd) unchanged.
	if s > startBound.vpn {
		r.nodes.InsertAfter(&boundary{vpn: s, used: used}, startElem)
		startElem = startElem.Next()
	} else {
		startBound.used = used
	}
	if next := startElem.Next(); next == nil || next.Value.(*boundary).vpn != e {
		if e < r.hi {
			r.nodes.InsertAfter(&boundary{vpn: e, used: !used}, startElem)
		}
	}

	r.coalesce()
	return nil
}

// coalesce merges adjacent boundary nodes that describe the same state,
// restoring the "consecutive nodes flip used" invariant.
func (r *RangeAllocator) coalesce() {
	for e := r.nodes.Front(); e != nil; {
		next := e.Next()
		if next == nil {
			break
		}
		if e.Value.(*boundary).used == next.Value.(*boundary).used {
			r.nodes.Remove(next)
			continue
		}
		e = next
	}
}

// Bounds returns the allocator's managed interval.
func (r *RangeAllocator) Bounds() (mem.VPN, mem.VPN) { return r.lo, r.hi }
