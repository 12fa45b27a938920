// Package pmm implements the physical frame allocator: a monotonic cursor
// over [next, end) backed by a recycled set, plus an RAII-style Tracker that
// returns its frame to the pool when released. Grounded on the teacher's
// kernel/mem/pmm/frame.go (the Frame type) and
// kernel/mem/pmm/allocator/bootmem.go (cursor+exhaustion shape), generalized
// per spec.md §4.1 to support dealloc/recycling, which the teacher's
// boot-only allocator never needs.
package pmm

import (
	"sort"
	"sync"

	"rvkernel/kernel/kerr"
	"rvkernel/kernel/mem"
)

// Allocator hands out and reclaims physical page frames. alloc() favors the
// smallest recycled PPN before bumping the cursor, matching spec.md §4.1.
//
// A real kernel addresses frames directly through the physical address
// space; since this module runs and is tested on a hosting Go runtime with
// no such mapping available, the allocator owns a backing arena (one
// mem.PageSize slice per frame in its range) and hands out slices into that
// arena via Tracker.Bytes. PPN/PhysAddr bookkeeping (ASIDs, MMU tokens, PTE
// encoding) is unaffected — only the "read/write this frame's bytes" path is
// redirected to the arena instead of unsafe.Pointer(ppn.Address()).
type Allocator struct {
	mu       sync.Mutex
	start    mem.PPN
	next     mem.PPN
	end      mem.PPN
	recycled []mem.PPN // kept sorted ascending
	arena    []byte
}

// NewAllocator creates an allocator that will hand out frames
// [start, end) of physical page numbers. This range is normally derived
// from the boot-time "free memory" description: BSS end up to the top of
// RAM, minus the trampoline frame reservation (spec.md §4.1).
func NewAllocator(start, end mem.PPN) *Allocator {
	count := uintptr(end-start) * mem.PageSize
	return &Allocator{start: start, next: start, end: end, arena: make([]byte, count)}
}

// bytes returns the backing storage for ppn, a mem.PageSize slice.
func (a *Allocator) bytes(ppn mem.PPN) []byte {
	off := uintptr(ppn-a.start) * mem.PageSize
	return a.arena[off : off+mem.PageSize]
}

// Alloc reserves one physical frame and returns a Tracker for it. Acquisition
// always zero-fills the frame's contents per spec.md's Frame invariants.
func (a *Allocator) Alloc() (*Tracker, *kerr.Error) {
	ppn, err := a.allocPPN()
	if err != nil {
		return nil, err
	}
	t := &Tracker{ppn: ppn, owner: a}
	t.zeroFill()
	return t, nil
}

func (a *Allocator) allocPPN() (mem.PPN, *kerr.Error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.recycled) > 0 {
		ppn := a.recycled[0]
		a.recycled = a.recycled[1:]
		return ppn, nil
	}
	if a.next >= a.end {
		return 0, kerr.New(kerr.FrameExhausted, "pmm", "no free frames remain")
	}
	ppn := a.next
	a.next++
	return ppn, nil
}

// dealloc returns ppn to the pool. It requires ppn < next and ppn not
// already recycled, mirroring spec.md §4.1's FrameNotDeallocable condition.
func (a *Allocator) dealloc(ppn mem.PPN) *kerr.Error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ppn >= a.next {
		return kerr.New(kerr.FrameNotDeallocable, "pmm", "ppn was never allocated")
	}
	i := sort.Search(len(a.recycled), func(i int) bool { return a.recycled[i] >= ppn })
	if i < len(a.recycled) && a.recycled[i] == ppn {
		return kerr.New(kerr.FrameNotDeallocable, "pmm", "ppn already free")
	}
	a.recycled = append(a.recycled, 0)
	copy(a.recycled[i+1:], a.recycled[i:])
	a.recycled[i] = ppn
	return nil
}

// Tracker is the single live owner of a physical frame. Dropping it (via
// Release) returns the frame to its allocator; at most one Tracker exists
// per PPN at any time, matching spec.md's Frame invariant.
type Tracker struct {
	ppn      mem.PPN
	owner    *Allocator
	released bool
}

// PPN returns the physical page number this tracker owns.
func (t *Tracker) PPN() mem.PPN { return t.ppn }

// Bytes returns the mem.PageSize-length slice backing this frame's storage.
func (t *Tracker) Bytes() []byte { return t.owner.bytes(t.ppn) }

// zeroFill clears the frame's contents; called once, at acquisition time.
func (t *Tracker) zeroFill() {
	b := t.Bytes()
	for i := range b {
		b[i] = 0
	}
}

// Release returns the frame to its owning allocator. Safe to call at most
// once; callers that wrap Tracker in a finalizer should call it exactly
// once when the logical owner goes away (Go has no deterministic Drop, so
// every holder of a Tracker must call Release explicitly on its exit path).
func (t *Tracker) Release() {
	if t.released {
		return
	}
	t.released = true
	if err := t.owner.dealloc(t.ppn); err != nil {
		panic(err)
	}
}
