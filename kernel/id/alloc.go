// Package id implements the monotonic, recycling ID allocator spec.md §4.5
// describes for PID, TID-per-process, and kernel-stack-ID allocation.
// Grounded on original_source/src/task/allocator.rs's BTreeIdAllocator /
// IdTracker pair, reshaped into the same acquire-a-Tracker-and-Release-it
// idiom kernel/mem/pmm.Allocator uses, since Go has no Drop to recycle an ID
// automatically when a value goes out of scope.
package id

import (
	"sort"
	"sync"

	"rvkernel/kernel/kerr"
)

// Allocator hands out IDs in [0, max) and recycles released ones, smallest
// first.
type Allocator struct {
	mu       sync.Mutex
	next     uint64
	max      uint64
	recycled []uint64
}

// NewAllocator creates an allocator over [0, max).
func NewAllocator(max uint64) *Allocator {
	return &Allocator{max: max}
}

// Alloc returns a Tracker owning a freshly allocated or recycled ID.
func (a *Allocator) Alloc() (*Tracker, *kerr.Error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.recycled); n > 0 {
		id := a.recycled[0]
		a.recycled = a.recycled[1:]
		return &Tracker{id: id, owner: a}, nil
	}
	if a.next >= a.max {
		return nil, kerr.New(kerr.IDExhausted, "id", "id allocator exhausted")
	}
	id := a.next
	a.next++
	return &Tracker{id: id, owner: a}, nil
}

func (a *Allocator) dealloc(id uint64) *kerr.Error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if id >= a.next {
		return kerr.New(kerr.IDNotDeallocable, "id", "id was never allocated")
	}
	i := sort.Search(len(a.recycled), func(i int) bool { return a.recycled[i] >= id })
	if i < len(a.recycled) && a.recycled[i] == id {
		return kerr.New(kerr.IDNotDeallocable, "id", "id already released")
	}
	a.recycled = append(a.recycled, 0)
	copy(a.recycled[i+1:], a.recycled[i:])
	a.recycled[i] = id
	return nil
}

// Tracker owns one allocated ID until Release is called. Release is
// idempotent; calling it more than once is a no-op after the first.
type Tracker struct {
	id       uint64
	owner    *Allocator
	released bool
}

// ID returns the tracked identifier.
func (t *Tracker) ID() uint64 { return t.id }

// Release returns the ID to the owning allocator's recycled set.
func (t *Tracker) Release() {
	if t.released {
		return
	}
	t.released = true
	if err := t.owner.dealloc(t.id); err != nil {
		panic(err)
	}
}
