// Package vmm implements the sv39 page table engine and the higher-level
// Area/Space/kernel-space abstractions built on top of it (spec.md §4.2-4.4).
// Grounded on the teacher's kernel/mem/vmm package (pte.go, vmm.go,
// addr_space.go): a PTE is an opaque uintptr with flag accessors, the walk
// is expressed as a single internal helper threaded with a per-level
// callback, and temporary/no-alloc mapping variants are split the same way
// Map/MapWithoutAlloc are in spec.md §4.3.
package vmm

import (
	"rvkernel/kernel/kerr"
	"rvkernel/kernel/mem"
	"rvkernel/kernel/mem/pmm"
)

// mapperNode is one non-root Page Mapper: a frame holding PageSize/8 PTEs,
// a back-pointer to its parent mapper's PPN, and a count of valid entries.
// Per spec.md, count == 0 iff the mapper is removable (root excepted).
type mapperNode struct {
	tracker *pmm.Tracker
	parent  mem.PPN
	count   int
}

func (m *mapperNode) ptes() []pte {
	b := m.tracker.Bytes()
	return unsafeBytesToPTEs(b)
}

// PageTable is a multi-level sv39 mapper. It owns its root and interior
// mapper frames plus the data frames backing every Framed mapping.
type PageTable struct {
	asid uint16

	frameAlloc *pmm.Allocator

	root *mapperNode

	// mappers indexes every non-root interior mapper by its own PPN, so a
	// child PTE's ppn() can be resolved back to the node that owns it
	// without walking from the root.
	mappers map[mem.PPN]*mapperNode

	// dataFrames holds the Tracker backing every VPN mapped as Framed.
	// Identity mappings never appear here (spec.md's Page Table
	// invariant).
	dataFrames map[mem.VPN]*pmm.Tracker
}

// NewPageTable allocates a fresh root mapper frame and returns an empty
// page table tagged with the given ASID.
func NewPageTable(asid uint16, frameAlloc *pmm.Allocator) (*PageTable, *kerr.Error) {
	rootTracker, err := frameAlloc.Alloc()
	if err != nil {
		return nil, err
	}
	return &PageTable{
		asid:       asid,
		frameAlloc: frameAlloc,
		root:       &mapperNode{tracker: rootTracker},
		mappers:    make(map[mem.PPN]*mapperNode),
		dataFrames: make(map[mem.VPN]*pmm.Tracker),
	}, nil
}

// ASID returns this page table's address-space identifier.
func (pt *PageTable) ASID() uint16 { return pt.asid }

// Token encodes {mode=sv39, ASID, root PPN} into the value the MMU register
// expects, per spec.md §4.3.
func (pt *PageTable) Token() uint64 {
	const modeSv39 = uint64(8) << 60
	return modeSv39 | (uint64(pt.asid) << 44) | uint64(pt.root.tracker.PPN())
}

// nodeFor resolves the mapperNode for ppn, which is either the root or an
// entry in pt.mappers.
func (pt *PageTable) nodeFor(ppn mem.PPN) *mapperNode {
	if ppn == pt.root.tracker.PPN() {
		return pt.root
	}
	return pt.mappers[ppn]
}

// walk locates the leaf PTE slot for vpn, allocating interior mapper frames
// along the way when createMissing is set. It returns the containing node
// and index within that node's PTE table.
func (pt *PageTable) walk(vpn mem.VPN, createMissing bool) (*mapperNode, int, *kerr.Error) {
	node := pt.root
	for level := 0; level < mem.PageTableLevels; level++ {
		idx := int(vpn.Index(level))
		if level == mem.PageTableLevels-1 {
			return node, idx, nil
		}

		entries := node.ptes()
		entry := entries[idx]
		if !entry.valid() {
			if !createMissing {
				return nil, 0, kerr.New(kerr.VPNNotMapped, "vmm", "intermediate page table entry missing")
			}
			childTracker, err := pt.frameAlloc.Alloc()
			if err != nil {
				return nil, 0, err
			}
			child := &mapperNode{tracker: childTracker, parent: node.tracker.PPN()}
			pt.mappers[childTracker.PPN()] = child
			entries[idx] = newInteriorPTE(childTracker.PPN())
			node.count++
			node = child
			continue
		}
		node = pt.nodeFor(entry.ppn())
	}
	return node, 0, nil
}

// MapWithoutAlloc installs a leaf mapping vpn -> ppn with flags, creating
// any missing interior mappers along the way. It does not take ownership of
// a data frame tracker; callers mapping Framed areas must separately record
// one via Map (or, for identity mappings, none at all).
func (pt *PageTable) MapWithoutAlloc(vpn mem.VPN, ppn mem.PPN, flags PTEFlag) *kerr.Error {
	if err := validatePermFlags(flags); err != nil {
		return err
	}
	node, idx, err := pt.walk(vpn, true)
	if err != nil {
		return err
	}
	entries := node.ptes()
	if entries[idx].valid() {
		return kerr.New(kerr.VPNAlreadyMapped, "vmm", "vpn already mapped")
	}
	entries[idx] = newLeafPTE(ppn, flags)
	node.count++
	return nil
}

// Map allocates a fresh data frame, records its tracker under vpn, and
// installs the leaf mapping.
func (pt *PageTable) Map(vpn mem.VPN, flags PTEFlag) *kerr.Error {
	if _, exists := pt.dataFrames[vpn]; exists {
		return kerr.New(kerr.VPNAlreadyMapped, "vmm", "vpn already mapped")
	}
	tracker, err := pt.frameAlloc.Alloc()
	if err != nil {
		return err
	}
	if err := pt.MapWithoutAlloc(vpn, tracker.PPN(), flags); err != nil {
		tracker.Release()
		return err
	}
	pt.dataFrames[vpn] = tracker
	return nil
}

// UnmapWithoutDealloc clears the leaf PTE for vpn and collapses now-empty
// interior mappers back up towards (but excluding) the root.
func (pt *PageTable) UnmapWithoutDealloc(vpn mem.VPN) (mem.PPN, *kerr.Error) {
	path := make([]*mapperNode, 0, mem.PageTableLevels)
	node := pt.root
	var leafIdx int
	for level := 0; level < mem.PageTableLevels; level++ {
		idx := int(vpn.Index(level))
		path = append(path, node)
		entries := node.ptes()
		if !entries[idx].valid() {
			return 0, kerr.New(kerr.VPNNotMapped, "vmm", "vpn not mapped")
		}
		if level == mem.PageTableLevels-1 {
			leafIdx = idx
			break
		}
		node = pt.nodeFor(entries[idx].ppn())
	}

	leafNode := path[len(path)-1]
	leafEntries := leafNode.ptes()
	ppn := leafEntries[leafIdx].ppn()
	leafEntries[leafIdx] = pte(0)
	leafNode.count--

	// Walk back up, removing any interior mapper that became empty.
	for level := len(path) - 1; level > 0; level-- {
		child := path[level]
		if child.count > 0 {
			break
		}
		parent := path[level-1]
		parentEntries := parent.ptes()
		childIdx := int(vpn.Index(level - 1))
		parentEntries[childIdx] = pte(0)
		parent.count--
		delete(pt.mappers, child.tracker.PPN())
		child.tracker.Release()
	}

	return ppn, nil
}

// Unmap clears the leaf PTE for vpn and releases its owned data frame.
func (pt *PageTable) Unmap(vpn mem.VPN) *kerr.Error {
	tracker, ok := pt.dataFrames[vpn]
	if !ok {
		return kerr.New(kerr.VPNNotMapped, "vmm", "vpn not mapped as a framed page")
	}
	if _, err := pt.UnmapWithoutDealloc(vpn); err != nil {
		return err
	}
	delete(pt.dataFrames, vpn)
	tracker.Release()
	return nil
}

// Translate walks the table without mutating it, returning the mapped PPN
// if present.
func (pt *PageTable) Translate(vpn mem.VPN) (mem.PPN, bool) {
	node := pt.root
	for level := 0; level < mem.PageTableLevels; level++ {
		idx := int(vpn.Index(level))
		entries := node.ptes()
		entry := entries[idx]
		if !entry.valid() {
			return 0, false
		}
		if level == mem.PageTableLevels-1 {
			return entry.ppn(), true
		}
		node = pt.nodeFor(entry.ppn())
	}
	return 0, false
}

// FrameBytes returns the PageSize-length byte slice backing the data frame
// mapped at vpn, or nil if vpn has no Framed mapping in this table.
func (pt *PageTable) FrameBytes(vpn mem.VPN) []byte {
	tracker, ok := pt.dataFrames[vpn]
	if !ok {
		return nil
	}
	return tracker.Bytes()
}

// unsafeBytesToPTEs reinterprets a PageSize byte slice as PTEsPerPage ptes.
// Kept as a single, narrowly-scoped unsafe conversion site rather than
// spread across the walk/map/unmap paths.
func unsafeBytesToPTEs(b []byte) []pte {
	return ptesFromBytes(b)
}
