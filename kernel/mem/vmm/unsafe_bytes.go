package vmm

import (
	"unsafe"

	"rvkernel/kernel/mem"
)

// ptesFromBytes reinterprets a mem.PageSize byte slice (a mapper frame's
// backing storage) as its PTEsPerPage worth of pte values, the same
// reinterpret-the-frame trick the teacher's PageDirectoryTable uses to
// treat a raw frame as an array of entries.
func ptesFromBytes(b []byte) []pte {
	if len(b) != mem.PageSize {
		panic("mapper frame has unexpected size")
	}
	return unsafe.Slice((*pte)(unsafe.Pointer(&b[0])), mem.PTEsPerPage)
}
