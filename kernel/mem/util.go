package mem

import "unsafe"

// Memset sets size bytes at the given address to value. Grounded on the
// teacher's kernel/mem_util.go, updated to build the overlay slice with
// unsafe.Slice instead of the deprecated reflect.SliceHeader trick.
func Memset(addr uintptr, value byte, size uintptr) {
	if size == 0 {
		return
	}
	target := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	for i := range target {
		target[i] = value
	}
}

// Memcopy copies size bytes from src to dst.
func Memcopy(src, dst uintptr, size uintptr) {
	if size == 0 {
		return
	}
	srcSlice := unsafe.Slice((*byte)(unsafe.Pointer(src)), size)
	dstSlice := unsafe.Slice((*byte)(unsafe.Pointer(dst)), size)
	copy(dstSlice, srcSlice)
}
