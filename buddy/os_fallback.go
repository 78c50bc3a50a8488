//go:build !unix

package buddy

import "unsafe"

// defaultOSAllocator on non-unix platforms uses the portable
// over-allocate-and-trim technique entirely in Go-managed memory (no
// posix_memalign/aligned_malloc available): it keeps the oversized slice
// alive via a package-level registry keyed by the aligned address so the
// GC does not reclaim it out from under returned pointers, then hands back
// the aligned interior. Per spec.md §4.2 this path is intended for tests
// and platforms without anonymous mmap, not as the primary allocation
// strategy.
type defaultOSAllocator struct{}

func (defaultOSAllocator) AllocAligned() unsafe.Pointer {
	return allocAlignedFallback(MaxBlockSize)
}

func (defaultOSAllocator) FreeAligned(ptr unsafe.Pointer) {
	freeAlignedFallback(ptr)
}

var globalFallbackRegistry = newFallbackRegistry()

func allocAlignedFallback(size int) unsafe.Pointer {
	buf := make([]byte, size+MaxBlockSize)
	base := uintptr(unsafe.Pointer(&buf[0]))
	aligned := (base + MaxBlockSize - 1) &^ (MaxBlockSize - 1)
	ptr := unsafe.Pointer(aligned)
	globalFallbackRegistry.keep(ptr, buf)
	return ptr
}

func freeAlignedFallback(ptr unsafe.Pointer) {
	globalFallbackRegistry.release(ptr)
}
