package buddy

import "unsafe"

// PortableAllocator is the posix_memalign/aligned_malloc-style fallback
// OS interface spec.md §4.2 calls out as "used only for testing": it
// carves an aligned interior out of a plain Go-managed allocation instead
// of mapping OS memory directly, so buddy-allocator tests can run
// independent of the host's mmap behavior. Production allocators should
// use the platform default (unix: anonymous mmap).
type PortableAllocator struct {
	registry *fallbackRegistry
}

// NewPortableAllocator returns a ready-to-use PortableAllocator.
func NewPortableAllocator() *PortableAllocator {
	return &PortableAllocator{registry: newFallbackRegistry()}
}

func (p *PortableAllocator) AllocAligned() unsafe.Pointer {
	buf := make([]byte, 2*MaxBlockSize)
	base := uintptr(unsafe.Pointer(&buf[0]))
	aligned := (base + MaxBlockSize - 1) &^ (MaxBlockSize - 1)
	ptr := unsafe.Pointer(aligned)
	p.registry.keep(ptr, buf)
	return ptr
}

func (p *PortableAllocator) FreeAligned(ptr unsafe.Pointer) {
	p.registry.release(ptr)
}
