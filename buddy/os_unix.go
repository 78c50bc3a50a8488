//go:build unix

package buddy

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// defaultOSAllocator obtains superblocks via an anonymous mmap, grounded
// on alewtschuk-balloc's use of unix.Mmap(MAP_PRIVATE|MAP_ANONYMOUS) to
// back its buddy pool. It first hopes a single MaxBlockSize mapping lands
// naturally aligned (common on Linux/BSD, which tend to place anonymous
// mappings on large-page-friendly boundaries); if it doesn't, it falls
// back to the 2x-and-trim technique from spec.md §4.2.
type defaultOSAllocator struct{}

func (defaultOSAllocator) AllocAligned() unsafe.Pointer {
	data, err := unix.Mmap(-1, 0, MaxBlockSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil
	}
	base := uintptr(unsafe.Pointer(&data[0]))
	if base&(MaxBlockSize-1) == 0 {
		return unsafe.Pointer(base)
	}

	// Misaligned: release it and over-allocate 2x to carve out an
	// aligned interior, unmapping both tails.
	_ = unix.Munmap(data)
	return allocAlignedSlow()
}

func allocAlignedSlow() unsafe.Pointer {
	size := 2 * MaxBlockSize
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil
	}
	base := uintptr(unsafe.Pointer(&data[0]))
	aligned := (base + MaxBlockSize - 1) &^ (MaxBlockSize - 1)

	if head := aligned - base; head > 0 {
		_ = unix.Munmap(data[:head])
	}
	tail := base + uintptr(size) - (aligned + MaxBlockSize)
	if tail > 0 {
		tailSlice := unsafe.Slice((*byte)(unsafe.Pointer(aligned+MaxBlockSize)), tail)
		_ = unix.Munmap(tailSlice)
	}
	return unsafe.Pointer(aligned)
}

func (defaultOSAllocator) FreeAligned(ptr unsafe.Pointer) {
	region := unsafe.Slice((*byte)(ptr), MaxBlockSize)
	_ = unix.Munmap(region)
}
