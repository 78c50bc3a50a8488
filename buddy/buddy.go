// Package buddy implements the process-wide power-of-two buddy allocator
// described by spec.md §4.2: headerless, naturally-aligned blocks from
// 32 B to 4 MiB, multi-thread safe via a single atomic-boolean fast path
// with a lock-elision fallback to per-size-class lock-free free lists.
//
// Grounded on alewtschuk-balloc's BuddyPool (mmap-backed arena, Avail
// sentinel array indexed by k-value, btok/buddyCalc helpers) for the OS
// interface and the normal-path merge/split shape, and on
// cloudwego-gopkg/unsafex/malloc's order-indexed free list bookkeeping for
// the lock-contention fallback.
package buddy

import (
	"sync/atomic"
	"unsafe"

	"github.com/mcorelib/mcc/mccerr"
	"github.com/mcorelib/mcc/mcclog"
)

const (
	// MinP2 is the smallest block exponent: 2^5 = 32 bytes.
	MinP2 = 5
	// MaxP2 is the largest block exponent: 2^22 = 4 MiB.
	MaxP2 = 22

	// MinBlockSize and MaxBlockSize are the byte-size equivalents of
	// MinP2/MaxP2.
	MinBlockSize = 1 << MinP2
	MaxBlockSize = 1 << MaxP2

	numClasses = MaxP2 - MinP2 + 1
	maxOrder   = numClasses - 1
)

// OSAllocator is the injectable interface through which the buddy
// allocator obtains and releases MaxBlockSize-aligned superblocks from the
// operating system. The default implementation prefers an anonymous
// mapping; a portable posix_memalign/aligned_malloc-style fallback is
// provided for platforms or tests that cannot mmap.
type OSAllocator interface {
	// AllocAligned returns a MaxBlockSize-aligned region of exactly
	// MaxBlockSize bytes, or nil on failure.
	AllocAligned() unsafe.Pointer
	// FreeAligned releases a region previously returned by AllocAligned.
	FreeAligned(unsafe.Pointer)
}

// Allocator is a single power-of-two buddy allocator instance. The zero
// value is not usable; construct one with New.
type Allocator struct {
	lock uint32 // 0 = unlocked, 1 = locked; CAS-exchanged on the fast path.

	locked   [numClasses]lockedList
	lockfree [numClasses]lockfreeList

	// nonEmptyLocked has bit i set when locked[i] is non-empty, scanned
	// with FindFirstSet32 to find the smallest sufficient class in O(1).
	nonEmptyLocked uint32

	// spare caches at most one unassigned superblock to amortize OS
	// churn; swapped atomically so it can be donated from the normal
	// free path without holding any additional lock.
	spare atomic.Uintptr

	os         OSAllocator
	abortOnOOM bool
	log        mcclog.Logger
}

// Option configures an Allocator at construction time.
type Option func(*Allocator)

// WithOSAllocator overrides the default OS-backed superblock source,
// primarily for tests that want the portable fallback instead of mmap.
func WithOSAllocator(os OSAllocator) Option {
	return func(a *Allocator) { a.os = os }
}

// WithAbortOnOOM makes Alloc panic instead of returning nil when the OS
// refuses to grow the allocator.
func WithAbortOnOOM(abort bool) Option {
	return func(a *Allocator) { a.abortOnOOM = abort }
}

// WithLogger installs a logger for the slow path; a failed OS allocation
// is logged as a warning. The default is mcclog.Noop.
func WithLogger(l mcclog.Logger) Option {
	return func(a *Allocator) { a.log = l }
}

// New creates a buddy allocator. No OS memory is obtained until the first
// Alloc call.
func New(opts ...Option) *Allocator {
	a := &Allocator{
		os:  defaultOSAllocator{},
		log: mcclog.Noop,
	}
	for _, o := range opts {
		o(a)
	}
	for i := range a.locked {
		a.locked[i].init(i)
	}
	return a
}

func sizeClassFor(size int) (order int, ok bool) {
	if size <= 0 {
		return 0, false
	}
	p := MinP2
	blk := MinBlockSize
	for blk < size {
		blk <<= 1
		p++
		if p > MaxP2 {
			return 0, false
		}
	}
	return p - MinP2, true
}

// Alloc rounds size up to the next power of two in [32, 4 MiB] and returns
// a pointer to a block of that size, aligned to its own size. Size 0
// returns nil. A request larger than MaxBlockSize is a programmer error
// and panics.
func (a *Allocator) Alloc(size int) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	if size > MaxBlockSize {
		mccerr.Raise("buddy.Alloc", "requested size exceeds MaxBlockSize")
	}
	order, ok := sizeClassFor(size)
	if !ok {
		mccerr.Raise("buddy.Alloc", "requested size exceeds MaxBlockSize")
	}

	if atomic.CompareAndSwapUint32(&a.lock, 0, 1) {
		ptr := a.allocNormal(order)
		atomic.StoreUint32(&a.lock, 0)
		return ptr
	}
	return a.allocContended(order)
}

// Free releases a block previously returned by Alloc. size must be the
// same size passed to the original Alloc call (it will be rounded to the
// same class). A nil pointer is a no-op. Passing a mismatched size or
// double-freeing a block is undefined behavior, per spec.md §4.2.
func (a *Allocator) Free(ptr unsafe.Pointer, size int) {
	if ptr == nil {
		return
	}
	order, ok := sizeClassFor(size)
	if !ok {
		mccerr.Raise("buddy.Free", "invalid size")
	}

	if atomic.CompareAndSwapUint32(&a.lock, 0, 1) {
		a.freeNormal(ptr, order)
		atomic.StoreUint32(&a.lock, 0)
		return
	}
	a.freeContended(ptr, order)
}

// FreeBuffers releases the cached spare superblock, if any.
func (a *Allocator) FreeBuffers() {
	if p := a.spare.Swap(0); p != 0 {
		a.os.FreeAligned(unsafe.Pointer(p))
	}
}

// Delete releases the allocator's cached spare superblock. The caller must
// have already freed every live allocation; Delete does not (and cannot)
// verify this.
func (a *Allocator) Delete() {
	a.FreeBuffers()
}

// Available returns a rough estimate of free bytes currently held in the
// locked free lists (lock-free-list blocks are not counted, since they are
// considered "owned by the contention path" until they migrate back).
func (a *Allocator) Available() int {
	total := 0
	for i := range a.locked {
		blockSize := MinBlockSize << uint(i)
		total += a.locked[i].count() * blockSize
	}
	return total
}
