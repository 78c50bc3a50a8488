// Package minibuddy implements the single-threaded, headerless buddy
// allocator each radix tree uses internally to carve its 128-byte nodes
// into 8/16/32/64/128-byte sub-blocks (spec.md §4.4). It shares the
// split/merge algorithm of the process-wide github.com/mcorelib/mcc/buddy
// package but drops locking entirely: a radix tree serializes its own
// access, so there is no lock-elision fast/slow-path split here, only a
// single free-list family.
//
// Its 128-byte top-level blocks are nodes drawn from a
// github.com/mcorelib/mcc/nodepool pool (whose own blocks default to
// 32 KiB) rather than from the OS directly, per spec.md's
// data-flow chain: radix tree -> mini-buddy -> node pool -> buddy
// allocator -> OS.
package minibuddy

import (
	"unsafe"

	"github.com/mcorelib/mcc/mccerr"
	"github.com/mcorelib/mcc/nodepool"
)

const (
	MinP2 = 3 // 8 bytes
	MaxP2 = 7 // 128 bytes

	MinBlockSize = 1 << MinP2
	MaxBlockSize = 1 << MaxP2

	numClasses = MaxP2 - MinP2 + 1
	maxOrder   = numClasses - 1
)

// freeBit is bit 2 of a free sub-block's first word, not bit 0 as in the
// main buddy allocator: the radix tree's node handle starts with a kind
// byte that is 0 or 1, so bit 2 of the first word is clear in a live
// allocation it writes. Bits 0-1 of a free block's first word encode its
// size class (nsz).
const freeBit = uintptr(1) << 2
const nszMask = uintptr(0x3)

// superblockAllocator is the shape of a source of MaxBlockSize-sized
// top-level blocks; Allocator uses *nodepool.Pool directly.
type superblockAllocator interface {
	Alloc() unsafe.Pointer
	Free(unsafe.Pointer)
}

// freeNode is the free-list entry layout stored in a free sub-block's
// first three words.
type freeNode struct {
	tag  uintptr // freeBit set, low 2 bits hold nsz
	next unsafe.Pointer
	prev unsafe.Pointer
}

func nodeAt(addr uintptr) *freeNode { return (*freeNode)(unsafe.Pointer(addr)) }

type freeList struct {
	sentinel freeNode
}

func (l *freeList) init(order int) {
	l.sentinel.next = unsafe.Pointer(&l.sentinel)
	l.sentinel.prev = unsafe.Pointer(&l.sentinel)
	l.sentinel.tag = freeBit | uintptr(order)
}

func (l *freeList) empty() bool { return l.sentinel.next == unsafe.Pointer(&l.sentinel) }

func (l *freeList) push(addr uintptr, order int) {
	node := nodeAt(addr)
	node.tag = freeBit | uintptr(order)
	head := (*freeNode)(l.sentinel.next)
	node.next = unsafe.Pointer(head)
	node.prev = unsafe.Pointer(&l.sentinel)
	head.prev = unsafe.Pointer(node)
	l.sentinel.next = unsafe.Pointer(node)
}

func (l *freeList) pop() (uintptr, bool) {
	if l.empty() {
		return 0, false
	}
	node := (*freeNode)(l.sentinel.next)
	l.unlink(node)
	return uintptr(unsafe.Pointer(node)), true
}

func (l *freeList) unlink(node *freeNode) {
	prev := (*freeNode)(node.prev)
	next := (*freeNode)(node.next)
	prev.next = unsafe.Pointer(next)
	next.prev = unsafe.Pointer(prev)
	node.tag = 0
	node.next, node.prev = nil, nil
}

// Allocator is a single-threaded mini-buddy over 128-byte nodes.
type Allocator struct {
	free        [numClasses]freeList
	pool        *nodepool.Pool
	superblocks []unsafe.Pointer // live superblock bases, for Clear/Delete
}

// New creates a mini-buddy allocator that draws its 128-byte nodes (one
// MaxBlockSize top-level block per node) from pool.
func New(pool *nodepool.Pool) *Allocator {
	a := &Allocator{pool: pool}
	for i := range a.free {
		a.free[i].init(i)
	}
	return a
}

func sizeClassFor(size int) (int, bool) {
	if size <= 0 || size > MaxBlockSize {
		return 0, false
	}
	order := 0
	cap := MinBlockSize
	for cap < size {
		cap <<= 1
		order++
	}
	return order, true
}

// Alloc returns a size-byte sub-block (rounded up to the next power of
// two, minimum MinBlockSize), or nil if the backing node pool is
// exhausted.
func (a *Allocator) Alloc(size int) unsafe.Pointer {
	order, ok := sizeClassFor(size)
	if !ok {
		mccerr.Raise("minibuddy.Alloc", "requested size exceeds mini-buddy maximum")
	}
	for p := order; p <= maxOrder; p++ {
		if addr, ok := a.free[p].pop(); ok {
			return unsafe.Pointer(a.splitDown(addr, p, order))
		}
	}
	node := a.pool.Alloc()
	if node == nil {
		return nil
	}
	a.superblocks = append(a.superblocks, node)
	return unsafe.Pointer(a.splitDown(uintptr(node), maxOrder, order))
}

func (a *Allocator) splitDown(addr uintptr, from, to int) uintptr {
	for p := from; p > to; p-- {
		half := MinBlockSize << uint(p-1)
		buddy := addr + uintptr(half)
		a.free[p-1].push(buddy, p-1)
	}
	return addr
}

func buddyOf(addr uintptr, order int) uintptr {
	return addr ^ uintptr(MinBlockSize<<uint(order))
}

// Free returns a size-byte sub-block, merging with its buddy whenever
// possible.
func (a *Allocator) Free(ptr unsafe.Pointer, size int) {
	if ptr == nil {
		return
	}
	order, ok := sizeClassFor(size)
	if !ok {
		mccerr.Raise("minibuddy.Free", "size does not match any mini-buddy class")
	}
	addr := uintptr(ptr)
	for order < maxOrder {
		buddyAddr := buddyOf(addr, order)
		buddyNode := nodeAt(buddyAddr)
		if buddyNode.tag&freeBit == 0 || int(buddyNode.tag&nszMask) != order {
			break
		}
		a.free[order].unlink(buddyNode)
		if buddyAddr < addr {
			addr = buddyAddr
		}
		order++
	}
	if order == maxOrder {
		// A fully merged 128-byte node: return it to the node pool rather
		// than keeping it parked on the top free list forever.
		a.releaseSuperblock(addr)
		return
	}
	a.free[order].push(addr, order)
}

func (a *Allocator) releaseSuperblock(addr uintptr) {
	a.pool.Free(unsafe.Pointer(addr))
	for i, sb := range a.superblocks {
		if uintptr(sb) == addr {
			a.superblocks[i] = a.superblocks[len(a.superblocks)-1]
			a.superblocks = a.superblocks[:len(a.superblocks)-1]
			break
		}
	}
}

// Clear releases every superblock this allocator has drawn from its pool.
func (a *Allocator) Clear() {
	for _, sb := range a.superblocks {
		a.pool.Free(sb)
	}
	a.superblocks = a.superblocks[:0]
	for i := range a.free {
		a.free[i].init(i)
	}
}
