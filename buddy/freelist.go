package buddy

import (
	"sync/atomic"
	"unsafe"
)

// freeNode is the free-list entry a free block carries in its first
// bytes. The locked (doubly-linked) and lock-free (singly-linked) list
// families share this exact layout and field order on purpose, per
// spec.md §3, so a block can migrate from one family to the other without
// being rewritten: only the tag's free bit and which pointer fields are
// kept live differ between the two uses.
//
// tag's least-significant bit is the free bit: 1 on the locked list
// (invariant 1), always 0 while the block sits on a lock-free list
// (invariant 2, deliberate: this is what stops the locked-list merge scan
// in freeNormal from treating a lock-free-listed block as mergeable).
type freeNode struct {
	tag  uintptr
	next unsafe.Pointer // *freeNode
	prev unsafe.Pointer // *freeNode; unused by the lock-free list
	p2   uintptr
}

const freeBit = uintptr(1)

func nodeAt(addr uintptr) *freeNode {
	return (*freeNode)(unsafe.Pointer(addr))
}

// lockedList is a doubly-linked, sentinel-headed free list for one size
// class, in the style of alewtschuk-balloc's avail[kval] sentinel: the
// sentinel's own storage (not a pointer into the arena) is next/prev when
// the list is empty, exactly as BuddyPool.avail is initialized.
type lockedList struct {
	sentinel freeNode
	n        int
}

func (l *lockedList) init(order int) {
	l.sentinel.next = unsafe.Pointer(&l.sentinel)
	l.sentinel.prev = unsafe.Pointer(&l.sentinel)
	l.sentinel.p2 = uintptr(order)
	l.n = 0
}

func (l *lockedList) empty() bool {
	return l.sentinel.next == unsafe.Pointer(&l.sentinel)
}

func (l *lockedList) count() int { return l.n }

// push inserts the block at addr at the front of the list (LIFO, cache
// hot) and marks it free.
func (l *lockedList) push(addr uintptr, order int) {
	node := nodeAt(addr)
	node.tag = freeBit
	node.p2 = uintptr(order)

	head := (*freeNode)(l.sentinel.next)
	node.next = unsafe.Pointer(head)
	node.prev = unsafe.Pointer(&l.sentinel)
	head.prev = unsafe.Pointer(node)
	l.sentinel.next = unsafe.Pointer(node)
	l.n++
}

// pop removes and returns the front block's address, or (0, false) if the
// list is empty.
func (l *lockedList) pop() (uintptr, bool) {
	if l.empty() {
		return 0, false
	}
	node := (*freeNode)(l.sentinel.next)
	l.unlink(node)
	return uintptr(unsafe.Pointer(node)), true
}

// unlink removes node from the list; used both by pop and by the merge
// scan in freeNormal, which must remove an arbitrary buddy (not
// necessarily the head).
func (l *lockedList) unlink(node *freeNode) {
	prev := (*freeNode)(node.prev)
	next := (*freeNode)(node.next)
	prev.next = unsafe.Pointer(next)
	next.prev = unsafe.Pointer(prev)
	node.tag = 0
	node.next = nil
	node.prev = nil
	l.n--
}

// lockfreeList is a singly-linked, CAS-managed Treiber stack used only
// under lock contention. It never merges buddies; blocks pushed here sit
// until either popped back out under contention or drained by the normal
// path the next time it needs a block of this class (see
// Allocator.allocNormal), at which point they migrate onto the locked
// list using the same freeNode storage.
type lockfreeList struct {
	head unsafe.Pointer // *freeNode, atomic
}

// push adds addr to the stack. The free bit is deliberately left clear
// (invariant 2): a lock-free-listed block must not be mistaken for a
// locked-list free block by the merge scan.
func (l *lockfreeList) push(addr uintptr, order int) {
	node := nodeAt(addr)
	node.tag = 0
	node.p2 = uintptr(order)
	for {
		old := atomic.LoadPointer(&l.head)
		node.next = old
		if atomic.CompareAndSwapPointer(&l.head, old, unsafe.Pointer(node)) {
			return
		}
	}
}

// pop removes and returns the top block's address, or (0, false) if empty.
func (l *lockfreeList) pop() (uintptr, bool) {
	for {
		old := atomic.LoadPointer(&l.head)
		if old == nil {
			return 0, false
		}
		node := (*freeNode)(old)
		next := atomic.LoadPointer(&node.next)
		if atomic.CompareAndSwapPointer(&l.head, old, next) {
			node.next = nil
			return uintptr(old), true
		}
	}
}
