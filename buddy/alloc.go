package buddy

import (
	"unsafe"

	"github.com/mcorelib/mcc/bitops"
)

// allocNormal runs with a.lock held. It implements spec.md's normal-path
// allocation: find the smallest non-empty locked free list with exponent
// >= order (via FFS over the non-empty bitmap); if larger, split and push
// the right-hand buddies into their own classes; if nothing suffices,
// drain a same-or-larger lock-free list (migrating it onto the locked
// lists) before cutting a fresh superblock.
func (a *Allocator) allocNormal(order int) unsafe.Pointer {
	addr, found := a.takeFromLocked(order)
	if !found {
		addr, found = a.takeFromLockfree(order)
	}
	if !found {
		addr = a.newSuperblock()
		if addr == 0 {
			return nil
		}
		// A fresh superblock is always maxOrder; split it down.
		addr = a.splitDown(addr, maxOrder, order)
	}
	return unsafe.Pointer(addr)
}

// takeFromLocked pops a block of exactly order, or splits the smallest
// sufficient larger locked block down to order. Returns ok=false if no
// locked list has anything usable.
func (a *Allocator) takeFromLocked(order int) (uintptr, bool) {
	mask := a.nonEmptyLocked &^ ((uint32(1) << uint(order)) - 1)
	if mask == 0 {
		return 0, false
	}
	o := bitops.FindFirstSet32(mask)
	addr, ok := a.locked[o].pop()
	if !ok {
		return 0, false
	}
	if a.locked[o].empty() {
		a.nonEmptyLocked &^= uint32(1) << uint(o)
	}
	if o > order {
		addr = a.splitDown(addr, o, order)
	}
	return addr, true
}

// splitDown repeatedly halves the block at addr (currently of class from)
// until it is of class to, pushing each right-hand buddy onto the locked
// free list of its own class, per spec.md's split description. It returns
// the (possibly unchanged) left-hand address, now of class to.
func (a *Allocator) splitDown(addr uintptr, from, to int) uintptr {
	for from > to {
		from--
		right := addr + uintptr(MinBlockSize<<uint(from))
		a.locked[from].push(right, from)
		a.nonEmptyLocked |= uint32(1) << uint(from)
	}
	return addr
}

// takeFromLockfree drains a same-or-larger-order lock-free list under the
// lock, migrating the block onto the locked lists (splitting it down if it
// came from a larger class). This is how blocks freed under contention
// eventually rejoin the mergeable pool, per spec.md §4.2.
func (a *Allocator) takeFromLockfree(order int) (uintptr, bool) {
	for o := order; o <= maxOrder; o++ {
		if addr, ok := a.lockfree[o].pop(); ok {
			if o > order {
				addr = a.splitDown(addr, o, order)
			}
			return addr, true
		}
	}
	return 0, false
}

// freeNormal runs with a.lock held. It implements spec.md's unlock-aware
// merge: while the buddy of the block is on the locked list of the same
// class, unlink it and promote to the joined block; when the merge
// reaches maxOrder, the resulting superblock is donated to the cached
// spare slot (displacing and returning any previous occupant to the OS).
func (a *Allocator) freeNormal(ptr unsafe.Pointer, order int) {
	addr := uintptr(ptr)
	p := order
	for p < maxOrder {
		buddyAddr := buddyOf(addr, p)
		buddy := nodeAt(buddyAddr)
		if buddy.tag&freeBit == 0 || buddy.p2 != uintptr(p) {
			break
		}
		a.locked[p].unlink(buddy)
		if a.locked[p].empty() {
			a.nonEmptyLocked &^= uint32(1) << uint(p)
		}
		if buddyAddr < addr {
			addr = buddyAddr
		}
		p++
	}
	if p == maxOrder {
		a.donateSuperblock(addr)
		return
	}
	a.locked[p].push(addr, p)
	a.nonEmptyLocked |= uint32(1) << uint(p)
}

// allocContended runs without the lock held (it lost the fast-path CAS).
// It walks the lock-free lists from order upward, splitting a larger hit
// down (pushing remainders back onto lock-free lists via CAS — never
// locked lists, and never merging), and only cuts a brand-new superblock
// from the OS if nothing at all is available.
func (a *Allocator) allocContended(order int) unsafe.Pointer {
	for o := order; o <= maxOrder; o++ {
		if addr, ok := a.lockfree[o].pop(); ok {
			for o > order {
				o--
				right := addr + uintptr(MinBlockSize<<uint(o))
				a.lockfree[o].push(right, o)
			}
			return unsafe.Pointer(addr)
		}
	}
	addr := a.newSuperblock()
	if addr == 0 {
		return nil
	}
	for o := maxOrder; o > order; o-- {
		right := addr + uintptr(MinBlockSize<<uint(o-1))
		a.lockfree[o-1].push(right, o-1)
	}
	return unsafe.Pointer(addr)
}

// freeContended pushes the block directly onto the lock-free list for its
// class. Per spec.md, lock-free-listed blocks never merge; they wait
// until either popped back out under contention or drained into the
// locked lists by a future allocNormal call.
func (a *Allocator) freeContended(ptr unsafe.Pointer, order int) {
	a.lockfree[order].push(uintptr(ptr), order)
}

// buddyOf returns the address of the buddy of the block at addr with
// class order: toggle bit (MinP2+order) of the address.
func buddyOf(addr uintptr, order int) uintptr {
	return addr ^ uintptr(MinBlockSize<<uint(order))
}

// newSuperblock returns a fresh MaxBlockSize-aligned superblock, preferring
// the cached spare before asking the OS.
func (a *Allocator) newSuperblock() uintptr {
	if p := a.spare.Swap(0); p != 0 {
		return p
	}
	ptr := a.os.AllocAligned()
	if ptr == nil {
		a.log.Warnf("buddy: OS superblock allocation failed")
		if a.abortOnOOM {
			panic("buddy: out of memory")
		}
		return 0
	}
	return uintptr(ptr)
}

// donateSuperblock caches addr as the spare, returning any block it
// displaces to the OS.
func (a *Allocator) donateSuperblock(addr uintptr) {
	old := a.spare.Swap(addr)
	if old != 0 {
		a.os.FreeAligned(unsafe.Pointer(old))
	}
}
