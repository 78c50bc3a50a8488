// Package nodepool implements the fixed-size-node sub-allocator of
// spec.md §4.3: O(1) alloc/free over a circular doubly-linked list of
// buddy-allocator-backed blocks, with cache-aware first-slot alignment.
// Alloc takes a slot from the head block's in-block free list first and
// falls back to a "fresh" cursor that hands out never-used slots.
//
// Grounded on the fixed-size pooling idiom of cloudwego-gopkg's
// cache/mempool and the indirect-index, cache-line-aware buffer pools of
// hayabusa-cloud-iobuf's pool.go/bounded_pool.go.
package nodepool

import (
	"unsafe"

	"github.com/mcorelib/mcc/buddy"
	"github.com/mcorelib/mcc/mccerr"
)

// WordSize is the machine word size this package aligns to, used for the
// "2 x word-size" fallback alignment rule in spec.md §3.
const WordSize = unsafe.Sizeof(uintptr(0))

// superblockGap is the number of trailing bytes left unused when a pool
// block happens to be the last block of a 4 MiB buddy superblock, so that
// a 16-byte-aligned SIMD load overhanging the final node by up to 15
// bytes cannot run past mapped memory. See spec.md §3 "Superblock-edge
// gap".
const superblockGap = 15

// blockHeader sits at the start of every pool block. Node slots follow it
// at firstSlotOffset (computed per-pool, see Pool.init).
type blockHeader struct {
	next, prev *blockHeader
	freelist   unsafe.Pointer // singly-linked in-block free nodes (LIFO)
	freeCount  int
	capacity   int // slot count for *this* block (less than the pool-wide max if this block sits at a superblock edge)
}

func blockHeaderOf(node unsafe.Pointer, blockSize int) *blockHeader {
	addr := uintptr(node) &^ uintptr(blockSize-1)
	return (*blockHeader)(unsafe.Pointer(addr))
}

// Pool is a fixed-node-size sub-allocator. The zero value is not usable;
// construct one with New.
type Pool struct {
	nodeSize        int
	blockSize       int
	firstSlotOffset int
	slotsPerBlock   int // capacity of a non-edge block

	buddy *buddy.Allocator

	head       *blockHeader
	freshBlock *blockHeader
	freshPtr   uintptr
	freshEnd   uintptr

	numBlocks int
	numLive   int
}

// New creates a node pool drawing blockSize-byte blocks from b, each
// subdivided into nodeSize-byte slots. nodeSize must be >= WordSize;
// blockSize must be a power of two within the buddy allocator's range.
func New(b *buddy.Allocator, nodeSize, blockSize int) *Pool {
	if nodeSize < int(WordSize) {
		mccerr.Raise("nodepool.New", "nodeSize must be >= word size")
	}
	if blockSize <= 0 || blockSize&(blockSize-1) != 0 {
		mccerr.Raise("nodepool.New", "blockSize must be a power of two")
	}

	p := &Pool{
		nodeSize:  nodeSize,
		blockSize: blockSize,
		buddy:     b,
	}
	p.firstSlotOffset = firstSlotAlignment(nodeSize)
	p.slotsPerBlock = (blockSize - p.firstSlotOffset) / nodeSize
	return p
}

// firstSlotAlignment implements spec.md §3's rule: if node-size divides
// cache-line size, align the first slot to min(node-size, cache-line
// size); otherwise align to 2 x word-size.
func firstSlotAlignment(nodeSize int) int {
	headerSize := int(unsafe.Sizeof(blockHeader{}))
	var align int
	if CacheLineSize%nodeSize == 0 {
		align = min(nodeSize, CacheLineSize)
	} else {
		align = 2 * int(WordSize)
	}
	return roundUp(headerSize, align)
}

func roundUp(v, align int) int {
	return (v + align - 1) &^ (align - 1)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// isSuperblockEdge reports whether the block at addr is the last block of
// its 4 MiB buddy superblock, purely from address arithmetic: superblocks
// are buddy.MaxBlockSize-aligned, so the final block's offset within its
// superblock is MaxBlockSize - blockSize.
func (p *Pool) isSuperblockEdge(addr uintptr) bool {
	return addr&uintptr(buddy.MaxBlockSize-1) == uintptr(buddy.MaxBlockSize-p.blockSize)
}

func (p *Pool) capacityFor(addr uintptr) int {
	if p.isSuperblockEdge(addr) {
		gapSlots := (superblockGap + p.nodeSize - 1) / p.nodeSize
		return p.slotsPerBlock - gapSlots
	}
	return p.slotsPerBlock
}

// newBlock draws a fresh block from the buddy allocator and initializes
// its header and fresh cursor.
func (p *Pool) newBlock() *blockHeader {
	raw := p.buddy.Alloc(p.blockSize)
	if raw == nil {
		return nil
	}
	hdr := (*blockHeader)(raw)
	hdr.freelist = nil
	hdr.freeCount = 0
	hdr.capacity = p.capacityFor(uintptr(raw))
	p.numBlocks++
	return hdr
}

// spliceAsOnlyBlock makes hdr a singleton circular list and the pool's
// head and fresh block.
func (p *Pool) spliceAsOnlyBlock(hdr *blockHeader) {
	hdr.next = hdr
	hdr.prev = hdr
	p.head = hdr
	p.freshBlock = hdr
	p.freshPtr = uintptr(unsafe.Pointer(hdr)) + uintptr(p.firstSlotOffset)
	p.freshEnd = p.freshPtr + uintptr(hdr.capacity*p.nodeSize)
}

// spliceFront puts hdr at the front of the circular list. If the head is
// a fresh block that still has unused slots, hdr goes right after it and
// the head is kept; otherwise hdr goes before the head and becomes it.
func (p *Pool) spliceFront(hdr *blockHeader) {
	if p.head == nil {
		p.spliceAsOnlyBlock(hdr)
		return
	}
	if p.freshBlock == p.head && p.freshPtr < p.freshEnd {
		hdr.prev = p.head
		hdr.next = p.head.next
		p.head.next.prev = hdr
		p.head.next = hdr
		return
	}
	tail := p.head.prev
	hdr.next = p.head
	hdr.prev = tail
	tail.next = hdr
	p.head.prev = hdr
	p.head = hdr
}

// unsplice removes hdr from the circular list. The caller must ensure hdr
// is not the sole remaining block.
func (p *Pool) unsplice(hdr *blockHeader) {
	hdr.prev.next = hdr.next
	hdr.next.prev = hdr.prev
	if p.head == hdr {
		p.head = hdr.next
	}
	if p.freshBlock == hdr {
		p.freshBlock = nil
		p.freshPtr, p.freshEnd = 0, 0
	}
	p.numBlocks--
}

// Alloc returns a new node slot, or nil if the backing buddy allocator is
// exhausted.
func (p *Pool) Alloc() unsafe.Pointer {
	if p.head == nil {
		hdr := p.newBlock()
		if hdr == nil {
			return nil
		}
		p.spliceAsOnlyBlock(hdr)
	}

	head := p.head
	if head.freelist != nil {
		node := head.freelist
		head.freelist = *(*unsafe.Pointer)(node)
		head.freeCount--
		p.numLive++
		return node
	}

	if p.freshBlock == head && p.freshPtr < p.freshEnd {
		node := unsafe.Pointer(p.freshPtr)
		p.freshPtr += uintptr(p.nodeSize)
		p.numLive++
		return node
	}

	// Head is exhausted: rotate to the next block.
	next := head.next
	p.head = next
	if next.freelist == nil && !(p.freshBlock == next && p.freshPtr < p.freshEnd) {
		hdr := p.newBlock()
		if hdr == nil {
			// Roll the head pointer back; caller can retry later.
			p.head = head
			return nil
		}
		p.spliceFront(hdr)
		p.freshBlock = hdr
		p.freshPtr = uintptr(unsafe.Pointer(hdr)) + uintptr(p.firstSlotOffset)
		p.freshEnd = p.freshPtr + uintptr(hdr.capacity*p.nodeSize)
	}
	return p.Alloc()
}

// Free returns node to the pool.
func (p *Pool) Free(node unsafe.Pointer) {
	hdr := blockHeaderOf(node, p.blockSize)
	hdr.freeCount++
	*(*unsafe.Pointer)(node) = hdr.freelist
	hdr.freelist = node
	p.numLive--

	if p.blockEntirelyFree(hdr) && p.numBlocks > 1 {
		addr := uintptr(unsafe.Pointer(hdr))
		p.unsplice(hdr)
		p.buddy.Free(unsafe.Pointer(addr), p.blockSize)
		return
	}

	if hdr.freeCount == 1 && hdr != p.head {
		p.unsplice(hdr)
		p.spliceFront(hdr)
		p.numBlocks++
	}
}

// blockEntirelyFree implements invariant 4 from spec.md §8, accounting
// for unused-but-never-allocated slots below the fresh cursor.
func (p *Pool) blockEntirelyFree(hdr *blockHeader) bool {
	unusedFresh := 0
	if p.freshBlock == hdr {
		unusedFresh = int(p.freshEnd-p.freshPtr) / p.nodeSize
	}
	return hdr.freeCount+unusedFresh == hdr.capacity
}

// Clear releases every block back to the buddy allocator.
func (p *Pool) Clear() {
	if p.head == nil {
		return
	}
	start := p.head
	cur := start
	for {
		nxt := cur.next
		p.buddy.Free(unsafe.Pointer(cur), p.blockSize)
		if nxt == start {
			break
		}
		cur = nxt
	}
	p.head = nil
	p.freshBlock = nil
	p.freshPtr, p.freshEnd = 0, 0
	p.numBlocks = 0
	p.numLive = 0
}

// Delete releases all blocks; equivalent to Clear.
func (p *Pool) Delete() { p.Clear() }

// NumLive returns the number of currently allocated (un-freed) nodes.
func (p *Pool) NumLive() int { return p.numLive }

// NumBlocks returns the number of backing blocks currently held.
func (p *Pool) NumBlocks() int { return p.numBlocks }
