package radix

import (
	"unsafe"

	"github.com/mcorelib/mcc/bitops"
	"github.com/mcorelib/mcc/radix/internal/minibuddy"
)

// kind selects a node's shape, spec.md §4.5.1's nsz=0..4 (scan) vs nsz=7
// (mask) distinction.
type kind uint8

const (
	kindScan kind = iota
	kindMask
)

// scanMaxBranches is the branch-count ceiling before a scan node converts
// to a mask node. spec.md sets this at 25 under its 4-byte short-pointer
// packing; this implementation keeps full-width 8-byte child pointers
// (an allowed simplification per spec.md §10's short/long-pointer note),
// which roughly halves how many branches fit the same node-size ladder.
// See DESIGN.md.
const scanMaxBranches = 12

// scanShrinkThreshold is where a mask node converts back to scan on
// erase; kept below scanMaxBranches as hysteresis so insert/erase near
// the boundary cannot oscillate node shape.
const scanShrinkThreshold = 8

// maskBlockSize is the fixed size of every mask node per spec.md §4.5.1
// ("always 128 bytes").
const maskBlockSize = minibuddy.MaxBlockSize

// node is a single radix-tree node, an ordinary Go-heap-managed struct.
// Its "handle" is a real mini-buddy allocation sized to the node's
// current content (scanSizeClass for scan nodes, always maskBlockSize
// for mask nodes): every node creation, growth, shrink, and deletion
// drives a genuine minibuddy.Alloc/Free call, and the handle's first
// four bytes carry a small header mirrored from the Go-side fields
// below, so an integrity scan can cross-check the two independently.
// Only this bookkeeping header lives in the handle; the node's actual
// keys, children, and value stay in ordinary Go fields so the garbage
// collector can trace them normally. value is stored as `any` rather
// than a type parameter so node itself need not be generic; Tree[K, V]
// type-asserts back to V at its boundary. See DESIGN.md.
type node struct {
	handle     unsafe.Pointer
	handleSize int

	kind     kind
	hasValue bool
	value    any

	prefix []byte
	branch []byte            // scan node: sorted branch bytes, parallel to children
	mask   bitops.Bitmask256 // mask node only

	children []*node

	parent     *node
	parentByte byte // branch byte at the parent that reaches this node
}

// scanSizeClass returns the mini-buddy size class (8..128) needed to back
// a scan node carrying prefixLen prefix bytes and branchCount branches,
// approximating spec.md's 8*2^nsz ladder: an 8-byte header, the prefix
// bytes, and per branch one key byte plus one 8-byte child pointer. A
// root node's prefix can exceed a single node-size class's nominal
// capacity (the very first insert into an empty tree stores the whole
// key as one prefix); this is bookkeeping only, since prefix bytes
// themselves live in a Go-managed slice, not inside the mini-buddy
// handle -- see DESIGN.md.
func scanSizeClass(prefixLen, branchCount int) int {
	need := 8 + prefixLen + branchCount*9
	for _, sz := range [5]int{8, 16, 32, 64, 128} {
		if need <= sz {
			return sz
		}
	}
	return 128
}

func newScanNode(mb *minibuddy.Allocator) *node {
	n := &node{kind: kindScan}
	n.handleSize = scanSizeClass(0, 0)
	n.handle = mb.Alloc(n.handleSize)
	n.writeHandle()
	return n
}

func newMaskNode(mb *minibuddy.Allocator) *node {
	n := &node{kind: kindMask}
	n.handleSize = maskBlockSize
	n.handle = mb.Alloc(n.handleSize)
	n.writeHandle()
	return n
}

// writeHandle mirrors the node's small header into its mini-buddy
// allocation: kind, has-value flag, and a branch/child count, none of
// which are pointers, so storing them off the Go heap is safe.
func (n *node) writeHandle() {
	if n.handle == nil {
		return
	}
	b := (*[4]byte)(n.handle)
	b[0] = byte(n.kind)
	if n.hasValue {
		b[1] = 1
	} else {
		b[1] = 0
	}
	switch n.kind {
	case kindScan:
		b[2] = byte(len(n.branch))
	case kindMask:
		b[2] = byte(n.mask.PopCount())
	}
	b[3] = byte(n.handleSize)
}

func freeNodeHandle(mb *minibuddy.Allocator, n *node) {
	if n.handle != nil {
		mb.Free(n.handle, n.handleSize)
		n.handle = nil
	}
}

// resizeScan reallocates n's handle to fit branchCount branches, freeing
// the old handle. Used by grow (branch added) and shrink (branch
// removed, next-smaller class still fits) transitions.
func (n *node) resizeScan(mb *minibuddy.Allocator, branchCount int) {
	newSize := scanSizeClass(len(n.prefix), branchCount)
	if newSize == n.handleSize {
		n.writeHandle()
		return
	}
	freeNodeHandle(mb, n)
	n.handleSize = newSize
	n.handle = mb.Alloc(newSize)
	n.writeHandle()
}
