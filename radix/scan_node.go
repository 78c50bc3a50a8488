package radix

import "github.com/mcorelib/mcc/radix/internal/minibuddy"

// findBranch implements spec.md §4.5.2's find_branch primitive: the
// index of c in the sorted branch array, or len(branch) if absent. The
// portable word-level "mark equal bytes" trick spec.md describes is a
// pure performance variant of this same linear scan; scanMaxBranches
// keeps the array small enough that the scan itself is the bottleneck,
// not its implementation.
func (n *node) findBranch(c byte) (int, bool) {
	for i, b := range n.branch {
		if b == c {
			return i, true
		}
		if b > c {
			return len(n.branch), false
		}
	}
	return len(n.branch), false
}

// findNewBranchPos implements find_new_branch_pos: the sorted insertion
// point for c.
func (n *node) findNewBranchPos(c byte) int {
	for i, b := range n.branch {
		if b >= c {
			return i
		}
	}
	return len(n.branch)
}

// insertBranch inserts (c, child) into a scan node's sorted branch array,
// growing the node's backing handle if needed. Returns false if the
// branch count would exceed scanMaxBranches (caller must convert to a
// mask node first).
func (n *node) insertBranch(mb *minibuddy.Allocator, c byte, child *node) bool {
	if len(n.branch) >= scanMaxBranches {
		return false
	}
	pos := n.findNewBranchPos(c)
	n.branch = append(n.branch, 0)
	copy(n.branch[pos+1:], n.branch[pos:len(n.branch)-1])
	n.branch[pos] = c

	n.children = append(n.children, nil)
	copy(n.children[pos+1:], n.children[pos:len(n.children)-1])
	n.children[pos] = child
	child.parent = n
	child.parentByte = c

	n.resizeScan(mb, len(n.branch))
	return true
}

// removeBranch removes the branch at c, if present, shrinking the node's
// backing handle to the next-fitting size class.
func (n *node) removeBranch(mb *minibuddy.Allocator, c byte) {
	idx, found := n.findBranch(c)
	if !found {
		return
	}
	n.branch = append(n.branch[:idx], n.branch[idx+1:]...)
	n.children = append(n.children[:idx], n.children[idx+1:]...)
	n.resizeScan(mb, len(n.branch))
}

// soleChild returns the node's only child and branch byte, valid only
// when len(branch) == 1; used by erase's collapse-upward step.
func (n *node) soleChild() (byte, *node) {
	return n.branch[0], n.children[0]
}
