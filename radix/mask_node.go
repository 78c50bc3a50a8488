package radix

// findChildMask implements the mask-node half of spec.md §4.5.2's
// traversal: a presence test against the 256-bit bitmask followed by a
// rank lookup into the densely packed children slice. This replaces
// spec.md's grouped-by-top-5-bits next-block chain with a single flat
// array sized to the mask's popcount (see DESIGN.md); the bitmask-driven
// addressing and the "local cells avoid an extra allocation for small
// groups" intent are preserved in spirit by never allocating more
// children slots than are actually present.
func (n *node) findChildMask(c byte) (*node, bool) {
	if !n.mask.IsSet(c) {
		return nil, false
	}
	return n.children[n.mask.Rank(c)], true
}

// setChild inserts child at byte c into a mask node, maintaining the
// rank-ordered children slice.
func (n *node) setChild(c byte, child *node) {
	rank := n.mask.Rank(c)
	n.mask.Set(c)
	n.children = append(n.children, nil)
	copy(n.children[rank+1:], n.children[rank:len(n.children)-1])
	n.children[rank] = child
	child.parent = n
	child.parentByte = c
	n.writeHandle()
}

// removeChild clears byte c from a mask node, if present.
func (n *node) removeChild(c byte) {
	if !n.mask.IsSet(c) {
		return
	}
	rank := n.mask.Rank(c)
	n.mask.Clear(c)
	n.children = append(n.children[:rank], n.children[rank+1:]...)
	n.writeHandle()
}

// branchCount returns the number of live children, regardless of node
// shape; used by the grow/shrink conversion decision.
func (n *node) branchCount() int {
	if n.kind == kindScan {
		return len(n.branch)
	}
	return n.mask.PopCount()
}

// forEachChild visits a node's (branch byte, child) pairs in ascending
// byte order, used by convert and by the iterator's leftmost descent.
func (n *node) forEachChild(f func(b byte, c *node)) {
	if n.kind == kindScan {
		for i, b := range n.branch {
			f(b, n.children[i])
		}
		return
	}
	idx := -1
	for {
		next, ok := n.mask.FindNextSet(idx)
		if !ok {
			return
		}
		idx = next
		f(byte(idx), n.children[n.mask.Rank(byte(idx))])
	}
}
