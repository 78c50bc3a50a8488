package radix

import "github.com/mcorelib/mcc/radix/internal/minibuddy"

// convertToMask implements spec.md §4.5.1's Scan -> Mask transition: a
// fresh mask node is allocated, every branch is copied across, and the
// old scan node's handle is released.
func convertToMask(mb *minibuddy.Allocator, scan *node) *node {
	m := newMaskNode(mb)
	m.prefix = scan.prefix
	m.hasValue = scan.hasValue
	m.value = scan.value
	m.parent = scan.parent
	m.parentByte = scan.parentByte

	scan.forEachChild(func(b byte, c *node) {
		m.setChild(b, c)
	})

	freeNodeHandle(mb, scan)
	m.writeHandle()
	return m
}

// convertToScan implements the Mask -> Scan transition, used on erase
// once branch count drops to scanShrinkThreshold or below.
func convertToScan(mb *minibuddy.Allocator, mask *node) *node {
	s := newScanNode(mb)
	s.prefix = mask.prefix
	s.hasValue = mask.hasValue
	s.value = mask.value
	s.parent = mask.parent
	s.parentByte = mask.parentByte

	mask.forEachChild(func(b byte, c *node) {
		s.insertBranch(mb, b, c)
	})

	freeNodeHandle(mb, mask)
	s.writeHandle()
	return s
}

// maybeGrow converts a scan node to a mask node once adding one more
// branch would exceed scanMaxBranches. Returns the (possibly replaced)
// node and updates the parent's child/branch reference to point at it.
func maybeGrow(mb *minibuddy.Allocator, n *node) *node {
	if n.kind != kindScan || len(n.branch) < scanMaxBranches {
		return n
	}
	replacement := convertToMask(mb, n)
	relinkInParent(replacement)
	return replacement
}

// maybeShrink converts a mask node back to scan once its branch count
// falls to scanShrinkThreshold or below (hysteresis against the
// scanMaxBranches growth boundary, per spec.md §4.5.1).
func maybeShrink(mb *minibuddy.Allocator, n *node) *node {
	if n.kind != kindMask || n.mask.PopCount() > scanShrinkThreshold {
		return n
	}
	replacement := convertToScan(mb, n)
	relinkInParent(replacement)
	return replacement
}

// relinkInParent updates n's parent to reference n instead of whatever
// node previously occupied n.parentByte's slot, and re-parents n's own
// children (their parent field still points at the pre-conversion node).
func relinkInParent(n *node) {
	for _, c := range n.children {
		if c != nil {
			c.parent = n
		}
	}
	p := n.parent
	if p == nil {
		return
	}
	if p.kind == kindScan {
		idx, found := p.findBranch(n.parentByte)
		if found {
			p.children[idx] = n
		}
		return
	}
	rank := p.mask.Rank(n.parentByte)
	p.children[rank] = n
}
