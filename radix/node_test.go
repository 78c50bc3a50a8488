package radix

import (
	"testing"

	"github.com/mcorelib/mcc/buddy"
	"github.com/mcorelib/mcc/nodepool"
	"github.com/mcorelib/mcc/radix/internal/minibuddy"
)

func newTestMB(t *testing.T) *minibuddy.Allocator {
	t.Helper()
	b := buddy.New()
	pool := nodepool.New(b, minibuddy.MaxBlockSize, 32*1024)
	return minibuddy.New(pool)
}

func TestScanNodeInsertFindRemoveBranch(t *testing.T) {
	mb := newTestMB(t)
	n := newScanNode(mb)

	leafA := newScanNode(mb)
	leafB := newScanNode(mb)
	leafC := newScanNode(mb)

	if !n.insertBranch(mb, 'b', leafB) {
		t.Fatalf("insertBranch('b') failed")
	}
	if !n.insertBranch(mb, 'a', leafA) {
		t.Fatalf("insertBranch('a') failed")
	}
	if !n.insertBranch(mb, 'c', leafC) {
		t.Fatalf("insertBranch('c') failed")
	}

	want := []byte{'a', 'b', 'c'}
	for i, b := range want {
		if n.branch[i] != b {
			t.Fatalf("branch[%d] = %q, want %q (full: %v)", i, n.branch[i], b, n.branch)
		}
	}

	idx, found := n.findBranch('b')
	if !found || n.children[idx] != leafB {
		t.Fatalf("findBranch('b') = %d, %v; want leafB's index", idx, found)
	}

	n.removeBranch(mb, 'b')
	if _, found := n.findBranch('b'); found {
		t.Fatalf("'b' still present after removeBranch")
	}
	if len(n.branch) != 2 {
		t.Fatalf("len(branch) = %d, want 2 after remove", len(n.branch))
	}
}

func TestScanNodeInsertBranchRejectsOverCapacity(t *testing.T) {
	mb := newTestMB(t)
	n := newScanNode(mb)
	for i := 0; i < scanMaxBranches; i++ {
		leaf := newScanNode(mb)
		if !n.insertBranch(mb, byte('a'+i), leaf) {
			t.Fatalf("insertBranch #%d unexpectedly failed", i)
		}
	}
	leaf := newScanNode(mb)
	if n.insertBranch(mb, byte('a'+scanMaxBranches), leaf) {
		t.Fatalf("insertBranch beyond scanMaxBranches should fail")
	}
}

func TestMaskNodeSetFindRemoveChild(t *testing.T) {
	mb := newTestMB(t)
	n := newMaskNode(mb)

	children := map[byte]*node{}
	for _, b := range []byte{5, 200, 0, 255, 128} {
		c := newScanNode(mb)
		n.setChild(b, c)
		children[b] = c
	}

	for b, want := range children {
		got, ok := n.findChildMask(b)
		if !ok || got != want {
			t.Fatalf("findChildMask(%d) = %v, %v; want matching child", b, got, ok)
		}
	}
	if n.branchCount() != len(children) {
		t.Fatalf("branchCount() = %d, want %d", n.branchCount(), len(children))
	}

	n.removeChild(200)
	if _, ok := n.findChildMask(200); ok {
		t.Fatalf("child 200 still present after removeChild")
	}
	if n.branchCount() != len(children)-1 {
		t.Fatalf("branchCount() after remove = %d, want %d", n.branchCount(), len(children)-1)
	}
}

func TestConvertScanToMaskAndBack(t *testing.T) {
	mb := newTestMB(t)
	scan := newScanNode(mb)
	for i := 0; i < scanMaxBranches; i++ {
		leaf := newScanNode(mb)
		leaf.hasValue = true
		scan.insertBranch(mb, byte('a'+i), leaf)
	}

	mask := convertToMask(mb, scan)
	if mask.kind != kindMask {
		t.Fatalf("convertToMask did not produce a mask node")
	}
	if mask.branchCount() != scanMaxBranches {
		t.Fatalf("branchCount after convert = %d, want %d", mask.branchCount(), scanMaxBranches)
	}
	for i := 0; i < scanMaxBranches; i++ {
		if _, ok := mask.findChildMask(byte('a' + i)); !ok {
			t.Fatalf("branch %q missing after convertToMask", byte('a'+i))
		}
	}

	// Remove enough branches to cross the shrink threshold, then convert
	// back explicitly (mirrors what maybeShrink would trigger on erase).
	for i := 0; i < scanMaxBranches-scanShrinkThreshold+1; i++ {
		mask.removeChild(byte('a' + i))
	}
	back := convertToScan(mb, mask)
	if back.kind != kindScan {
		t.Fatalf("convertToScan did not produce a scan node")
	}
	if back.branchCount() != scanShrinkThreshold-1 {
		t.Fatalf("branchCount after convert back = %d, want %d", back.branchCount(), scanShrinkThreshold-1)
	}
}

func TestForEachChildAscendingOrderBothShapes(t *testing.T) {
	mb := newTestMB(t)

	scan := newScanNode(mb)
	for _, b := range []byte{'c', 'a', 'b'} {
		scan.insertBranch(mb, b, newScanNode(mb))
	}
	var gotScan []byte
	scan.forEachChild(func(b byte, _ *node) { gotScan = append(gotScan, b) })
	wantScan := []byte{'a', 'b', 'c'}
	for i, b := range wantScan {
		if gotScan[i] != b {
			t.Fatalf("scan forEachChild order[%d] = %q, want %q", i, gotScan[i], b)
		}
	}

	mask := newMaskNode(mb)
	for _, b := range []byte{200, 5, 100} {
		mask.setChild(b, newScanNode(mb))
	}
	var gotMask []byte
	mask.forEachChild(func(b byte, _ *node) { gotMask = append(gotMask, b) })
	wantMask := []byte{5, 100, 200}
	for i, b := range wantMask {
		if gotMask[i] != b {
			t.Fatalf("mask forEachChild order[%d] = %d, want %d", i, gotMask[i], b)
		}
	}
}
