// Package radix implements the PATRICIA-style radix tree of spec.md
// §4.5: a generic, capacity-bounded key/value index built on top of a
// per-tree internal mini-buddy allocator (radix/internal/minibuddy),
// which in turn draws its superblocks from a
// github.com/mcorelib/mcc/nodepool pool backed by the process-wide
// github.com/mcorelib/mcc/buddy allocator.
package radix

import (
	"github.com/mcorelib/mcc/buddy"
	"github.com/mcorelib/mcc/mccconfig"
	"github.com/mcorelib/mcc/mcclog"
	"github.com/mcorelib/mcc/nodepool"
	"github.com/mcorelib/mcc/radix/internal/minibuddy"
)

// Tree is a generic radix tree mapping keys of type K to values of type
// V. The zero value is not usable; construct one with New. A Tree is not
// safe for concurrent use: callers must serialize access themselves.
type Tree[K any, V any] struct {
	opts mccconfig.Options[K, V]
	log  mcclog.Logger

	buddy *buddy.Allocator
	pool  *nodepool.Pool
	mb    *minibuddy.Allocator

	root *node
	size uint64

	capacity   uint64
	generation uint64

	ownsBuddy bool
}

// Option configures a Tree at construction time.
type Option[K any, V any] func(*Tree[K, V])

// WithLogger installs a diagnostic logger; the default is mcclog.Noop.
func WithLogger[K any, V any](l mcclog.Logger) Option[K, V] {
	return func(t *Tree[K, V]) { t.log = l }
}

// WithBuddyAllocator shares an existing process-wide buddy allocator
// instead of creating a private one. The tree does not take ownership:
// Delete will not release the allocator's cached spare superblock.
func WithBuddyAllocator[K any, V any](b *buddy.Allocator) Option[K, V] {
	return func(t *Tree[K, V]) { t.buddy = b }
}

// New creates an empty tree configured by opts. opts.ToKey must be
// non-nil.
func New[K any, V any](opts mccconfig.Options[K, V], options ...Option[K, V]) *Tree[K, V] {
	t := &Tree[K, V]{opts: opts, log: mcclog.Noop, capacity: opts.Capacity}
	for _, o := range options {
		o(t)
	}
	if t.opts.ToKey == nil {
		panic("radix.New: Options.ToKey must be set")
	}
	if t.buddy == nil {
		t.buddy = buddy.New(buddy.WithLogger(t.log))
		t.ownsBuddy = true
	}

	blockSize := opts.BlockSize
	if blockSize == 0 {
		blockSize = mccconfig.DefaultBlockSize
	}
	t.pool = nodepool.New(t.buddy, minibuddy.MaxBlockSize, blockSize)
	t.mb = minibuddy.New(t.pool)
	return t
}

// Size returns the number of live keys.
func (t *Tree[K, V]) Size() int { return int(t.size) }

// Empty reports whether the tree holds no keys.
func (t *Tree[K, V]) Empty() bool { return t.size == 0 }

// MaxSize returns the tree's configured capacity, or 0 if unbounded.
func (t *Tree[K, V]) MaxSize() uint64 { return t.capacity }

// Clear empties the tree. In MMPerformance mode this hands every
// mini-buddy node back to the node pool in one pass without walking the
// tree; otherwise (MMCompact, the default)
// it walks the tree freeing node-by-node, exercising the same
// minibuddy/nodepool free paths a steady-state Erase would. Either way,
// any outstanding Iterator is invalidated.
func (t *Tree[K, V]) Clear() {
	if t.opts.Mode == mccconfig.MMPerformance {
		t.mb.Clear()
	} else {
		t.clearRecursive(t.root)
	}
	t.root = nil
	t.size = 0
	t.generation++
}

func (t *Tree[K, V]) clearRecursive(n *node) {
	if n == nil {
		return
	}
	for _, c := range n.children {
		t.clearRecursive(c)
	}
	freeNodeHandle(t.mb, n)
}

// Delete releases the tree's entire backing storage. If the tree was
// constructed with a private buddy allocator (the default), Delete also
// releases that allocator's cached spare superblock, per spec.md §3's
// buddy-allocator lifecycle ("destroyed on explicit teardown, which
// releases only the cached spare").
func (t *Tree[K, V]) Delete() {
	t.Clear()
	t.pool.Delete()
	if t.ownsBuddy {
		t.buddy.Delete()
	}
}

// valueOf returns the value stored at n, type-asserted back to V.
func (t *Tree[K, V]) valueOf(n *node) V {
	if n.value == nil {
		var zero V
		return zero
	}
	return n.value.(V)
}

func (t *Tree[K, V]) setValue(n *node, v V) {
	if t.opts.FreeValue != nil && n.value != nil {
		t.opts.FreeValue(n.value.(V))
	}
	if t.opts.CopyValue != nil {
		v = t.opts.CopyValue(v)
	}
	n.value = v
	t.generation++
}

// storeValue stores v at n, unless the tree is configured value-free
// (Options.NoValue, spec.md §6's NO_VALUE), in which case v is discarded
// entirely -- only the generation bump setValue would otherwise have
// produced (iterator invalidation) still happens.
func (t *Tree[K, V]) storeValue(n *node, v V) {
	if t.opts.NoValue {
		t.generation++
		return
	}
	t.setValue(n, v)
}

func (t *Tree[K, V]) clearValue(n *node) {
	if t.opts.FreeValue != nil && n.value != nil {
		t.opts.FreeValue(n.value.(V))
	}
	n.value = nil
}
