package radix

import "github.com/mcorelib/mcc/mccerr"

type byteChild struct {
	b byte
	n *node
}

// frame is one level of the iterator's path-frame stack (spec.md
// §4.5.4): the node at this level, its children in ascending branch-byte
// order, which child is next to descend into, whether this node's own
// value has already been yielded, and how much of the key buffer to
// truncate back to when this frame is popped.
type frame struct {
	n            *node
	children     []byteChild
	idx          int
	emittedOwn   bool
	keyLenBefore int
}

// Iterator walks a Tree's entries in ascending byte-lexicographic key
// order (or ascending integer order, when the tree's ToKey already
// produces an order-preserving encoding -- see Options.KeySortInt).
// Iterators are invalidated by any subsequent Insert, Erase, or Clear on
// the tree they were created from, per spec.md §4.5.4's invalidation
// contract -- except through the iterator's own Insert/Erase/SetValue
// methods, which resynchronize the iterator that performed them.
type Iterator[K any, V any] struct {
	tree       *Tree[K, V]
	generation uint64
	stack      []frame
	key        []byte
	done       bool

	// cur is the node most recently positioned on, by Next, Find, Insert,
	// or a prior SetValue/Erase. SetValue and Erase act on it; it is nil
	// before the first Next/Find call and after the iterator is
	// exhausted.
	cur *node

	// pendingNode/pendingKey hold an entry already located by a seek
	// (used by Erase's post-collapse repositioning) that the next Next
	// call should surface before resuming normal stack-driven traversal.
	pendingNode *node
	pendingKey  Key
	hasPending  bool
}

// Begin returns an iterator positioned before the first entry in t.
func (t *Tree[K, V]) Begin() *Iterator[K, V] {
	it := &Iterator[K, V]{tree: t, generation: t.generation}
	if t.root != nil {
		it.pushFrame(t.root, nil, false)
	}
	return it
}

func orderedChildren(n *node) []byteChild {
	out := make([]byteChild, 0, n.branchCount())
	n.forEachChild(func(b byte, c *node) {
		out = append(out, byteChild{b, c})
	})
	return out
}

func (it *Iterator[K, V]) pushFrame(n *node, branchByte *byte, hasBranch bool) {
	keyLenBefore := len(it.key)
	if hasBranch {
		it.key = append(it.key, *branchByte)
	}
	it.key = append(it.key, n.prefix...)
	it.stack = append(it.stack, frame{
		n:            n,
		children:     orderedChildren(n),
		keyLenBefore: keyLenBefore,
	})
}

// Next advances the iterator and returns the next (key, value) pair, or
// ok=false once the iteration is exhausted.
func (it *Iterator[K, V]) Next() (Key, V, bool) {
	if it.done {
		var zero V
		return nil, zero, false
	}
	if it.tree.generation != it.generation {
		mccerr.Raise("radix.Iterator.Next", "tree mutated since iterator was created")
	}
	if it.hasPending {
		it.hasPending = false
		it.cur = it.pendingNode
		return it.pendingKey, it.tree.valueOf(it.pendingNode), true
	}
	return it.advance()
}

// advance runs the stack-driven DFS step of Next, without the
// generation/pending checks, so internal repositioning helpers can drive
// it directly once they have already re-synchronized the iterator.
func (it *Iterator[K, V]) advance() (Key, V, bool) {
	var zero V
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]

		if !top.emittedOwn {
			top.emittedOwn = true
			if top.n.hasValue {
				it.cur = top.n
				return append(Key(nil), it.key...), it.tree.valueOf(top.n), true
			}
			continue
		}

		if top.idx < len(top.children) {
			bc := top.children[top.idx]
			top.idx++
			it.pushFrame(bc.n, &bc.b, true)
			continue
		}

		// Exhausted this frame: pop and truncate the key buffer.
		it.key = it.key[:top.keyLenBefore]
		it.stack = it.stack[:len(it.stack)-1]
	}

	it.done = true
	it.cur = nil
	return nil, zero, false
}

// Find implements spec.md §6's itfind: it repositions it at key, if
// present, returning its value directly (as Tree.Find would) and leaving
// the iterator so that Next resumes ascending from the first entry
// strictly after key. Entries before key, including any ancestor prefix's
// own value, are considered already consumed and are not re-yielded --
// this matches how Next would have reached key in a single uninterrupted
// traversal. If key is absent, it leaves the iterator's position
// unchanged and returns ok=false.
func (it *Iterator[K, V]) Find(key K) (V, bool) {
	var zero V
	if it.tree.generation != it.generation {
		mccerr.Raise("radix.Iterator.Find", "tree mutated since iterator was created")
	}
	kb := it.tree.opts.ToKey(key)
	res := walk(it.tree.root, kb, 0)
	if res.node == nil || !res.exact || !res.node.hasValue {
		return zero, false
	}
	it.resetTo(res.node)
	return it.tree.valueOf(res.node), true
}

// resetTo rebuilds the frame stack from scratch along n's parent chain,
// positioning the iterator at n with every ancestor frame's own value
// marked already emitted and its child cursor advanced past the branch
// leading to n, so Next resumes with n's own children (not yet visited)
// and then each ancestor's later siblings in turn -- neither n's
// ancestors nor the subtrees already passed through on the way down to n
// are revisited. Valid only when n's parent chain reflects the tree's
// current structure (true immediately after Find or a successful Insert;
// not true after a collapse, which is why Erase uses reseekAfter
// instead).
func (it *Iterator[K, V]) resetTo(n *node) {
	var path []*node
	for p := n; p != nil; p = p.parent {
		path = append(path, p)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	it.stack = it.stack[:0]
	it.key = it.key[:0]
	it.hasPending = false
	it.done = false
	for i, p := range path {
		keyLenBefore := len(it.key)
		if i > 0 {
			it.key = append(it.key, p.parentByte)
		}
		it.key = append(it.key, p.prefix...)
		children := orderedChildren(p)
		idx := 0
		if i+1 < len(path) {
			nextByte := path[i+1].parentByte
			for j, bc := range children {
				if bc.b == nextByte {
					idx = j + 1
					break
				}
			}
		}
		it.stack = append(it.stack, frame{
			n:            p,
			children:     children,
			idx:          idx,
			emittedOwn:   true,
			keyLenBefore: keyLenBefore,
		})
	}
	it.cur = n
}

// reseekAfter rebuilds the iterator from a fresh Begin-style walk and
// fast-forwards to the first entry whose key is strictly greater than
// after, buffering it as pendingNode/pendingKey for the next Next call.
// Used by Erase, whose upward collapse can free or replace nodes an
// in-place frame-stack patch could not safely account for.
func (it *Iterator[K, V]) reseekAfter(after []byte) {
	it.stack = it.stack[:0]
	it.key = it.key[:0]
	it.cur = nil
	it.done = false
	it.hasPending = false
	if it.tree.root != nil {
		it.pushFrame(it.tree.root, nil, false)
	}
	for {
		k, _, ok := it.advance()
		if !ok {
			return
		}
		if Key(after).LessThan(k) {
			it.pendingNode = it.cur
			it.pendingKey = k
			it.hasPending = true
			it.cur = nil
			return
		}
	}
}

// SetValue implements spec.md §6's setval: it overwrites the value at the
// iterator's current position (the entry most recently returned by Next,
// Find, or Insert) without otherwise disturbing the iterator, and reports
// whether there was a current position to update.
func (it *Iterator[K, V]) SetValue(v V) bool {
	if it.tree.generation != it.generation {
		mccerr.Raise("radix.Iterator.SetValue", "tree mutated since iterator was created")
	}
	if it.cur == nil {
		return false
	}
	it.cur.hasValue = true
	it.tree.setValue(it.cur, v)
	it.cur.writeHandle()
	it.generation = it.tree.generation
	return true
}

// Insert implements spec.md §6's itinsert: it inserts key/value through
// the tree exactly as Tree.Insert would, then repositions the iterator at
// the (possibly pre-existing) entry for key, so Next resumes ascending
// from just after it. If the insert was rejected (tree at capacity and
// key was not already present), the iterator's position is left
// unchanged.
func (it *Iterator[K, V]) Insert(key K, value V) (V, bool) {
	if it.tree.generation != it.generation {
		mccerr.Raise("radix.Iterator.Insert", "tree mutated since iterator was created")
	}
	old, existed := it.tree.Insert(key, value)
	it.generation = it.tree.generation

	kb := it.tree.opts.ToKey(key)
	res := walk(it.tree.root, kb, 0)
	if res.node != nil && res.exact && res.node.hasValue {
		it.resetTo(res.node)
	}
	return old, existed
}

// Erase implements spec.md §6's iterase: it erases the entry at the
// iterator's current position and repositions the iterator so Next
// resumes ascending from the first remaining entry strictly after the
// erased key. Reports whether there was a current position to erase.
func (it *Iterator[K, V]) Erase() (V, bool) {
	var zero V
	if it.tree.generation != it.generation {
		mccerr.Raise("radix.Iterator.Erase", "tree mutated since iterator was created")
	}
	if it.cur == nil || !it.cur.hasValue {
		return zero, false
	}

	erasedKey := append([]byte(nil), it.key...)
	old := it.tree.eraseNode(it.cur)
	it.generation = it.tree.generation
	it.reseekAfter(erasedKey)
	return old, true
}
