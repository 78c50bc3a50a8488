package main

import (
	"sync"

	set3 "github.com/TomTonic/Set3"

	"github.com/mcorelib/mcc/mccconfig"
	"github.com/mcorelib/mcc/radix"
)

// stringMultiMap is a thread-safe multi-map from normalized string keys to a
// set of values, the one external collaborator spec.md §1 names as out of
// scope for the core engine but needed by a usable demo harness: values for
// a key are aggregated in a *set3.Set3[T] rather than a single slot, the
// same shape TomTonic-multimap's own MultiMap exposes, except keys here are
// indexed by a radix.Tree instead of a linear slice.
type stringMultiMap[T comparable] struct {
	mu   sync.RWMutex
	tree *radix.Tree[string, *set3.Set3[T]]
}

func newStringMultiMap[T comparable]() *stringMultiMap[T] {
	return &stringMultiMap[T]{
		tree: radix.New[string, *set3.Set3[T]](mccconfig.Options[string, *set3.Set3[T]]{
			ToKey: func(s string) []byte { return radix.FromString(s) },
		}),
	}
}

// AddValue adds v to the set stored at key, creating the set if key is new.
func (m *stringMultiMap[T]) AddValue(key string, v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.tree.Find(key)
	if !ok {
		set = set3.Empty[T]()
		m.tree.Insert(key, set)
	}
	set.Add(v)
}

// RemoveValue removes v from the set stored at key, if both exist.
func (m *stringMultiMap[T]) RemoveValue(key string, v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.tree.Find(key)
	if !ok {
		return
	}
	set.Remove(v)
}

// ValuesFor returns the set of values stored at key, or an empty set.
func (m *stringMultiMap[T]) ValuesFor(key string) *set3.Set3[T] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if set, ok := m.tree.Find(key); ok {
		return set.Clone()
	}
	return set3.Empty[T]()
}

// ValuesWithPrefix unions the sets of every key sharing prefix, using the
// tree's ascending iteration order (spec.md §4.5.4) rather than a range scan
// over a sorted slice.
func (m *stringMultiMap[T]) ValuesWithPrefix(prefix string) *set3.Set3[T] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := set3.Empty[T]()
	it := m.tree.Begin()
	for {
		k, v, ok := it.Next()
		if !ok {
			break
		}
		if len(k) < len(prefix) || string(k[:len(prefix)]) != prefix {
			continue
		}
		out.AddAll(v)
	}
	return out
}

// NumberOfKeys returns the number of distinct keys currently stored.
func (m *stringMultiMap[T]) NumberOfKeys() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tree.Size()
}

// DeleteKey removes key and its entire value set.
func (m *stringMultiMap[T]) DeleteKey(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tree.Erase(key)
}
