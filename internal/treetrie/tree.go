// Package treetrie is the unbounded fallback backend: an ordered B-tree of
// keys with no row budget. It trades the flat tries' single walk for
// O(log n) comparisons per probe but never fails a Put for capacity.
package treetrie

import (
	"fmt"
	"iter"

	"github.com/google/btree"

	"github.com/tamirms/tokenindex/internal/fold"
)

const degree = 16

type item[V any] struct {
	key   string // as first stored
	value V
}

// Tree is an unbounded key index ordered by (optionally folded) bytes.
type Tree[V any] struct {
	tree        *btree.BTreeG[item[V]]
	maxLen      int
	insensitive bool
}

// New creates an empty tree.
func New[V any](caseSensitive bool) *Tree[V] {
	insensitive := !caseSensitive
	less := func(a, b item[V]) bool {
		return fold.Compare(a.key, b.key, insensitive) < 0
	}
	return &Tree[V]{
		tree:        btree.NewG(degree, less),
		insensitive: insensitive,
	}
}

// CaseSensitive reports whether keys are compared without folding.
func (t *Tree[V]) CaseSensitive() bool {
	return !t.insensitive
}

// Put stores value under key. A key equal to a stored one after folding
// replaces its value but keeps the first spelling. It never fails.
func (t *Tree[V]) Put(key string, value V) error {
	probe := item[V]{key: key}
	if old, ok := t.tree.Get(probe); ok {
		key = old.key
	}
	t.tree.ReplaceOrInsert(item[V]{key: key, value: value})
	t.maxLen = max(t.maxLen, len(key))
	return nil
}

func (t *Tree[V]) get(key string) (V, bool) {
	it, ok := t.tree.Get(item[V]{key: key})
	return it.value, ok
}

// Get returns the value stored under key.
func (t *Tree[V]) Get(key string) (V, bool) {
	return t.get(key)
}

// GetBytes returns the value stored under the key spelled by b. The probe
// views b in place and is not retained.
func (t *Tree[V]) GetBytes(b []byte) (V, bool) {
	return t.get(fold.UnsafeString(b))
}

// best probes every prefix of key from the longest stored length down.
func (t *Tree[V]) best(key string) (V, bool) {
	for l := min(len(key), t.maxLen); l >= 0; l-- {
		if v, ok := t.get(key[:l]); ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// GetBest returns the value of the longest stored key that prefixes key.
func (t *Tree[V]) GetBest(key string) (V, bool) {
	return t.best(key)
}

// GetBestBytes returns the value of the longest stored key that prefixes b.
func (t *Tree[V]) GetBestBytes(b []byte) (V, bool) {
	return t.best(fold.UnsafeString(b))
}

// Clone returns a copy of t. The B-tree is copied lazily on write, so both
// trees may be used concurrently once Clone returns.
func (t *Tree[V]) Clone() *Tree[V] {
	return &Tree[V]{
		tree:        t.tree.Clone(),
		maxLen:      t.maxLen,
		insensitive: t.insensitive,
	}
}

// Remove deletes key and returns its value.
func (t *Tree[V]) Remove(key string) (V, bool) {
	it, ok := t.tree.Delete(item[V]{key: key})
	return it.value, ok
}

// Clear removes every key.
func (t *Tree[V]) Clear() {
	t.tree.Clear(false)
	t.maxLen = 0
}

// Entries yields every key and value in folded byte order.
func (t *Tree[V]) Entries() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		t.tree.Ascend(func(it item[V]) bool {
			return yield(it.key, it.value)
		})
	}
}

// Keys returns the stored keys in folded byte order.
func (t *Tree[V]) Keys() []string {
	keys := make([]string, 0, t.tree.Len())
	t.tree.Ascend(func(it item[V]) bool {
		keys = append(keys, it.key)
		return true
	})
	return keys
}

// Len returns the number of keys.
func (t *Tree[V]) Len() int {
	return t.tree.Len()
}

// IsEmpty reports whether the tree holds no keys.
func (t *Tree[V]) IsEmpty() bool {
	return t.tree.Len() == 0
}

// Capacity is always -1: the tree has no row budget.
func (t *Tree[V]) Capacity() int {
	return -1
}

// Rows reports the number of keys, the tree's unit of storage.
func (t *Tree[V]) Rows() int {
	return t.tree.Len()
}

func (t *Tree[V]) String() string {
	return fmt.Sprintf("tree{cs=%t,keys=%d}", !t.insensitive, t.tree.Len())
}
