// Package ternary implements a fixed-capacity ternary search trie flattened
// into contiguous row storage, and a growing wrapper over it.
//
// # Layout
//
// Each row holds one byte and three 16-bit child indices:
//
//	row  = {c, next[lo], next[eq], next[hi]}
//
// Row 0 is the root and is never anyone's child, so a zero child index means
// "no child". Following next[eq] consumes one key byte. next[lo] leads to
// siblings whose byte sorts above the current row's byte, next[hi] to those
// below it.
// The row reached after consuming every byte of a key carries that key's
// entry. A row may carry an entry and children at the same time, which is how
// one key can be a strict prefix of another.
//
// # Capacity
//
// The number of rows is fixed at construction. Put fails with
// ErrCapacityExceeded instead of allocating past it, leaving the trie exactly
// as it was before the call. The bound keeps memory flat when keys come from
// untrusted input.
//
// # Thread Safety
//
// A Trie is built by one goroutine and may then be read by any number of
// goroutines, provided nothing mutates it during those reads.
package ternary

import (
	"fmt"
	"iter"
	"math"
	"math/bits"
	"slices"

	tierrors "github.com/tamirms/tokenindex/errors"
	"github.com/tamirms/tokenindex/internal/fold"
)

// Child slots within a row.
const (
	lo = 0
	eq = 1
	hi = 2
)

// MaxCapacity is the largest number of rows addressable by 16-bit indices.
const MaxCapacity = math.MaxUint16

type row struct {
	c    byte
	next [3]uint16
}

type entry[V any] struct {
	key   string
	value V
	ok    bool
}

// Trie is a fixed-capacity ternary search trie.
type Trie[V any] struct {
	rows        []row
	entries     []entry[V]
	used        int // rows allocated, including the root once it exists
	insensitive bool
}

// New creates an empty trie with room for capacity rows.
// Returns ErrCapacityOverflow if capacity cannot be addressed by a row index.
func New[V any](capacity int, caseSensitive bool) (*Trie[V], error) {
	if capacity < 0 || capacity > MaxCapacity {
		return nil, fmt.Errorf("%w: %d", tierrors.ErrCapacityOverflow, capacity)
	}
	return &Trie[V]{
		rows:        make([]row, capacity),
		entries:     make([]entry[V], capacity),
		insensitive: !caseSensitive,
	}, nil
}

// hilo picks the sibling slot for a non-zero diff (target byte minus row
// byte) without branching: a row byte below the target selects lo, one above
// it selects hi.
func hilo(diff int) int {
	return hi * int(uint(diff)>>(bits.UintSize-1))
}

// CaseSensitive reports whether keys are compared without folding.
func (t *Trie[V]) CaseSensitive() bool {
	return !t.insensitive
}

// Capacity returns the fixed number of rows.
func (t *Trie[V]) Capacity() int {
	return len(t.rows)
}

// Rows returns the number of rows allocated so far.
func (t *Trie[V]) Rows() int {
	return t.used
}

// alloc claims the next free row and stamps it with c.
func (t *Trie[V]) alloc(c byte) (uint16, bool) {
	if t.used >= len(t.rows) {
		return 0, false
	}
	n := t.used
	t.used++
	t.rows[n] = row{c: c}
	return uint16(n), true
}

// rollback releases every row allocated since start and unlinks the single
// pre-existing row that pointed into them.
func (t *Trie[V]) rollback(start int, link *uint16) {
	if link != nil {
		*link = 0
	}
	clear(t.rows[start:t.used])
	t.used = start
}

// Put stores value under key, replacing any previous value for the same
// (folded) key. Returns ErrCapacityExceeded, with the trie unchanged, if the
// key needs more rows than remain.
func (t *Trie[V]) Put(key string, value V) error {
	start := t.used
	// Once the walk leaves existing rows every later row is new, so at most
	// one link from an existing row must be undone on failure.
	var link *uint16

	if t.used == 0 {
		var c byte
		if len(key) > 0 {
			c = fold.Byte(key[0], t.insensitive)
		}
		if _, ok := t.alloc(c); !ok {
			return tierrors.ErrCapacityExceeded
		}
	}

	r := 0
	for i := 0; i < len(key); i++ {
		c := fold.Byte(key[i], t.insensitive)
		for {
			cur := &t.rows[r]
			slot := eq
			if diff := int(c) - int(cur.c); diff != 0 {
				slot = hilo(diff)
			}
			next := cur.next[slot]
			if next == 0 {
				// A sibling row holds c itself; an equal child holds the
				// following byte, or nothing yet if the key ends here.
				stamp := c
				if slot == eq {
					stamp = 0
					if i+1 < len(key) {
						stamp = fold.Byte(key[i+1], t.insensitive)
					}
				}
				n, ok := t.alloc(stamp)
				if !ok {
					t.rollback(start, link)
					return tierrors.ErrCapacityExceeded
				}
				if r < start && link == nil {
					link = &cur.next[slot]
				}
				cur.next[slot] = n
				next = n
			}
			r = int(next)
			if slot == eq {
				break
			}
		}
	}

	t.entries[r] = entry[V]{key: key, value: value, ok: true}
	return nil
}

// find walks key from the root without allocating and returns the landing
// row, or -1 if the walk runs off the trie.
func find[V any, K fold.Key](t *Trie[V], key K) int {
	if t.used == 0 {
		return -1
	}
	r := 0
	for i := 0; i < len(key); i++ {
		c := fold.Byte(key[i], t.insensitive)
		for {
			cur := &t.rows[r]
			diff := int(c) - int(cur.c)
			if diff == 0 {
				r = int(cur.next[eq])
				if r == 0 {
					return -1
				}
				break
			}
			r = int(cur.next[hilo(diff)])
			if r == 0 {
				return -1
			}
		}
	}
	return r
}

// best walks key from the root and returns the deepest row on the equal
// path that carries an entry, or -1 if none does. The root entry (the empty
// key) is the shallowest candidate.
//
// Each entry found on the way replaces the previous candidate, which is the
// iterative form of "remember this match, then try to extend it".
func best[V any, K fold.Key](t *Trie[V], key K) int {
	if t.used == 0 {
		return -1
	}
	found := -1
	if t.entries[0].ok {
		found = 0
	}
	r := 0
	for i := 0; i < len(key); i++ {
		c := fold.Byte(key[i], t.insensitive)
		for {
			cur := &t.rows[r]
			diff := int(c) - int(cur.c)
			if diff == 0 {
				r = int(cur.next[eq])
				if r == 0 {
					return found
				}
				if t.entries[r].ok {
					found = r
				}
				break
			}
			r = int(cur.next[hilo(diff)])
			if r == 0 {
				return found
			}
		}
	}
	return found
}

func (t *Trie[V]) valueAt(r int) (V, bool) {
	if r < 0 {
		var zero V
		return zero, false
	}
	e := &t.entries[r]
	return e.value, e.ok
}

// Get returns the value stored under key.
func (t *Trie[V]) Get(key string) (V, bool) {
	return t.valueAt(find(t, key))
}

// GetBytes returns the value stored under the key spelled by b.
func (t *Trie[V]) GetBytes(b []byte) (V, bool) {
	return t.valueAt(find(t, b))
}

// GetBest returns the value of the longest stored key that is a prefix of
// key.
func (t *Trie[V]) GetBest(key string) (V, bool) {
	return t.valueAt(best(t, key))
}

// GetBestBytes returns the value of the longest stored key that is a prefix
// of b.
func (t *Trie[V]) GetBestBytes(b []byte) (V, bool) {
	return t.valueAt(best(t, b))
}

// Remove clears the entry stored under key and returns its value.
// Rows are not reclaimed; the path stays in place as an internal prefix.
func (t *Trie[V]) Remove(key string) (V, bool) {
	r := find(t, key)
	v, ok := t.valueAt(r)
	if ok {
		t.entries[r] = entry[V]{}
	}
	return v, ok
}

// Clear removes every row and entry.
func (t *Trie[V]) Clear() {
	clear(t.rows[:t.used])
	clear(t.entries[:t.used])
	t.used = 0
}

// Keys returns the stored keys in row order.
func (t *Trie[V]) Keys() []string {
	keys := make([]string, 0, t.Len())
	for r := range t.used {
		if t.entries[r].ok {
			keys = append(keys, t.entries[r].key)
		}
	}
	return keys
}

// Entries yields every stored key and value in row order.
func (t *Trie[V]) Entries() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for r := range t.used {
			e := &t.entries[r]
			if e.ok && !yield(e.key, e.value) {
				return
			}
		}
	}
}

// Len returns the number of stored entries. It scans every allocated row.
func (t *Trie[V]) Len() int {
	n := 0
	for r := range t.used {
		if t.entries[r].ok {
			n++
		}
	}
	return n
}

// IsEmpty reports whether the trie holds no entries.
func (t *Trie[V]) IsEmpty() bool {
	for r := range t.used {
		if t.entries[r].ok {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of t with the same capacity.
func (t *Trie[V]) Clone() *Trie[V] {
	c := *t
	c.rows = slices.Clone(t.rows)
	c.entries = slices.Clone(t.entries)
	return &c
}

// Resize returns a new trie with the given capacity holding every entry of
// t, inserted in row order. t itself is not modified, so readers holding t
// keep a consistent view.
func (t *Trie[V]) Resize(capacity int) (*Trie[V], error) {
	bigger, err := New[V](capacity, !t.insensitive)
	if err != nil {
		return nil, err
	}
	for r := range t.used {
		e := &t.entries[r]
		if !e.ok {
			continue
		}
		if err := bigger.Put(e.key, e.value); err != nil {
			return nil, err
		}
	}
	return bigger, nil
}

// String summarises the trie for debugging.
func (t *Trie[V]) String() string {
	return fmt.Sprintf("ternary{cs=%t,c=%d,rows=%d,keys=%d}", !t.insensitive, len(t.rows), t.used, t.Len())
}
