// Package arraytrie implements a fixed-capacity trie for small 7-bit
// alphabets. Each row is a dense table of child indices, one per alphabet
// symbol, so every key byte costs one table load regardless of how many
// siblings it has.
//
// The alphabet is fixed at construction. Lookups of bytes outside it miss;
// Put of such a key fails with ErrAlphabetMismatch.
package arraytrie

import (
	"fmt"
	"iter"
	"math"
	"slices"

	tierrors "github.com/tamirms/tokenindex/errors"
	"github.com/tamirms/tokenindex/internal/fold"
)

const (
	// MaxCapacity is the largest number of rows addressable by 16-bit
	// indices.
	MaxCapacity = math.MaxUint16

	// MaxAlphabet bounds the row width so a full trie stays within a few
	// megabytes.
	MaxAlphabet = 64
)

type entry[V any] struct {
	key   string
	value V
	ok    bool
}

// Trie is a fixed-capacity trie over a small alphabet.
type Trie[V any] struct {
	// slot maps a folded byte to 1 + its column, 0 when not in the alphabet.
	slot        [128]uint8
	width       int
	alphabet    string
	next        []uint16 // capacity rows of width children
	entries     []entry[V]
	used        int
	insensitive bool
}

// New creates an empty trie with room for capacity rows whose keys only use
// bytes from alphabet. With case folding on, the alphabet is folded too.
func New[V any](capacity int, alphabet string, caseSensitive bool) (*Trie[V], error) {
	if capacity < 0 || capacity > MaxCapacity {
		return nil, fmt.Errorf("%w: %d", tierrors.ErrCapacityOverflow, capacity)
	}
	t := &Trie[V]{insensitive: !caseSensitive}
	symbols := []byte(fold.String(alphabet, t.insensitive))
	slices.Sort(symbols)
	symbols = slices.Compact(symbols)
	if len(symbols) == 0 || len(symbols) > MaxAlphabet || symbols[len(symbols)-1] >= 0x80 {
		return nil, fmt.Errorf("%w: %q", tierrors.ErrAlphabetTooLarge, alphabet)
	}
	for i, c := range symbols {
		t.slot[c] = uint8(i + 1)
	}
	t.width = len(symbols)
	t.alphabet = string(symbols)
	t.next = make([]uint16, capacity*t.width)
	t.entries = make([]entry[V], capacity)
	return t, nil
}

// column returns the child column for c, or -1 if c is not in the alphabet.
func (t *Trie[V]) column(c byte) int {
	c = fold.Byte(c, t.insensitive)
	if c >= 0x80 {
		return -1
	}
	return int(t.slot[c]) - 1
}

// Alphabet returns the folded, sorted alphabet.
func (t *Trie[V]) Alphabet() string {
	return t.alphabet
}

// CaseSensitive reports whether keys are compared without folding.
func (t *Trie[V]) CaseSensitive() bool {
	return !t.insensitive
}

// Capacity returns the fixed number of rows.
func (t *Trie[V]) Capacity() int {
	return len(t.entries)
}

// Rows returns the number of rows allocated so far.
func (t *Trie[V]) Rows() int {
	return t.used
}

// Put stores value under key, replacing any previous value for the same
// (folded) key. On ErrCapacityExceeded or ErrAlphabetMismatch the trie is
// unchanged.
func (t *Trie[V]) Put(key string, value V) error {
	// Validate up front so a mismatch never needs a rollback.
	for i := 0; i < len(key); i++ {
		if t.column(key[i]) < 0 {
			return fmt.Errorf("%w: %q at offset %d", tierrors.ErrAlphabetMismatch, key[i], i)
		}
	}

	start := t.used
	if t.used == 0 {
		if len(t.entries) == 0 {
			return tierrors.ErrCapacityExceeded
		}
		t.used = 1
	}

	var link *uint16
	r := 0
	for i := 0; i < len(key); i++ {
		cell := &t.next[r*t.width+t.column(key[i])]
		if *cell == 0 {
			if t.used >= len(t.entries) {
				if link != nil {
					*link = 0
				}
				clear(t.next[start*t.width : t.used*t.width])
				t.used = start
				return tierrors.ErrCapacityExceeded
			}
			if r < start && link == nil {
				link = cell
			}
			*cell = uint16(t.used)
			t.used++
		}
		r = int(*cell)
	}

	t.entries[r] = entry[V]{key: key, value: value, ok: true}
	return nil
}

func find[V any, K fold.Key](t *Trie[V], key K) int {
	if t.used == 0 {
		return -1
	}
	r := 0
	for i := 0; i < len(key); i++ {
		col := t.column(key[i])
		if col < 0 {
			return -1
		}
		r = int(t.next[r*t.width+col])
		if r == 0 {
			return -1
		}
	}
	return r
}

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
		col := t.column(key[i])
		if col < 0 {
			break
		}
		r = int(t.next[r*t.width+col])
		if r == 0 {
			break
		}
		if t.entries[r].ok {
			found = r
		}
	}
	return found
}

func (t *Trie[V]) valueAt(r int) (V, bool) {
	if r < 0 {
		var zero V
		return zero, false
	}
	return t.entries[r].value, t.entries[r].ok
}

// Clone returns an independent copy of t.
func (t *Trie[V]) Clone() *Trie[V] {
	c := *t
	c.next = slices.Clone(t.next)
	c.entries = slices.Clone(t.entries)
	return &c
}

// Get returns the value stored under key.
func (t *Trie[V]) Get(key string) (V, bool) { return t.valueAt(find(t, key)) }

// GetBytes returns the value stored under the key spelled by b.
func (t *Trie[V]) GetBytes(b []byte) (V, bool) { return t.valueAt(find(t, b)) }

// GetBest returns the value of the longest stored key that prefixes key.
func (t *Trie[V]) GetBest(key string) (V, bool) { return t.valueAt(best(t, key)) }

// GetBestBytes returns the value of the longest stored key that prefixes b.
func (t *Trie[V]) GetBestBytes(b []byte) (V, bool) { return t.valueAt(best(t, b)) }

// Remove clears the entry stored under key. Rows are not reclaimed.
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
	clear(t.next[:t.used*t.width])
	clear(t.entries[:t.used])
	t.used = 0
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

// Keys returns the stored keys in row order.
func (t *Trie[V]) Keys() []string {
	var keys []string
	for k := range t.Entries() {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of stored entries.
func (t *Trie[V]) Len() int {
	n := 0
	for range t.Entries() {
		n++
	}
	return n
}

// IsEmpty reports whether the trie holds no entries.
func (t *Trie[V]) IsEmpty() bool {
	for range t.Entries() {
		return false
	}
	return true
}

func (t *Trie[V]) String() string {
	return fmt.Sprintf("array{cs=%t,c=%d,rows=%d,alphabet=%q}", !t.insensitive, len(t.entries), t.used, t.alphabet)
}
