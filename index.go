package tokenindex

import (
	"fmt"
	"reflect"

	tierrors "github.com/tamirms/tokenindex/errors"
	"github.com/tamirms/tokenindex/internal/ternary"
)

// Index is a read-only token lookup.
//
// Thread Safety:
//   - All methods are safe for concurrent use while nothing mutates the index
//   - An Index obtained from a Mutable shares its storage; reads must not
//     overlap Put, Remove or Clear
//
// Lookups never allocate and a miss is (zero, false), never an error.
type Index[V any] interface {
	// Get returns the value stored under key.
	Get(key string) (V, bool)

	// GetBytes looks up the key spelled by b. It gives the same result as
	// Get(string(b)).
	GetBytes(b []byte) (V, bool)

	// GetSpan looks up the key spelled by s.Bytes().
	GetSpan(s Span) (V, bool)

	// GetBest returns the value of the longest stored key that is a prefix
	// of key. The empty key, if stored, matches everything.
	GetBest(key string) (V, bool)

	GetBestBytes(b []byte) (V, bool)
	GetBestSpan(s Span) (V, bool)

	// Keys returns the stored keys. Order is unspecified, and when two puts
	// differ only in case, which spelling is kept depends on the backend.
	Keys() []string

	// Len returns the number of stored keys. It is O(rows) for the tries.
	Len() int
	IsEmpty() bool

	CaseSensitive() bool
	Stats() *Stats
}

// Mutable is an Index that accepts changes during a single-threaded build
// phase.
type Mutable[V any] interface {
	Index[V]

	// Put stores value under key, replacing any previous value.
	// Returns ErrCapacityExceeded, with the index unchanged, when a bounded
	// index has no room; ErrNilValue for a nil value.
	Put(key string, value V) error

	// PutValue stores value under fmt.Sprint(value).
	PutValue(value V) error

	// Remove deletes key and returns its former value. Trie rows stay
	// allocated; only the entry is cleared.
	Remove(key string) (V, bool)

	// Clear removes every key and releases all rows for reuse.
	Clear()

	// Snapshot returns a read-only copy of the current contents. Later
	// changes to the Mutable are not visible through it, and it may be read
	// concurrently with them.
	Snapshot() Index[V]
}

// Span is a view of Len bytes starting at Off within Buf. It lets callers
// look up tokens in a larger request buffer without slicing or copying.
type Span struct {
	Buf []byte
	Off int
	Len int
}

// SpanOf returns a span covering all of b.
func SpanOf(b []byte) Span {
	return Span{Buf: b, Len: len(b)}
}

// Bytes returns the viewed bytes. It panics if the span does not fit Buf.
func (s Span) Bytes() []byte {
	end := s.Off + s.Len
	return s.Buf[s.Off:end:end]
}

// Slice returns the n-byte sub-span starting off bytes into s.
func (s Span) Slice(off, n int) Span {
	return Span{Buf: s.Buf, Off: s.Off + off, Len: n}
}

func (s Span) String() string {
	return string(s.Bytes())
}

// Stats holds index statistics.
type Stats struct {
	Backend       BackendID
	Capacity      int // row budget, -1 when unbounded
	Rows          int // rows in use; keys for the tree backend
	Keys          int
	CaseSensitive bool
	Growing       bool
	GrowBy        int // row increment when Growing
}

// index is the Index implementation over any backend.
type index[V any] struct {
	be            backend[V]
	id            BackendID
	caseSensitive bool
	growing       bool
}

func (idx *index[V]) Get(key string) (V, bool)        { return idx.be.Get(key) }
func (idx *index[V]) GetBytes(b []byte) (V, bool)     { return idx.be.GetBytes(b) }
func (idx *index[V]) GetSpan(s Span) (V, bool)        { return idx.be.GetBytes(s.Bytes()) }
func (idx *index[V]) GetBest(key string) (V, bool)    { return idx.be.GetBest(key) }
func (idx *index[V]) GetBestBytes(b []byte) (V, bool) { return idx.be.GetBestBytes(b) }
func (idx *index[V]) GetBestSpan(s Span) (V, bool)    { return idx.be.GetBestBytes(s.Bytes()) }
func (idx *index[V]) Keys() []string                  { return idx.be.Keys() }
func (idx *index[V]) Len() int                        { return idx.be.Len() }
func (idx *index[V]) IsEmpty() bool                   { return idx.be.IsEmpty() }
func (idx *index[V]) CaseSensitive() bool             { return idx.caseSensitive }

// Stats returns statistics for the index.
func (idx *index[V]) Stats() *Stats {
	var growBy int
	if g, ok := idx.be.(*ternary.Growing[V]); ok {
		growBy = g.GrowBy()
	}
	return &Stats{
		Backend:       idx.id,
		Capacity:      idx.be.Capacity(),
		Rows:          idx.be.Rows(),
		Keys:          idx.be.Len(),
		CaseSensitive: idx.caseSensitive,
		Growing:       idx.growing,
		GrowBy:        growBy,
	}
}

func (idx *index[V]) String() string {
	return fmt.Sprintf("%s index (%d rows)", idx.id, idx.be.Rows())
}

// mutable adds the write methods to index.
type mutable[V any] struct {
	index[V]
}

func (m *mutable[V]) Put(key string, value V) error {
	if isNil(value) {
		return fmt.Errorf("%w: key %q", tierrors.ErrNilValue, key)
	}
	return m.be.Put(key, value)
}

func (m *mutable[V]) PutValue(value V) error {
	if isNil(value) {
		return tierrors.ErrNilValue
	}
	return m.be.Put(fmt.Sprint(value), value)
}

func (m *mutable[V]) Remove(key string) (V, bool) {
	return m.be.Remove(key)
}

func (m *mutable[V]) Clear() {
	m.be.Clear()
}

func (m *mutable[V]) Snapshot() Index[V] {
	return &index[V]{
		be:            cloneBackend(m.be),
		id:            m.id,
		caseSensitive: m.caseSensitive,
	}
}

// isNil reports whether v is a nil pointer, map, channel, func or
// interface. Nil slices are ordinary empty values.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
