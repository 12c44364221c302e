package tokenindex

import (
	"fmt"
	"iter"

	"github.com/rs/zerolog"

	tierrors "github.com/tamirms/tokenindex/errors"
	"github.com/tamirms/tokenindex/internal/arraytrie"
	"github.com/tamirms/tokenindex/internal/ternary"
	"github.com/tamirms/tokenindex/internal/treetrie"
)

// BackendID identifies the encoding behind an index.
type BackendID uint8

const (
	// BackendAuto lets SelectBackend choose.
	BackendAuto BackendID = 0

	// BackendTernary is a flattened ternary search trie with 16-bit rows.
	// Bounded by capacity; grows in steps when mutable with no ceiling.
	BackendTernary BackendID = 1

	// BackendArray is a trie with one dense child table per row, for small
	// 7-bit alphabets.
	BackendArray BackendID = 2

	// BackendTree is an unbounded ordered B-tree, used when contents
	// outgrow 16-bit row indices.
	BackendTree BackendID = 3
)

// String returns the backend name.
func (b BackendID) String() string {
	switch b {
	case BackendAuto:
		return "auto"
	case BackendTernary:
		return "ternary"
	case BackendArray:
		return "array"
	case BackendTree:
		return "tree"
	default:
		return "unknown"
	}
}

// ParseBackend returns the BackendID named s, as printed by String.
func ParseBackend(s string) (BackendID, error) {
	for _, b := range []BackendID{BackendAuto, BackendTernary, BackendArray, BackendTree} {
		if b.String() == s {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", tierrors.ErrUnknownBackend, s)
}

// backend is the contract every encoding implements.
//
// # Thread Safety
//
// A backend is NOT safe for concurrent mutation. Reads are safe from any
// number of goroutines while no Put, Remove or Clear is running.
type backend[V any] interface {
	// Put stores value under key. Fixed-capacity backends return
	// ErrCapacityExceeded and leave their contents untouched when the key
	// does not fit.
	Put(key string, value V) error

	Remove(key string) (V, bool)
	Clear()

	Get(key string) (V, bool)
	GetBytes(b []byte) (V, bool)

	// GetBest returns the value of the longest stored key that is a prefix
	// of key, including the empty key.
	GetBest(key string) (V, bool)
	GetBestBytes(b []byte) (V, bool)

	Keys() []string
	Entries() iter.Seq2[string, V]
	Len() int
	IsEmpty() bool

	// Capacity returns the row budget, or -1 when unbounded.
	Capacity() int

	// Rows returns the rows (or, for the tree, keys) in use.
	Rows() int
}

// cloneBackend returns an independent copy of be. A growing trie is copied
// as the fixed-capacity trie it currently holds.
func cloneBackend[V any](be backend[V]) backend[V] {
	switch b := be.(type) {
	case *ternary.Growing[V]:
		return b.Snapshot().Clone()
	case *ternary.Trie[V]:
		return b.Clone()
	case *arraytrie.Trie[V]:
		return b.Clone()
	case *treetrie.Tree[V]:
		return b.Clone()
	}
	panic(fmt.Sprintf("tokenindex: cannot clone backend %T", be))
}

// newBackend creates an empty backend for a planned build.
//
// Parameters:
//   - id: backend chosen by SelectBackend
//   - capacity: row budget for the fixed-capacity backends
//   - plan: case sensitivity, alphabet and growth settings
//
// Returns an error if the ID is unknown or the backend rejects the plan.
func newBackend[V any](id BackendID, capacity int, plan Plan, logger zerolog.Logger) (backend[V], error) {
	switch id {
	case BackendTernary:
		if plan.Mutable && plan.MaxCapacity < 0 && plan.GrowBy > 0 {
			g, err := ternary.NewGrowing[V](capacity, plan.GrowBy, plan.CaseSensitive, logger)
			if err != nil {
				return nil, err
			}
			return g, nil
		}
		t, err := ternary.New[V](capacity, plan.CaseSensitive)
		if err != nil {
			return nil, err
		}
		return t, nil
	case BackendArray:
		t, err := arraytrie.New[V](capacity, plan.Alphabet, plan.CaseSensitive)
		if err != nil {
			return nil, err
		}
		return t, nil
	case BackendTree:
		return treetrie.New[V](plan.CaseSensitive), nil
	}
	return nil, fmt.Errorf("%w: backend ID %d", tierrors.ErrUnknownBackend, id)
}
