package tokenindex

import (
	"fmt"
	"slices"

	tierrors "github.com/tamirms/tokenindex/errors"
	"github.com/tamirms/tokenindex/internal/arraytrie"
	"github.com/tamirms/tokenindex/internal/fold"
	"github.com/tamirms/tokenindex/internal/ternary"
)

// MaxCapacity is the largest row budget of the fixed-capacity backends.
const MaxCapacity = ternary.MaxCapacity

// Plan is everything SelectBackend needs to know about a build.
type Plan struct {
	// Capacity is the row budget the contents need (see RequiredCapacity).
	Capacity int

	// MaxCapacity is the caller's row ceiling, or -1 for none.
	MaxCapacity int

	// Mutable builds accept Put after construction.
	Mutable bool

	CaseSensitive bool

	// Alphabet is the folded set of bytes the index must accept: the
	// explicit alphabet, if any, joined with the bytes of the contents.
	Alphabet string

	// ExplicitAlphabet records that the caller promised every future key
	// stays within Alphabet.
	ExplicitAlphabet bool

	// GrowBy is the growth increment of a mutable ternary index with no
	// ceiling. Zero disables growth.
	GrowBy int

	// Backend forces a backend unless it is BackendAuto.
	Backend BackendID
}

// size is the row budget the chosen backend is created with.
func (p Plan) size() int {
	if p.Mutable && p.MaxCapacity > p.Capacity {
		return p.MaxCapacity
	}
	return p.Capacity
}

func (p Plan) bounded() bool {
	return !p.Mutable || p.MaxCapacity >= 0
}

// arrayEligible reports whether the alphabet suits an array trie. A mutable
// index only qualifies with an explicit alphabet, since later keys may use
// bytes the contents never showed.
func (p Plan) arrayEligible() bool {
	if p.Mutable && !p.ExplicitAlphabet {
		return false
	}
	return len(p.Alphabet) > 0 && len(p.Alphabet) <= arraytrie.MaxAlphabet && isASCII(p.Alphabet)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// RequiredCapacity returns the row budget that always fits keys in any of
// the fixed-capacity backends: one row per distinct non-empty (folded)
// prefix, one per distinct key, and one reserved. An empty key set needs no
// rows.
func RequiredCapacity(keys []string, caseSensitive bool) int {
	if len(keys) == 0 {
		return 0
	}
	folded := make([]string, len(keys))
	for i, k := range keys {
		folded[i] = fold.String(k, !caseSensitive)
	}
	slices.Sort(folded)
	folded = slices.Compact(folded)

	// Sorted order means each key's new prefixes start right after its
	// common prefix with its predecessor.
	rows := 1
	prev := ""
	for _, k := range folded {
		rows += len(k) - commonPrefix(prev, k) + 1
		prev = k
	}
	return rows
}

func commonPrefix(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// DeriveAlphabet returns the sorted set of (folded) bytes used by keys.
func DeriveAlphabet(keys []string, caseSensitive bool) string {
	var seen [256]bool
	for _, k := range keys {
		for i := 0; i < len(k); i++ {
			seen[fold.Byte(k[i], !caseSensitive)] = true
		}
	}
	var out []byte
	for c, ok := range seen {
		if ok {
			out = append(out, byte(c))
		}
	}
	return string(out)
}

// mergeAlphabet returns the sorted union of two alphabets after folding.
func mergeAlphabet(a, b string, caseSensitive bool) string {
	return DeriveAlphabet([]string{a, b}, caseSensitive)
}

// SelectBackend picks the backend for plan, trying the array trie, then the
// ternary trie, then the tree. It fails with ErrInsufficientCapacity when
// MaxCapacity is set and smaller than Capacity, or when no bounded backend
// can hold the contents under a ceiling.
func SelectBackend(plan Plan) (BackendID, error) {
	if plan.MaxCapacity >= 0 && plan.MaxCapacity < plan.Capacity {
		return 0, fmt.Errorf("%w: contents need %d rows, max capacity is %d",
			tierrors.ErrInsufficientCapacity, plan.Capacity, plan.MaxCapacity)
	}
	size := plan.size()

	switch plan.Backend {
	case BackendAuto:
	case BackendArray:
		if plan.Mutable && !plan.ExplicitAlphabet {
			return 0, tierrors.ErrAlphabetRequired
		}
		if !plan.arrayEligible() {
			return 0, fmt.Errorf("%w: %q", tierrors.ErrAlphabetTooLarge, plan.Alphabet)
		}
		if size > MaxCapacity {
			return 0, fmt.Errorf("%w: %d", tierrors.ErrCapacityOverflow, size)
		}
		return BackendArray, nil
	case BackendTernary:
		if size > MaxCapacity {
			return 0, fmt.Errorf("%w: %d", tierrors.ErrCapacityOverflow, size)
		}
		return BackendTernary, nil
	case BackendTree:
		if plan.MaxCapacity >= 0 {
			return 0, fmt.Errorf("%w: tree backend cannot enforce max capacity %d",
				tierrors.ErrInsufficientCapacity, plan.MaxCapacity)
		}
		return BackendTree, nil
	default:
		return 0, fmt.Errorf("%w: backend ID %d", tierrors.ErrUnknownBackend, plan.Backend)
	}

	if plan.bounded() && size <= MaxCapacity && plan.arrayEligible() {
		return BackendArray, nil
	}
	if size <= MaxCapacity {
		return BackendTernary, nil
	}
	if plan.MaxCapacity < 0 {
		return BackendTree, nil
	}
	return 0, fmt.Errorf("%w: %d rows exceed the 16-bit row index",
		tierrors.ErrInsufficientCapacity, size)
}
