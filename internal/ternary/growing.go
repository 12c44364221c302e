package ternary

import (
	"errors"
	"iter"

	"github.com/rs/zerolog"

	tierrors "github.com/tamirms/tokenindex/errors"
)

// DefaultGrowBy is the row increment used when a growing trie has no
// explicit one.
const DefaultGrowBy = 512

// Growing wraps a Trie and replaces it with a larger copy whenever a Put runs
// out of rows. The replaced trie is never mutated again, so a reader holding
// a Snapshot keeps a consistent view across growth.
type Growing[V any] struct {
	trie   *Trie[V]
	growBy int
	logger zerolog.Logger
}

// NewGrowing creates a growing trie that starts with capacity rows and adds
// growBy rows each time it fills up. A growBy of zero disables growth.
func NewGrowing[V any](capacity, growBy int, caseSensitive bool, logger zerolog.Logger) (*Growing[V], error) {
	trie, err := New[V](capacity, caseSensitive)
	if err != nil {
		return nil, err
	}
	if growBy < 0 {
		growBy = 0
	}
	return &Growing[V]{trie: trie, growBy: growBy, logger: logger}, nil
}

// Put stores value under key, growing as often as needed. It returns
// ErrCapacityExceeded only once growth is disabled or the trie already spans
// MaxCapacity rows.
func (g *Growing[V]) Put(key string, value V) error {
	for {
		err := g.trie.Put(key, value)
		if !errors.Is(err, tierrors.ErrCapacityExceeded) || g.growBy == 0 {
			return err
		}
		bigger, err := g.grow()
		if err != nil {
			return err
		}
		g.trie = bigger
	}
}

// grow copies the current trie into one at least growBy rows larger.
// Reinsertion order can change how many placeholder rows the copy needs, so
// a copy that does not fit is retried one more increment up.
func (g *Growing[V]) grow() (*Trie[V], error) {
	from := g.trie.Capacity()
	for to := from; to < MaxCapacity; {
		to = min(to+g.growBy, MaxCapacity)
		bigger, err := g.trie.Resize(to)
		if errors.Is(err, tierrors.ErrCapacityExceeded) {
			continue
		}
		if err != nil {
			return nil, err
		}
		g.logger.Debug().
			Int("from", from).
			Int("to", to).
			Int("keys", bigger.Len()).
			Msg("ternary trie grown")
		return bigger, nil
	}
	return nil, tierrors.ErrCapacityExceeded
}

// Snapshot returns the trie currently backing g.
func (g *Growing[V]) Snapshot() *Trie[V] {
	return g.trie
}

// GrowBy returns the row increment.
func (g *Growing[V]) GrowBy() int {
	return g.growBy
}

func (g *Growing[V]) Get(key string) (V, bool)        { return g.trie.Get(key) }
func (g *Growing[V]) GetBytes(b []byte) (V, bool)     { return g.trie.GetBytes(b) }
func (g *Growing[V]) GetBest(key string) (V, bool)    { return g.trie.GetBest(key) }
func (g *Growing[V]) GetBestBytes(b []byte) (V, bool) { return g.trie.GetBestBytes(b) }
func (g *Growing[V]) Remove(key string) (V, bool)     { return g.trie.Remove(key) }
func (g *Growing[V]) Clear()                          { g.trie.Clear() }
func (g *Growing[V]) Keys() []string                  { return g.trie.Keys() }
func (g *Growing[V]) Entries() iter.Seq2[string, V]   { return g.trie.Entries() }
func (g *Growing[V]) Len() int                        { return g.trie.Len() }
func (g *Growing[V]) IsEmpty() bool                   { return g.trie.IsEmpty() }
func (g *Growing[V]) Capacity() int                   { return g.trie.Capacity() }
func (g *Growing[V]) Rows() int                       { return g.trie.Rows() }
func (g *Growing[V]) CaseSensitive() bool             { return g.trie.CaseSensitive() }
