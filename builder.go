package tokenindex

import (
	"fmt"
	"maps"
	"slices"

	tierrors "github.com/tamirms/tokenindex/errors"
	"github.com/tamirms/tokenindex/internal/ternary"
)

// Builder collects the initial contents of an index and picks the backend
// that suits them.
//
// Usage (immutable):
//
//	idx, err := tokenindex.NewBuilder[Method](tokenindex.CaseSensitive(true)).
//	    With("GET", MethodGet).
//	    With("POST", MethodPost).
//	    Build()
//	if err != nil { return err }
//	m, ok := idx.GetBestBytes(request)
//
// Usage (mutable):
//
//	idx, err := tokenindex.NewBuilder[int](tokenindex.WithMaxCapacity(4096)).
//	    BuildMutable()
//	if err != nil { return err }
//	if err := idx.Put(name, id); errors.Is(err, tierrors.ErrCapacityExceeded) {
//	    // reject the new name
//	}
//
// The With methods chain; the first invalid entry is reported by Build or
// BuildMutable. A Builder is not safe for concurrent use, but Build does not
// modify it, so one Builder may produce several indexes.
type Builder[V any] struct {
	cfg    *buildConfig
	keys   []string // insertion order, for a reproducible build
	values map[string]V
	err    error
}

// NewBuilder creates an empty builder.
func NewBuilder[V any](opts ...BuildOption) *Builder[V] {
	cfg := defaultBuildConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Builder[V]{
		cfg:    cfg,
		values: make(map[string]V),
	}
}

// With adds value under key. A later value for the same key replaces the
// earlier one.
func (b *Builder[V]) With(key string, value V) *Builder[V] {
	if b.err != nil {
		return b
	}
	if isNil(value) {
		b.err = fmt.Errorf("%w: key %q", tierrors.ErrNilValue, key)
		return b
	}
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
	return b
}

// WithValue adds value under fmt.Sprint(value).
func (b *Builder[V]) WithValue(value V) *Builder[V] {
	if isNil(value) {
		if b.err == nil {
			b.err = tierrors.ErrNilValue
		}
		return b
	}
	return b.With(fmt.Sprint(value), value)
}

// WithAll adds every entry of m, in key order.
func (b *Builder[V]) WithAll(m map[string]V) *Builder[V] {
	for _, k := range slices.Sorted(maps.Keys(m)) {
		b.With(k, m[k])
	}
	return b
}

// WithEach adds every value under the key keyFunc derives from it.
func (b *Builder[V]) WithEach(values []V, keyFunc func(V) string) *Builder[V] {
	for _, v := range values {
		if isNil(v) {
			return b.WithValue(v)
		}
		b.With(keyFunc(v), v)
	}
	return b
}

// Len returns the number of distinct keys added so far.
func (b *Builder[V]) Len() int {
	return len(b.keys)
}

// Keys returns the added keys in insertion order.
func (b *Builder[V]) Keys() []string {
	return slices.Clone(b.keys)
}

// Build returns a read-only index sized exactly to the contents.
func (b *Builder[V]) Build() (Index[V], error) {
	idx, err := b.build(false)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// BuildMutable returns an index that accepts Put, Remove and Clear.
//
// With no max capacity the index grows by the WithGrowBy increment as keys
// arrive, switching to the unbounded tree backend only when the initial
// contents exceed MaxCapacity rows. With a max capacity the index is sized
// to it up front and Put reports ErrCapacityExceeded when full; a max
// capacity of 0 yields an index that is always empty.
func (b *Builder[V]) BuildMutable() (Mutable[V], error) {
	idx, err := b.build(true)
	if err != nil {
		return nil, err
	}
	return &mutable[V]{index: *idx}, nil
}

// Plan returns the plan a build with the given mutability would pass to
// SelectBackend.
func (b *Builder[V]) Plan(mutable bool) Plan {
	cs := b.cfg.caseSensitive
	return Plan{
		Capacity:         RequiredCapacity(b.keys, cs),
		MaxCapacity:      b.cfg.maxCapacity,
		Mutable:          mutable,
		CaseSensitive:    cs,
		Alphabet:         mergeAlphabet(b.cfg.alphabet, DeriveAlphabet(b.keys, cs), cs),
		ExplicitAlphabet: b.cfg.explicitAlphabet,
		GrowBy:           b.cfg.growBy,
		Backend:          b.cfg.backend,
	}
}

func (b *Builder[V]) build(mutable bool) (*index[V], error) {
	if b.err != nil {
		return nil, b.err
	}
	plan := b.Plan(mutable)
	id, err := SelectBackend(plan)
	if err != nil {
		return nil, err
	}
	size := plan.size()
	be, err := newBackend[V](id, size, plan, b.cfg.logger)
	if err != nil {
		return nil, err
	}
	for _, k := range b.keys {
		if err := be.Put(k, b.values[k]); err != nil {
			return nil, fmt.Errorf("put %q: %w", k, err)
		}
	}

	_, growing := be.(*ternary.Growing[V])
	b.cfg.logger.Debug().
		Stringer("backend", id).
		Int("capacity", size).
		Int("rows", be.Rows()).
		Int("keys", len(b.keys)).
		Bool("mutable", mutable).
		Bool("growing", growing).
		Msg("index built")

	return &index[V]{
		be:            be,
		id:            id,
		caseSensitive: plan.CaseSensitive,
		growing:       growing,
	}, nil
}
