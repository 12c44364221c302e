package tokenindex

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// BuildAll builds every builder's index concurrently with at most workers
// builds in flight (all at once when workers <= 0). Results are in builder
// order. The first failure cancels builds that have not started yet and is
// returned with the index of its builder.
//
// Each Builder is read by exactly one goroutine; callers must not modify
// them until BuildAll returns.
func BuildAll[V any](ctx context.Context, workers int, builders ...*Builder[V]) ([]Index[V], error) {
	out := make([]Index[V], len(builders))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, b := range builders {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			idx, err := b.Build()
			if err != nil {
				return fmt.Errorf("builder %d: %w", i, err)
			}
			out[i] = idx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
