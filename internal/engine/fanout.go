package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// outcome is the result slot of one task
type outcome[T any] struct {
	value T
	err   error
}

// fanOut runs task(ctx, i) for i in [0,n) with at most limit in flight, each
// under its own timeout. A task error is recorded in its slot and does not
// stop the batch unless fatal reports it as fatal. Cancellation of ctx
// aborts the whole batch: no new tasks start and ctx's error is returned
// instead of partial results.
func fanOut[T any](ctx context.Context, limit int, timeout time.Duration, n int,
	task func(ctx context.Context, i int) (T, error), fatal func(error) bool,
) ([]outcome[T], error) {
	results := make([]outcome[T], n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}

		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			tctx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()

			v, err := task(tctx, i)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if fatal != nil && fatal(err) {
					return err
				}
			}
			results[i] = outcome[T]{value: v, err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
