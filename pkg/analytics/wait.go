package analytics

import (
	"context"

	"github.com/ledgerinvesting/ledger-analytics-go/pkg/tasks"
	"golang.org/x/sync/errgroup"
)

// WaitAll waits for fit tasks of models concurrently.
//
// It is for models fit in asynchronous mode. Each model is polled in its own goroutine.
// When one fails, the others are cancelled and the first failure is returned.
func WaitAll(ctx context.Context, models []*Model, options ...tasks.Option) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, m := range models {
		eg.Go(func() error {
			return m.WaitFit(ctx, options...)
		})
	}
	return eg.Wait()
}
