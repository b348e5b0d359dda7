package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

// Fanout runs every task concurrently and waits for all of them,
// collecting the results in task order. Unlike a plain errgroup it does
// not stop at the first failure: image uploads and similar side
// artifacts must each get their attempt regardless of sibling outcomes.
// Panics inside a task are recovered, logged, and surfaced as that
// task's error.
func Fanout(ctx context.Context, tasks []func(ctx context.Context) error) []error {
	results := make([]error, len(tasks))

	var g errgroup.Group
	for idx, task := range tasks {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					ctxlog.From(ctx).Error("panic in fanout task",
						"recover", r,
						"stack", string(debug.Stack()),
					)
					results[idx] = goerr.New("task panicked", goerr.V("recover", r))
				}
			}()
			results[idx] = task(ctx)
			return nil
		})
	}

	// Tasks never return errors through the group; Wait only joins.
	_ = g.Wait()
	return results
}
