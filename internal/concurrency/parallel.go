package concurrency

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// ParallelOptions configures parallel processing.
type ParallelOptions struct {
	// MaxWorkers is the number of items processed at once. 1 means strictly
	// sequential, in input order.
	MaxWorkers int

	// FailFast stops handing out new items after the first error. Items
	// already running finish; items never started get the zero result.
	FailFast bool
}

// DefaultOptions returns the default options for parallel processing.
func DefaultOptions() ParallelOptions {
	return ParallelOptions{
		MaxWorkers: 4,
	}
}

func (o ParallelOptions) workers(n int) int {
	w := o.MaxWorkers
	if w <= 0 {
		w = DefaultOptions().MaxWorkers
	}
	if w > n {
		w = n
	}
	return w
}

// ProcessParallel runs itemFunc for every item on a bounded ants pool.
// Results come back in the same order as items; errors come back in the
// order they occurred.
func ProcessParallel[T any, R any](
	ctx context.Context,
	items []T,
	opts ParallelOptions,
	itemFunc func(ctx context.Context, index int, item T) (R, error),
) ([]R, []error) {
	if len(items) == 0 {
		return []R{}, nil
	}

	results := make([]R, len(items))
	workers := opts.workers(len(items))

	if workers == 1 {
		return results, runSequential(ctx, items, opts, results, itemFunc)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := ants.NewPool(workers)
	if err != nil {
		return results, []error{err}
	}
	defer pool.Release()

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)

	for i := range items {
		if ctx.Err() != nil {
			break
		}
		i := i
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			res, err := itemFunc(ctx, i, items[i])
			results[i] = res
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				if opts.FailFast {
					cancel()
				}
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, submitErr)
			mu.Unlock()
			break
		}
	}
	wg.Wait()

	return results, errs
}

func runSequential[T any, R any](
	ctx context.Context,
	items []T,
	opts ParallelOptions,
	results []R,
	itemFunc func(ctx context.Context, index int, item T) (R, error),
) []error {
	var errs []error
	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		res, err := itemFunc(ctx, i, item)
		results[i] = res
		if err != nil {
			errs = append(errs, err)
			if opts.FailFast {
				break
			}
		}
	}
	return errs
}

// ForEach runs itemFunc for every item in parallel without collecting
// results. Useful when only side effects matter.
func ForEach[T any](
	ctx context.Context,
	items []T,
	opts ParallelOptions,
	itemFunc func(ctx context.Context, index int, item T) error,
) []error {
	_, errs := ProcessParallel(ctx, items, opts, func(ctx context.Context, i int, item T) (struct{}, error) {
		return struct{}{}, itemFunc(ctx, i, item)
	})
	return errs
}
