// Package parallel provides the worker-pool primitives used to fan independent
// work items out across goroutines.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/YuminosukeSato/xlinear/pkg/errors"
)

// Workers normalizes a requested worker count: n <= 0 means one per CPU, and
// there is never more than one worker per item.
func Workers(n, items int) int {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > items {
		n = items
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Parallelize splits [0, items) into at most `workers` contiguous ranges and
// runs fn on each range concurrently. workers <= 0 uses runtime.NumCPU().
func Parallelize(items, workers int, fn func(start, end int)) {
	if items == 0 {
		return
	}
	numWorkers := Workers(workers, items)

	// ceiling division
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunkSize {
		end := min(start+chunkSize, items)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when items <= threshold and
// through Parallelize otherwise.
func ParallelizeWithThreshold(items, threshold, workers int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, workers, fn)
}

// ForEach runs fn for every item in [0, n) on a fixed pool of workers.
//
// Items are handed out dynamically through a channel in increasing order.
// Each worker builds its own state with newState once and passes it to every
// fn call it makes, so state is never shared between goroutines.
//
// The first error returned by fn (or a panic inside fn, converted to
// *errors.PanicError) stops the hand-out of further items and is returned once
// all workers have stopped. Items already running finish normally. When ctx is
// cancelled before every item ran, ctx.Err() is returned.
func ForEach[S any](ctx context.Context, n, workers int, newState func(worker int) S,
	fn func(ctx context.Context, state S, item int) error) error {
	if n <= 0 {
		return ctx.Err()
	}
	numWorkers := Workers(workers, n)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		firstErr error
		errOnce  sync.Once
		done     atomic.Int64
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	jobs := make(chan int)
	go func() {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			state := newState(worker)
			for item := range jobs {
				if ctx.Err() != nil {
					continue // drain
				}
				err := errors.SafeExecute("parallel.ForEach", func() error {
					return fn(ctx, state, item)
				})
				if err != nil {
					fail(err)
					continue
				}
				done.Add(1)
			}
		}(w)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if done.Load() < int64(n) {
		// Only the parent context can have stopped the hand-out here.
		return errors.WithStack(context.Cause(ctx))
	}
	return nil
}
