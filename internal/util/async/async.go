package async

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ForEach calls fn for every index in [0, n) with at most limit calls in
// flight. A failing call does not cancel its siblings: every index runs and
// all errors are joined in index order. limit <= 0 means unbounded.
//
// Example:
//
//	outcomes := make([]Outcome, len(reqs))
//	_ = ForEach(ctx, 4, len(reqs), func(ctx context.Context, i int) error {
//	    outcomes[i] = run(ctx, reqs[i])
//	    return nil
//	})
func ForEach(ctx context.Context, limit, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return nil
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	errs := make([]error, n)
	for i := range n {
		g.Go(func() error {
			errs[i] = fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// Tracker runs background goroutines and lets callers wait for them.
// The zero value is ready to use.
type Tracker struct {
	wg sync.WaitGroup
}

// Go starts fn on a new goroutine.
func (t *Tracker) Go(fn func()) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		fn()
	}()
}

// Wait blocks until every started goroutine has returned or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
