package async

import (
	"context"
	"errors"
	"fmt"
)

// Future is the pending result of a function started with Go.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Go calls fn on a new goroutine. A panic in fn is recovered and reported as
// the future's error. When ctx is already done fn is not called.
func Go[U any](ctx context.Context, fn func(context.Context) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("async: panic: %v", r)
			}
		}()

		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.result, f.err = fn(ctx)
	}()

	return f
}

// Await blocks until the function returns or ctx is done.
func (f *Future[U]) Await(ctx context.Context) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero U
		return zero, ctx.Err()
	}
}

// Done reports whether the function has returned.
func (f *Future[U]) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// WaitAll awaits every future and returns their results in order. Errors
// from all futures are joined.
func WaitAll[U any](ctx context.Context, futures ...*Future[U]) ([]U, error) {
	if len(futures) == 0 {
		return nil, ErrNoFutures
	}
	results := make([]U, len(futures))
	var errs []error
	for i, f := range futures {
		res, err := f.Await(ctx)
		results[i] = res
		if err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}
