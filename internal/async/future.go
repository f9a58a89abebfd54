package async

import (
	"context"
	"fmt"
)

// Future is the pending result of a call started with Go.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go runs fn in its own goroutine and returns a Future for its result.
// ctx is handed to fn; cancelling it is up to fn to honour.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("async call panicked: %v", r)
			}
		}()
		f.value, f.err = fn(ctx)
	}()
	return f
}

// Wait blocks until the call finishes or ctx is done. Giving up on ctx does
// not stop the call; a later Wait still returns its result.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// WaitAll waits for every future in order and returns their values in the
// same order. The first error wins and the remaining results are dropped.
func WaitAll[T any](ctx context.Context, futures []*Future[T]) ([]T, error) {
	values := make([]T, len(futures))
	for i, f := range futures {
		v, err := f.Wait(ctx)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
