// Package timeout bounds remote calls whose failure should degrade to a default
// value instead of blocking the caller.
package timeout

import (
	"context"
	"errors"
	"time"
)

type result[T any] struct {
	value T
	err   error
}

// Race runs op and returns its value if it settles within d. When d elapses first,
// when ctx is done, or when op fails, fallback is returned instead. Race never
// returns an error.
//
// Expiry does not cancel op: it keeps running on ctx and its eventual result is
// dropped. A non-positive d disables the bound.
func Race[T any](ctx context.Context, d time.Duration, fallback T, op func(context.Context) (T, error)) T {
	if op == nil {
		return fallback
	}

	// Buffered so a late settlement never blocks the abandoned goroutine.
	done := make(chan result[T], 1)
	go func() {
		defer func() {
			if recover() != nil {
				done <- result[T]{value: fallback, err: errPanicked}
			}
		}()
		v, err := op(ctx)
		done <- result[T]{value: v, err: err}
	}()

	var expired <-chan time.Time
	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case r := <-done:
		if r.err != nil {
			return fallback
		}
		return r.value
	case <-expired:
		return fallback
	case <-ctx.Done():
		return fallback
	}
}

var errPanicked = errors.New("timeout: operation panicked")
