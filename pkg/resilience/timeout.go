package resilience

import (
	"context"
	"fmt"
	"time"
)

// CallWithTimeout runs fn under a context that expires after timeout and
// returns once fn finishes or the deadline passes, whichever is first. A
// non-positive timeout calls fn directly.
func CallWithTimeout[T any](ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(tctx)
		done <- outcome{v, err}
	}()
	select {
	case o := <-done:
		return o.val, o.err
	case <-tctx.Done():
		var zero T
		if ctx.Err() != nil {
			return zero, fmt.Errorf("%s: parent context cancelled: %w", name, ctx.Err())
		}
		return zero, fmt.Errorf("%s: %w (limit: %v)", name, context.DeadlineExceeded, timeout)
	}
}
