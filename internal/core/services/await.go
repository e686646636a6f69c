package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

var (
	// errStageTimeout is returned by await when its own deadline fires first.
	errStageTimeout = fmt.Errorf("stage timeout: %w", context.DeadlineExceeded)

	// errStagePanic wraps a panic recovered from fn.
	errStagePanic = errors.New("stage panicked")
)

// await runs fn on its own goroutine, bounded by timeout (zero means no bound).
// If ctx is canceled or the deadline passes before fn returns, the in-flight
// result is abandoned and discarded when it eventually arrives. A panic in fn
// is recovered and returned as an error.
func await[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, fmt.Errorf("%w: %w", domain.ErrCanceled, err)
	}

	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- result{err: fmt.Errorf("%w: %v", errStagePanic, rec)}
			}
		}()
		v, err := fn(callCtx)
		done <- result{val: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && callCtx.Err() != nil {
			return zero, abandoned(ctx)
		}
		return r.val, r.err
	case <-callCtx.Done():
		return zero, abandoned(ctx)
	}
}

func abandoned(parent context.Context) error {
	if err := parent.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCanceled, err)
	}
	return errStageTimeout
}

func isStageTimeout(err error) bool {
	return errors.Is(err, errStageTimeout)
}
