package repository

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable marks failures where the backing store could not serve the call.
var ErrUnavailable = errors.New("status store unavailable")

func unavailable(op string, err error) error {
	return fmt.Errorf("repository: %s: %w: %w", op, ErrUnavailable, err)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
