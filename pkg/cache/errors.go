package cache

import (
	"context"
	"errors"
	"time"
)

// ErrBackend is returned when a remote cache backend cannot be reached.
// Callers treat it like a miss: a broken cache must not break rendering.
var ErrBackend = errors.New("cache backend unavailable")

// Backoff repeats an operation that failed with [ErrBackend].
type Backoff struct {
	Attempts int           // total attempts, at least 1
	Delay    time.Duration // wait before the second attempt; doubles afterwards
}

// DefaultBackoff is used when connecting to Redis.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 500 * time.Millisecond}

// Do calls fn until it succeeds or returns an error that does not wrap
// ErrBackend. It gives up after b.Attempts calls or when ctx ends, returning
// the last error or ctx.Err().
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	delay := b.Delay
	var err error
	for i := 0; i < max(b.Attempts, 1); i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err = fn(); err == nil || !errors.Is(err, ErrBackend) {
			return err
		}
	}
	return err
}
