package fn

import (
	"context"
	"math/rand"
	"time"
)

// RetryOpts configures Retry. InitialWait doubles per attempt up to
// MaxWait; Jitter perturbs each wait by a random factor in [0.5, 1.5).
type RetryOpts struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Jitter      bool
}

// DefaultRetry is the backoff the ingestion commands use for store calls.
var DefaultRetry = RetryOpts{
	MaxAttempts: 3,
	InitialWait: time.Second,
	MaxWait:     30 * time.Second,
	Jitter:      true,
}

// Retry runs f until it succeeds, the attempts are spent, or the context
// ends during a backoff wait. f always runs at least once.
func Retry[T any](ctx context.Context, opts RetryOpts, f func(context.Context) Result[T]) Result[T] {
	wait := opts.InitialWait
	for attempt := 1; ; attempt++ {
		r := f(ctx)
		if r.IsOk() || attempt >= opts.MaxAttempts {
			return r
		}

		d := wait
		if opts.Jitter {
			d = time.Duration(float64(wait) * (0.5 + rand.Float64()))
		}
		if d > opts.MaxWait {
			d = opts.MaxWait
		}
		select {
		case <-ctx.Done():
			return Err[T](ctx.Err())
		case <-time.After(d):
		}

		wait *= 2
		if wait > opts.MaxWait {
			wait = opts.MaxWait
		}
	}
}
