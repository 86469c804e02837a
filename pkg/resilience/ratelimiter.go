package resilience

import (
	"context"
	"sync"
	"time"
)

// LimiterOpts configures a Limiter.
type LimiterOpts struct {
	// Rate is tokens replenished per second.
	Rate float64
	// Burst is the bucket capacity; it also sets the initial token count.
	Burst int
}

// Limiter is a token bucket. Wait blocks until a token is available rather
// than rejecting, which is the behavior ingestion wants: slow down, not drop.
type Limiter struct {
	mu     sync.Mutex
	opts   LimiterOpts
	tokens float64
	last   time.Time
	clock  func() time.Time
}

// NewLimiter returns a full bucket. Burst below one is raised to one.
func NewLimiter(opts LimiterOpts) *Limiter {
	if opts.Burst < 1 {
		opts.Burst = 1
	}
	return &Limiter{opts: opts, tokens: float64(opts.Burst), clock: time.Now}
}

// Wait takes a token, sleeping until one accrues. It returns early only when
// ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		l.accrue()
		if l.tokens >= 1 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}
		short := 1 - l.tokens
		l.mu.Unlock()

		nap := time.Duration(short / l.opts.Rate * float64(time.Second))
		if nap < time.Millisecond {
			nap = time.Millisecond
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(nap):
		}
	}
}

// CallWait runs f after Wait grants a token.
func (l *Limiter) CallWait(ctx context.Context, f func(context.Context) error) error {
	if err := l.Wait(ctx); err != nil {
		return err
	}
	return f(ctx)
}

// accrue credits tokens for the time since the last call. Must hold mu.
func (l *Limiter) accrue() {
	now := l.clock()
	if !l.last.IsZero() {
		l.tokens += now.Sub(l.last).Seconds() * l.opts.Rate
		if l.tokens > float64(l.opts.Burst) {
			l.tokens = float64(l.opts.Burst)
		}
	}
	l.last = now
}
