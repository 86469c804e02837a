// Package resilience guards the vector store from sustained failure and from
// write bursts. The coordinator wraps every store call in a Breaker so a dead
// store fails fast instead of stalling the whole ingestion run, and pipes the
// calls through a Limiter so batches land at a sustainable rate.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the breaker's position: closed passes calls through, open rejects
// them, half-open lets a bounded number of trial calls decide.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// BreakerOpts configures a Breaker.
type BreakerOpts struct {
	// FailThreshold is the run of consecutive failures that opens the breaker.
	FailThreshold int
	// Timeout is how long the breaker stays open before trying again.
	Timeout time.Duration
	// HalfOpenMax caps the trial calls admitted while half-open.
	HalfOpenMax int
}

// DefaultBreakerOpts suits a vector store that recovers within a restart.
var DefaultBreakerOpts = BreakerOpts{
	FailThreshold: 5,
	Timeout:       30 * time.Second,
	HalfOpenMax:   1,
}

// Breaker rejects calls after repeated failures and probes the dependency
// again once the open timeout has passed.
type Breaker struct {
	mu       sync.Mutex
	opts     BreakerOpts
	state    State
	failures int
	openedAt time.Time
	trials   int
	clock    func() time.Time
}

// NewBreaker returns a closed breaker. Zero or negative option fields fall
// back to DefaultBreakerOpts.
func NewBreaker(opts BreakerOpts) *Breaker {
	if opts.FailThreshold <= 0 {
		opts.FailThreshold = DefaultBreakerOpts.FailThreshold
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultBreakerOpts.Timeout
	}
	if opts.HalfOpenMax <= 0 {
		opts.HalfOpenMax = DefaultBreakerOpts.HalfOpenMax
	}
	return &Breaker{opts: opts, clock: time.Now}
}

// State reports the breaker's position, moving open to half-open when the
// timeout has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.position()
}

// position must be called with mu held.
func (b *Breaker) position() State {
	if b.state == StateOpen && b.clock().Sub(b.openedAt) >= b.opts.Timeout {
		b.state = StateHalfOpen
		b.trials = 0
	}
	return b.state
}

// Call runs f unless the breaker is open. A failure while half-open, or the
// FailThreshold'th consecutive failure while closed, opens the breaker; a
// half-open success closes it.
func (b *Breaker) Call(ctx context.Context, f func(context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := f(ctx)
	b.record(err)
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.position() {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.trials >= b.opts.HalfOpenMax {
			return ErrCircuitOpen
		}
		b.trials++
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		if b.state == StateHalfOpen {
			b.state = StateClosed
		}
		b.failures = 0
		return
	}
	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.opts.FailThreshold {
		b.state = StateOpen
		b.openedAt = b.clock()
		b.failures = 0
		b.trials = 0
	}
}
