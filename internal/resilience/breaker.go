// Package resilience guards calls to external systems that can flap.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without invoking the call while the breaker is
// open.
var ErrCircuitOpen = errors.New("circuit open")

type state int

const (
	closed state = iota
	open
	halfOpen
)

// Breaker trips after a run of consecutive failures and rejects calls until
// the cooldown passes. The first call after the cooldown probes the
// dependency; its outcome decides whether the breaker closes again or
// re-opens for another cooldown.
type Breaker struct {
	threshold int
	cooldown  time.Duration

	mu       sync.Mutex
	state    state
	failures int
	openedAt time.Time
	clock    func() time.Time
}

// NewBreaker creates a Breaker that opens after threshold consecutive
// failures and cools down for the given duration.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{threshold: threshold, cooldown: cooldown, clock: time.Now}
}

// Execute runs fn unless the breaker is open, in which case it returns
// ErrCircuitOpen immediately.
func (b *Breaker) Execute(fn func() error) error {
	if !b.admit() {
		return ErrCircuitOpen
	}

	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == open {
		if b.clock().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.state = halfOpen
	}
	return true
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		b.state = closed
		return
	}

	b.failures++
	if b.state == halfOpen || b.failures >= b.threshold {
		b.state = open
		b.openedAt = b.clock()
	}
}
