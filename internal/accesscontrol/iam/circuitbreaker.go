package iam

import (
	"sync"
	"time"
)

// CircuitBreaker is a single consecutive-failure counter guarding the
// identity RPC. Process-global state (one instance shared by every
// request), per spec.md §4.1 and §9.
type CircuitBreaker struct {
	mu                  sync.Mutex
	threshold           int
	openDuration        time.Duration
	consecutiveFailures int
	openUntil           time.Time
}

// NewCircuitBreaker creates a breaker that opens after threshold
// consecutive failures, for openDuration.
func NewCircuitBreaker(threshold int, openDuration time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:    threshold,
		openDuration: openDuration,
	}
}

// Open reports whether the breaker is currently open (the open-until
// instant is still in the future).
func (b *CircuitBreaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.openUntil.IsZero() && time.Now().Before(b.openUntil)
}

// RecordFailure increments the consecutive-failure counter and opens the
// circuit once the threshold is reached.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures++
	if b.consecutiveFailures >= b.threshold {
		b.openUntil = time.Now().Add(b.openDuration)
		b.consecutiveFailures = 0
	}
}

// RecordSuccess resets the failure counter and clears any open-until
// instant.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures = 0
	b.openUntil = time.Time{}
}
