// Package circuitbreaker short-circuits calls to an upstream content endpoint
// after repeated failures, so fallback content is served without waiting on
// a dead server. It never retries.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Execute while the breaker rejects calls.
var ErrOpen = errors.New("circuit breaker open")

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// State is the circuit breaker state (Closed, Open, HalfOpen).
type State int

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config holds circuit breaker parameters. Zero values take defaults:
// 5 failures to open, 2 half-open successes to close, 30s open timeout.
type Config struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
	Component        string
	// OnStateChange is called outside the lock after every transition.
	OnStateChange func(component string, from, to State)
}

// CircuitBreaker opens after FailureThreshold consecutive failures and, once
// Timeout has elapsed, lets calls probe the upstream in half-open state.
type CircuitBreaker struct {
	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
	cfg       Config
	now       func() time.Time
}

// New creates a closed CircuitBreaker.
func New(cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &CircuitBreaker{state: StateClosed, cfg: cfg, now: time.Now}
}

// Execute runs fn unless the breaker is open. A non-nil error from fn counts
// as a failure; ignore reports errors that should not count (e.g. the caller
// giving up).
func (cb *CircuitBreaker) Execute(fn func() error, ignore func(error) bool) error {
	if err := cb.before(); err != nil {
		return err
	}
	err := fn()
	if err != nil && ignore != nil && ignore(err) {
		return err
	}
	cb.after(err == nil)
	return err
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	if cb.state != StateOpen {
		cb.mu.Unlock()
		return nil
	}
	if cb.now().Sub(cb.openedAt) < cb.cfg.Timeout {
		cb.mu.Unlock()
		return ErrOpen
	}
	cb.state = StateHalfOpen
	cb.successes = 0
	cb.mu.Unlock()
	cb.notify(StateOpen, StateHalfOpen)
	return nil
}

func (cb *CircuitBreaker) after(ok bool) {
	cb.mu.Lock()
	from := cb.state
	if ok {
		cb.failures = 0
		if cb.state == StateHalfOpen {
			cb.successes++
			if cb.successes >= cb.cfg.SuccessThreshold {
				cb.state = StateClosed
				cb.successes = 0
			}
		}
	} else {
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
			cb.state = StateOpen
			cb.openedAt = cb.now()
			cb.failures = 0
		}
	}
	to := cb.state
	cb.mu.Unlock()

	if from != to {
		cb.notify(from, to)
	}
}

func (cb *CircuitBreaker) notify(from, to State) {
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Component, from, to)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
