package errors

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ============================================================
// Circuit Breaker
// ============================================================

// ErrCircuitOpen is returned while a breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state.
type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Failing, reject requests
	StateHalfOpen              // Probing whether the provider recovered
)

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

// CircuitBreaker stops calling a provider that keeps failing.
// It never retries; a rejected call fails immediately.
type CircuitBreaker struct {
	mu sync.Mutex

	name             string
	maxFailures      int
	resetTimeout     time.Duration
	halfOpenAttempts int
	now              func() time.Time

	state           State
	failures        int
	lastFailureTime time.Time
	halfOpenCount   int
}

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures before opening
	MaxFailures int

	// ResetTimeout is how long the breaker stays open
	ResetTimeout time.Duration

	// HalfOpenAttempts is how many probes are let through after the timeout
	HalfOpenAttempts int

	// Now overrides the clock, for tests
	Now func() time.Time
}

// DefaultCircuitBreakerConfig returns default circuit breaker config.
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxFailures:      5,
		ResetTimeout:     60 * time.Second,
		HalfOpenAttempts: 1,
	}
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(name string, config *CircuitBreakerConfig) *CircuitBreaker {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &CircuitBreaker{
		name:             name,
		maxFailures:      max(config.MaxFailures, 1),
		resetTimeout:     config.ResetTimeout,
		halfOpenAttempts: max(config.HalfOpenAttempts, 1),
		now:              now,
		state:            StateClosed,
	}
}

// Execute runs fn unless the breaker is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allowRequest() {
		return fmt.Errorf("%s: %w", cb.name, ErrCircuitOpen)
	}

	err := fn()
	cb.recordResult(err)
	return err
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) >= cb.resetTimeout {
			cb.state = StateHalfOpen
			cb.halfOpenCount = 1
			return true
		}
		return false
	case StateHalfOpen:
		if cb.halfOpenCount < cb.halfOpenAttempts {
			cb.halfOpenCount++
			return true
		}
		return false
	}
	return false
}

func (cb *CircuitBreaker) recordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil || !tripsBreaker(err) {
		cb.failures = 0
		cb.state = StateClosed
		return
	}

	cb.failures++
	cb.lastFailureTime = cb.now()

	if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
		cb.state = StateOpen
	}
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset closes the breaker and clears the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failures = 0
	cb.halfOpenCount = 0
}

// tripsBreaker reports whether err says the provider is unhealthy. Caller
// and configuration errors (bad request, bad key) prove it is answering.
func tripsBreaker(err error) bool {
	switch GetCategory(err) {
	case CategoryTemporary, CategoryRateLimit:
		return true
	default:
		return false
	}
}
