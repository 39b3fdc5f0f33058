package breaker

import (
	"errors"
	"sync"
	"time"

	"github.com/tair/replenishment/pkg/logger"
)

// ErrOpen is returned by Call while the circuit rejects calls
var ErrOpen = errors.New("circuit breaker is open")

// State represents the state of a circuit breaker
type State string

const (
	StateClosed   State = "closed"    // Normal operation
	StateOpen     State = "open"      // Rejecting calls
	StateHalfOpen State = "half-open" // Probing whether the dependency recovered
)

// halfOpenSuccesses is the number of consecutive successes that close a half-open circuit.
const halfOpenSuccesses = 3

// CircuitBreaker guards calls to an unreliable dependency
type CircuitBreaker struct {
	name            string
	maxFailures     int
	openTimeout     time.Duration
	state           State
	failures        int
	successCount    int
	probing         bool
	lastFailureTime time.Time
	lastStateChange time.Time
	now             func() time.Time
	mu              sync.Mutex
}

// New creates a circuit breaker that opens after maxFailures consecutive
// failures and probes again once openTimeout has elapsed.
func New(name string, maxFailures int, openTimeout time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 1
	}
	return &CircuitBreaker{
		name:            name,
		maxFailures:     maxFailures,
		openTimeout:     openTimeout,
		state:           StateClosed,
		lastStateChange: time.Now(),
		now:             time.Now,
	}
}

// Call executes fn with circuit breaker protection
func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	if cb.state == StateOpen && cb.now().Sub(cb.lastStateChange) > cb.openTimeout {
		cb.transition(StateHalfOpen)
		cb.successCount = 0
	}
	current := cb.state
	// Half-open admits one call at a time; the rest are rejected until it returns.
	if current == StateOpen || (current == StateHalfOpen && cb.probing) {
		cb.mu.Unlock()
		return ErrOpen
	}
	probe := current == StateHalfOpen
	if probe {
		cb.probing = true
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if probe {
		cb.probing = false
	}

	if err != nil {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}

	return err
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.lastFailureTime = cb.now()

	if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
		cb.transition(StateOpen)
		logger.Logger.Warn().
			Str("circuit", cb.name).
			Int("failures", cb.failures).
			Int("threshold", cb.maxFailures).
			Msg("Circuit breaker opened")
	}
}

func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= halfOpenSuccesses {
			cb.failures = 0
			cb.successCount = 0
			cb.transition(StateClosed)
			logger.Logger.Info().
				Str("circuit", cb.name).
				Msg("Circuit breaker closed after successful recovery")
		}
	case StateClosed:
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) transition(to State) {
	cb.state = to
	cb.lastStateChange = cb.now()
}

// State returns the current state
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns circuit breaker statistics
func (cb *CircuitBreaker) Stats() map[string]interface{} {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return map[string]interface{}{
		"name":              cb.name,
		"state":             cb.state,
		"failures":          cb.failures,
		"max_failures":      cb.maxFailures,
		"last_failure_time": cb.lastFailureTime,
		"last_state_change": cb.lastStateChange,
	}
}
