// Package circuitbreaker protects the record store from repeated load
// attempts while it is failing.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"github.com/finbench/internal/logging"
)

// State represents the circuit breaker state
type State string

const (
	// StateClosed means requests are allowed
	StateClosed State = "closed"
	// StateOpen means requests are blocked
	StateOpen State = "open"
	// StateHalfOpen means the breaker is testing recovery
	StateHalfOpen State = "half_open"
)

// ErrCircuitOpen is returned when the circuit breaker is open
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config configures a circuit breaker
type Config struct {
	Name             string
	MaxFailures      int           // consecutive failures before opening
	Timeout          time.Duration // time to wait before half-open
	HalfOpenMaxCalls int           // successes needed in half-open to close
}

// DefaultConfig returns the configuration used for store population loads.
func DefaultConfig(name string) *Config {
	return &Config{
		Name:             name,
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 2,
	}
}

// CircuitBreaker implements the circuit breaker pattern around store loads.
type CircuitBreaker struct {
	name             string
	maxFailures      int
	timeout          time.Duration
	halfOpenMaxCalls int

	mu               sync.Mutex
	state            State
	consecutiveFails int
	halfOpenSuccess  int
	lastStateChange  time.Time
}

// New creates a circuit breaker
func New(config *Config) *CircuitBreaker {
	return &CircuitBreaker{
		name:             config.Name,
		maxFailures:      config.MaxFailures,
		timeout:          config.Timeout,
		halfOpenMaxCalls: config.HalfOpenMaxCalls,
		state:            StateClosed,
		lastStateChange:  time.Now(),
	}
}

// Execute runs fn under breaker protection. While the circuit is open it
// returns ErrCircuitOpen without calling fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}
	err := fn()
	cb.afterRequest(err)
	return err
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if time.Since(cb.lastStateChange) <= cb.timeout {
			return ErrCircuitOpen
		}
		cb.setState(StateHalfOpen)
		logging.WithFields(map[string]interface{}{
			"circuitBreaker": cb.name,
			"state":          StateHalfOpen,
		}).Info("circuit breaker transitioning to half-open")
	}
	return nil
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.consecutiveFails++
		cb.halfOpenSuccess = 0
		if cb.state == StateHalfOpen || cb.consecutiveFails >= cb.maxFailures {
			if cb.state != StateOpen {
				cb.setState(StateOpen)
				logging.WithFields(map[string]interface{}{
					"circuitBreaker":   cb.name,
					"state":            StateOpen,
					"consecutiveFails": cb.consecutiveFails,
				}).Warn("circuit breaker opened")
			}
		}
		return
	}

	cb.consecutiveFails = 0
	if cb.state == StateHalfOpen {
		cb.halfOpenSuccess++
		if cb.halfOpenSuccess >= cb.halfOpenMaxCalls {
			cb.setState(StateClosed)
			cb.halfOpenSuccess = 0
			logging.WithFields(map[string]interface{}{
				"circuitBreaker": cb.name,
				"state":          StateClosed,
			}).Info("circuit breaker closed after recovery")
		}
	}
}

func (cb *CircuitBreaker) setState(state State) {
	cb.state = state
	cb.lastStateChange = time.Now()
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset manually returns the breaker to closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(StateClosed)
	cb.consecutiveFails = 0
	cb.halfOpenSuccess = 0
}
