// Package circuitbreaker stops calling bridge adapters that keep failing and
// tries them again after a cool-down.
package circuitbreaker

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// State represents the current state of the circuit breaker
type State int

// Circuit breaker states
const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Tripped, calls are skipped
	StateHalfOpen              // Testing if the adapter has recovered
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker counts consecutive upstream failures of one adapter.
type CircuitBreaker struct {
	name string

	// Consecutive failures that open the circuit
	failureThreshold int

	state State

	// Timestamp of the last circuit trip
	lastTrip time.Time

	// Duration before a half-open trial call is allowed
	resetDelay time.Duration

	mu sync.Mutex

	failures int

	// Count of consecutive successful calls in HalfOpen state
	successCount int

	// Number of successful calls required to close the circuit
	successThreshold int

	// Event callback for monitoring/alerting
	onTripCallback func(name, reason string)

	// onStateChange is called with the new state after every transition
	onStateChange func(name string, s State)

	now func() time.Time
}

// New creates a breaker for the named adapter
func New(name string, failureThreshold int) *CircuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	return &CircuitBreaker{
		name:             name,
		failureThreshold: failureThreshold,
		state:            StateClosed,
		resetDelay:       time.Minute,
		successThreshold: 1,
		now:              time.Now,
	}
}

// WithResetDelay sets a custom reset delay and returns the circuit breaker
func (cb *CircuitBreaker) WithResetDelay(delay time.Duration) *CircuitBreaker {
	cb.resetDelay = delay
	return cb
}

// WithSuccessThreshold sets the number of successful calls needed to close the circuit
func (cb *CircuitBreaker) WithSuccessThreshold(threshold int) *CircuitBreaker {
	if threshold < 1 {
		threshold = 1
	}
	cb.successThreshold = threshold
	return cb
}

// WithTripCallback sets a callback function that is called when the circuit trips
func (cb *CircuitBreaker) WithTripCallback(callback func(name, reason string)) *CircuitBreaker {
	cb.onTripCallback = callback
	return cb
}

// WithStateCallback sets a callback invoked after each state transition
func (cb *CircuitBreaker) WithStateCallback(callback func(name string, s State)) *CircuitBreaker {
	cb.onStateChange = callback
	return cb
}

// WithClock replaces time.Now, for tests
func (cb *CircuitBreaker) WithClock(now func() time.Time) *CircuitBreaker {
	cb.now = now
	return cb
}

// Allow reports whether the adapter may be called now. An open circuit moves
// to half-open once the reset delay has elapsed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastTrip) < cb.resetDelay {
			return false
		}
		cb.setState(StateHalfOpen)
		cb.successCount = 0
		logrus.WithField("bridge", cb.name).Info("Circuit breaker half-open: probing adapter")
		return true
	default:
		return true
	}
}

// RecordSuccess notes a successful call
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	if cb.state == StateHalfOpen {
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.setState(StateClosed)
			cb.successCount = 0
			logrus.WithField("bridge", cb.name).Info("Circuit breaker closed: adapter has recovered")
		}
	}
}

// RecordFailure notes an upstream failure and trips the circuit when the
// threshold is reached. Any failure while half-open trips immediately.
func (cb *CircuitBreaker) RecordFailure(reason string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	if cb.state == StateHalfOpen || (cb.state == StateClosed && cb.failures >= cb.failureThreshold) {
		cb.trip(reason)
	}
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forcibly resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(StateClosed)
	cb.failures = 0
	cb.successCount = 0
	logrus.WithField("bridge", cb.name).Info("Circuit breaker manually reset to closed state")
}

// trip sets the circuit breaker to open state with the current time
func (cb *CircuitBreaker) trip(reason string) {
	cb.setState(StateOpen)
	cb.lastTrip = cb.now()
	cb.successCount = 0
	logrus.WithFields(logrus.Fields{
		"bridge":   cb.name,
		"failures": cb.failures,
	}).Warnf("Circuit breaker tripped: %s", reason)

	if cb.onTripCallback != nil {
		go cb.onTripCallback(cb.name, reason)
	}
}

func (cb *CircuitBreaker) setState(s State) {
	if cb.state == s {
		return
	}
	cb.state = s
	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, s)
	}
}

// Group lazily holds one breaker per adapter name
type Group struct {
	mu               sync.Mutex
	breakers         map[string]*CircuitBreaker
	failureThreshold int
	resetDelay       time.Duration
	configure        func(*CircuitBreaker)
}

// NewGroup creates breakers on demand with the given settings. configure, when
// non-nil, is applied to every new breaker.
func NewGroup(failureThreshold int, resetDelay time.Duration, configure func(*CircuitBreaker)) *Group {
	return &Group{
		breakers:         make(map[string]*CircuitBreaker),
		failureThreshold: failureThreshold,
		resetDelay:       resetDelay,
		configure:        configure,
	}
}

// For returns the breaker for name, creating it if needed
func (g *Group) For(name string) *CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cb, ok := g.breakers[name]; ok {
		return cb
	}
	cb := New(name, g.failureThreshold).WithResetDelay(g.resetDelay)
	if g.configure != nil {
		g.configure(cb)
	}
	g.breakers[name] = cb
	return cb
}

// States snapshots the state of every known breaker
func (g *Group) States() map[string]State {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[string]State, len(g.breakers))
	for name, cb := range g.breakers {
		out[name] = cb.GetState()
	}
	return out
}
