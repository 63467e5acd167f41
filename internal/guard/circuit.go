package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spscricket/player-service/internal/clock"
)

// ErrCircuitOpen is returned by BreakerPublisher while a topic's circuit is open.
var ErrCircuitOpen = errors.New("circuit open")

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreaker implements a per-key circuit breaker.
type CircuitBreaker struct {
	mu            sync.Mutex
	circuits      map[string]*circuit
	failThreshold int
	resetTimeout  time.Duration
	halfOpenMax   int
	clock         clock.Clock
}

type circuit struct {
	state       CircuitState
	failures    int
	probes      int
	lastFailure time.Time
}

// NewCircuitBreaker opens a key's circuit after failThreshold consecutive
// failures and lets one probe through once resetTimeout has passed.
func NewCircuitBreaker(failThreshold int, resetTimeout time.Duration, clk clock.Clock) *CircuitBreaker {
	if clk == nil {
		clk = clock.New()
	}
	return &CircuitBreaker{
		circuits:      make(map[string]*circuit),
		failThreshold: failThreshold,
		resetTimeout:  resetTimeout,
		halfOpenMax:   1,
		clock:         clk,
	}
}

// Check returns whether the circuit for key allows a call.
func (cb *CircuitBreaker) Check(key string) Result {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, ok := cb.circuits[key]
	if !ok {
		cb.circuits[key] = &circuit{state: CircuitClosed}
		return Result{Allowed: true}
	}

	switch c.state {
	case CircuitOpen:
		elapsed := cb.clock.Now().Sub(c.lastFailure)
		if elapsed < cb.resetTimeout {
			return Result{
				Allowed: false,
				Reason:  fmt.Sprintf("circuit open for %s, resets in %s", key, cb.resetTimeout-elapsed),
				Guard:   "circuit_breaker",
			}
		}
		c.state = CircuitHalfOpen
		c.probes = 1
		return Result{Allowed: true}
	case CircuitHalfOpen:
		if c.probes >= cb.halfOpenMax {
			return Result{
				Allowed: false,
				Reason:  "circuit half-open, max probes reached",
				Guard:   "circuit_breaker",
			}
		}
		c.probes++
		return Result{Allowed: true}
	default:
		return Result{Allowed: true}
	}
}

// RecordSuccess closes the circuit for key.
func (cb *CircuitBreaker) RecordSuccess(key string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if c, ok := cb.circuits[key]; ok {
		c.state = CircuitClosed
		c.failures = 0
		c.probes = 0
	}
}

// RecordFailure counts a failed call for key. A failed probe reopens the circuit.
func (cb *CircuitBreaker) RecordFailure(key string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, ok := cb.circuits[key]
	if !ok {
		c = &circuit{state: CircuitClosed}
		cb.circuits[key] = c
	}

	c.failures++
	c.lastFailure = cb.clock.Now()

	if c.state == CircuitHalfOpen || c.failures >= cb.failThreshold {
		c.state = CircuitOpen
		c.probes = 0
	}
}

// State reports the current state for key.
func (cb *CircuitBreaker) State(key string) CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if c, ok := cb.circuits[key]; ok {
		return c.state
	}
	return CircuitClosed
}

// Publisher is the broker client a BreakerPublisher wraps.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// BreakerPublisher short-circuits publishes to topics whose broker calls keep failing.
type BreakerPublisher struct {
	next    Publisher
	breaker *CircuitBreaker
}

// NewBreakerPublisher wraps next with breaker, keyed by topic.
func NewBreakerPublisher(next Publisher, breaker *CircuitBreaker) *BreakerPublisher {
	return &BreakerPublisher{next: next, breaker: breaker}
}

// Publish forwards to the wrapped publisher unless the topic's circuit is open.
func (p *BreakerPublisher) Publish(ctx context.Context, topic string, key, value []byte) error {
	if res := p.breaker.Check(topic); !res.Allowed {
		return fmt.Errorf("%w: %s", ErrCircuitOpen, res.Reason)
	}
	if err := p.next.Publish(ctx, topic, key, value); err != nil {
		// A cancelled relay says nothing about broker health.
		if ctx.Err() == nil {
			p.breaker.RecordFailure(topic)
		}
		return err
	}
	p.breaker.RecordSuccess(topic)
	return nil
}
