// Package resilience guards upstream calls with a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the breaker rejects calls
var ErrCircuitOpen = errors.New("circuit breaker is open")

// StateObserver receives breaker transitions; *metrics.Metrics satisfies it
type StateObserver interface {
	SetCircuitBreakerState(name string, state int)
	RecordCircuitBreakerTrip(name string)
}

// CircuitBreakerConfig holds configuration for a circuit breaker
type CircuitBreakerConfig struct {
	Name string

	// HalfOpenRequests is how many trial calls pass while half-open
	HalfOpenRequests uint32
	// ResetInterval clears the counts while closed; zero never clears
	ResetInterval time.Duration
	// OpenTimeout is how long the breaker stays open before probing
	OpenTimeout time.Duration

	ConsecutiveFailures uint32
	FailureRatio        float64
	MinRequests         uint32 // before FailureRatio is evaluated

	// IsSuccessful decides which errors count against the breaker. nil counts every error.
	IsSuccessful func(err error) bool
}

// DefaultCircuitBreakerConfig trips after five straight failures, or half of
// at least ten calls in a minute, and tries again after 30s.
func DefaultCircuitBreakerConfig(name string) *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Name:                name,
		HalfOpenRequests:    3,
		ResetInterval:       time.Minute,
		OpenTimeout:         30 * time.Second,
		ConsecutiveFailures: 5,
		FailureRatio:        0.5,
		MinRequests:         10,
	}
}

func (c *CircuitBreakerConfig) readyToTrip(counts gobreaker.Counts) bool {
	if counts.ConsecutiveFailures >= c.ConsecutiveFailures {
		return true
	}
	return counts.Requests >= c.MinRequests &&
		float64(counts.TotalFailures)/float64(counts.Requests) >= c.FailureRatio
}

// CircuitBreaker wraps gobreaker with logging and state reporting
type CircuitBreaker struct {
	cb     *gobreaker.CircuitBreaker
	name   string
	logger *slog.Logger
}

// NewCircuitBreaker creates a new circuit breaker. observer may be nil.
func NewCircuitBreaker(config *CircuitBreakerConfig, logger *slog.Logger, observer StateObserver) *CircuitBreaker {
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:         config.Name,
		MaxRequests:  config.HalfOpenRequests,
		Interval:     config.ResetInterval,
		Timeout:      config.OpenTimeout,
		ReadyToTrip:  config.readyToTrip,
		IsSuccessful: config.IsSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			if observer == nil {
				return
			}
			observer.SetCircuitBreakerState(name, int(to))
			if to == gobreaker.StateOpen {
				observer.RecordCircuitBreakerTrip(name)
			}
		},
	}

	return &CircuitBreaker{
		cb:     gobreaker.NewCircuitBreaker(settings),
		name:   config.Name,
		logger: logger,
	}
}

// Execute runs fn through the breaker. Open and half-open rejections wrap ErrCircuitOpen.
func Execute[T any](ctx context.Context, c *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	result, err := c.cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		c.logger.Warn("Circuit breaker is open", "name", c.name)
		return zero, fmt.Errorf("%w: %s", ErrCircuitOpen, c.name)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		c.logger.Warn("Circuit breaker is probing, call rejected", "name", c.name)
		return zero, fmt.Errorf("%w: %s is half-open", ErrCircuitOpen, c.name)
	}

	if result == nil {
		return zero, err
	}
	return result.(T), err
}

// State returns the current state of the circuit breaker
func (c *CircuitBreaker) State() gobreaker.State {
	return c.cb.State()
}

// Status is a point-in-time view of a breaker, served on the upstream status endpoint
type Status struct {
	Name                string `json:"name"`
	State               string `json:"state"`
	Requests            uint32 `json:"requests"`
	TotalFailures       uint32 `json:"total_failures"`
	ConsecutiveFailures uint32 `json:"consecutive_failures"`
}

// Status returns a snapshot of the breaker
func (c *CircuitBreaker) Status() Status {
	counts := c.cb.Counts()
	return Status{
		Name:                c.name,
		State:               c.cb.State().String(),
		Requests:            counts.Requests,
		TotalFailures:       counts.TotalFailures,
		ConsecutiveFailures: counts.ConsecutiveFailures,
	}
}
