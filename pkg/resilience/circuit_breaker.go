// Package resilience wraps sony/gobreaker with logging and settings
// derived from configuration.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/rsierra/ex-maps/pkg/config"
	"github.com/rsierra/ex-maps/pkg/logger"
)

// ErrCircuitOpen is returned when the breaker rejects a call
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Operation is a function guarded by the breaker
type Operation func(ctx context.Context) (interface{}, error)

// CircuitBreaker guards calls to an unreliable dependency
type CircuitBreaker struct {
	name    string
	breaker *gobreaker.CircuitBreaker
}

// Settings configures a circuit breaker
type Settings struct {
	Name             string
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
	Interval         time.Duration
}

// SettingsFromConfig derives breaker settings for a named dependency
func SettingsFromConfig(name string, cfg config.BreakerConfig) Settings {
	return Settings{
		Name:             name,
		FailureThreshold: cfg.FailureThreshold,
		SuccessThreshold: cfg.SuccessThreshold,
		Timeout:          time.Duration(cfg.Timeout) * time.Second,
		Interval:         time.Duration(cfg.Interval) * time.Second,
	}
}

// New creates a circuit breaker with the given settings
func New(settings Settings) *CircuitBreaker {
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.SuccessThreshold <= 0 {
		settings.SuccessThreshold = 2
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}

	st := gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: uint32(settings.SuccessThreshold),
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(settings.FailureThreshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &CircuitBreaker{
		name:    settings.Name,
		breaker: gobreaker.NewCircuitBreaker(st),
	}
}

// Execute runs op through the breaker. When the breaker is open the call
// is rejected immediately with ErrCircuitOpen.
func (cb *CircuitBreaker) Execute(ctx context.Context, op Operation) (interface{}, error) {
	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return op(ctx)
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCircuitOpen
	}

	return result, err
}

// State returns the current breaker state as a string
func (cb *CircuitBreaker) State() string {
	return cb.breaker.State().String()
}
