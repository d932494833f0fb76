package backend

import (
	"github.com/sony/gobreaker/v2"

	"github.com/ayushhunt/jobhelp-sub000/internal/config"
	"github.com/ayushhunt/jobhelp-sub000/internal/errors"
)

// HTTPBreaker wraps backend HTTP round trips with a circuit breaker
type HTTPBreaker struct {
	cb *gobreaker.CircuitBreaker[[]byte]
}

// NewHTTPBreaker creates a circuit breaker for backend calls. A nil
// return means the breaker is disabled and calls pass straight through.
func NewHTTPBreaker(name string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *HTTPBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &HTTPBreaker{
		cb: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// Execute runs the round trip with circuit breaker protection
func (b *HTTPBreaker) Execute(fn func() ([]byte, error)) ([]byte, error) {
	if b == nil || b.cb == nil {
		// If breaker is disabled/nil, just execute the function directly
		return fn()
	}
	return b.cb.Execute(fn)
}

// IsHealthy returns true if the circuit breaker is in closed state
func (b *HTTPBreaker) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true // If no circuit breaker, consider it healthy
	}
	return b.cb.State() == gobreaker.StateClosed
}

// Stats returns circuit breaker statistics
func (b *HTTPBreaker) Stats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}
