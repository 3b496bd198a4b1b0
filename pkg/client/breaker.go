package client

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned without contacting the service while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// BreakerConfig enables fail-fast behaviour after repeated transport failures.
// The breaker never re-issues a request; it only refuses new ones while open.
type BreakerConfig struct {
	MaxFailures   uint32        // Consecutive failures before opening (default: 5)
	OpenTimeout   time.Duration // Time spent open before probing again (default: 30s)
	OnStateChange func(from, to string)
}

func newBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker[[]byte] {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "recommendation-service",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// Rejections by the service (4xx) say nothing about its availability.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.IsServerError()
			}
			return false
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(from.String(), to.String())
			}
		},
	})
}
