// internal/services/store_guard.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
	"gorm.io/gorm"

	"github.com/farmlink/discovery/internal/config"
	"github.com/farmlink/discovery/internal/metrics"
)

// StoreGuard bounds every store call with a timeout and a circuit breaker,
// and turns raw store errors into the service error taxonomy.
type StoreGuard struct {
	cb      *gobreaker.CircuitBreaker[any]
	name    string
	timeout time.Duration
}

func NewStoreGuard(name string, cfg config.DiscoveryConfig) *StoreGuard {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, gorm.ErrRecordNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Store circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &StoreGuard{cb: cb, name: name, timeout: cfg.StoreTimeout}
}

// State exposes the breaker state for health reporting.
func (g *StoreGuard) State() string {
	return g.cb.State().String()
}

// guardedCall runs fn under the guard. Not-found results map to
// ErrProductNotFound, caller cancellation is returned as is, and every
// other failure becomes a *StoreError tagged with stage.
func guardedCall[T any](ctx context.Context, g *StoreGuard, stage Stage, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	_, err := g.cb.Execute(func() (any, error) {
		v, err := fn(callCtx)
		if err != nil {
			return nil, err
		}
		out = v
		return nil, nil
	})
	if err == nil {
		metrics.CircuitBreakerRequests.WithLabelValues(g.name, "success").Inc()
		return out, nil
	}

	var zero T
	return zero, g.classify(ctx, stage, err)
}

func (g *StoreGuard) classify(ctx context.Context, stage Stage, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProductNotFound
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	result := "failure"
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		result = "rejected"
	}
	metrics.CircuitBreakerRequests.WithLabelValues(g.name, result).Inc()
	metrics.StoreErrors.WithLabelValues(string(stage)).Inc()

	logrus.WithError(err).WithFields(logrus.Fields{
		"stage":   stage,
		"breaker": g.name,
	}).Error("Store call failed")

	return &StoreError{Stage: stage, Err: err}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
