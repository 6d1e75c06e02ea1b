package adapters

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/ratelimit"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/resilience"
)

// Service names used for breakers, throttling keys and metrics
const (
	ServiceProfiles  = "profiles"
	ServiceDirectory = "directory"
	ServiceTrust     = "trust"
)

// GuardConfig is the per-call policy applied to upstream collaborators
type GuardConfig struct {
	Timeout time.Duration
	Retry   resilience.RetryConfig
}

// DefaultGuardConfig allows 2s per attempt and the fast retry policy
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Timeout: 2 * time.Second,
		Retry:   resilience.FastRetryPolicy.Config,
	}
}

// Guard wraps upstream calls with throttling, a per-service circuit breaker,
// retry and a per-attempt timeout. Limiter and breakers are optional.
type Guard struct {
	config   GuardConfig
	limiter  *ratelimit.RateLimiter
	breakers *resilience.BreakerRegistry
	logger   *monitoring.Logger
	metrics  *monitoring.Metrics
}

func NewGuard(config GuardConfig, limiter *ratelimit.RateLimiter, breakers *resilience.BreakerRegistry, logger *monitoring.Logger, metrics *monitoring.Metrics) *Guard {
	if config.Retry.MaxAttempts < 1 {
		config.Retry.MaxAttempts = 1
	}
	return &Guard{
		config:   config,
		limiter:  limiter,
		breakers: breakers,
		logger:   logger,
		metrics:  metrics,
	}
}

// call runs fn under the guard's policy. Parent cancellation is returned as
// is; every other failure becomes an AppError.
func call[T any](ctx context.Context, g *Guard, service, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	start := time.Now()

	err := resilience.RetryWithConfig(ctx, g.config.Retry, func() error {
		v, err := attempt(ctx, g, service, fn)
		if err != nil {
			return err
		}
		result = v
		return nil
	})

	if ctx.Err() != nil && err != nil {
		err = ctx.Err()
	}

	if g.metrics != nil {
		g.metrics.RecordUpstreamRequest(service, err == nil || isInputError(err))
	}
	if g.logger != nil {
		g.logger.UpstreamLogger(service, op, time.Since(start), err)
	}

	return result, err
}

func attempt[T any](ctx context.Context, g *Guard, service string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if g.limiter != nil {
		if err := g.limiter.WaitUpstream(ctx, service); err != nil {
			return zero, classify(ctx, service, err)
		}
	}

	tctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	run := func() (interface{}, error) { return fn(tctx) }

	var (
		out interface{}
		err error
	)
	if g.breakers != nil {
		out, err = g.breakers.Execute(tctx, service, run)
	} else {
		out, err = run()
	}
	if err != nil {
		return zero, classify(ctx, service, err)
	}
	v, _ := out.(T)
	return v, nil
}

// classify maps a raw upstream failure onto the error taxonomy. Open
// breakers stay wrapped so retry can recognise them.
func classify(parent context.Context, service string, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}

	var appErr *errors.AppError
	switch {
	case stderrors.As(err, &appErr):
		return err
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewTimeoutError(service+" call timed out", err)
	default:
		return errors.NewUpstreamError(service, err)
	}
}

func isInputError(err error) bool {
	return errors.IsCategory(err, errors.CategoryNotFound) ||
		errors.IsCategory(err, errors.CategoryValidation)
}
