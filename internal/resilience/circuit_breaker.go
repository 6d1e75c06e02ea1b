package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/errors"
)

// BreakerConfig holds the settings shared by every breaker of a registry
type BreakerConfig struct {
	// consecutive failures that trip a breaker
	MaxFailures uint32
	// time spent open before probing again
	Timeout time.Duration
	// requests allowed through while half-open
	HalfOpenMaxRequests uint32
}

// DefaultBreakerConfig trips after 5 consecutive failures and probes after 30s
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:         5,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 2,
	}
}

// StateChangeFunc is notified on every breaker transition
type StateChangeFunc func(name string, from, to gobreaker.State)

// BreakerRegistry lazily creates one gobreaker per upstream service
type BreakerRegistry struct {
	config   BreakerConfig
	onChange StateChangeFunc

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewBreakerRegistry(config BreakerConfig, onChange StateChangeFunc) *BreakerRegistry {
	return &BreakerRegistry{
		config:   config,
		onChange: onChange,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Get returns the breaker for name, creating it on first use
func (r *BreakerRegistry) Get(name string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[name]; ok {
		return cb
	}

	maxFailures := r.config.MaxFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: r.config.HalfOpenMaxRequests,
		Timeout:     r.config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// missing entities and bad input say nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.IsCategory(err, errors.CategoryNotFound) ||
				errors.IsCategory(err, errors.CategoryValidation)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if r.onChange != nil {
				r.onChange(name, from, to)
			}
		},
	})
	r.breakers[name] = cb
	return cb
}

// Execute runs fn through the named breaker. An already-done ctx short-circuits.
func (r *BreakerRegistry) Execute(ctx context.Context, name string, fn func() (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.Get(name).Execute(fn)
}

// States reports the current state of every known breaker
func (r *BreakerRegistry) States() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	states := make(map[string]string, len(r.breakers))
	for name, cb := range r.breakers {
		states[name] = cb.State().String()
	}
	return states
}
