package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ZanzyTHEbar/collab-o-meter/internal/errors"
)

func fastConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2,
	}
}

func TestRetryWithConfig(t *testing.T) {
	tests := []struct {
		name          string
		failures      int
		err           error
		expectedCalls int32
		wantErr       bool
	}{
		{name: "succeeds first time", failures: 0, expectedCalls: 1},
		{name: "recovers from upstream failures", failures: 2, err: apperrors.NewUpstreamError("profiles", nil), expectedCalls: 3},
		{name: "gives up after max attempts", failures: 5, err: apperrors.NewUpstreamError("profiles", nil), expectedCalls: 3, wantErr: true},
		{name: "does not retry validation errors", failures: 5, err: apperrors.NewValidationError("bad id"), expectedCalls: 1, wantErr: true},
		{name: "does not retry open circuits", failures: 5, err: gobreaker.ErrOpenState, expectedCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			err := RetryWithConfig(context.Background(), fastConfig(), func() error {
				n := atomic.AddInt32(&calls, 1)
				if int(n) <= tt.failures {
					return tt.err
				}
				return nil
			})

			assert.Equal(t, tt.expectedCalls, atomic.LoadInt32(&calls))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Retry(ctx, func() error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestCalculateDelayIsCapped(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: 2 * time.Second, BackoffFactor: 10}
	assert.Equal(t, time.Second, calculateDelay(cfg, 0))
	assert.Equal(t, 2*time.Second, calculateDelay(cfg, 3))

	cfg.JitterEnabled = true
	d := calculateDelay(cfg, 3)
	assert.GreaterOrEqual(t, d, 2*time.Second)
	assert.Less(t, d, 2*time.Second+200*time.Millisecond)
}

func TestPolicyByName(t *testing.T) {
	assert.Equal(t, "fast", PolicyByName("fast").Name)
	assert.Equal(t, 1, PolicyByName("none").Config.MaxAttempts)
	assert.Equal(t, "standard", PolicyByName("unknown").Name)
}

func TestBreakerRegistryTripsAndReports(t *testing.T) {
	var transitions []gobreaker.State
	reg := NewBreakerRegistry(BreakerConfig{MaxFailures: 2, Timeout: time.Minute, HalfOpenMaxRequests: 1},
		func(_ string, _, to gobreaker.State) { transitions = append(transitions, to) })

	boom := errors.New("boom")
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := reg.Execute(ctx, "trust", func() (interface{}, error) { return nil, boom })
		assert.ErrorIs(t, err, boom)
	}

	_, err := reg.Execute(ctx, "trust", func() (interface{}, error) { return "ok", nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)
	assert.Equal(t, "open", reg.States()["trust"])

	v, err := reg.Execute(ctx, "profiles", func() (interface{}, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Same(t, reg.Get("profiles"), reg.Get("profiles"))
}

func TestBreakerIgnoresNotFound(t *testing.T) {
	reg := NewBreakerRegistry(BreakerConfig{MaxFailures: 1, Timeout: time.Minute, HalfOpenMaxRequests: 1}, nil)

	for i := 0; i < 3; i++ {
		_, err := reg.Execute(context.Background(), "profiles", func() (interface{}, error) {
			return nil, apperrors.NewNotFoundError("profile", "ghost")
		})
		assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
	}
	assert.Equal(t, "closed", reg.States()["profiles"])
}
