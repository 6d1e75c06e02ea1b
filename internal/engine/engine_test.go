package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/analysis"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/cache"
	apperrors "github.com/ZanzyTHEbar/collab-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

func newTestAnalyzer(t *testing.T) *analysis.Analyzer {
	t.Helper()
	a, err := analysis.NewAnalyzer(analysis.DefaultScoringConfig())
	require.NoError(t, err)
	return a
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.PairTimeout = 0 }, wantErr: true},
		{name: "min probability above 100", mutate: func(c *Config) { c.DefaultMinProbability = 101 }, wantErr: true},
		{name: "zero candidate cap", mutate: func(c *Config) { c.CandidateCap = 0 }, wantErr: true},
		{name: "no skill suggestions", mutate: func(c *Config) { c.SkillSuggestions = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConfiguration))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(DefaultConfig(), nil, Dependencies{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConfiguration))
}

func TestPredictRejectsSelfPair(t *testing.T) {
	e, err := New(testConfig(), newTestAnalyzer(t), Dependencies{
		Profiles: newFakeProfiles(member("a")),
		Trust:    &fakeTrust{},
	}, WithLogger(quietLogger()))
	require.NoError(t, err)

	_, err = e.Predict(context.Background(), "a", "a")
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))
}

func TestPredictUnknownEntity(t *testing.T) {
	e, err := New(testConfig(), newTestAnalyzer(t), Dependencies{
		Profiles: newFakeProfiles(member("a")),
		Trust:    &fakeTrust{},
	}, WithLogger(quietLogger()))
	require.NoError(t, err)

	_, err = e.Predict(context.Background(), "a", "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCachedPredictionIsOrderIndependent(t *testing.T) {
	profiles := newFakeProfiles(member("alice", "go", "sql"), member("bob", "design"))
	trust := &fakeTrust{scores: map[string]float64{"alice>bob": 0.9, "bob>alice": 0.3}}
	store := cache.NewMemoryStore(time.Minute, 0)
	defer store.Close()
	metrics := monitoring.NewMetrics()

	e, err := New(testConfig(), newTestAnalyzer(t), Dependencies{
		Profiles: profiles,
		Trust:    trust,
		Cache:    store,
	}, WithLogger(quietLogger()), WithMetrics(metrics))
	require.NoError(t, err)

	ctx := context.Background()
	first, err := e.Predict(ctx, "bob", "alice")
	require.NoError(t, err)
	second, err := e.Predict(ctx, "alice", "bob")
	require.NoError(t, err)
	third, err := e.Predict(ctx, "bob", "alice")
	require.NoError(t, err)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	c, _ := json.Marshal(third)
	assert.JSONEq(t, string(a), string(b))
	assert.JSONEq(t, string(a), string(c))

	// computed once, in sorted order
	assert.Equal(t, int64(1), trust.calls.Load())
	assert.Equal(t, types.EntityID("alice"), first.EntityA)
	assert.Equal(t, int64(2), metrics.CacheHits)
	assert.Equal(t, int64(1), metrics.CacheMisses)
}

func TestCacheFailuresAreNotFatal(t *testing.T) {
	store := &failingStore{}
	metrics := monitoring.NewMetrics()

	e, err := New(testConfig(), newTestAnalyzer(t), Dependencies{
		Profiles: newFakeProfiles(member("alice"), member("bob")),
		Trust:    &fakeTrust{},
		Cache:    store,
	}, WithLogger(quietLogger()), WithMetrics(metrics))
	require.NoError(t, err)

	pred, err := e.Predict(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pred.SuccessProbability, 0)
	assert.Equal(t, int64(1), store.gets.Load())
	assert.Equal(t, int64(1), store.sets.Load())
	assert.Equal(t, int64(2), metrics.CacheErrors)
}

func TestPairKeyIsSymmetric(t *testing.T) {
	assert.Equal(t, PairKey("a", "b"), PairKey("b", "a"))
	assert.Equal(t, "prediction:a|b", PairKey("b", "a"))
}

func TestFanOutParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := fanOut(ctx, 2, time.Second, 5,
		func(ctx context.Context, i int) (int, error) { return i, nil }, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
}

func TestFanOutRecordsTaskErrors(t *testing.T) {
	boom := errors.New("boom")
	results, err := fanOut(context.Background(), 2, time.Second, 4,
		func(ctx context.Context, i int) (int, error) {
			if i%2 == 1 {
				return 0, boom
			}
			return i * 10, nil
		}, nil)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, 20, results[2].value)
	assert.ErrorIs(t, results[1].err, boom)
	assert.NoError(t, results[0].err)
}

func TestFanOutFatalErrorStopsBatch(t *testing.T) {
	boom := errors.New("boom")
	_, err := fanOut(context.Background(), 1, time.Second, 3,
		func(ctx context.Context, i int) (int, error) { return 0, boom },
		func(err error) bool { return errors.Is(err, boom) })
	require.ErrorIs(t, err, boom)
}

func TestFanOutRespectsConcurrencyLimit(t *testing.T) {
	ids := []types.EntityID{"m1", "m2", "m3", "m4", "m5", "m6"}
	profiles := make([]types.EntityProfile, len(ids))
	for i, id := range ids {
		profiles[i] = member(string(id))
	}

	newEngine := func(t *testing.T, pred Predictor) *Engine {
		cfg := testConfig()
		cfg.Concurrency = 3
		cfg.PairTimeout = time.Second
		e, err := New(cfg, nil, Dependencies{
			Profiles:  newFakeProfiles(profiles...),
			Directory: &fakeDirectory{ids: ids},
		}, WithPredictor(pred), WithLogger(quietLogger()))
		require.NoError(t, err)
		return e
	}

	t.Run("team", func(t *testing.T) {
		pred := &countingPredictor{delay: 10 * time.Millisecond}
		team, err := newEngine(t, pred).AnalyzeTeam(context.Background(), ids)
		require.NoError(t, err)

		assert.Equal(t, 30, team.EvaluatedPairs)
		assert.Equal(t, int64(30), pred.calls.Load())
		assert.LessOrEqual(t, pred.peak.Load(), int64(3))
		assert.Greater(t, pred.peak.Load(), int64(1))
	})

	t.Run("opportunities", func(t *testing.T) {
		pred := &countingPredictor{delay: 10 * time.Millisecond}
		threshold := 0
		search, err := newEngine(t, pred).FindOpportunities(context.Background(), OpportunityQuery{
			EntityID:       "m1",
			MinProbability: &threshold,
		})
		require.NoError(t, err)

		assert.Equal(t, 5, search.Evaluated)
		assert.LessOrEqual(t, pred.peak.Load(), int64(3))
		assert.Greater(t, pred.peak.Load(), int64(1))
	})
}
