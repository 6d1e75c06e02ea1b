package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/collab-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

func quietLogger() *monitoring.Logger {
	return monitoring.NewLoggerWithOptions(io.Discard, slog.LevelError)
}

type fakeProfiles struct {
	profiles map[types.EntityID]types.EntityProfile
	calls    atomic.Int64
}

func newFakeProfiles(profiles ...types.EntityProfile) *fakeProfiles {
	f := &fakeProfiles{profiles: make(map[types.EntityID]types.EntityProfile, len(profiles))}
	for _, p := range profiles {
		f.profiles[p.ID] = p
	}
	return f
}

func (f *fakeProfiles) Get(ctx context.Context, id types.EntityID) (types.EntityProfile, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return types.EntityProfile{}, err
	}
	p, ok := f.profiles[id]
	if !ok {
		return types.EntityProfile{}, apperrors.NewNotFoundError("entity", string(id))
	}
	return p, nil
}

// stallingProfiles blocks the first lookup of each listed id until its
// context ends, then serves from next
type stallingProfiles struct {
	next    *fakeProfiles
	stall   map[types.EntityID]bool
	mu      sync.Mutex
	stalled map[types.EntityID]bool
}

func (s *stallingProfiles) Get(ctx context.Context, id types.EntityID) (types.EntityProfile, error) {
	s.mu.Lock()
	block := s.stall[id] && !s.stalled[id]
	if block {
		s.stalled[id] = true
	}
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return types.EntityProfile{}, ctx.Err()
	}
	return s.next.Get(ctx, id)
}

// countingPredictor tracks how many predictions are in flight at once
type countingPredictor struct {
	delay    time.Duration
	inFlight atomic.Int64
	peak     atomic.Int64
	calls    atomic.Int64
}

func (c *countingPredictor) Predict(ctx context.Context, a, b types.EntityID) (analysis.Prediction, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	c.calls.Add(1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}

	select {
	case <-time.After(c.delay):
	case <-ctx.Done():
		return analysis.Prediction{}, ctx.Err()
	}

	pred := scored(75, analysis.CollaborationShortTermProject)
	pred.EntityA, pred.EntityB = a, b
	return pred, nil
}

type fakeTrust struct {
	scores map[string]float64
	calls  atomic.Int64
}

func (f *fakeTrust) Assess(ctx context.Context, a, b types.EntityID) (types.TrustAssessment, error) {
	f.calls.Add(1)
	if v, ok := f.scores[string(a)+">"+string(b)]; ok {
		return types.TrustAssessment{DirectTrust: &v}, nil
	}
	return types.TrustAssessment{IndirectTrust: 0.5}, nil
}

type fakeDirectory struct {
	ids      []types.EntityID
	bySkill  map[string][]types.EntityID
	listErr  error
	skillErr error
}

func (f *fakeDirectory) List(ctx context.Context, id types.EntityID) ([]types.EntityID, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.ids, nil
}

func (f *fakeDirectory) FindBySkill(ctx context.Context, skill string) ([]types.EntityID, error) {
	if f.skillErr != nil {
		return nil, f.skillErr
	}
	return f.bySkill[skill], nil
}

// stubPredictor returns a fixed prediction per unordered pair. Pairs listed in
// slow block until their context ends; pairs in fail return that error.
type stubPredictor struct {
	scores map[[2]types.EntityID]analysis.Prediction
	slow   map[[2]types.EntityID]bool
	fail   map[[2]types.EntityID]error
	mu     sync.Mutex
	seen   [][2]types.EntityID
}

func pairOf(a, b types.EntityID) [2]types.EntityID {
	lo, hi := canonical(a, b)
	return [2]types.EntityID{lo, hi}
}

func (s *stubPredictor) Predict(ctx context.Context, a, b types.EntityID) (analysis.Prediction, error) {
	key := pairOf(a, b)

	s.mu.Lock()
	s.seen = append(s.seen, [2]types.EntityID{a, b})
	s.mu.Unlock()

	if s.slow[key] {
		<-ctx.Done()
		return analysis.Prediction{}, ctx.Err()
	}
	if err := s.fail[key]; err != nil {
		return analysis.Prediction{}, err
	}
	pred, ok := s.scores[key]
	if !ok {
		return analysis.Prediction{}, apperrors.NewNotFoundError("pair", string(a)+"|"+string(b))
	}
	pred.EntityA, pred.EntityB = a, b
	return pred, nil
}

func scored(p int, kind analysis.CollaborationType) analysis.Prediction {
	return analysis.Prediction{
		SuccessProbability: p,
		Confidence:         0.8,
		CollaborationType:  kind,
		Factors: analysis.FactorSet{
			SkillComplementarity: 0.5,
			GoalAlignment:        0.5,
		},
	}
}

func member(id string, expertise ...string) types.EntityProfile {
	return types.EntityProfile{
		ID:        types.EntityID(id),
		Name:      id,
		Expertise: types.NewTagSet(expertise...),
		Needs:     types.NewTagSet(),
		Offers:    types.NewTagSet(),
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PairTimeout = 200 * time.Millisecond
	return cfg
}

// failingStore errors on every call
type failingStore struct {
	gets, sets atomic.Int64
}

var errStoreDown = errors.New("store down")

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.gets.Add(1)
	return nil, false, errStoreDown
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.sets.Add(1)
	return errStoreDown
}
