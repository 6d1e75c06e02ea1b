package engine

import (
	"context"
	"time"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/analysis"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

// ProfileRepository resolves entity profiles. Unknown ids should yield a
// not-found AppError.
type ProfileRepository interface {
	Get(ctx context.Context, id types.EntityID) (types.EntityProfile, error)
}

// CandidateDirectory lists entities eligible for prediction
type CandidateDirectory interface {
	List(ctx context.Context, id types.EntityID) ([]types.EntityID, error)
	FindBySkill(ctx context.Context, skill string) ([]types.EntityID, error)
}

// TrustService assesses trust for an ordered pair
type TrustService interface {
	Assess(ctx context.Context, a, b types.EntityID) (types.TrustAssessment, error)
}

// CacheStore is a key/value store with TTL expiry. It must be safe for concurrent use.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Predictor produces the prediction for one pair
type Predictor interface {
	Predict(ctx context.Context, a, b types.EntityID) (analysis.Prediction, error)
}
