package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/analysis"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

const predictionKeyPrefix = "prediction:"

// CachedPredictor decorates a Predictor with get/compute/store semantics.
// Both orders of a pair share one entry: on a miss the pair is computed in
// sorted order, on a hit the stored prediction is returned unmodified.
// Store failures are logged and never fail the call.
type CachedPredictor struct {
	next    Predictor
	store   CacheStore
	ttl     time.Duration
	logger  *monitoring.Logger
	metrics *monitoring.Metrics
}

func NewCachedPredictor(next Predictor, store CacheStore, ttl time.Duration, logger *monitoring.Logger, metrics *monitoring.Metrics) *CachedPredictor {
	return &CachedPredictor{
		next:    next,
		store:   store,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

// PairKey is the cache key shared by (a, b) and (b, a)
func PairKey(a, b types.EntityID) string {
	lo, hi := canonical(a, b)
	return fmt.Sprintf("%s%s|%s", predictionKeyPrefix, lo, hi)
}

func canonical(a, b types.EntityID) (types.EntityID, types.EntityID) {
	if b < a {
		return b, a
	}
	return a, b
}

func (c *CachedPredictor) Predict(ctx context.Context, a, b types.EntityID) (analysis.Prediction, error) {
	if err := validatePair(a, b); err != nil {
		return analysis.Prediction{}, err
	}

	key := PairKey(a, b)
	if pred, ok := c.lookup(ctx, key); ok {
		return pred, nil
	}

	lo, hi := canonical(a, b)
	pred, err := c.next.Predict(ctx, lo, hi)
	if err != nil {
		return analysis.Prediction{}, err
	}

	c.save(ctx, key, pred)
	return pred, nil
}

func (c *CachedPredictor) lookup(ctx context.Context, key string) (analysis.Prediction, bool) {
	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.cacheFailure("get", key, err)
		return analysis.Prediction{}, false
	}
	if !found {
		c.logger.CacheLogger("get", key, false)
		if c.metrics != nil {
			c.metrics.IncrementCacheMiss()
		}
		return analysis.Prediction{}, false
	}

	var pred analysis.Prediction
	if err := json.Unmarshal(data, &pred); err != nil {
		c.cacheFailure("decode", key, err)
		return analysis.Prediction{}, false
	}

	c.logger.CacheLogger("get", key, true)
	if c.metrics != nil {
		c.metrics.IncrementCacheHit()
	}
	return pred, true
}

func (c *CachedPredictor) save(ctx context.Context, key string, pred analysis.Prediction) {
	data, err := json.Marshal(pred)
	if err != nil {
		c.cacheFailure("encode", key, err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.cacheFailure("set", key, err)
		return
	}
	c.logger.CacheLogger("set", key, false)
}

func (c *CachedPredictor) cacheFailure(op, key string, err error) {
	c.logger.Warn("Prediction cache failure, recomputing", "operation", op, "key", key, "error", err)
	if c.metrics != nil {
		c.metrics.IncrementCacheError()
	}
}
