package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/analysis"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

// Pipeline is the uncached single-pair predictor: it resolves both profiles
// and the trust assessment, then hands them to the analyzer.
type Pipeline struct {
	profiles ProfileRepository
	trust    TrustService
	analyzer *analysis.Analyzer
	logger   *monitoring.Logger
	metrics  *monitoring.Metrics
}

func NewPipeline(profiles ProfileRepository, trust TrustService, analyzer *analysis.Analyzer, logger *monitoring.Logger, metrics *monitoring.Metrics) *Pipeline {
	return &Pipeline{
		profiles: profiles,
		trust:    trust,
		analyzer: analyzer,
		logger:   logger,
		metrics:  metrics,
	}
}

// Predict runs the full pipeline for the ordered pair (a, b)
func (p *Pipeline) Predict(ctx context.Context, a, b types.EntityID) (analysis.Prediction, error) {
	if err := validatePair(a, b); err != nil {
		return analysis.Prediction{}, err
	}

	start := time.Now()

	var (
		profileA, profileB types.EntityProfile
		trust              types.TrustAssessment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profileA, err = p.profiles.Get(gctx, a)
		return err
	})
	g.Go(func() error {
		var err error
		profileB, err = p.profiles.Get(gctx, b)
		return err
	})
	g.Go(func() error {
		var err error
		trust, err = p.trust.Assess(gctx, a, b)
		return err
	})
	if err := g.Wait(); err != nil {
		return analysis.Prediction{}, err
	}

	pred := p.analyzer.Analyze(profileA, profileB, trust)

	if p.metrics != nil {
		p.metrics.IncrementPrediction()
	}
	p.logger.PredictionLogger(string(a), string(b), pred.SuccessProbability, pred.Confidence, time.Since(start), false)

	return pred, nil
}

func validatePair(a, b types.EntityID) error {
	if a == "" || b == "" {
		return errors.NewValidationError("entity ids must not be empty")
	}
	if a == b {
		return errors.NewValidationError("cannot predict an entity against itself", string(a))
	}
	return nil
}
