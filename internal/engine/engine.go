package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/collab-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

var (
	// ErrTeamTooSmall is returned when a team has fewer than two members
	ErrTeamTooSmall = errors.New("team needs at least two members")
	// ErrNoPairs is returned when every pair of a batch failed
	ErrNoPairs = errors.New("no pair could be evaluated")
)

// Dependencies are the injected collaborators. Cache is optional.
type Dependencies struct {
	Profiles  ProfileRepository
	Directory CandidateDirectory
	Trust     TrustService
	Cache     CacheStore
}

// Option customizes an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger *monitoring.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics records engine counters
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(e *Engine) { e.metrics = metrics }
}

// WithPredictor replaces the single-pair predictor used by batch operations
func WithPredictor(p Predictor) Option {
	return func(e *Engine) { e.predictor = p }
}

// Engine exposes the four prediction operations
type Engine struct {
	config    Config
	profiles  ProfileRepository
	directory CandidateDirectory
	predictor Predictor
	logger    *monitoring.Logger
	metrics   *monitoring.Metrics
}

// New wires the pipeline, wrapping it in a CachedPredictor when a cache is given
func New(config Config, analyzer *analysis.Analyzer, deps Dependencies, opts ...Option) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		config:    config,
		profiles:  deps.Profiles,
		directory: deps.Directory,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = &monitoring.Logger{Logger: slog.Default()}
	}
	e.logger = &monitoring.Logger{Logger: e.logger.With("component", "engine")}

	if e.predictor == nil {
		if analyzer == nil || deps.Profiles == nil || deps.Trust == nil {
			return nil, apperrors.NewConfigurationError("engine needs an analyzer, a profile repository and a trust service", nil)
		}
		var p Predictor = NewPipeline(deps.Profiles, deps.Trust, analyzer, e.logger, e.metrics)
		if deps.Cache != nil {
			p = NewCachedPredictor(p, deps.Cache, config.CacheTTL, e.logger, e.metrics)
		}
		e.predictor = p
	}

	return e, nil
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.config
}

// Predict returns the prediction for one pair. With a cache the record is
// computed in canonical order, so EntityA may be b rather than a.
func (e *Engine) Predict(ctx context.Context, a, b types.EntityID) (analysis.Prediction, error) {
	return e.predictor.Predict(ctx, a, b)
}

func (e *Engine) recordBatch(skipped int) {
	if e.metrics == nil {
		return
	}
	e.metrics.IncrementBatch()
	e.metrics.AddSkippedPairs(skipped)
}

// noPairs builds the error of a batch in which every pair failed
func noPairs(first error) error {
	if first == nil {
		return ErrNoPairs
	}
	return fmt.Errorf("%w: %w", ErrNoPairs, first)
}

// isInputError reports errors that no retry or other pair can fix
func isInputError(err error) bool {
	return apperrors.IsCategory(err, apperrors.CategoryValidation) ||
		apperrors.IsCategory(err, apperrors.CategoryNotFound)
}
