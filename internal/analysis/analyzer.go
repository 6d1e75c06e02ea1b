package analysis

import (
	"math"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

// Analyzer runs the single-pair pipeline: normalize, score factors,
// aggregate, classify. It performs no I/O and is safe for concurrent use.
type Analyzer struct {
	config       ScoringConfig
	preprocessor *Preprocessor
	calculators  map[Factor]FactorCalculator
}

// Option customizes an Analyzer
type Option func(*analyzerOptions)

type analyzerOptions struct {
	overrides FactorOverrides
}

// WithOverrides injects replacement factor calculators, e.g. real availability data
func WithOverrides(overrides FactorOverrides) Option {
	return func(o *analyzerOptions) {
		o.overrides = overrides
	}
}

// NewAnalyzer validates the config and builds the pipeline
func NewAnalyzer(config ScoringConfig, opts ...Option) (*Analyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var o analyzerOptions
	for _, opt := range opts {
		opt(&o)
	}

	return &Analyzer{
		config:       config,
		preprocessor: NewPreprocessor(),
		calculators:  NewCalculators(config.Heuristics).table(o.overrides),
	}, nil
}

// NewAnalyzerFromProfile loads a named scoring profile from dataDir
func NewAnalyzerFromProfile(dataDir, profile string, opts ...Option) (*Analyzer, error) {
	cfg, err := NewProfileStore(dataDir).LoadProfile(profile)
	if err != nil {
		return nil, err
	}
	return NewAnalyzer(*cfg, opts...)
}

// Config returns the scoring config in use
func (an *Analyzer) Config() ScoringConfig {
	return an.config
}

// Normalize exposes the profile preprocessor
func (an *Analyzer) Normalize(p types.EntityProfile) types.EntityProfile {
	return an.preprocessor.Normalize(p)
}

// ComputeFactors scores every factor for the ordered pair (a, b)
func (an *Analyzer) ComputeFactors(a, b *types.EntityProfile, trust types.TrustAssessment) FactorSet {
	var f FactorSet
	for _, name := range Factors {
		f.Set(name, clip(an.calculators[name](a, b, trust), 0, 1))
	}
	return f
}

// Analyze produces the full Prediction for the ordered pair (a, b)
func (an *Analyzer) Analyze(a, b types.EntityProfile, trust types.TrustAssessment) Prediction {
	na := an.preprocessor.Normalize(a)
	nb := an.preprocessor.Normalize(b)

	factors := an.ComputeFactors(&na, &nb, trust)
	p, score := Aggregate(factors, an.config.Weights)

	strengths := Strengths(factors, an.config.Thresholds)
	risks := Risks(factors, an.config.Thresholds, &na, &nb)
	kind := ClassifyCollaboration(p, factors, an.config.Thresholds)

	return Prediction{
		EntityA:            a.ID,
		EntityB:            b.ID,
		NameA:              na.Name,
		NameB:              nb.Name,
		SuccessProbability: score,
		Confidence:         round(Confidence(an.config.Heuristics.ConfidencePrior, &na, &nb), 4),
		Factors:            factors,
		Strengths:          strengths,
		Risks:              risks,
		Recommendations:    Recommendations(factors, an.config.Thresholds, risks),
		CollaborationType:  kind,
		SuggestedDuration:  SuggestedDuration(kind, factors, an.config.Thresholds),
		KeySuccessFactors:  KeySuccessFactors(strengths),
	}
}

func round(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}
