package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ZanzyTHEbar/collab-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

func TestAggregateBounds(t *testing.T) {
	w := DefaultScoringConfig().Weights

	tests := []struct {
		name     string
		value    float64
		expected int
	}{
		{name: "all zero", value: 0, expected: 0},
		{name: "all half", value: 0.5, expected: 50},
		{name: "all one", value: 1, expected: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FactorSet
			for _, name := range Factors {
				f.Set(name, tt.value)
			}
			p, score := Aggregate(f, w)
			assert.Equal(t, tt.expected, score)
			assert.InDelta(t, tt.value, p, 1e-9)
		})
	}
}

func TestAggregateStaysInRange(t *testing.T) {
	w := DefaultScoringConfig().Weights
	steps := []float64{0, 0.13, 0.4, 0.77, 1}

	for _, s := range steps {
		for _, name := range Factors {
			var f FactorSet
			for _, other := range Factors {
				f.Set(other, 1-s)
			}
			f.Set(name, s)
			_, score := Aggregate(f, w)
			assert.GreaterOrEqual(t, score, 0)
			assert.LessOrEqual(t, score, 100)
		}
	}
}

func TestAggregateMonotonicInSkill(t *testing.T) {
	w := DefaultScoringConfig().Weights
	base := FactorSet{
		CommunicationCompatibility: 0.6,
		TrustLevel:                 0.45,
		GoalAlignment:              0.5,
		CulturalFit:                0.8,
		AvailabilityMatch:          0.7,
		HistoricalSuccess:          0.6,
	}

	prev := -1
	for i := 0; i <= 100; i++ {
		f := base
		f.SkillComplementarity = float64(i) / 100
		_, score := Aggregate(f, w)
		assert.GreaterOrEqual(t, score, prev, "skill=%v", f.SkillComplementarity)
		prev = score
	}
}

func TestScoringConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *ScoringConfig)
		wantErr  bool
		category apperrors.ErrorCategory
	}{
		{name: "defaults are valid", mutate: func(c *ScoringConfig) {}},
		{
			name:     "weights summing above one",
			mutate:   func(c *ScoringConfig) { c.Weights.TrustLevel = 0.3 },
			wantErr:  true,
			category: apperrors.CategoryConfiguration,
		},
		{
			name:     "weights summing below one",
			mutate:   func(c *ScoringConfig) { c.Weights.HistoricalSuccess = 0 },
			wantErr:  true,
			category: apperrors.CategoryConfiguration,
		},
		{
			name: "alternative profile that sums to one",
			mutate: func(c *ScoringConfig) {
				c.Weights.SkillComplementarity = 0.30
				c.Weights.GoalAlignment = 0.15
			},
		},
		{
			name: "negative weight",
			mutate: func(c *ScoringConfig) {
				c.Weights.SkillComplementarity = 0.35
				c.Weights.HistoricalSuccess = -0.05
			},
			wantErr:  true,
			category: apperrors.CategoryConfiguration,
		},
		{
			name:     "threshold outside unit interval",
			mutate:   func(c *ScoringConfig) { c.Thresholds.Strength = 1.5 },
			wantErr:  true,
			category: apperrors.CategoryConfiguration,
		},
		{
			name:     "heuristic outside unit interval",
			mutate:   func(c *ScoringConfig) { c.Heuristics.Availability = -0.1 },
			wantErr:  true,
			category: apperrors.CategoryConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultScoringConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsCategory(err, tt.category))

			_, err = NewAnalyzer(cfg)
			assert.Error(t, err, "construction must fail on an invalid config")
		})
	}
}

func TestAnalyzeFundingMentorshipPair(t *testing.T) {
	an, err := NewAnalyzer(DefaultScoringConfig())
	require.NoError(t, err)

	a, b, trust := fundingPair()
	pred := an.Analyze(a, b, trust)

	assert.Equal(t, types.EntityID("founder"), pred.EntityA)
	assert.Equal(t, types.EntityID("investor"), pred.EntityB)
	assert.GreaterOrEqual(t, pred.Factors.SkillComplementarity, 0.9)
	assert.Equal(t, 0.9, pred.Factors.TrustLevel)
	assert.InDelta(t, 1.0, pred.Factors.CulturalFit, 1e-9)
	assert.InDelta(t, 0.7, pred.Factors.CommunicationCompatibility, 1e-9)
	assert.InDelta(t, 0.5, pred.Factors.GoalAlignment, 1e-9)
	assert.Equal(t, 80, pred.SuccessProbability)

	// No shared needs leaves goal alignment neutral, so the partnership gate
	// is not met and the strong skill fit wins.
	assert.Equal(t, CollaborationShortTermProject, pred.CollaborationType)
	assert.Equal(t, "2-3 months", pred.SuggestedDuration)
	assert.Empty(t, pred.Risks)

	require.NotEmpty(t, pred.Strengths)
	assert.Equal(t, FactorSkillComplementarity, pred.Strengths[0].Factor)
	for i := 1; i < len(pred.Strengths); i++ {
		assert.GreaterOrEqual(t, pred.Strengths[i-1].Score, pred.Strengths[i].Score)
	}
	assert.Len(t, pred.KeySuccessFactors, 5)
}

func TestAnalyzeLongTermPartnership(t *testing.T) {
	an, err := NewAnalyzer(DefaultScoringConfig())
	require.NoError(t, err)

	a, b, trust := fundingPair()
	shared := []string{"hiring", "market access", "compliance"}
	for _, n := range shared {
		a.Needs[types.Tag(n)] = struct{}{}
		b.Needs[types.Tag(n)] = struct{}{}
	}

	pred := an.Analyze(a, b, trust)
	assert.InDelta(t, 0.75, pred.Factors.GoalAlignment, 1e-9)
	assert.Equal(t, CollaborationLongTermPartnership, pred.CollaborationType)
	assert.Equal(t, "6-12 months", pred.SuggestedDuration)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	a, b, trust := fundingPair()

	first, err := NewAnalyzer(DefaultScoringConfig())
	require.NoError(t, err)
	second, err := NewAnalyzer(DefaultScoringConfig())
	require.NoError(t, err)

	x, err := json.Marshal(first.Analyze(a, b, trust))
	require.NoError(t, err)
	y, err := json.Marshal(second.Analyze(a, b, trust))
	require.NoError(t, err)
	assert.Equal(t, string(x), string(y))
}

func TestAnalyzeDoesNotMutateInputs(t *testing.T) {
	an, err := NewAnalyzer(DefaultScoringConfig())
	require.NoError(t, err)

	a := profile("a", func(p *types.EntityProfile) { p.Needs = types.NewTagSet("  Funding ") })
	b := profile("b", func(p *types.EntityProfile) { p.Offers = types.NewTagSet("funding") })

	pred := an.Analyze(a, b, types.TrustAssessment{IndirectTrust: 0.5})
	assert.True(t, a.Needs.Has("Funding"))
	assert.InDelta(t, 1.0, pred.Factors.SkillComplementarity, 1e-9, "tags are matched after normalization")
}

func TestAnalyzeLowTrustPair(t *testing.T) {
	an, err := NewAnalyzer(DefaultScoringConfig())
	require.NoError(t, err)

	a := profile("a", func(p *types.EntityProfile) {
		p.Industry = "retail"
		p.Location.Country = "fr"
	})
	b := profile("b", func(p *types.EntityProfile) {
		p.Industry = "energy"
		p.Location.Country = "br"
	})

	pred := an.Analyze(a, b, types.TrustAssessment{IndirectTrust: 0.1})

	require.Len(t, pred.Risks, 3)
	assert.Equal(t, SeverityHigh, pred.Risks[0].Severity)
	assert.Equal(t, FactorTrustLevel, pred.Risks[0].Factor)
	assert.Equal(t, SeverityMedium, pred.Risks[1].Severity)
	assert.Equal(t, SeverityLow, pred.Risks[2].Severity)

	assert.Equal(t, CollaborationNotRecommended, pred.CollaborationType)
	assert.Equal(t, "not applicable", pred.SuggestedDuration)
	for i := 1; i < len(pred.Recommendations); i++ {
		assert.GreaterOrEqual(t, pred.Recommendations[i-1].Priority.rank(), pred.Recommendations[i].Priority.rank())
	}
}
