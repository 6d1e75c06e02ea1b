package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

func TestSkillComplementarity(t *testing.T) {
	calc := NewCalculators(DefaultScoringConfig().Heuristics)

	tests := []struct {
		name     string
		a, b     types.EntityProfile
		expected float64
	}{
		{
			name:     "empty profiles score zero",
			a:        profile("a", nil),
			b:        profile("b", nil),
			expected: 0,
		},
		{
			name: "bidirectional match is complete",
			a: profile("a", func(p *types.EntityProfile) {
				p.Needs = types.NewTagSet("funding")
				p.Offers = types.NewTagSet("mentorship")
			}),
			b: profile("b", func(p *types.EntityProfile) {
				p.Needs = types.NewTagSet("mentorship")
				p.Offers = types.NewTagSet("funding")
			}),
			expected: 1,
		},
		{
			name: "one sided match halves the base",
			a: profile("a", func(p *types.EntityProfile) {
				p.Needs = types.NewTagSet("design")
			}),
			b: profile("b", func(p *types.EntityProfile) {
				p.Needs = types.NewTagSet("sales")
				p.Offers = types.NewTagSet("design")
			}),
			expected: 0.5,
		},
		{
			name: "shared expertise bonus is capped",
			a: profile("a", func(p *types.EntityProfile) {
				p.Expertise = types.NewTagSet("go", "sql", "k8s", "aws", "gcp")
			}),
			b: profile("b", func(p *types.EntityProfile) {
				p.Expertise = types.NewTagSet("go", "sql", "k8s", "aws", "gcp")
			}),
			expected: 0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.SkillComplementarity(&tt.a, &tt.b, types.TrustAssessment{})
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestCommunicationAndCulturalFit(t *testing.T) {
	calc := NewCalculators(DefaultScoringConfig().Heuristics)

	same := func(p *types.EntityProfile) {
		p.Industry = "health"
		p.Location.Country = "us"
		p.Expertise = types.NewTagSet("ml")
	}
	a, b := profile("a", same), profile("b", same)
	assert.InDelta(t, 0.8, calc.CommunicationCompatibility(&a, &b, types.TrustAssessment{}), 1e-9)
	assert.InDelta(t, 1.0, calc.CulturalFit(&a, &b, types.TrustAssessment{}), 1e-9)

	empty1, empty2 := profile("x", nil), profile("y", nil)
	assert.InDelta(t, 0.5, calc.CommunicationCompatibility(&empty1, &empty2, types.TrustAssessment{}), 1e-9)
	assert.InDelta(t, 0.5, calc.CulturalFit(&empty1, &empty2, types.TrustAssessment{}), 1e-9, "missing fields carry no signal")
}

func TestTrustLevel(t *testing.T) {
	calc := NewCalculators(DefaultScoringConfig().Heuristics)
	a, b := profile("a", nil), profile("b", nil)

	assert.Equal(t, 0.9, calc.TrustLevel(&a, &b, types.TrustAssessment{DirectTrust: ptr(0.9), IndirectTrust: 0.1}))
	assert.Equal(t, 0.35, calc.TrustLevel(&a, &b, types.TrustAssessment{IndirectTrust: 0.35}))
	assert.Equal(t, 0.0, calc.TrustLevel(&a, &b, types.TrustAssessment{DirectTrust: ptr(0), IndirectTrust: 0.8}),
		"a direct zero is still a direct relation")
}

func TestGoalAlignment(t *testing.T) {
	calc := NewCalculators(DefaultScoringConfig().Heuristics)

	tests := []struct {
		name     string
		needsA   []string
		needsB   []string
		expected float64
	}{
		{name: "no common needs is neutral", needsA: []string{"a"}, needsB: []string{"b"}, expected: 0.5},
		{name: "one common need", needsA: []string{"a", "x"}, needsB: []string{"a"}, expected: 0.25},
		{name: "three common needs", needsA: []string{"a", "b", "c"}, needsB: []string{"a", "b", "c"}, expected: 0.75},
		{name: "saturates at one", needsA: []string{"a", "b", "c", "d", "e"}, needsB: []string{"a", "b", "c", "d", "e"}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := profile("a", func(p *types.EntityProfile) { p.Needs = types.NewTagSet(tt.needsA...) })
			b := profile("b", func(p *types.EntityProfile) { p.Needs = types.NewTagSet(tt.needsB...) })
			assert.InDelta(t, tt.expected, calc.GoalAlignment(&a, &b, types.TrustAssessment{}), 1e-9)
		})
	}
}

func TestOverridesAreClipped(t *testing.T) {
	an, err := NewAnalyzer(DefaultScoringConfig(), WithOverrides(FactorOverrides{
		FactorAvailabilityMatch: func(_, _ *types.EntityProfile, _ types.TrustAssessment) float64 { return 3 },
		FactorHistoricalSuccess: func(_, _ *types.EntityProfile, _ types.TrustAssessment) float64 { return -1 },
	}))
	assert.NoError(t, err)

	a, b := profile("a", nil), profile("b", nil)
	f := an.ComputeFactors(&a, &b, types.TrustAssessment{IndirectTrust: 0.5})
	assert.Equal(t, 1.0, f.AvailabilityMatch)
	assert.Equal(t, 0.0, f.HistoricalSuccess)
	assert.True(t, f.Valid())
}
