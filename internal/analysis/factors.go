package analysis

import (
	"math"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

// FactorCalculator scores one factor for an ordered pair. Results outside [0,1] are clipped.
type FactorCalculator func(a, b *types.EntityProfile, trust types.TrustAssessment) float64

// FactorOverrides replaces the stock calculator for the named factors
type FactorOverrides map[Factor]FactorCalculator

// Calculators holds the stock factor formulas parameterized by Heuristics
type Calculators struct {
	h Heuristics
}

func NewCalculators(h Heuristics) Calculators {
	return Calculators{h: h}
}

// SkillComplementarity measures how well each side's offers cover the other side's needs,
// plus a capped bonus for shared expertise.
func (c Calculators) SkillComplementarity(a, b *types.EntityProfile, _ types.TrustAssessment) float64 {
	matches := a.Needs.IntersectCount(b.Offers) + b.Needs.IntersectCount(a.Offers)
	totalNeeds := math.Max(1, float64(a.Needs.Len()+b.Needs.Len()))
	base := float64(matches) / totalNeeds

	return math.Min(1, base+c.sharedExpertiseBonus(a, b))
}

func (c Calculators) CommunicationCompatibility(a, b *types.EntityProfile, _ types.TrustAssessment) float64 {
	score := c.h.CommunicationBase
	if sameNonEmpty(a.Industry, b.Industry) {
		score += c.h.CommunicationIndustryBonus
	}
	return math.Min(1, score+c.sharedExpertiseBonus(a, b))
}

// TrustLevel prefers direct trust and falls back to the transitive estimate
func (c Calculators) TrustLevel(_, _ *types.EntityProfile, trust types.TrustAssessment) float64 {
	if trust.DirectTrust != nil {
		return *trust.DirectTrust
	}
	return trust.IndirectTrust
}

// GoalAlignment rewards shared needs. No shared need is neutral, not a penalty.
func (c Calculators) GoalAlignment(a, b *types.EntityProfile, _ types.TrustAssessment) float64 {
	common := a.Needs.IntersectCount(b.Needs)
	if common == 0 {
		return c.h.GoalNeutral
	}
	return math.Min(1, c.h.GoalStep*float64(common))
}

func (c Calculators) CulturalFit(a, b *types.EntityProfile, _ types.TrustAssessment) float64 {
	score := c.h.CulturalBase
	if sameNonEmpty(a.Location.Country, b.Location.Country) {
		score += c.h.CulturalCountryBonus
	}
	if sameNonEmpty(a.Industry, b.Industry) {
		score += c.h.CulturalIndustryBonus
	}
	return math.Min(1, score)
}

func (c Calculators) AvailabilityMatch(_, _ *types.EntityProfile, _ types.TrustAssessment) float64 {
	return c.h.Availability
}

func (c Calculators) HistoricalSuccess(_, _ *types.EntityProfile, _ types.TrustAssessment) float64 {
	return c.h.Historical
}

func (c Calculators) sharedExpertiseBonus(a, b *types.EntityProfile) float64 {
	shared := a.Expertise.IntersectCount(b.Expertise)
	return math.Min(c.h.SharedExpertiseCap, c.h.SharedExpertiseStep*float64(shared))
}

// table returns the stock calculators keyed by factor, with overrides applied
func (c Calculators) table(overrides FactorOverrides) map[Factor]FactorCalculator {
	t := map[Factor]FactorCalculator{
		FactorSkillComplementarity:       c.SkillComplementarity,
		FactorCommunicationCompatibility: c.CommunicationCompatibility,
		FactorTrustLevel:                 c.TrustLevel,
		FactorGoalAlignment:              c.GoalAlignment,
		FactorCulturalFit:                c.CulturalFit,
		FactorAvailabilityMatch:          c.AvailabilityMatch,
		FactorHistoricalSuccess:          c.HistoricalSuccess,
	}
	for name, fn := range overrides {
		if fn != nil {
			t[name] = fn
		}
	}
	return t
}

// sameNonEmpty treats a missing value as "no signal"
func sameNonEmpty(x, y string) bool {
	return x != "" && x == y
}

func clip(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Max(lo, math.Min(hi, x))
}
