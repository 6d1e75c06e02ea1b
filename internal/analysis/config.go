package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/errors"
)

const weightTolerance = 1e-6

// Weights is the aggregation weight vector. It must sum to 1.
type Weights struct {
	SkillComplementarity       float64 `yaml:"skill_complementarity" json:"skill_complementarity"`
	CommunicationCompatibility float64 `yaml:"communication_compatibility" json:"communication_compatibility"`
	TrustLevel                 float64 `yaml:"trust_level" json:"trust_level"`
	GoalAlignment              float64 `yaml:"goal_alignment" json:"goal_alignment"`
	CulturalFit                float64 `yaml:"cultural_fit" json:"cultural_fit"`
	AvailabilityMatch          float64 `yaml:"availability_match" json:"availability_match"`
	HistoricalSuccess          float64 `yaml:"historical_success" json:"historical_success"`
}

// Of returns the weight of a named factor
func (w Weights) Of(name Factor) float64 {
	return FactorSet(w).Get(name)
}

func (w Weights) Sum() float64 {
	s := 0.0
	for _, name := range Factors {
		s += w.Of(name)
	}
	return s
}

// Thresholds are the cut-offs used by the classifiers
type Thresholds struct {
	Strength              float64 `yaml:"strength"`
	TrustRisk             float64 `yaml:"trust_risk"`
	SkillRisk             float64 `yaml:"skill_risk"`
	CommunicationRisk     float64 `yaml:"communication_risk"`
	NotRecommended        float64 `yaml:"not_recommended"`
	Introduction          float64 `yaml:"introduction"`
	PartnershipTrust      float64 `yaml:"partnership_trust"`
	PartnershipGoal       float64 `yaml:"partnership_goal"`
	ProjectSkill          float64 `yaml:"project_skill"`
	LeverageSkill         float64 `yaml:"leverage_skill"`
	ExtendedDurationTrust float64 `yaml:"extended_duration_trust"`
}

// Heuristics are the constants inside the factor formulas. Availability and
// Historical are placeholders until real scheduling/history data is wired in.
type Heuristics struct {
	SharedExpertiseStep        float64 `yaml:"shared_expertise_step"`
	SharedExpertiseCap         float64 `yaml:"shared_expertise_cap"`
	CommunicationBase          float64 `yaml:"communication_base"`
	CommunicationIndustryBonus float64 `yaml:"communication_industry_bonus"`
	GoalStep                   float64 `yaml:"goal_step"`
	GoalNeutral                float64 `yaml:"goal_neutral"`
	CulturalBase               float64 `yaml:"cultural_base"`
	CulturalCountryBonus       float64 `yaml:"cultural_country_bonus"`
	CulturalIndustryBonus      float64 `yaml:"cultural_industry_bonus"`
	Availability               float64 `yaml:"availability"`
	Historical                 float64 `yaml:"historical"`
	ConfidencePrior            float64 `yaml:"confidence_prior"`
}

// ScoringConfig bundles everything the pipeline needs to turn two profiles into a Prediction
type ScoringConfig struct {
	Weights    Weights    `yaml:"weights"`
	Thresholds Thresholds `yaml:"thresholds"`
	Heuristics Heuristics `yaml:"heuristics"`
}

// DefaultScoringConfig returns the stock weight vector and cut-offs
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights: Weights{
			SkillComplementarity:       0.25,
			CommunicationCompatibility: 0.15,
			TrustLevel:                 0.20,
			GoalAlignment:              0.20,
			CulturalFit:                0.10,
			AvailabilityMatch:          0.05,
			HistoricalSuccess:          0.05,
		},
		Thresholds: Thresholds{
			Strength:              0.7,
			TrustRisk:             0.4,
			SkillRisk:             0.3,
			CommunicationRisk:     0.4,
			NotRecommended:        0.4,
			Introduction:          0.6,
			PartnershipTrust:      0.8,
			PartnershipGoal:       0.7,
			ProjectSkill:          0.7,
			LeverageSkill:         0.7,
			ExtendedDurationTrust: 0.6,
		},
		Heuristics: Heuristics{
			SharedExpertiseStep:        0.1,
			SharedExpertiseCap:         0.3,
			CommunicationBase:          0.5,
			CommunicationIndustryBonus: 0.2,
			GoalStep:                   0.25,
			GoalNeutral:                0.5,
			CulturalBase:               0.5,
			CulturalCountryBonus:       0.3,
			CulturalIndustryBonus:      0.2,
			Availability:               0.7,
			Historical:                 0.6,
			ConfidencePrior:            0.7,
		},
	}
}

// Validate checks the weight vector and every threshold. A failure here is a
// programming or deployment error, so it is checked once at construction.
func (c ScoringConfig) Validate() error {
	for _, name := range Factors {
		if w := c.Weights.Of(name); w < 0 || w > 1 {
			return errors.NewConfigurationError(fmt.Sprintf("weight %s=%v outside [0,1]", name, w), nil)
		}
	}
	if sum := c.Weights.Sum(); math.Abs(sum-1) > weightTolerance {
		return errors.NewConfigurationError(fmt.Sprintf("weights sum to %.9f, want 1", sum), nil)
	}

	unit := map[string]float64{
		"thresholds.strength":                c.Thresholds.Strength,
		"thresholds.trust_risk":              c.Thresholds.TrustRisk,
		"thresholds.skill_risk":              c.Thresholds.SkillRisk,
		"thresholds.communication_risk":      c.Thresholds.CommunicationRisk,
		"thresholds.not_recommended":         c.Thresholds.NotRecommended,
		"thresholds.introduction":            c.Thresholds.Introduction,
		"thresholds.partnership_trust":       c.Thresholds.PartnershipTrust,
		"thresholds.partnership_goal":        c.Thresholds.PartnershipGoal,
		"thresholds.project_skill":           c.Thresholds.ProjectSkill,
		"thresholds.leverage_skill":          c.Thresholds.LeverageSkill,
		"thresholds.extended_duration_trust": c.Thresholds.ExtendedDurationTrust,
		"heuristics.goal_neutral":            c.Heuristics.GoalNeutral,
		"heuristics.availability":            c.Heuristics.Availability,
		"heuristics.historical":              c.Heuristics.Historical,
		"heuristics.confidence_prior":        c.Heuristics.ConfidencePrior,
	}
	var invalid []string
	for key, v := range unit {
		if v < 0 || v > 1 || math.IsNaN(v) {
			invalid = append(invalid, fmt.Sprintf("%s=%v outside [0,1]", key, v))
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return errors.NewConfigurationError(strings.Join(invalid, "; "), nil)
	}

	return nil
}
