package analysis

import "github.com/ZanzyTHEbar/collab-o-meter/internal/types"

// Factor names one of the seven normalized inputs to the aggregate score
type Factor string

const (
	FactorSkillComplementarity       Factor = "skill_complementarity"
	FactorCommunicationCompatibility Factor = "communication_compatibility"
	FactorTrustLevel                 Factor = "trust_level"
	FactorGoalAlignment              Factor = "goal_alignment"
	FactorCulturalFit                Factor = "cultural_fit"
	FactorAvailabilityMatch          Factor = "availability_match"
	FactorHistoricalSuccess          Factor = "historical_success"
)

// Factors lists every factor in canonical order. Ties in sorted output follow this order.
var Factors = []Factor{
	FactorSkillComplementarity,
	FactorCommunicationCompatibility,
	FactorTrustLevel,
	FactorGoalAlignment,
	FactorCulturalFit,
	FactorAvailabilityMatch,
	FactorHistoricalSuccess,
}

// FactorSet holds the seven factor scores, each in [0,1]
type FactorSet struct {
	SkillComplementarity       float64 `json:"skill_complementarity"`
	CommunicationCompatibility float64 `json:"communication_compatibility"`
	TrustLevel                 float64 `json:"trust_level"`
	GoalAlignment              float64 `json:"goal_alignment"`
	CulturalFit                float64 `json:"cultural_fit"`
	AvailabilityMatch          float64 `json:"availability_match"`
	HistoricalSuccess          float64 `json:"historical_success"`
}

// Get returns the score of a named factor
func (f FactorSet) Get(name Factor) float64 {
	switch name {
	case FactorSkillComplementarity:
		return f.SkillComplementarity
	case FactorCommunicationCompatibility:
		return f.CommunicationCompatibility
	case FactorTrustLevel:
		return f.TrustLevel
	case FactorGoalAlignment:
		return f.GoalAlignment
	case FactorCulturalFit:
		return f.CulturalFit
	case FactorAvailabilityMatch:
		return f.AvailabilityMatch
	case FactorHistoricalSuccess:
		return f.HistoricalSuccess
	}
	return 0
}

// Set assigns the score of a named factor
func (f *FactorSet) Set(name Factor, v float64) {
	switch name {
	case FactorSkillComplementarity:
		f.SkillComplementarity = v
	case FactorCommunicationCompatibility:
		f.CommunicationCompatibility = v
	case FactorTrustLevel:
		f.TrustLevel = v
	case FactorGoalAlignment:
		f.GoalAlignment = v
	case FactorCulturalFit:
		f.CulturalFit = v
	case FactorAvailabilityMatch:
		f.AvailabilityMatch = v
	case FactorHistoricalSuccess:
		f.HistoricalSuccess = v
	}
}

// Valid reports whether every factor lies in [0,1]
func (f FactorSet) Valid() bool {
	for _, name := range Factors {
		if v := f.Get(name); v < 0 || v > 1 {
			return false
		}
	}
	return true
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) rank() int {
	return Severity(p).rank()
}

type RecommendationCategory string

const (
	CategoryTrustBuilding    RecommendationCategory = "trust_building"
	CategoryCommunication    RecommendationCategory = "communication"
	CategoryPlanning         RecommendationCategory = "planning"
	CategorySkillDevelopment RecommendationCategory = "skill_development"
)

type CollaborationType string

const (
	CollaborationShortTermProject    CollaborationType = "short_term_project"
	CollaborationLongTermPartnership CollaborationType = "long_term_partnership"
	CollaborationIntroduction        CollaborationType = "one_time_introduction"
	CollaborationMentorship          CollaborationType = "mentorship"
	CollaborationNotRecommended      CollaborationType = "not_recommended"
)

type Strength struct {
	Factor      Factor  `json:"factor"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

type Risk struct {
	Factor      Factor   `json:"factor"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Mitigation  string   `json:"mitigation"`
}

type Recommendation struct {
	Category       RecommendationCategory `json:"category"`
	Priority       Priority               `json:"priority"`
	Action         string                 `json:"action"`
	ExpectedImpact float64                `json:"expected_impact"`
}

// Prediction is the pipeline output for one ordered pair of entities.
// It carries no timestamps so equal inputs produce equal records.
type Prediction struct {
	EntityA            types.EntityID    `json:"entity_a"`
	EntityB            types.EntityID    `json:"entity_b"`
	NameA              string            `json:"name_a"`
	NameB              string            `json:"name_b"`
	SuccessProbability int               `json:"overall_success_probability"`
	Confidence         float64           `json:"confidence"`
	Factors            FactorSet         `json:"factors"`
	Strengths          []Strength        `json:"strengths"`
	Risks              []Risk            `json:"risks"`
	Recommendations    []Recommendation  `json:"recommendations"`
	CollaborationType  CollaborationType `json:"collaboration_type"`
	SuggestedDuration  string            `json:"suggested_duration"`
	KeySuccessFactors  []string          `json:"key_success_factors"`
}
