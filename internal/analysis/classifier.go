package analysis

import (
	"fmt"
	"sort"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

var strengthDescriptions = map[Factor]string{
	FactorSkillComplementarity:       "Highly complementary skills: each side offers what the other needs",
	FactorCommunicationCompatibility: "Shared context makes communication easy",
	FactorTrustLevel:                 "Strong existing trust relationship",
	FactorGoalAlignment:              "Closely aligned goals",
	FactorCulturalFit:                "Good cultural fit",
	FactorAvailabilityMatch:          "Compatible availability",
	FactorHistoricalSuccess:          "Track record of successful collaborations",
}

// Strengths returns one entry per factor at or above the strength threshold,
// highest score first.
func Strengths(f FactorSet, t Thresholds) []Strength {
	out := make([]Strength, 0, len(Factors))
	for _, name := range Factors {
		if score := f.Get(name); score >= t.Strength {
			out = append(out, Strength{
				Factor:      name,
				Score:       score,
				Description: strengthDescriptions[name],
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Risks flags weak factors and cross-country pairs, most severe first.
// The country risk fires only when both countries are known.
func Risks(f FactorSet, t Thresholds, a, b *types.EntityProfile) []Risk {
	out := make([]Risk, 0, 4)

	if f.TrustLevel < t.TrustRisk {
		out = append(out, Risk{
			Factor:      FactorTrustLevel,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("Low trust level (%.2f) between the parties", f.TrustLevel),
			Mitigation:  "Start with a small, low-risk engagement to build trust",
		})
	}
	if f.SkillComplementarity < t.SkillRisk {
		out = append(out, Risk{
			Factor:      FactorSkillComplementarity,
			Severity:    SeverityMedium,
			Description: "Limited overlap between what one side needs and the other offers",
			Mitigation:  "Clarify the value exchange up front or bring in a third party",
		})
	}
	if f.CommunicationCompatibility < t.CommunicationRisk {
		out = append(out, Risk{
			Factor:      FactorCommunicationCompatibility,
			Severity:    SeverityMedium,
			Description: "Different backgrounds may cause communication friction",
			Mitigation:  "Define communication protocols and check-in cadence early",
		})
	}
	if ca, cb := a.Location.Country, b.Location.Country; ca != "" && cb != "" && ca != cb {
		out = append(out, Risk{
			Factor:      FactorCulturalFit,
			Severity:    SeverityLow,
			Description: fmt.Sprintf("Parties are based in different countries (%s, %s)", ca, cb),
			Mitigation:  "Use async collaboration tools and agree on overlapping hours",
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Severity.rank() > out[j].Severity.rank() })
	return out
}

// ClassifyCollaboration picks the collaboration mode. First matching rule wins.
// Mentorship is never produced by these rules; it is available to custom classifiers.
func ClassifyCollaboration(p float64, f FactorSet, t Thresholds) CollaborationType {
	switch {
	case p < t.NotRecommended:
		return CollaborationNotRecommended
	case f.TrustLevel >= t.PartnershipTrust && f.GoalAlignment >= t.PartnershipGoal:
		return CollaborationLongTermPartnership
	case f.SkillComplementarity >= t.ProjectSkill:
		return CollaborationShortTermProject
	case p >= t.Introduction:
		return CollaborationIntroduction
	default:
		return CollaborationShortTermProject
	}
}

// SuggestedDuration maps a collaboration type to a duration hint
func SuggestedDuration(kind CollaborationType, f FactorSet, t Thresholds) string {
	switch kind {
	case CollaborationLongTermPartnership:
		return "6-12 months"
	case CollaborationShortTermProject:
		if f.TrustLevel >= t.ExtendedDurationTrust {
			return "2-3 months"
		}
		return "1-2 months"
	case CollaborationIntroduction:
		return "1-2 weeks"
	case CollaborationMentorship:
		return "3-6 months"
	default:
		return "not applicable"
	}
}

const maxKeySuccessFactors = 5

var successFactorHints = map[Factor]string{
	FactorSkillComplementarity:       "Leverage complementary skills",
	FactorCommunicationCompatibility: "Keep communication open and frequent",
	FactorTrustLevel:                 "Build on the existing trust",
	FactorGoalAlignment:              "Keep shared goals explicit",
	FactorCulturalFit:                "Preserve the shared working culture",
	FactorAvailabilityMatch:          "Protect shared working time",
	FactorHistoricalSuccess:          "Reuse what worked in past collaborations",
}

var genericSuccessFactors = []string{
	"Agree on clear objectives and milestones",
	"Hold regular progress reviews",
	"Define roles and responsibilities",
	"Document decisions and agreements",
	"Celebrate early wins",
}

// KeySuccessFactors derives up to five short hints from the strengths,
// padded with generic practices.
func KeySuccessFactors(strengths []Strength) []string {
	out := make([]string, 0, maxKeySuccessFactors)
	for _, s := range strengths {
		if len(out) == maxKeySuccessFactors {
			return out
		}
		out = append(out, successFactorHints[s.Factor])
	}
	for _, g := range genericSuccessFactors {
		if len(out) == maxKeySuccessFactors {
			break
		}
		out = append(out, g)
	}
	return out
}
