package analysis

import "sort"

type riskResponse struct {
	category RecommendationCategory
	action   string
	impact   float64
}

var riskResponses = map[Factor]riskResponse{
	FactorTrustLevel: {
		category: CategoryTrustBuilding,
		action:   "Begin with a short pilot engagement and expand as trust grows",
		impact:   0.8,
	},
	FactorCommunicationCompatibility: {
		category: CategoryCommunication,
		action:   "Set up a shared channel and a weekly sync with a written agenda",
		impact:   0.7,
	},
	FactorSkillComplementarity: {
		category: CategorySkillDevelopment,
		action:   "Map each side's needs and offers explicitly and close gaps with a third party",
		impact:   0.6,
	},
}

// Recommendations turns medium and high risks into actions, always adds a
// milestone plan and, for strong skill fits, a leverage action. Highest priority first.
func Recommendations(f FactorSet, t Thresholds, risks []Risk) []Recommendation {
	out := make([]Recommendation, 0, len(risks)+2)

	for _, r := range risks {
		if r.Severity != SeverityMedium && r.Severity != SeverityHigh {
			continue
		}
		resp, ok := riskResponses[r.Factor]
		if !ok {
			resp = riskResponse{category: CategoryPlanning, action: r.Mitigation, impact: 0.5}
		}
		out = append(out, Recommendation{
			Category:       resp.category,
			Priority:       Priority(r.Severity),
			Action:         resp.action,
			ExpectedImpact: resp.impact,
		})
	}

	out = append(out, Recommendation{
		Category:       CategoryPlanning,
		Priority:       PriorityHigh,
		Action:         "Create a milestone plan with clear deliverables and owners",
		ExpectedImpact: 0.75,
	})

	if f.SkillComplementarity >= t.LeverageSkill {
		out = append(out, Recommendation{
			Category:       CategorySkillDevelopment,
			Priority:       PriorityMedium,
			Action:         "Leverage complementary skills by pairing on the highest-value work first",
			ExpectedImpact: 0.65,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority.rank() > out[j].Priority.rank() })
	return out
}
