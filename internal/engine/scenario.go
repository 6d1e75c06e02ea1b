package engine

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

const (
	highComplexityFactor = 0.8
	lowComplexityFactor  = 1.1
	longDurationFactor   = 0.9
	scenarioCompatFloor  = 70
	smallTeamForComplex  = 3
)

// SkillCandidates pairs a missing skill with entities that could fill it
type SkillCandidates struct {
	Skill      string           `json:"skill"`
	Candidates []types.EntityID `json:"candidates"`
}

// ScenarioResult is the feasibility estimate of a team for a hypothetical project
type ScenarioResult struct {
	Scenario           types.Scenario     `json:"scenario"`
	SuccessProbability float64            `json:"success_probability"`
	Feasibility        float64            `json:"feasibility"`
	SkillCoverage      float64            `json:"skill_coverage"`
	TeamSkills         []string           `json:"team_skills"`
	MissingSkills      []string           `json:"missing_skills"`
	Recommendations    []string           `json:"recommendations"`
	SuggestedMembers   []SkillCandidates  `json:"suggested_members"`
	Team               *TeamCompatibility `json:"team"`
}

// PredictScenario estimates how likely the team is to succeed at the scenario
// and which skills it would need to add.
func (e *Engine) PredictScenario(ctx context.Context, members []types.EntityID, scenario types.Scenario) (*ScenarioResult, error) {
	scenario, err := normalizeScenario(scenario)
	if err != nil {
		return nil, err
	}

	team, profiles, err := e.analyzeTeam(ctx, members)
	if err != nil {
		return nil, err
	}

	skills := teamSkills(profiles)
	missing := make([]string, 0)
	for _, s := range scenario.RequiredSkills {
		if !skills.Has(types.Tag(s)) {
			missing = append(missing, s)
		}
	}

	coverage := 1 - float64(len(missing))/math.Max(1, float64(len(scenario.RequiredSkills)))
	compat := team.OverallCompatibility / 100

	p := compat
	switch scenario.Complexity {
	case types.ComplexityHigh:
		p *= highComplexityFactor
	case types.ComplexityLow:
		p *= lowComplexityFactor
	}
	if scenario.Duration == types.DurationLong {
		p *= longDurationFactor
	}
	p *= 0.5 + 0.5*coverage

	result := &ScenarioResult{
		Scenario:           scenario,
		SuccessProbability: round4(math.Min(1, math.Max(0, p))),
		Feasibility:        round4(coverage * compat),
		SkillCoverage:      round4(coverage),
		TeamSkills:         skills.Strings(),
		MissingSkills:      missing,
		Recommendations:    scenarioRecommendations(scenario, missing, team),
		SuggestedMembers:   e.suggestMembers(ctx, missing, members),
		Team:               team,
	}

	return result, nil
}

func normalizeScenario(s types.Scenario) (types.Scenario, error) {
	switch s.Complexity {
	case "":
		s.Complexity = types.ComplexityMedium
	case types.ComplexityLow, types.ComplexityMedium, types.ComplexityHigh:
	default:
		return s, errors.NewValidationError("unknown scenario complexity", string(s.Complexity))
	}

	switch s.Duration {
	case "":
		s.Duration = types.DurationMedium
	case types.DurationShort, types.DurationMedium, types.DurationLong:
	default:
		return s, errors.NewValidationError("unknown scenario duration", string(s.Duration))
	}

	seen := make(map[string]struct{}, len(s.RequiredSkills))
	required := make([]string, 0, len(s.RequiredSkills))
	for _, raw := range s.RequiredSkills {
		skill := normalizeSkill(raw)
		if skill == "" {
			continue
		}
		if _, dup := seen[skill]; dup {
			continue
		}
		seen[skill] = struct{}{}
		required = append(required, skill)
	}
	s.RequiredSkills = required

	return s, nil
}

func normalizeSkill(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func scenarioRecommendations(s types.Scenario, missing []string, team *TeamCompatibility) []string {
	recs := []string{}

	if len(missing) > 0 {
		recs = append(recs, fmt.Sprintf("Add team members with expertise in: %s", strings.Join(missing, ", ")))
	}
	if team.OverallCompatibility < scenarioCompatFloor {
		recs = append(recs, fmt.Sprintf("Invest in team building before kickoff: compatibility is %.0f", team.OverallCompatibility))
	}
	if s.Complexity == types.ComplexityHigh && len(team.Members) < smallTeamForComplex {
		recs = append(recs, "Expand the team: high-complexity projects need at least 3 members")
	}

	return recs
}

// suggestMembers looks up candidates for the first few missing skills.
// Directory failures only leave a skill without suggestions.
func (e *Engine) suggestMembers(ctx context.Context, missing []string, members []types.EntityID) []SkillCandidates {
	out := []SkillCandidates{}
	if e.directory == nil {
		return out
	}

	inTeam := make(map[types.EntityID]struct{}, len(members))
	for _, m := range members {
		inTeam[m] = struct{}{}
	}

	for _, skill := range missing[:min(len(missing), e.config.SkillSuggestions)] {
		ids, err := e.directory.FindBySkill(ctx, skill)
		if err != nil {
			e.logger.Warn("Skill lookup failed", "skill", skill, "error", err)
			ids = nil
		}

		candidates := make([]types.EntityID, 0, e.config.CandidatesPerSkill)
		for _, id := range ids {
			if len(candidates) == e.config.CandidatesPerSkill {
				break
			}
			if _, ok := inTeam[id]; ok {
				continue
			}
			candidates = append(candidates, id)
		}
		out = append(out, SkillCandidates{Skill: skill, Candidates: candidates})
	}

	return out
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
