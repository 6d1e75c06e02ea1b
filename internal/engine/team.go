package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

const (
	optimalTeamMin     = 3
	optimalTeamMax     = 5
	largeTeamSize      = 7
	lowCompatibility   = 50
	highCompatibility  = 80
	leadExpertiseTags  = 5
	roleTechnicalLead  = "Technical Lead"
	roleProjectManager = "Project Manager"
	roleTeamMember     = "Team Member"
)

// TeamCompatibility is the pairwise view of a team. Pairwise[i][j] is the
// success probability of the ordered pair (i, j). UnresolvedProfiles counts
// members whose profile could not be loaded; their pairs still run.
type TeamCompatibility struct {
	Members              []types.EntityID                          `json:"members"`
	Pairwise             map[types.EntityID]map[types.EntityID]int `json:"pairwise"`
	OverallCompatibility float64                                   `json:"overall_compatibility"`
	Strengths            []string                                  `json:"strengths"`
	Risks                []string                                  `json:"risks"`
	Roles                map[types.EntityID]string                 `json:"roles"`
	OptimalTeamSize      int                                       `json:"optimal_team_size"`
	EvaluatedPairs       int                                       `json:"evaluated_pairs"`
	SkippedPairs         int                                       `json:"skipped_pairs"`
	UnresolvedProfiles   int                                       `json:"unresolved_profiles"`
}

type orderedPair struct {
	a, b types.EntityID
}

// AnalyzeTeam predicts every ordered pair of members and aggregates the scores.
// Failed pairs are skipped and counted; cancellation fails the whole call.
func (e *Engine) AnalyzeTeam(ctx context.Context, members []types.EntityID) (*TeamCompatibility, error) {
	team, _, err := e.analyzeTeam(ctx, members)
	return team, err
}

func (e *Engine) analyzeTeam(ctx context.Context, members []types.EntityID) (*TeamCompatibility, []types.EntityProfile, error) {
	if err := validateTeam(members); err != nil {
		return nil, nil, err
	}

	start := time.Now()

	profiles, unresolved, err := e.fetchProfiles(ctx, members)
	if err != nil {
		return nil, nil, err
	}

	pairs := make([]orderedPair, 0, len(members)*(len(members)-1))
	for _, a := range members {
		for _, b := range members {
			if a != b {
				pairs = append(pairs, orderedPair{a: a, b: b})
			}
		}
	}

	results, err := fanOut(ctx, e.config.Concurrency, e.config.PairTimeout, len(pairs),
		func(ctx context.Context, i int) (int, error) {
			pred, err := e.predictor.Predict(ctx, pairs[i].a, pairs[i].b)
			if err != nil {
				return 0, err
			}
			return pred.SuccessProbability, nil
		}, isInputError)
	if err != nil {
		return nil, nil, err
	}

	team := &TeamCompatibility{
		Members:            append([]types.EntityID(nil), members...),
		Pairwise:           make(map[types.EntityID]map[types.EntityID]int, len(members)),
		Roles:              make(map[types.EntityID]string, len(members)),
		UnresolvedProfiles: unresolved,
	}
	for _, m := range members {
		team.Pairwise[m] = make(map[types.EntityID]int, len(members)-1)
	}

	var (
		sum      int
		lowPairs int
		firstErr error
	)
	for i, r := range results {
		if r.err != nil {
			team.SkippedPairs++
			if firstErr == nil {
				firstErr = r.err
			}
			e.logger.Warn("Skipping team pair", "entity_a", pairs[i].a, "entity_b", pairs[i].b, "error", r.err)
			continue
		}
		team.Pairwise[pairs[i].a][pairs[i].b] = r.value
		team.EvaluatedPairs++
		sum += r.value
		if r.value < lowCompatibility {
			lowPairs++
		}
	}

	e.recordBatch(team.SkippedPairs)
	e.logger.BatchLogger("analyze_team", len(pairs), team.EvaluatedPairs, team.SkippedPairs, time.Since(start))

	if team.EvaluatedPairs == 0 {
		return nil, nil, noPairs(firstErr)
	}

	team.OverallCompatibility = math.Round(100*float64(sum)/float64(team.EvaluatedPairs)) / 100
	team.Strengths, team.Risks = teamHeuristics(team, profiles, lowPairs)
	team.Roles = recommendRoles(members, profiles)
	team.OptimalTeamSize = optimalTeamSize(len(members), team.OverallCompatibility)

	return team, profiles, nil
}

func validateTeam(members []types.EntityID) error {
	if len(members) < 2 {
		return fmt.Errorf("%w: %w", ErrTeamTooSmall,
			errors.NewValidationError("team analysis needs at least two members", len(members)))
	}

	seen := make(map[types.EntityID]struct{}, len(members))
	for _, m := range members {
		if m == "" {
			return errors.NewValidationError("team member ids must not be empty")
		}
		if _, dup := seen[m]; dup {
			return errors.NewValidationError("duplicate team member", string(m))
		}
		seen[m] = struct{}{}
	}
	return nil
}

// fetchProfiles resolves every member for the team-level heuristics. Unknown
// or invalid members are fatal. A member whose lookup timed out or failed
// upstream gets an empty profile and is counted; its pairs decide on their own.
func (e *Engine) fetchProfiles(ctx context.Context, ids []types.EntityID) ([]types.EntityProfile, int, error) {
	results, err := fanOut(ctx, e.config.Concurrency, e.config.PairTimeout, len(ids),
		func(ctx context.Context, i int) (types.EntityProfile, error) {
			return e.profiles.Get(ctx, ids[i])
		}, isInputError)
	if err != nil {
		return nil, 0, err
	}

	profiles := make([]types.EntityProfile, len(ids))
	unresolved := 0
	for i, r := range results {
		if r.err != nil {
			unresolved++
			e.logger.Warn("Team member profile unavailable", "entity_id", ids[i], "error", r.err)
			profiles[i] = types.EntityProfile{ID: ids[i]}
			continue
		}
		profiles[i] = r.value
	}
	return profiles, unresolved, nil
}

// expertiseCount counts distinct expertise areas after normalization
func expertiseCount(p types.EntityProfile) int {
	return teamSkills([]types.EntityProfile{p}).Len()
}

func teamSkills(profiles []types.EntityProfile) types.TagSet {
	skills := types.NewTagSet()
	for _, p := range profiles {
		for t := range p.Expertise {
			skills[types.Tag(normalizeSkill(string(t)))] = struct{}{}
		}
	}
	delete(skills, "")
	return skills
}

func teamHeuristics(team *TeamCompatibility, profiles []types.EntityProfile, lowPairs int) ([]string, []string) {
	size := len(team.Members)
	strengths := []string{}
	risks := []string{}

	if n := teamSkills(profiles).Len(); n > size {
		strengths = append(strengths, fmt.Sprintf("Diverse skill set: %d unique expertise areas", n))
	}
	if size >= optimalTeamMin && size <= optimalTeamMax {
		strengths = append(strengths, fmt.Sprintf("Optimal team size: %d members", size))
	}
	if team.OverallCompatibility >= highCompatibility {
		strengths = append(strengths, fmt.Sprintf("High overall compatibility (%.0f)", team.OverallCompatibility))
	}

	if size > largeTeamSize {
		risks = append(risks, fmt.Sprintf("Large team: %d members increase coordination overhead", size))
	}
	if lowPairs > size {
		risks = append(risks, fmt.Sprintf("Multiple low-compatibility pairs: %d pairs below %d", lowPairs, lowCompatibility))
	}
	if team.SkippedPairs > 0 {
		risks = append(risks, fmt.Sprintf("%d pairs could not be evaluated", team.SkippedPairs))
	}
	if team.UnresolvedProfiles > 0 {
		risks = append(risks, fmt.Sprintf("%d member profiles could not be loaded", team.UnresolvedProfiles))
	}

	return strengths, risks
}

// recommendRoles is a deliberately simple placeholder, not a skills-matching optimizer
func recommendRoles(members []types.EntityID, profiles []types.EntityProfile) map[types.EntityID]string {
	roles := make(map[types.EntityID]string, len(members))
	for i, m := range members {
		switch {
		case expertiseCount(profiles[i]) >= leadExpertiseTags:
			roles[m] = roleTechnicalLead
		case i == 0:
			roles[m] = roleProjectManager
		default:
			roles[m] = roleTeamMember
		}
	}
	return roles
}

func optimalTeamSize(size int, compatibility float64) int {
	switch {
	case size >= optimalTeamMin && size <= optimalTeamMax:
		return size
	case compatibility >= highCompatibility:
		return min(size+1, optimalTeamMax)
	default:
		return max(size, optimalTeamMin)
	}
}
