package engine

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/analysis"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

// OpportunityType classifies a discovered opportunity
type OpportunityType string

const (
	OpportunityProject      OpportunityType = "project"
	OpportunityIntroduction OpportunityType = "introduction"
	OpportunityAdvisory     OpportunityType = "advisory"
	OpportunityCoCreation   OpportunityType = "co_creation"
)

// ParseOpportunityType validates a type filter. The empty string means no filter.
func ParseOpportunityType(s string) (OpportunityType, error) {
	switch t := OpportunityType(s); t {
	case "", OpportunityProject, OpportunityIntroduction, OpportunityAdvisory, OpportunityCoCreation:
		return t, nil
	}
	return "", errors.NewValidationError("unknown opportunity type", s)
}

var opportunityTypes = map[analysis.CollaborationType]OpportunityType{
	analysis.CollaborationLongTermPartnership: OpportunityCoCreation,
	analysis.CollaborationShortTermProject:    OpportunityProject,
	analysis.CollaborationIntroduction:        OpportunityIntroduction,
	analysis.CollaborationMentorship:          OpportunityAdvisory,
}

// opportunityNamespace seeds the deterministic opportunity ids
var opportunityNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("collab-o-meter/opportunity"))

// Opportunity is a ranked, discovery-oriented view of a prediction
type Opportunity struct {
	ID                 string                     `json:"id"`
	Type               OpportunityType            `json:"type"`
	Participants       [2]types.EntityID          `json:"participants"`
	SuccessProbability int                        `json:"success_probability"`
	PotentialValue     float64                    `json:"potential_value"`
	Timeframe          string                     `json:"timeframe"`
	Requirements       []string                   `json:"requirements"`
	Benefits           []string                   `json:"benefits"`
	CollaborationType  analysis.CollaborationType `json:"collaboration_type"`
}

// OpportunityQuery selects opportunities for a seed entity. Nil MinProbability
// and zero Limit take the configured defaults.
type OpportunityQuery struct {
	EntityID       types.EntityID
	Type           OpportunityType
	MinProbability *int
	Limit          int
}

// OpportunitySearch is the ranked result plus batch accounting
type OpportunitySearch struct {
	Opportunities []Opportunity `json:"opportunities"`
	Evaluated     int           `json:"evaluated"`
	Skipped       int           `json:"skipped"`
}

// FindOpportunities scores a bounded candidate list against the seed, keeps
// predictions at or above the threshold and ranks them by potential value.
func (e *Engine) FindOpportunities(ctx context.Context, q OpportunityQuery) (*OpportunitySearch, error) {
	if q.EntityID == "" {
		return nil, errors.NewValidationError("entity id must not be empty")
	}
	if _, err := ParseOpportunityType(string(q.Type)); err != nil {
		return nil, err
	}
	minProbability := e.config.DefaultMinProbability
	if q.MinProbability != nil {
		minProbability = *q.MinProbability
	}
	if minProbability < 0 || minProbability > 100 {
		return nil, errors.NewValidationError("min probability must be within [0,100]", minProbability)
	}
	limit := q.Limit
	if limit == 0 {
		limit = e.config.DefaultLimit
	}
	if limit < 0 {
		return nil, errors.NewValidationError("limit must not be negative", limit)
	}

	start := time.Now()

	listed, err := e.directory.List(ctx, q.EntityID)
	if err != nil {
		return nil, err
	}
	candidates := boundCandidates(q.EntityID, listed, e.config.CandidateCap)

	results, err := fanOut(ctx, e.config.Concurrency, e.config.PairTimeout, len(candidates),
		func(ctx context.Context, i int) (analysis.Prediction, error) {
			return e.predictor.Predict(ctx, q.EntityID, candidates[i])
		}, nil)
	if err != nil {
		return nil, err
	}

	search := &OpportunitySearch{Opportunities: []Opportunity{}}
	var firstErr error
	for i, r := range results {
		if r.err != nil {
			search.Skipped++
			if firstErr == nil {
				firstErr = r.err
			}
			e.logger.Warn("Skipping opportunity candidate", "entity_id", q.EntityID, "candidate", candidates[i], "error", r.err)
			continue
		}
		search.Evaluated++

		pred := r.value
		if pred.SuccessProbability < minProbability {
			continue
		}
		kind, ok := opportunityTypes[pred.CollaborationType]
		if !ok {
			continue
		}
		if q.Type != "" && kind != q.Type {
			continue
		}
		search.Opportunities = append(search.Opportunities, toOpportunity(q.EntityID, candidates[i], kind, pred))
	}

	e.recordBatch(search.Skipped)
	e.logger.BatchLogger("find_opportunities", len(candidates), search.Evaluated, search.Skipped, time.Since(start))

	if len(candidates) > 0 && search.Evaluated == 0 {
		return nil, noPairs(firstErr)
	}

	sort.SliceStable(search.Opportunities, func(i, j int) bool {
		a, b := search.Opportunities[i], search.Opportunities[j]
		if a.PotentialValue != b.PotentialValue {
			return a.PotentialValue > b.PotentialValue
		}
		if a.SuccessProbability != b.SuccessProbability {
			return a.SuccessProbability > b.SuccessProbability
		}
		return a.Participants[1] < b.Participants[1]
	})
	if len(search.Opportunities) > limit {
		search.Opportunities = search.Opportunities[:limit]
	}

	return search, nil
}

// boundCandidates drops the seed and duplicates and keeps at most limit ids
func boundCandidates(seed types.EntityID, ids []types.EntityID, limit int) []types.EntityID {
	seen := make(map[types.EntityID]struct{}, len(ids))
	out := make([]types.EntityID, 0, min(len(ids), limit))
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		if id == "" || id == seed {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// PotentialValue weighs probability, skill fit and goal alignment, scaled by confidence
func PotentialValue(pred analysis.Prediction) float64 {
	v := 0.6*float64(pred.SuccessProbability) +
		25*pred.Factors.SkillComplementarity +
		15*pred.Factors.GoalAlignment
	return math.Round(10*v*pred.Confidence) / 10
}

func toOpportunity(seed, candidate types.EntityID, kind OpportunityType, pred analysis.Prediction) Opportunity {
	requirements := make([]string, 0, len(pred.Risks)+1)
	for _, r := range pred.Risks {
		requirements = append(requirements, r.Mitigation)
	}
	if len(requirements) == 0 {
		requirements = append(requirements, "Agree on scope and milestones")
	}

	benefits := make([]string, 0, len(pred.Strengths))
	for _, s := range pred.Strengths {
		benefits = append(benefits, s.Description)
	}

	return Opportunity{
		ID:                 uuid.NewSHA1(opportunityNamespace, []byte(string(seed)+"|"+string(candidate))).String(),
		Type:               kind,
		Participants:       [2]types.EntityID{seed, candidate},
		SuccessProbability: pred.SuccessProbability,
		PotentialValue:     PotentialValue(pred),
		Timeframe:          pred.SuggestedDuration,
		Requirements:       requirements,
		Benefits:           benefits,
		CollaborationType:  pred.CollaborationType,
	}
}
