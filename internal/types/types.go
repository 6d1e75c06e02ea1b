package types

import (
	"sort"
	"strings"
)

// EntityID identifies a profiled party (a professional, an organisation, ...)
type EntityID string

// Tag is a normalized expertise/need/offer label
type Tag string

// TagSet is a hash set of tags
type TagSet map[Tag]struct{}

// NewTagSet builds a set from raw labels, skipping blanks
func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			s[Tag(t)] = struct{}{}
		}
	}
	return s
}

func (s TagSet) Len() int { return len(s) }

func (s TagSet) Has(t Tag) bool {
	_, ok := s[t]
	return ok
}

// Intersect returns the tags present in both sets. It iterates the smaller set.
func (s TagSet) Intersect(other TagSet) TagSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(TagSet)
	for t := range small {
		if large.Has(t) {
			out[t] = struct{}{}
		}
	}
	return out
}

// IntersectCount is Intersect without the allocation
func (s TagSet) IntersectCount(other TagSet) int {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for t := range small {
		if large.Has(t) {
			n++
		}
	}
	return n
}

// Union returns a new set holding every tag of both sets
func (s TagSet) Union(other TagSet) TagSet {
	out := make(TagSet, len(s)+len(other))
	for t := range s {
		out[t] = struct{}{}
	}
	for t := range other {
		out[t] = struct{}{}
	}
	return out
}

// Difference returns the tags of s that are not in other
func (s TagSet) Difference(other TagSet) TagSet {
	out := make(TagSet)
	for t := range s {
		if !other.Has(t) {
			out[t] = struct{}{}
		}
	}
	return out
}

// Sorted returns the tags in lexical order
func (s TagSet) Sorted() []Tag {
	out := make([]Tag, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings is Sorted as plain strings, handy for JSON and logs
func (s TagSet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, t := range sorted {
		out[i] = string(t)
	}
	return out
}

// Location is where a profile is based. Both parts are optional.
type Location struct {
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
	Region  string `json:"region,omitempty" yaml:"region,omitempty"`
}

func (l Location) IsZero() bool {
	return l.Country == "" && l.Region == ""
}

// EntityProfile is a read-only snapshot fetched from the profile store
type EntityProfile struct {
	ID        EntityID `json:"id"`
	Name      string   `json:"name"`
	Industry  string   `json:"industry,omitempty"`
	Expertise TagSet   `json:"-"`
	Needs     TagSet   `json:"-"`
	Offers    TagSet   `json:"-"`
	Location  Location `json:"location"`
}

// TrustAssessment is the trust service's view of an ordered pair.
// DirectTrust is nil when no direct relation exists.
type TrustAssessment struct {
	DirectTrust   *float64 `json:"direct_trust,omitempty"`
	IndirectTrust float64  `json:"indirect_trust"`
}

// Complexity bucket of a hypothetical project
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Duration bucket of a hypothetical project
type Duration string

const (
	DurationShort  Duration = "short"
	DurationMedium Duration = "medium"
	DurationLong   Duration = "long"
)

// Scenario describes a hypothetical project a team is evaluated against
type Scenario struct {
	Type           string     `json:"type"`
	Duration       Duration   `json:"duration"`
	Complexity     Complexity `json:"complexity"`
	RequiredSkills []string   `json:"required_skills"`
}

// PredictRequest represents the request structure for the predict endpoint
type PredictRequest struct {
	EntityA EntityID `json:"entity_a" binding:"required"`
	EntityB EntityID `json:"entity_b" binding:"required"`
}

// TeamRequest represents the request structure for the team endpoint
type TeamRequest struct {
	Members []EntityID `json:"members" binding:"required"`
}

// OpportunityRequest represents the request structure for the opportunities endpoint
type OpportunityRequest struct {
	EntityID       EntityID `json:"entity_id" binding:"required"`
	Type           string   `json:"type,omitempty"`
	MinProbability *int     `json:"min_probability,omitempty"`
	Limit          int      `json:"limit,omitempty"`
}

// ScenarioRequest represents the request structure for the scenario endpoint
type ScenarioRequest struct {
	Members  []EntityID `json:"members" binding:"required"`
	Scenario Scenario   `json:"scenario"`
}
