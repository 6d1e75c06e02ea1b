package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/errors"
)

// Config bounds the engine's fan-out and sets request defaults
type Config struct {
	// pair computations in flight at once
	Concurrency int `json:"concurrency"`
	// deadline of a single pair computation, upstream calls included
	PairTimeout time.Duration `json:"pair_timeout"`
	CacheTTL    time.Duration `json:"cache_ttl"`
	// candidates considered per opportunity search
	CandidateCap          int `json:"candidate_cap"`
	DefaultMinProbability int `json:"default_min_probability"`
	DefaultLimit          int `json:"default_limit"`
	// missing skills that get member suggestions, and suggestions per skill
	SkillSuggestions   int `json:"skill_suggestions"`
	CandidatesPerSkill int `json:"candidates_per_skill"`
}

// DefaultConfig returns the stock engine configuration
func DefaultConfig() Config {
	return Config{
		Concurrency:           8,
		PairTimeout:           5 * time.Second,
		CacheTTL:              time.Hour,
		CandidateCap:          50,
		DefaultMinProbability: 60,
		DefaultLimit:          10,
		SkillSuggestions:      3,
		CandidatesPerSkill:    3,
	}
}

// Validate reports every invalid field at once
func (c Config) Validate() error {
	invalid := map[string]string{}

	if c.Concurrency < 1 {
		invalid["concurrency"] = "must be at least 1"
	}
	if c.PairTimeout <= 0 {
		invalid["pair_timeout"] = "must be positive"
	}
	if c.CacheTTL <= 0 {
		invalid["cache_ttl"] = "must be positive"
	}
	if c.CandidateCap < 1 {
		invalid["candidate_cap"] = "must be at least 1"
	}
	if c.DefaultMinProbability < 0 || c.DefaultMinProbability > 100 {
		invalid["default_min_probability"] = "must be within [0,100]"
	}
	if c.DefaultLimit < 1 {
		invalid["default_limit"] = "must be at least 1"
	}
	if c.SkillSuggestions < 0 {
		invalid["skill_suggestions"] = "must not be negative"
	}
	if c.CandidatesPerSkill < 0 {
		invalid["candidates_per_skill"] = "must not be negative"
	}

	if len(invalid) > 0 {
		fields := make([]string, 0, len(invalid))
		for field, msg := range invalid {
			fields = append(fields, field+" "+msg)
		}
		sort.Strings(fields)
		return errors.NewConfigurationError(strings.Join(fields, "; "), nil)
	}
	return nil
}
