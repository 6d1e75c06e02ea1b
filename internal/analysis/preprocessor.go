package analysis

import (
	"strings"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

// Preprocessor normalizes profiles before any factor runs
type Preprocessor struct{}

// NewPreprocessor creates a new preprocessor
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// Normalize returns a cleaned copy of the profile: tags are trimmed,
// lower-cased and deduplicated, industry and location are compared
// case-insensitively. The input is not modified.
func (p *Preprocessor) Normalize(profile types.EntityProfile) types.EntityProfile {
	out := profile
	out.Name = strings.TrimSpace(profile.Name)
	out.Industry = normalizeLabel(profile.Industry)
	out.Expertise = normalizeTags(profile.Expertise)
	out.Needs = normalizeTags(profile.Needs)
	out.Offers = normalizeTags(profile.Offers)
	out.Location = types.Location{
		Country: normalizeLabel(profile.Location.Country),
		Region:  normalizeLabel(profile.Location.Region),
	}
	return out
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func normalizeTags(in types.TagSet) types.TagSet {
	out := make(types.TagSet, len(in))
	for t := range in {
		if n := normalizeLabel(string(t)); n != "" {
			out[types.Tag(n)] = struct{}{}
		}
	}
	return out
}
