package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

func TestPreprocessorNormalize(t *testing.T) {
	p := NewPreprocessor()

	in := types.EntityProfile{
		ID:        "x",
		Name:      "  Ada Lovelace ",
		Industry:  " Deep   Tech ",
		Expertise: types.TagSet{"Go": {}, "go ": {}, " ": {}},
		Needs:     types.NewTagSet("Funding"),
		Offers:    types.NewTagSet(),
		Location:  types.Location{Country: "UK", Region: "London"},
	}

	out := p.Normalize(in)
	assert.Equal(t, "Ada Lovelace", out.Name)
	assert.Equal(t, "deep tech", out.Industry)
	assert.Equal(t, []string{"go"}, out.Expertise.Strings())
	assert.True(t, out.Needs.Has("funding"))
	assert.Equal(t, types.Location{Country: "uk", Region: "london"}, out.Location)

	assert.Len(t, in.Expertise, 3, "input is left untouched")
}

func TestCompletenessAndConfidence(t *testing.T) {
	tests := []struct {
		name     string
		profile  types.EntityProfile
		expected float64
	}{
		{name: "empty profile", profile: types.EntityProfile{}, expected: 0},
		{name: "name only", profile: profile("a", nil), expected: 1.0 / 6},
		{
			name: "complete profile",
			profile: profile("a", func(p *types.EntityProfile) {
				p.Industry = "x"
				p.Expertise = types.NewTagSet("e")
				p.Needs = types.NewTagSet("n")
				p.Offers = types.NewTagSet("o")
				p.Location.Region = "r"
			}),
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Completeness(&tt.profile), 1e-9)
		})
	}

	full := tests[2].profile
	empty := tests[0].profile
	assert.InDelta(t, 0.9, Confidence(0.7, &full, &full), 1e-9)
	assert.InDelta(t, 0.7/3, Confidence(0.7, &empty, &empty), 1e-9)
}
