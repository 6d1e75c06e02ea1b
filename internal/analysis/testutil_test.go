package analysis

import "github.com/ZanzyTHEbar/collab-o-meter/internal/types"

func ptr(v float64) *float64 { return &v }

func profile(id string, mutate func(p *types.EntityProfile)) types.EntityProfile {
	p := types.EntityProfile{
		ID:        types.EntityID(id),
		Name:      id,
		Expertise: types.NewTagSet(),
		Needs:     types.NewTagSet(),
		Offers:    types.NewTagSet(),
	}
	if mutate != nil {
		mutate(&p)
	}
	return p
}

func fundingPair() (types.EntityProfile, types.EntityProfile, types.TrustAssessment) {
	a := profile("founder", func(p *types.EntityProfile) {
		p.Industry = "fintech"
		p.Needs = types.NewTagSet("funding")
		p.Offers = types.NewTagSet("mentorship")
		p.Location = types.Location{Country: "DE"}
	})
	b := profile("investor", func(p *types.EntityProfile) {
		p.Industry = "FinTech"
		p.Needs = types.NewTagSet("mentorship")
		p.Offers = types.NewTagSet("funding")
		p.Location = types.Location{Country: "de"}
	})
	return a, b, types.TrustAssessment{DirectTrust: ptr(0.9), IndirectTrust: 0.2}
}
