package analysis

import "github.com/ZanzyTHEbar/collab-o-meter/internal/types"

// Completeness is the filled fraction of name, industry, expertise, needs, offers and location
func Completeness(p *types.EntityProfile) float64 {
	filled := 0
	for _, ok := range []bool{
		p.Name != "",
		p.Industry != "",
		p.Expertise.Len() > 0,
		p.Needs.Len() > 0,
		p.Offers.Len() > 0,
		!p.Location.IsZero(),
	} {
		if ok {
			filled++
		}
	}
	return float64(filled) / 6
}

// Confidence averages a fixed prior with the completeness of both profiles
func Confidence(prior float64, a, b *types.EntityProfile) float64 {
	return clip((prior+Completeness(a)+Completeness(b))/3, 0, 1)
}
