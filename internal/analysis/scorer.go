package analysis

import "math"

// Aggregate combines the factor scores into a probability in [0,1] and the
// matching integer score round(100*p).
func Aggregate(f FactorSet, w Weights) (float64, int) {
	p := 0.0
	for _, name := range Factors {
		p += w.Of(name) * f.Get(name)
	}
	p = clip(p, 0, 1)

	score := int(math.Round(100 * p))
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}
	return p, score
}
