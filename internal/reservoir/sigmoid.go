package reservoir

import "math"

// sigmoid is the logistic function evaluated without overflowing exp for
// large |x|.
func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
