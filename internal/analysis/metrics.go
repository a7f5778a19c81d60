package analysis

import (
	"math"

	"github.com/san-kum/esnlab/internal/dynamo"
)

// DefaultValidThreshold is the normalised error at which a forecast stops
// counting as valid.
const DefaultValidThreshold = 0.4

// StepErrors returns the Euclidean distance between truth and pred at each
// step, over the shorter of the two.
func StepErrors(truth, pred []dynamo.State) []float64 {
	n := min(len(truth), len(pred))
	errs := make([]float64, n)
	for i := 0; i < n; i++ {
		errs[i] = pred[i].Sub(truth[i]).Norm()
	}
	return errs
}

// RMSE is the root mean squared componentwise error.
func RMSE(truth, pred []dynamo.State) float64 {
	n := min(len(truth), len(pred))
	if n == 0 {
		return 0
	}
	sum := 0.0
	count := 0
	for i := 0; i < n; i++ {
		for k := range truth[i] {
			if k >= len(pred[i]) {
				break
			}
			d := pred[i][k] - truth[i][k]
			sum += d * d
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(count))
}

// NRMSE is RMSE divided by the standard deviation of the truth components
// pooled over all dimensions.
func NRMSE(truth, pred []dynamo.State) float64 {
	n := min(len(truth), len(pred))
	std := pooledStd(truth[:n])
	if std == 0 {
		return math.Inf(1)
	}
	return RMSE(truth, pred) / std
}

func pooledStd(states []dynamo.State) float64 {
	if len(states) == 0 {
		return 0
	}
	dim := len(states[0])
	mean := make([]float64, dim)
	for _, s := range states {
		for k := 0; k < dim && k < len(s); k++ {
			mean[k] += s[k]
		}
	}
	for k := range mean {
		mean[k] /= float64(len(states))
	}
	variance := 0.0
	count := 0
	for _, s := range states {
		for k := 0; k < dim && k < len(s); k++ {
			d := s[k] - mean[k]
			variance += d * d
			count++
		}
	}
	return math.Sqrt(variance / float64(count))
}

// ValidTime returns the number of leading steps whose error, normalised by
// the RMS norm of the truth, stays at or below threshold. A non-finite
// prediction ends the valid window.
func ValidTime(truth, pred []dynamo.State, threshold float64) int {
	n := min(len(truth), len(pred))
	if n == 0 {
		return 0
	}
	scale := 0.0
	for i := 0; i < n; i++ {
		norm := truth[i].Norm()
		scale += norm * norm
	}
	scale = math.Sqrt(scale / float64(n))
	if scale == 0 {
		scale = 1
	}

	for i := 0; i < n; i++ {
		e := pred[i].Sub(truth[i]).Norm() / scale
		if !(e <= threshold) {
			return i
		}
	}
	return n
}
