package analysis

import (
	"math"
	"math/cmplx"
)

// FFT is a radix-2 transform. len(data) must be a power of two.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)

	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

// PowerSpectrum returns the magnitude of the first half of the FFT of the
// mean-removed series, truncated to the largest power-of-two prefix.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}
	n := 1
	for n*2 <= len(data) {
		n *= 2
	}

	mean := 0.0
	for _, v := range data[:n] {
		mean += v
	}
	mean /= float64(n)
	centred := make([]float64, n)
	for i, v := range data[:n] {
		centred[i] = v - mean
	}

	fft := FFT(centred)
	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}
	return ps
}

// SpectrumError compares the power spectra of two series as the mean absolute
// difference of log10(1+|X|). Zero means identical spectra. Non-finite input
// yields +Inf.
func SpectrumError(truth, pred []float64) float64 {
	n := min(len(truth), len(pred))
	a := PowerSpectrum(truth[:n])
	b := PowerSpectrum(pred[:n])
	if len(a) == 0 {
		return 0
	}
	sum := 0.0
	for i := range a {
		d := math.Abs(math.Log10(1+a[i]) - math.Log10(1+b[i]))
		if math.IsNaN(d) {
			return math.Inf(1)
		}
		sum += d
	}
	return sum / float64(len(a))
}
