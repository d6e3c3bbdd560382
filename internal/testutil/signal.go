package testutil

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/dsp/fourier"
)

// minPowerFloor avoids log10(0) when a spectral bin is exactly zero.
const minPowerFloor = 1e-30

// Sine generates a sine wave of the given amplitude, frequency and phase.
// sampleRate is in Hz, n is the number of samples.
func Sine(n int, amplitude, freq, phase, sampleRate float64) []float64 {
	out := make([]float64, n)
	w := 2 * math.Pi * freq / sampleRate
	for i := range n {
		out[i] = amplitude * math.Sin(w*float64(i)+phase)
	}
	return out
}

// AddNoise adds zero-mean uniform noise of the given peak amplitude in place.
// A fixed seed keeps test runs reproducible.
func AddNoise(s []float64, amplitude float64, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range s {
		s[i] += amplitude * (2*rng.Float64() - 1)
	}
}

// PeakPowerDB returns the power in dB of the strongest FFT bin within
// ±searchHz of freq. Used to measure tone attenuation across pipeline stages.
func PeakPowerDB(s []float64, freq, searchHz, sampleRate float64) float64 {
	n := len(s)
	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, s)

	binHz := sampleRate / float64(n)
	lo := int(math.Floor((freq - searchHz) / binHz))
	hi := int(math.Ceil((freq + searchHz) / binHz))
	if lo < 0 {
		lo = 0
	}
	if hi >= len(coeffs) {
		hi = len(coeffs) - 1
	}

	peak := 0.0
	for i := lo; i <= hi; i++ {
		re := real(coeffs[i])
		im := imag(coeffs[i])
		p := re*re + im*im
		if p > peak {
			peak = p
		}
	}
	if peak < minPowerFloor {
		peak = minPowerFloor
	}
	return 10 * math.Log10(peak)
}

// Variance returns the sample variance of s.
func Variance(s []float64) float64 {
	if len(s) < 2 {
		return 0
	}
	var mean float64
	for _, v := range s {
		mean += v
	}
	mean /= float64(len(s))

	var ss float64
	for _, v := range s {
		d := v - mean
		ss += d * d
	}
	return ss / float64(len(s)-1)
}
