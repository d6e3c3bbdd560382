// Package filter provides FIR filter design and zero-phase application
// for the denoising pipeline.
package filter

import (
	"fmt"
	"math"

	"github.com/tphakala/go-opm-denoiser/internal/mathutil"
	"github.com/tphakala/simd/f64"
)

const (
	// Filter design constants
	minFilterTaps = 3
	maxFilterTaps = 8191

	// Window normalization
	windowNormalizationFactor = 2.0

	// Sinc function constants
	sincCenterTap     = 1.0
	sincPiMultiplier  = math.Pi
	sincZeroThreshold = 1e-10

	// Filter normalization
	filterGainTarget = 1.0
)

// KaiserWindow generates a Kaiser window of the specified length and β parameter.
//
// The Kaiser window provides excellent control over the trade-off between
// main lobe width and sidelobe level in frequency domain.
//
// Parameters:
//
//	length: Number of samples in the window (should be odd for symmetric FIR)
//	beta: Kaiser β parameter (controls sidelobe attenuation)
//	      Typically 0-15, where higher values = more attenuation but wider main lobe
//
// The window is symmetric: w[i] = w[length-1-i]
func KaiserWindow(length int, beta float64) []float64 {
	if length < 1 {
		return []float64{}
	}

	window := make([]float64, length)

	// Special case for length 1
	if length == 1 {
		window[0] = sincCenterTap
		return window
	}

	// Calculate window using Kaiser formula:
	// w[n] = I₀(β * sqrt(1 - ((n - α)/α)²)) / I₀(β)
	// where α = (N-1)/2 and N is the window length

	alpha := float64(length-1) / windowNormalizationFactor
	i0Beta := mathutil.BesselI0(beta)

	for n := range length {
		// Calculate position relative to center: [-1, 1]
		x := (float64(n) - alpha) / alpha

		// Kaiser window formula
		arg := beta * math.Sqrt(1.0-x*x)
		window[n] = mathutil.BesselI0(arg) / i0Beta
	}

	return window
}

// FilterParams holds parameters for low-pass filter design.
type FilterParams struct {
	// NumTaps is the filter length (number of coefficients)
	// Should be odd for symmetric linear-phase FIR
	NumTaps int

	// CutoffFreq is the normalized cutoff frequency (0 to 0.5)
	// 0.5 represents Nyquist frequency (half the sample rate)
	CutoffFreq float64

	// Attenuation is the desired stopband attenuation in dB
	// Typical values: 60-150 dB
	Attenuation float64

	// Gain is the passband gain (typically 1.0)
	Gain float64
}

// Validate checks if filter parameters are valid.
func (fp *FilterParams) Validate() error {
	if fp.NumTaps < minFilterTaps {
		return fmt.Errorf("filter too short: %d taps (minimum %d)", fp.NumTaps, minFilterTaps)
	}

	if fp.NumTaps > maxFilterTaps {
		return fmt.Errorf("filter too long: %d taps (maximum %d)", fp.NumTaps, maxFilterTaps)
	}

	if fp.CutoffFreq <= 0 || fp.CutoffFreq >= 0.5 {
		return fmt.Errorf("invalid cutoff frequency: %f (must be in (0, 0.5))", fp.CutoffFreq)
	}

	if fp.Attenuation < 0 {
		return fmt.Errorf("invalid attenuation: %f dB (must be positive)", fp.Attenuation)
	}

	if fp.Gain <= 0 {
		return fmt.Errorf("invalid gain: %f (must be positive)", fp.Gain)
	}

	return nil
}

// DesignLowPassFilter designs a windowed-sinc lowpass FIR filter.
//
// This uses the Kaiser window method:
//  1. Generate ideal sinc function (infinite impulse response)
//  2. Truncate to finite length
//  3. Apply Kaiser window to reduce Gibbs phenomenon
//  4. Normalize for desired gain
//
// The resulting filter has linear phase (symmetric impulse response)
// and excellent stopband attenuation.
func DesignLowPassFilter(params FilterParams) ([]float64, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	// Calculate Kaiser β from desired attenuation
	beta := mathutil.KaiserBeta(params.Attenuation)

	// Generate Kaiser window
	window := KaiserWindow(params.NumTaps, beta)

	// Generate windowed sinc function
	coeffs := windowedSinc(params.NumTaps, params.CutoffFreq, window)

	// Normalize filter for desired gain at DC
	// Uses SIMD-accelerated sum and scale operations
	sum := f64.Sum(coeffs)

	if math.Abs(sum) > sincZeroThreshold {
		scale := params.Gain / sum
		f64.Scale(coeffs, coeffs, scale)
	}

	return coeffs, nil
}

// DesignLowPassFilterAuto designs a lowpass filter with automatic length calculation.
//
// This is a convenience function that automatically calculates the required
// filter length based on the attenuation and transition bandwidth requirements.
func DesignLowPassFilterAuto(cutoffFreq, transitionBW, attenuation, gain float64) ([]float64, error) {
	// Calculate required filter length
	numTaps := mathutil.EstimateFilterLength(attenuation, transitionBW)

	params := FilterParams{
		NumTaps:     numTaps,
		CutoffFreq:  cutoffFreq,
		Attenuation: attenuation,
		Gain:        gain,
	}

	return DesignLowPassFilter(params)
}

// windowedSinc generates a windowed ideal lowpass impulse response.
// The result is NOT normalized; callers normalize for their own gain target.
func windowedSinc(numTaps int, cutoffFreq float64, window []float64) []float64 {
	coeffs := make([]float64, numTaps)
	center := float64(numTaps-1) / windowNormalizationFactor

	for n := range numTaps {
		// Calculate position relative to center
		x := float64(n) - center

		// Generate sinc function: sin(2πfc·x) / (πx)
		// At x=0: limit is 2*fc (by L'Hôpital's rule)
		var sincValue float64
		if math.Abs(x) < sincZeroThreshold {
			// Center tap value: 2 * cutoff frequency
			sincValue = windowNormalizationFactor * cutoffFreq
		} else {
			arg := windowNormalizationFactor * sincPiMultiplier * cutoffFreq * x
			sincValue = math.Sin(arg) / (sincPiMultiplier * x)
		}

		// Apply Kaiser window
		coeffs[n] = sincValue * window[n]
	}

	return coeffs
}
