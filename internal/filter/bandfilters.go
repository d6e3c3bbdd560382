package filter

import (
	"fmt"
	"math"

	"github.com/tphakala/go-opm-denoiser/internal/mathutil"
	"github.com/tphakala/simd/f64"
)

// BandParams holds parameters for band-pass and band-stop filter design.
type BandParams struct {
	// NumTaps is the filter length. Must be odd so the filter is a
	// symmetric linear-phase FIR with an integer group delay.
	NumTaps int

	// LowFreq and HighFreq are the normalized band edges (0 to 0.5,
	// where 0.5 is Nyquist). LowFreq must be strictly below HighFreq.
	LowFreq  float64
	HighFreq float64

	// Attenuation is the desired stopband attenuation in dB.
	Attenuation float64
}

// Validate checks if band filter parameters are valid.
func (bp *BandParams) Validate() error {
	if bp.NumTaps < minFilterTaps {
		return fmt.Errorf("filter too short: %d taps (minimum %d)", bp.NumTaps, minFilterTaps)
	}

	if bp.NumTaps > maxFilterTaps {
		return fmt.Errorf("filter too long: %d taps (maximum %d)", bp.NumTaps, maxFilterTaps)
	}

	if bp.NumTaps%2 == 0 {
		return fmt.Errorf("invalid tap count: %d (must be odd for integer group delay)", bp.NumTaps)
	}

	if bp.LowFreq <= 0 || bp.LowFreq >= 0.5 {
		return fmt.Errorf("invalid low edge: %f (must be in (0, 0.5))", bp.LowFreq)
	}

	if bp.HighFreq <= 0 || bp.HighFreq >= 0.5 {
		return fmt.Errorf("invalid high edge: %f (must be in (0, 0.5))", bp.HighFreq)
	}

	if bp.LowFreq >= bp.HighFreq {
		return fmt.Errorf("invalid band: low edge %f >= high edge %f", bp.LowFreq, bp.HighFreq)
	}

	if bp.Attenuation < 0 {
		return fmt.Errorf("invalid attenuation: %f dB (must be positive)", bp.Attenuation)
	}

	return nil
}

// DesignBandPassFilter designs a linear-phase band-pass FIR filter as the
// difference of two windowed-sinc lowpass prototypes sharing one Kaiser window:
//
//	h_bp = lp(highFreq) - lp(lowFreq)
//
// The result is normalized to unity gain at the geometric band center, so a
// tone inside the band passes with its amplitude preserved.
func DesignBandPassFilter(params BandParams) ([]float64, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	beta := mathutil.KaiserBeta(params.Attenuation)
	window := KaiserWindow(params.NumTaps, beta)

	high := windowedSinc(params.NumTaps, params.HighFreq, window)
	low := windowedSinc(params.NumTaps, params.LowFreq, window)

	coeffs := make([]float64, params.NumTaps)
	for i := range coeffs {
		coeffs[i] = high[i] - low[i]
	}

	// Normalize at the band center so in-band tones keep their amplitude.
	center := (params.LowFreq + params.HighFreq) / 2
	gain := magnitudeAt(coeffs, center)
	if gain < sincZeroThreshold {
		return nil, fmt.Errorf("degenerate band-pass design: center gain %e at f=%f", gain, center)
	}
	f64.Scale(coeffs, coeffs, filterGainTarget/gain)

	return coeffs, nil
}

// DesignBandStopFilter designs a linear-phase band-stop (notch) FIR filter
// by summing a DC-normalized lowpass at the low edge with the spectral
// inversion of a DC-normalized lowpass at the high edge:
//
//	h_bs = lp(lowFreq) + (δ - lp(highFreq))
//
// The result has unity gain at DC and in the upper passband, and a deep
// notch between the band edges whose floor is set by the Kaiser attenuation.
func DesignBandStopFilter(params BandParams) ([]float64, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	low, err := DesignLowPassFilter(FilterParams{
		NumTaps:     params.NumTaps,
		CutoffFreq:  params.LowFreq,
		Attenuation: params.Attenuation,
		Gain:        filterGainTarget,
	})
	if err != nil {
		return nil, err
	}

	high, err := DesignLowPassFilter(FilterParams{
		NumTaps:     params.NumTaps,
		CutoffFreq:  params.HighFreq,
		Attenuation: params.Attenuation,
		Gain:        filterGainTarget,
	})
	if err != nil {
		return nil, err
	}

	coeffs := make([]float64, params.NumTaps)
	for i := range coeffs {
		coeffs[i] = low[i] - high[i]
	}
	coeffs[params.NumTaps/2] += sincCenterTap // spectral inversion: δ - lp(high)

	return coeffs, nil
}

// magnitudeAt evaluates the magnitude response of a FIR filter at a single
// normalized frequency (0 to 0.5).
func magnitudeAt(coeffs []float64, freq float64) float64 {
	var realPart, imagPart float64
	omega := windowNormalizationFactor * sincPiMultiplier * freq

	for n, h := range coeffs {
		angle := omega * float64(n)
		realPart += h * math.Cos(angle)
		imagPart -= h * math.Sin(angle)
	}

	return math.Sqrt(realPart*realPart + imagPart*imagPart)
}
