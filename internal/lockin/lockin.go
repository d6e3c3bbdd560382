// Package lockin implements gain calibration by lock-in demodulation of a
// known reference tone. Each channel is rescaled so the tone's measured
// amplitude tracks a configured target peak.
package lockin

import (
	"fmt"
	"math"
	"sync"

	"github.com/tphakala/go-opm-denoiser/internal/filter"
)

const (
	// Gain clamp bounds. Gains outside this range indicate an unstable
	// amplitude estimate rather than a real drift.
	minGain = 0.1
	maxGain = 10.0

	// demodScale recovers the tone amplitude from the quadrature magnitude:
	// each mixer output carries half the signal amplitude.
	demodScale = 2.0

	// nyquistDivisor converts a sample rate to the Nyquist frequency.
	nyquistDivisor = 2
)

// Params configures a lock-in calibrator.
type Params struct {
	// SampleRate in Hz. Must be positive.
	SampleRate int

	// RefFreq is the calibration tone frequency in Hz. Must be strictly
	// below Nyquist.
	RefFreq float64

	// TargetPeak is the amplitude the tone is normalized toward. Must be
	// positive.
	TargetPeak float64

	// BandHalfWidth is the half-width in Hz of the band-pass isolating the
	// tone before demodulation.
	BandHalfWidth float64

	// LowPassCutoff is the cutoff in Hz of the zero-phase envelope smoother
	// applied to the demodulated quadrature pair.
	LowPassCutoff float64

	// FilterOrder is the band-pass FIR order. Must be even and positive.
	FilterOrder int

	// FloorFraction sets the amplitude floor as a fraction of TargetPeak,
	// bounding the gain when the measured tone momentarily vanishes.
	FloorFraction float64

	// Attenuation is the FIR design stopband depth in dB.
	Attenuation float64

	// Parallel enables concurrent per-channel calibration.
	Parallel bool
}

// Validate checks the configuration.
func (p *Params) Validate() error {
	if p.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", p.SampleRate)
	}
	nyquist := float64(p.SampleRate) / nyquistDivisor
	if p.RefFreq <= 0 || p.RefFreq >= nyquist {
		return fmt.Errorf("reference frequency %g Hz must be in (0, Nyquist %g Hz)", p.RefFreq, nyquist)
	}
	if p.TargetPeak <= 0 {
		return fmt.Errorf("target peak must be positive, got %g", p.TargetPeak)
	}
	if p.BandHalfWidth <= 0 {
		return fmt.Errorf("band half-width must be positive, got %g", p.BandHalfWidth)
	}
	if p.LowPassCutoff <= 0 {
		return fmt.Errorf("low-pass cutoff must be positive, got %g", p.LowPassCutoff)
	}
	if p.FilterOrder <= 0 || p.FilterOrder%2 != 0 {
		return fmt.Errorf("FIR order must be positive and even, got %d", p.FilterOrder)
	}
	if p.FloorFraction <= 0 || p.FloorFraction >= 1 {
		return fmt.Errorf("floor fraction must be in (0, 1), got %g", p.FloorFraction)
	}
	if p.Attenuation <= 0 {
		return fmt.Errorf("attenuation must be positive, got %g", p.Attenuation)
	}
	return nil
}

// Calibrator rescales channels by a per-sample gain envelope derived from
// lock-in demodulation of the reference tone. Filter kernels are designed
// once and shared read-only across channels.
type Calibrator struct {
	params   Params
	bandPass []float64 // nil when design failed (moving-average fallback)
	lowPass  []float64 // nil when design failed (moving-average fallback)
	maWindow int       // fallback smoother window
	warnings []string
}

// New designs the demodulation filters. A failed band-pass design does not
// abort calibration: the calibrator falls back to a plain moving-average
// smoother and records a warning.
func New(params Params) (*Calibrator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	c := &Calibrator{params: params}
	rate := float64(params.SampleRate)

	bp, err := filter.DesignBandPassFilter(filter.BandParams{
		NumTaps:     params.FilterOrder + 1,
		LowFreq:     (params.RefFreq - params.BandHalfWidth) / rate,
		HighFreq:    (params.RefFreq + params.BandHalfWidth) / rate,
		Attenuation: params.Attenuation,
	})
	if err != nil {
		c.warnings = append(c.warnings,
			fmt.Sprintf("lock-in band-pass design failed (%v), using moving-average fallback", err))
	} else {
		c.bandPass = bp
	}

	lp, err := filter.DesignLowPassFilterAuto(
		params.LowPassCutoff/rate,
		params.LowPassCutoff/rate,
		params.Attenuation,
		1.0,
	)
	if err != nil {
		c.warnings = append(c.warnings,
			fmt.Sprintf("lock-in envelope low-pass design failed (%v), using moving-average fallback", err))
	} else {
		c.lowPass = lp
	}

	// Fallback smoother window: one envelope time constant of samples, odd.
	c.maWindow = int(rate/params.LowPassCutoff) | 1

	return c, nil
}

// Warnings returns design-time warnings (filter fallbacks).
func (c *Calibrator) Warnings() []string {
	return c.warnings
}

// Process calibrates every channel and returns a new matrix of identical
// shape. The input is not modified. Each output channel is re-baselined by
// subtracting its first sample.
func (c *Calibrator) Process(data [][]float64) ([][]float64, error) {
	out := make([][]float64, len(data))

	if !c.params.Parallel || len(data) <= 1 {
		for ch := range data {
			out[ch] = c.processChannel(data[ch])
		}
		return out, nil
	}

	var wg sync.WaitGroup
	for ch := range data {
		wg.Add(1)
		go func(channel int) {
			defer wg.Done()
			out[channel] = c.processChannel(data[channel])
		}(ch)
	}
	wg.Wait()

	return out, nil
}

// Envelope returns the per-sample gain sequence for a single channel without
// applying it. Exposed for diagnostics and tests.
func (c *Calibrator) Envelope(x []float64) []float64 {
	return c.gainEnvelope(x)
}

// processChannel calibrates one channel.
func (c *Calibrator) processChannel(x []float64) []float64 {
	gain := c.gainEnvelope(x)

	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v * gain[i]
	}

	// Re-baseline: the gain ramp can move the starting offset.
	if len(out) > 0 {
		first := out[0]
		for i := range out {
			out[i] -= first
		}
	}
	return out
}

// gainEnvelope computes the clamped, delay-compensated gain sequence for one
// channel.
func (c *Calibrator) gainEnvelope(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}

	// Isolate the tone. The causal band-pass introduces a group delay that
	// is compensated on the gain sequence below.
	banded := make([]float64, n)
	if c.bandPass != nil {
		filter.Apply(banded, x, c.bandPass)
	} else {
		copy(banded, x)
	}

	// Quadrature demodulation against synthetic references at the tone
	// frequency.
	inPhase := make([]float64, n)
	quad := make([]float64, n)
	w := 2 * math.Pi * c.params.RefFreq / float64(c.params.SampleRate)
	for i, v := range banded {
		s, cs := math.Sincos(w * float64(i))
		inPhase[i] = v * s
		quad[i] = v * cs
	}

	// Smooth both components with a zero-phase low-pass so the envelope
	// carries no additional lag.
	smoothI := make([]float64, n)
	smoothQ := make([]float64, n)
	if c.lowPass != nil {
		filter.ZeroPhase(smoothI, inPhase, c.lowPass)
		filter.ZeroPhase(smoothQ, quad, c.lowPass)
	} else {
		filter.MovingAverage(smoothI, inPhase, c.maWindow)
		filter.MovingAverage(smoothQ, quad, c.maWindow)
	}

	// Instantaneous amplitude and gain.
	floor := c.params.FloorFraction * c.params.TargetPeak
	gain := make([]float64, n)
	for i := range gain {
		amp := demodScale * math.Hypot(smoothI[i], smoothQ[i])
		if amp < floor {
			amp = floor
		}
		g := c.params.TargetPeak / amp
		if g < minGain {
			g = minGain
		} else if g > maxGain {
			g = maxGain
		}
		gain[i] = g
	}

	// Compensate the band-pass group delay; the repeated tail value is an
	// accepted approximation.
	if c.bandPass != nil {
		filter.ShiftLeft(gain, filter.GroupDelay(c.bandPass))
	}
	return gain
}
