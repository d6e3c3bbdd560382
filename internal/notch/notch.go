// Package notch implements cascaded zero-phase band-stop filtering used to
// suppress calibration tones and mains interference in sensor recordings.
package notch

import (
	"fmt"
	"sync"

	"github.com/tphakala/go-opm-denoiser/internal/filter"
)

const (
	// Band edge clipping bounds as fractions of Nyquist.
	minEdgeFraction = 0.001
	maxEdgeFraction = 0.999

	// nyquistDivisor converts a sample rate to the Nyquist frequency.
	nyquistDivisor = 2
)

// Params configures a cascaded notch filter bank.
type Params struct {
	// SampleRate in Hz. Must be positive.
	SampleRate int

	// Frequencies are the notch center frequencies in Hz. Frequencies at or
	// above Nyquist are skipped with a warning rather than rejected.
	Frequencies []float64

	// Bandwidth of each notch in Hz (full width). Must be positive.
	Bandwidth float64

	// Order is the FIR filter order. Must be even and positive so the
	// designed filter has an odd tap count and integer group delay.
	Order int

	// Cascade is the number of zero-phase passes per notch frequency.
	// Each pass deepens the attenuation roughly additively in dB. Must be ≥ 1.
	Cascade int

	// Attenuation is the designed stopband depth per pass in dB.
	Attenuation float64

	// Parallel enables concurrent per-channel filtering.
	Parallel bool
}

// Validate checks the configuration. Invalid frequencies are not errors;
// they are skipped at design time and surfaced as warnings.
func (p *Params) Validate() error {
	if p.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", p.SampleRate)
	}
	if p.Bandwidth <= 0 {
		return fmt.Errorf("bandwidth must be positive, got %f", p.Bandwidth)
	}
	if p.Order <= 0 || p.Order%2 != 0 {
		return fmt.Errorf("FIR order must be positive and even, got %d", p.Order)
	}
	if p.Cascade < 1 {
		return fmt.Errorf("cascade count must be at least 1, got %d", p.Cascade)
	}
	if p.Attenuation <= 0 {
		return fmt.Errorf("attenuation must be positive, got %f", p.Attenuation)
	}
	return nil
}

// Filter applies one designed band-stop kernel per valid notch frequency,
// each as a repeated zero-phase cascade. Kernels are designed once and
// shared read-only across channels and passes.
type Filter struct {
	params   Params
	kernels  [][]float64
	warnings []string
}

// New designs the filter bank. Degenerate frequencies (at/above Nyquist or
// with collapsed band edges after clipping) and failed designs are skipped
// with a recorded warning; the corresponding data passes through unchanged.
func New(params Params) (*Filter, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	f := &Filter{params: params}
	nyquist := float64(params.SampleRate) / nyquistDivisor

	for _, freq := range params.Frequencies {
		if freq <= 0 || freq >= nyquist {
			f.warnings = append(f.warnings,
				fmt.Sprintf("notch %g Hz outside (0, Nyquist %g Hz), skipped", freq, nyquist))
			continue
		}

		// Band edges in Hz, clipped to the valid design range.
		low := clip(freq-params.Bandwidth/2, minEdgeFraction*nyquist, maxEdgeFraction*nyquist)
		high := clip(freq+params.Bandwidth/2, minEdgeFraction*nyquist, maxEdgeFraction*nyquist)
		if low >= high {
			f.warnings = append(f.warnings,
				fmt.Sprintf("notch %g Hz: band edges collapse after clipping, skipped", freq))
			continue
		}

		kernel, err := filter.DesignBandStopFilter(filter.BandParams{
			NumTaps:     params.Order + 1,
			LowFreq:     low / float64(params.SampleRate),
			HighFreq:    high / float64(params.SampleRate),
			Attenuation: params.Attenuation,
		})
		if err != nil {
			f.warnings = append(f.warnings,
				fmt.Sprintf("notch %g Hz: filter design failed (%v), skipped", freq, err))
			continue
		}

		f.kernels = append(f.kernels, kernel)
	}

	return f, nil
}

// Warnings returns design-time warnings (skipped frequencies, failed designs).
func (f *Filter) Warnings() []string {
	return f.warnings
}

// Process applies every designed notch cascade to each channel and returns a
// new matrix of identical shape. The input is not modified.
func (f *Filter) Process(data [][]float64) ([][]float64, error) {
	out := make([][]float64, len(data))

	if !f.params.Parallel || len(data) <= 1 {
		for ch := range data {
			out[ch] = f.processChannel(data[ch])
		}
		return out, nil
	}

	var wg sync.WaitGroup
	for ch := range data {
		wg.Add(1)
		go func(channel int) {
			defer wg.Done()
			out[channel] = f.processChannel(data[channel])
		}(ch)
	}
	wg.Wait()

	return out, nil
}

// processChannel runs all notch cascades over one channel.
func (f *Filter) processChannel(x []float64) []float64 {
	cur := make([]float64, len(x))
	copy(cur, x)
	if len(f.kernels) == 0 {
		return cur
	}

	next := make([]float64, len(x))
	for _, kernel := range f.kernels {
		for range f.params.Cascade {
			filter.ZeroPhase(next, cur, kernel)
			cur, next = next, cur
		}
	}
	return cur
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
