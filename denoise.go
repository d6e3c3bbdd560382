package denoiser

import (
	"errors"
	"fmt"
)

// Common errors returned by the pipeline.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid denoiser configuration")

	// ErrShapeMismatch indicates inconsistent matrix dimensions between
	// axes, channels, or stages.
	ErrShapeMismatch = errors.New("matrix shape mismatch")
)

// AxisMode selects which measurement axes the pipeline returns.
type AxisMode int

const (
	// AxisBoth returns the full interleaved matrix: sensor i occupies rows
	// 2i (Y axis) and 2i+1 (Z axis).
	AxisBoth AxisMode = iota

	// AxisY returns only the Y-axis rows, one per sensor.
	AxisY

	// AxisZ returns only the Z-axis rows, one per sensor.
	AxisZ
)

// String returns the axis mode name.
func (m AxisMode) String() string {
	switch m {
	case AxisBoth:
		return "both"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("AxisMode(%d)", int(m))
	}
}

// Recording holds one dual-axis acquisition: a Y-axis and a Z-axis matrix,
// each sensors × samples, at a common sample rate. The two matrices must
// have identical dimensions.
type Recording struct {
	// AxisY holds the Y-axis samples, one row per sensor.
	AxisY [][]float64

	// AxisZ holds the Z-axis samples, one row per sensor, in the same
	// sensor order as AxisY.
	AxisZ [][]float64

	// SampleRate in Hz.
	SampleRate int
}

// Sensors returns the sensor count.
func (r *Recording) Sensors() int {
	return len(r.AxisY)
}

// Samples returns the per-channel sample count, or 0 for an empty
// recording.
func (r *Recording) Samples() int {
	if len(r.AxisY) == 0 {
		return 0
	}
	return len(r.AxisY[0])
}

// Validate checks the recording's dimensions.
func (r *Recording) Validate() error {
	if r.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfig, r.SampleRate)
	}
	if len(r.AxisY) == 0 {
		return fmt.Errorf("%w: recording has no sensors", ErrShapeMismatch)
	}
	if len(r.AxisY) > maxSensors {
		return fmt.Errorf("%w: too many sensors (max %d)", ErrInvalidConfig, maxSensors)
	}
	if len(r.AxisZ) != len(r.AxisY) {
		return fmt.Errorf("%w: %d Y-axis channels but %d Z-axis channels",
			ErrShapeMismatch, len(r.AxisY), len(r.AxisZ))
	}

	samples := len(r.AxisY[0])
	for s := range r.AxisY {
		if len(r.AxisY[s]) != samples || len(r.AxisZ[s]) != samples {
			return fmt.Errorf("%w: sensor %d sample counts differ from %d",
				ErrShapeMismatch, s, samples)
		}
	}
	return nil
}

// Orientation holds the Y-axis and Z-axis sensing directions of one sensor
// as unit vectors in a common head or room frame.
type Orientation struct {
	Y [3]float64
	Z [3]float64
}

// CalibrationSpec configures the lock-in gain calibration stage.
type CalibrationSpec struct {
	// Enabled toggles the stage. Disabled stages pass data through.
	Enabled bool

	// RefFreq is the calibration tone frequency in Hz. Must be strictly
	// below Nyquist.
	RefFreq float64

	// TargetPeak is the amplitude the tone is normalized toward.
	TargetPeak float64

	// BandHalfWidth is the half-width in Hz of the tone-isolation
	// band-pass. Zero selects the default.
	BandHalfWidth float64

	// LowPassCutoff is the envelope smoother cutoff in Hz. Zero selects
	// the default.
	LowPassCutoff float64

	// FilterOrder is the band-pass FIR order, even. Zero selects the
	// default.
	FilterOrder int

	// FloorFraction bounds the gain when the tone vanishes, as a fraction
	// of TargetPeak. Zero selects the default.
	FloorFraction float64
}

// NotchSpec configures the cascaded notch filtering stage.
type NotchSpec struct {
	// Enabled toggles the stage.
	Enabled bool

	// Frequencies lists notch centers in Hz. Frequencies at or above
	// Nyquist are skipped with a warning rather than failing the run.
	Frequencies []float64

	// Bandwidth is the full stopband width in Hz. Zero selects the
	// default.
	Bandwidth float64

	// Order is the band-stop FIR order, even. Zero selects the default.
	Order int

	// Cascade repeats the zero-phase pass, deepening attenuation roughly
	// additively in dB. Zero selects the default.
	Cascade int
}

// CancelSpec configures the recursive-least-squares reference cancellation
// stage.
type CancelSpec struct {
	// Enabled toggles the stage.
	Enabled bool

	// ReferenceSensors lists sensor indices whose channels (both axes)
	// serve as noise references. Reference channels pass through the stage
	// unchanged; all remaining channels are denoised against them.
	ReferenceSensors []int

	// Lambda is the forgetting factor in (0, 1). Zero selects the default.
	Lambda float64

	// MinSamples is the warmup length before adaptation. Zero selects the
	// default.
	MinSamples int
}

// ProjectionSpec configures the homogeneous field compensation stage.
type ProjectionSpec struct {
	// Enabled toggles the stage.
	Enabled bool

	// Orientations holds one entry per sensor, in recording sensor order.
	// Required when the stage is enabled.
	Orientations []Orientation

	// TolScale scales the SVD rank cutoff. Zero selects the default of 1.
	TolScale float64
}

// Config holds the full pipeline configuration.
type Config struct {
	// Calibration is the lock-in gain calibration stage.
	Calibration CalibrationSpec

	// Notch is the cascaded notch filtering stage.
	Notch NotchSpec

	// Cancel is the RLS reference cancellation stage.
	Cancel CancelSpec

	// Projection is the homogeneous field compensation stage.
	Projection ProjectionSpec

	// Attenuation is the Kaiser design stopband depth in dB shared by the
	// calibration and notch filters. Zero selects the default.
	Attenuation float64

	// Axis selects which axes the final output contains.
	Axis AxisMode

	// Parallel enables concurrent per-channel processing in the
	// channel-independent stages.
	Parallel bool
}

// DefaultConfig returns a configuration with all stages enabled and typical
// parameters. The calibration tone frequency and target amplitude are
// acquisition-specific and must be supplied; the tone frequency is also
// notched after calibration.
func DefaultConfig(refFreq, targetPeak float64) Config {
	return Config{
		Calibration: CalibrationSpec{
			Enabled:       true,
			RefFreq:       refFreq,
			TargetPeak:    targetPeak,
			BandHalfWidth: defaultBandHalfWidth,
			LowPassCutoff: defaultLowPassCutoff,
			FilterOrder:   defaultCalibOrder,
			FloorFraction: defaultFloorFraction,
		},
		Notch: NotchSpec{
			Enabled:     true,
			Frequencies: []float64{refFreq},
			Bandwidth:   defaultNotchBandwidth,
			Order:       defaultNotchOrder,
			Cascade:     defaultNotchCascade,
		},
		Cancel: CancelSpec{
			Enabled:    false, // requires reference sensor indices
			Lambda:     defaultLambda,
			MinSamples: defaultMinSamples,
		},
		Projection: ProjectionSpec{
			Enabled: false, // requires orientation geometry
		},
		Attenuation: defaultAttenuation,
		Axis:        AxisBoth,
	}
}

// withDefaults fills zero-valued optional fields.
func (c Config) withDefaults() Config {
	if c.Attenuation == 0 {
		c.Attenuation = defaultAttenuation
	}
	if c.Calibration.BandHalfWidth == 0 {
		c.Calibration.BandHalfWidth = defaultBandHalfWidth
	}
	if c.Calibration.LowPassCutoff == 0 {
		c.Calibration.LowPassCutoff = defaultLowPassCutoff
	}
	if c.Calibration.FilterOrder == 0 {
		c.Calibration.FilterOrder = defaultCalibOrder
	}
	if c.Calibration.FloorFraction == 0 {
		c.Calibration.FloorFraction = defaultFloorFraction
	}
	if c.Notch.Bandwidth == 0 {
		c.Notch.Bandwidth = defaultNotchBandwidth
	}
	if c.Notch.Order == 0 {
		c.Notch.Order = defaultNotchOrder
	}
	if c.Notch.Cascade == 0 {
		c.Notch.Cascade = defaultNotchCascade
	}
	if c.Cancel.Lambda == 0 {
		c.Cancel.Lambda = defaultLambda
	}
	if c.Cancel.MinSamples == 0 {
		c.Cancel.MinSamples = defaultMinSamples
	}
	return c
}

// Validate checks the configuration against a recording's geometry. Defaults
// are not applied here; call sites validate the defaulted copy.
func (c *Config) Validate(sensors int) error {
	if c.Axis != AxisBoth && c.Axis != AxisY && c.Axis != AxisZ {
		return fmt.Errorf("%w: unknown axis mode %d", ErrInvalidConfig, int(c.Axis))
	}

	if c.Cancel.Enabled {
		if len(c.Cancel.ReferenceSensors) == 0 {
			return fmt.Errorf("%w: cancellation enabled without reference sensors", ErrInvalidConfig)
		}
		seen := make(map[int]bool, len(c.Cancel.ReferenceSensors))
		for _, s := range c.Cancel.ReferenceSensors {
			if s < 0 || s >= sensors {
				return fmt.Errorf("%w: reference sensor %d out of range [0, %d)",
					ErrInvalidConfig, s, sensors)
			}
			if seen[s] {
				return fmt.Errorf("%w: duplicate reference sensor %d", ErrInvalidConfig, s)
			}
			seen[s] = true
		}
		if len(c.Cancel.ReferenceSensors) == sensors {
			return fmt.Errorf("%w: all sensors are references, nothing to denoise", ErrInvalidConfig)
		}
	}

	if c.Projection.Enabled && len(c.Projection.Orientations) != sensors {
		return fmt.Errorf("%w: %d orientations for %d sensors",
			ErrInvalidConfig, len(c.Projection.Orientations), sensors)
	}

	return nil
}
