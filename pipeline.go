package denoiser

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/tphakala/go-opm-denoiser/internal/hfc"
	"github.com/tphakala/go-opm-denoiser/internal/lockin"
	"github.com/tphakala/go-opm-denoiser/internal/notch"
	"github.com/tphakala/go-opm-denoiser/internal/rls"
)

// Diagnostics summarizes what each stage did to the data. Reduction
// percentages are 100·(1 − variance after / variance before) aggregated
// across all channels a stage touched; a skipped or disabled stage reports
// zero. Calibration rescales channels toward the target peak, so its figure
// can legitimately be negative.
type Diagnostics struct {
	// CalibrationPercent is the variance change from lock-in calibration.
	CalibrationPercent float64

	// NotchPercent is the variance reduction from notch filtering.
	NotchPercent float64

	// CancelPercent is the variance reduction across RLS target channels.
	CancelPercent float64

	// ProjectionPercent is the variance reduction from field compensation.
	ProjectionPercent float64

	// ProjectionRank is the dimension of the removed homogeneous subspace.
	ProjectionRank int

	// Warnings records every skip and fallback taken during the run.
	Warnings []string
}

// Result holds the pipeline output.
type Result struct {
	// Data is the denoised matrix. With AxisBoth, sensor i occupies rows
	// 2i (Y) and 2i+1 (Z); with a single-axis mode, one row per sensor.
	Data [][]float64

	// SampleRate in Hz, unchanged from the input recording.
	SampleRate int

	// Axis is the layout of Data.
	Axis AxisMode

	// Diagnostics summarizes per-stage behavior.
	Diagnostics Diagnostics
}

// Pipeline runs the dual-axis denoising sequence: per-axis baseline
// correction, lock-in calibration and notch filtering, then cross-axis RLS
// cancellation and homogeneous field compensation on the interleaved
// matrix, and finally axis selection. A Pipeline is stateless between calls
// and safe for concurrent use.
type Pipeline struct {
	config Config
}

// New creates a pipeline. Optional zero-valued config fields are filled
// with defaults; geometry-dependent validation happens in Process, where
// the recording's sensor count is known.
func New(config Config) *Pipeline {
	return &Pipeline{config: config.withDefaults()}
}

// Process denoises one recording. The input matrices are not modified.
func (p *Pipeline) Process(rec *Recording) (*Result, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if err := p.config.Validate(rec.Sensors()); err != nil {
		return nil, err
	}

	var diag Diagnostics

	// Baseline correction: remove each channel's mean so filtering and
	// regression operate on zero-centered data.
	axisY := demeanMatrix(rec.AxisY)
	axisZ := demeanMatrix(rec.AxisZ)

	var err error
	axisY, axisZ, err = p.calibrate(rec.SampleRate, axisY, axisZ, &diag)
	if err != nil {
		return nil, err
	}

	axisY, axisZ, err = p.notchFilter(rec.SampleRate, axisY, axisZ, &diag)
	if err != nil {
		return nil, err
	}

	// Cross-axis stages operate on the interleaved layout.
	combined := Interleave(axisY, axisZ)

	combined, err = p.cancel(combined, &diag)
	if err != nil {
		return nil, err
	}

	combined, err = p.project(combined, &diag)
	if err != nil {
		return nil, err
	}

	return &Result{
		Data:        selectAxis(combined, p.config.Axis),
		SampleRate:  rec.SampleRate,
		Axis:        p.config.Axis,
		Diagnostics: diag,
	}, nil
}

// calibrate runs lock-in calibration on both axes.
func (p *Pipeline) calibrate(rate int, axisY, axisZ [][]float64, diag *Diagnostics) ([][]float64, [][]float64, error) {
	if !p.config.Calibration.Enabled {
		return axisY, axisZ, nil
	}

	spec := p.config.Calibration
	cal, err := lockin.New(lockin.Params{
		SampleRate:    rate,
		RefFreq:       spec.RefFreq,
		TargetPeak:    spec.TargetPeak,
		BandHalfWidth: spec.BandHalfWidth,
		LowPassCutoff: spec.LowPassCutoff,
		FilterOrder:   spec.FilterOrder,
		FloorFraction: spec.FloorFraction,
		Attenuation:   p.config.Attenuation,
		Parallel:      p.config.Parallel,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: calibration: %s", ErrInvalidConfig, err)
	}
	for _, w := range cal.Warnings() {
		diag.Warnings = append(diag.Warnings, "calibration: "+w)
	}

	outY, err := cal.Process(axisY)
	if err != nil {
		return nil, nil, fmt.Errorf("calibration: %w", err)
	}
	outZ, err := cal.Process(axisZ)
	if err != nil {
		return nil, nil, fmt.Errorf("calibration: %w", err)
	}

	diag.CalibrationPercent = reductionPercent(
		append(append([][]float64{}, axisY...), axisZ...),
		append(append([][]float64{}, outY...), outZ...))
	return outY, outZ, nil
}

// notchFilter runs cascaded notch filtering on both axes.
func (p *Pipeline) notchFilter(rate int, axisY, axisZ [][]float64, diag *Diagnostics) ([][]float64, [][]float64, error) {
	if !p.config.Notch.Enabled || len(p.config.Notch.Frequencies) == 0 {
		return axisY, axisZ, nil
	}

	spec := p.config.Notch
	nf, err := notch.New(notch.Params{
		SampleRate:  rate,
		Frequencies: spec.Frequencies,
		Bandwidth:   spec.Bandwidth,
		Order:       spec.Order,
		Cascade:     spec.Cascade,
		Attenuation: p.config.Attenuation,
		Parallel:    p.config.Parallel,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: notch: %s", ErrInvalidConfig, err)
	}
	for _, w := range nf.Warnings() {
		diag.Warnings = append(diag.Warnings, "notch: "+w)
	}

	outY, err := nf.Process(axisY)
	if err != nil {
		return nil, nil, fmt.Errorf("notch: %w", err)
	}
	outZ, err := nf.Process(axisZ)
	if err != nil {
		return nil, nil, fmt.Errorf("notch: %w", err)
	}

	diag.NotchPercent = reductionPercent(
		append(append([][]float64{}, axisY...), axisZ...),
		append(append([][]float64{}, outY...), outZ...))
	return outY, outZ, nil
}

// cancel runs RLS cancellation on the interleaved matrix. Reference
// channels pass through unchanged at their original row positions.
func (p *Pipeline) cancel(combined [][]float64, diag *Diagnostics) ([][]float64, error) {
	if !p.config.Cancel.Enabled {
		return combined, nil
	}

	refRows := make(map[int]bool, axesPerSensor*len(p.config.Cancel.ReferenceSensors))
	for _, s := range p.config.Cancel.ReferenceSensors {
		refRows[axesPerSensor*s] = true
		refRows[axesPerSensor*s+1] = true
	}

	var refs, targets [][]float64
	var targetRows []int
	for row, ch := range combined {
		if refRows[row] {
			refs = append(refs, ch)
		} else {
			targets = append(targets, ch)
			targetRows = append(targetRows, row)
		}
	}

	residuals, res, err := rls.Run(refs, targets, rls.Params{
		Lambda:     p.config.Cancel.Lambda,
		MinSamples: p.config.Cancel.MinSamples,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: cancellation: %s", ErrInvalidConfig, err)
	}

	out := make([][]float64, len(combined))
	for row, ch := range combined {
		if refRows[row] {
			out[row] = ch
		}
	}
	for j, row := range targetRows {
		out[row] = residuals[j]
	}

	diag.CancelPercent = res.ReductionPercent
	return out, nil
}

// project runs homogeneous field compensation on the interleaved matrix.
func (p *Pipeline) project(combined [][]float64, diag *Diagnostics) ([][]float64, error) {
	if !p.config.Projection.Enabled {
		return combined, nil
	}

	rows := make([][3]float64, 0, axesPerSensor*len(p.config.Projection.Orientations))
	for _, o := range p.config.Projection.Orientations {
		rows = append(rows, o.Y, o.Z)
	}

	proj, err := hfc.New(hfc.Params{
		Orientations: rows,
		TolScale:     p.config.Projection.TolScale,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: projection: %s", ErrInvalidConfig, err)
	}
	for _, w := range proj.Warnings() {
		diag.Warnings = append(diag.Warnings, "projection: "+w)
	}

	out, res, err := proj.Process(combined)
	if err != nil {
		return nil, fmt.Errorf("%w: projection: %s", ErrShapeMismatch, err)
	}

	diag.ProjectionPercent = res.ReductionPercent
	diag.ProjectionRank = res.Rank
	return out, nil
}

// demeanMatrix returns a copy of the matrix with each channel's mean
// removed.
func demeanMatrix(data [][]float64) [][]float64 {
	out := make([][]float64, len(data))
	for ch, row := range data {
		mean := stat.Mean(row, nil)
		out[ch] = make([]float64, len(row))
		for i, v := range row {
			out[ch][i] = v - mean
		}
	}
	return out
}

// selectAxis narrows an interleaved matrix to the requested axis rows.
func selectAxis(combined [][]float64, mode AxisMode) [][]float64 {
	if mode == AxisBoth {
		return combined
	}

	offset := 0
	if mode == AxisZ {
		offset = 1
	}
	out := make([][]float64, 0, len(combined)/axesPerSensor)
	for row := offset; row < len(combined); row += axesPerSensor {
		out = append(out, combined[row])
	}
	return out
}

// reductionPercent computes the aggregate variance reduction across
// channels.
func reductionPercent(before, after [][]float64) float64 {
	var varBefore, varAfter float64
	for ch := range before {
		varBefore += stat.Variance(before[ch], nil)
		varAfter += stat.Variance(after[ch], nil)
	}
	if varBefore == 0 {
		return 0
	}
	return 100 * (1 - varAfter/varBefore)
}
