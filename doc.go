// Package denoiser provides adaptive denoising for dual-axis optically
// pumped magnetometer (OPM) recordings in pure Go.
//
// The pipeline combines four techniques commonly used in magnetoencephalography
// preprocessing: lock-in gain calibration against a known reference tone,
// cascaded zero-phase FIR notch filtering, recursive-least-squares (RLS)
// cancellation against dedicated reference sensors, and homogeneous field
// compensation (HFC) built from the sensor orientation geometry.
//
// # Features
//
//   - Lock-in calibration: quadrature demodulation of the calibration tone
//     yields a per-sample gain envelope normalizing each channel to a target peak
//   - Cascaded notch filtering: Kaiser-designed band-stop FIR filters applied
//     forward-backward for exact zero phase, repeated to deepen attenuation
//   - RLS cancellation: online regression against reference channels with an
//     ordinary-least-squares warmup and explicit two-state adaptation
//   - Homogeneous field compensation: SVD-based orthogonal projection removing
//     the spatially uniform field component across the array
//   - Per-channel goroutine parallelism in the channel-independent stages
//   - Per-stage variance-reduction diagnostics and fallback warnings
//
// # Quick Start
//
// For one-shot denoising of a dual-axis recording:
//
//	rec := &denoiser.Recording{AxisY: ych, AxisZ: zch, SampleRate: 4800}
//	cfg := denoiser.DefaultConfig(240.0, 62400.0)
//	result, err := denoiser.Denoise(rec, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// For repeated runs with the same configuration, build the pipeline once:
//
//	p := denoiser.New(cfg)
//	for _, rec := range recordings {
//	    result, err := p.Process(rec)
//	    ...
//	}
//
// Stages are individually switchable; a disabled stage passes data through
// with its diagnostics reported as zero. Degenerate inputs (a notch frequency
// above Nyquist, a failed filter design, a rank-zero orientation matrix) do
// not abort the run: the affected stage skips its work and records a warning
// in Result.Diagnostics.Warnings.
package denoiser
