package denoiser

import "fmt"

// Interleave merges two single-axis channel sets into one double-width
// matrix with sensor i's axes adjacent: row 2i is the Y channel, row 2i+1
// the Z channel. Rows are shared, not copied.
func Interleave(axisY, axisZ [][]float64) [][]float64 {
	out := make([][]float64, 0, axesPerSensor*len(axisY))
	for s := range axisY {
		out = append(out, axisY[s], axisZ[s])
	}
	return out
}

// Deinterleave splits an interleaved matrix back into per-axis channel
// sets. Rows are shared, not copied.
func Deinterleave(combined [][]float64) (axisY, axisZ [][]float64) {
	sensors := len(combined) / axesPerSensor
	axisY = make([][]float64, 0, sensors)
	axisZ = make([][]float64, 0, sensors)
	for s := 0; s < sensors; s++ {
		axisY = append(axisY, combined[axesPerSensor*s])
		axisZ = append(axisZ, combined[axesPerSensor*s+1])
	}
	return axisY, axisZ
}

// Denoise is a convenience function for one-shot processing: it creates a
// pipeline for the configuration and runs the recording through it.
func Denoise(rec *Recording, config Config) (*Result, error) {
	return New(config).Process(rec)
}

// DenoiseInterleaved is like Denoise but accepts an already-interleaved
// matrix (sensor i on rows 2i and 2i+1) as produced by typical acquisition
// containers. The row count must be even.
func DenoiseInterleaved(combined [][]float64, sampleRate int, config Config) (*Result, error) {
	if len(combined)%axesPerSensor != 0 {
		return nil, fmt.Errorf("%w: interleaved matrix has odd channel count %d",
			ErrShapeMismatch, len(combined))
	}
	axisY, axisZ := Deinterleave(combined)
	return Denoise(&Recording{AxisY: axisY, AxisZ: axisZ, SampleRate: sampleRate}, config)
}
