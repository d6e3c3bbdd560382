package denoiser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-opm-denoiser/internal/testutil"
)

const (
	testSampleRate = 4800
	testNumSamples = testSampleRate // 1 second
	testNumSensors = 5
	testToneFreq   = 240.0
	testToneAmp    = 62400.0

	// Spectral search half-width around the calibration tone (Hz)
	testSearchHz = 3.0
)

// testRecording builds a dual-axis recording containing the calibration
// tone plus 10x weaker broadband noise on every channel.
func testRecording() *Recording {
	rec := &Recording{
		AxisY:      make([][]float64, testNumSensors),
		AxisZ:      make([][]float64, testNumSensors),
		SampleRate: testSampleRate,
	}
	for s := 0; s < testNumSensors; s++ {
		rec.AxisY[s] = testutil.Sine(testNumSamples, testToneAmp, testToneFreq, 0.1*float64(s), testSampleRate)
		rec.AxisZ[s] = testutil.Sine(testNumSamples, testToneAmp, testToneFreq, 0.1*float64(s)+0.05, testSampleRate)
		testutil.AddNoise(rec.AxisY[s], testToneAmp/10, int64(s))
		testutil.AddNoise(rec.AxisZ[s], testToneAmp/10, int64(s)+100)
	}
	return rec
}

func TestRecordingValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Recording)
	}{
		{"zero sample rate", func(r *Recording) { r.SampleRate = 0 }},
		{"no sensors", func(r *Recording) { r.AxisY = nil }},
		{"axis count mismatch", func(r *Recording) { r.AxisZ = r.AxisZ[:len(r.AxisZ)-1] }},
		{"ragged samples", func(r *Recording) { r.AxisZ[2] = r.AxisZ[2][:100] }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testRecording()
			tt.mutate(rec)
			assert.Error(t, rec.Validate())
		})
	}

	rec := testRecording()
	assert.NoError(t, rec.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"cancel without references", func(c *Config) {
			c.Cancel.Enabled = true
			c.Cancel.ReferenceSensors = nil
		}},
		{"reference out of range", func(c *Config) {
			c.Cancel.Enabled = true
			c.Cancel.ReferenceSensors = []int{testNumSensors}
		}},
		{"duplicate reference", func(c *Config) {
			c.Cancel.Enabled = true
			c.Cancel.ReferenceSensors = []int{1, 1}
		}},
		{"all sensors are references", func(c *Config) {
			c.Cancel.Enabled = true
			c.Cancel.ReferenceSensors = []int{0, 1, 2, 3, 4}
		}},
		{"orientation count mismatch", func(c *Config) {
			c.Projection.Enabled = true
			c.Projection.Orientations = make([]Orientation, testNumSensors-1)
		}},
		{"bad axis mode", func(c *Config) { c.Axis = AxisMode(42) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(testToneFreq, testToneAmp)
			tt.mutate(&cfg)
			err := cfg.Validate(testNumSensors)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestPipelineShapePreserved(t *testing.T) {
	rec := testRecording()
	cfg := DefaultConfig(testToneFreq, testToneAmp)

	result, err := Denoise(rec, cfg)
	require.NoError(t, err)

	assert.Equal(t, AxisBoth, result.Axis)
	assert.Equal(t, testSampleRate, result.SampleRate)
	require.Len(t, result.Data, axesPerSensor*testNumSensors)
	for ch := range result.Data {
		assert.Len(t, result.Data[ch], testNumSamples, "channel %d", ch)
		testutil.AssertNoNaNOrInf(t, result.Data[ch])
	}
}

// TestPipelineRemovesCalibrationTone runs the full calibrate-then-notch
// sequence on a synthetic tone-plus-noise recording and checks the tone's
// spectral peak drops by at least 40 dB.
func TestPipelineRemovesCalibrationTone(t *testing.T) {
	rec := testRecording()
	cfg := DefaultConfig(testToneFreq, testToneAmp)

	before := testutil.PeakPowerDB(rec.AxisY[0], testToneFreq, testSearchHz, testSampleRate)

	result, err := Denoise(rec, cfg)
	require.NoError(t, err)
	assert.Empty(t, result.Diagnostics.Warnings)

	after := testutil.PeakPowerDB(result.Data[0], testToneFreq, testSearchHz, testSampleRate)
	assert.Less(t, after, before-40.0,
		"tone peak not reduced by 40 dB (before=%f dB, after=%f dB)", before, after)

	// Removing the dominant tone must show up as a large variance drop.
	assert.Greater(t, result.Diagnostics.NotchPercent, 50.0)
}

func TestPipelineAxisSelection(t *testing.T) {
	rec := testRecording()

	for _, mode := range []AxisMode{AxisY, AxisZ} {
		t.Run(mode.String(), func(t *testing.T) {
			cfg := DefaultConfig(testToneFreq, testToneAmp)
			cfg.Axis = mode

			result, err := Denoise(rec, cfg)
			require.NoError(t, err)
			assert.Equal(t, mode, result.Axis)
			assert.Len(t, result.Data, testNumSensors)
		})
	}
}

func TestPipelineCancellation(t *testing.T) {
	// Sensor 0 is a pure noise reference carrying two independent
	// interference sources on its axes; the remaining sensors see those
	// sources scaled per channel. RLS should strip both.
	rec := &Recording{
		AxisY:      make([][]float64, testNumSensors),
		AxisZ:      make([][]float64, testNumSensors),
		SampleRate: testSampleRate,
	}
	srcA := testutil.Sine(testNumSamples, 1.0, 37.0, 0, testSampleRate)
	srcB := testutil.Sine(testNumSamples, 1.0, 59.0, 0.4, testSampleRate)
	rec.AxisY[0] = srcA
	rec.AxisZ[0] = srcB
	for s := 1; s < testNumSensors; s++ {
		rec.AxisY[s] = make([]float64, testNumSamples)
		rec.AxisZ[s] = make([]float64, testNumSamples)
		for i := range srcA {
			rec.AxisY[s][i] = float64(s+1) * srcA[i]
			rec.AxisZ[s][i] = float64(s+1)*srcB[i] - srcA[i]
		}
	}

	cfg := Config{
		Cancel: CancelSpec{
			Enabled:          true,
			ReferenceSensors: []int{0},
		},
		Axis: AxisBoth,
	}

	result, err := Denoise(rec, cfg)
	require.NoError(t, err)

	// Reference rows pass through demeaned but otherwise untouched.
	for i := range srcA {
		assert.InDelta(t, rec.AxisY[0][i], result.Data[0][i], 1e-9,
			"reference channel modified at sample %d", i)
	}

	// Target rows converge to zero residual once adaptation settles.
	half := testNumSamples / 2
	for _, row := range []int{2, 3, 8, 9} {
		for i := half; i < testNumSamples; i++ {
			assert.InDelta(t, 0.0, result.Data[row][i], 1e-6,
				"row %d sample %d", row, i)
		}
	}
	// Warmup passthrough keeps some residual variance in the first samples.
	assert.Greater(t, result.Diagnostics.CancelPercent, 85.0)
}

func TestPipelineProjection(t *testing.T) {
	// A spatially uniform field along Y appears identically on every
	// Y channel; HFC should remove it while reporting rank 2.
	rec := &Recording{
		AxisY:      make([][]float64, testNumSensors),
		AxisZ:      make([][]float64, testNumSensors),
		SampleRate: testSampleRate,
	}
	field := testutil.Sine(testNumSamples, 1.0, 13.0, 0, testSampleRate)
	for s := 0; s < testNumSensors; s++ {
		rec.AxisY[s] = append([]float64(nil), field...)
		rec.AxisZ[s] = make([]float64, testNumSamples)
	}

	orientations := make([]Orientation, testNumSensors)
	for s := range orientations {
		orientations[s] = Orientation{Y: [3]float64{0, 1, 0}, Z: [3]float64{0, 0, 1}}
	}

	cfg := Config{
		Projection: ProjectionSpec{Enabled: true, Orientations: orientations},
		Axis:       AxisBoth,
	}

	result, err := Denoise(rec, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Diagnostics.ProjectionRank)
	assert.Greater(t, result.Diagnostics.ProjectionPercent, 99.0)

	for ch := range result.Data {
		for i, v := range result.Data[ch] {
			assert.InDelta(t, 0.0, v, 1e-9, "channel %d sample %d", ch, i)
		}
	}
}

func TestPipelineDegenerateProjectionWarns(t *testing.T) {
	rec := testRecording()

	cfg := DefaultConfig(testToneFreq, testToneAmp)
	cfg.Projection.Enabled = true
	cfg.Projection.Orientations = make([]Orientation, testNumSensors) // all zero

	result, err := Denoise(rec, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Diagnostics.ProjectionRank)
	assert.Equal(t, 0.0, result.Diagnostics.ProjectionPercent)

	found := false
	for _, w := range result.Diagnostics.Warnings {
		if strings.Contains(w, "rank 0") {
			found = true
		}
	}
	assert.True(t, found, "expected a rank-0 projection warning, got %v", result.Diagnostics.Warnings)
}

func TestPipelineNotchAboveNyquistWarns(t *testing.T) {
	rec := testRecording()

	cfg := DefaultConfig(testToneFreq, testToneAmp)
	cfg.Calibration.Enabled = false
	cfg.Notch.Frequencies = []float64{3000.0} // above Nyquist for 4800 Hz

	result, err := Denoise(rec, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, result.Diagnostics.Warnings)

	// Skipped notch must leave the demeaned data untouched.
	assert.InDelta(t, 0.0, result.Diagnostics.NotchPercent, 1e-12)
}

func TestPipelineParallelMatchesSequential(t *testing.T) {
	rec := testRecording()

	cfg := DefaultConfig(testToneFreq, testToneAmp)
	seq, err := Denoise(rec, cfg)
	require.NoError(t, err)

	cfg.Parallel = true
	par, err := Denoise(rec, cfg)
	require.NoError(t, err)

	testutil.AssertSameShape(t, seq.Data, par.Data)
	for ch := range seq.Data {
		assert.Equal(t, seq.Data[ch], par.Data[ch], "channel %d differs", ch)
	}
}

func TestPipelineDisabledStagesPassThrough(t *testing.T) {
	rec := testRecording()

	cfg := Config{Axis: AxisBoth} // everything disabled
	result, err := Denoise(rec, cfg)
	require.NoError(t, err)

	// Output equals the demeaned input.
	combined := Interleave(demeanMatrix(rec.AxisY), demeanMatrix(rec.AxisZ))
	for ch := range result.Data {
		assert.Equal(t, combined[ch], result.Data[ch], "channel %d", ch)
	}
	assert.Empty(t, result.Diagnostics.Warnings)
}
