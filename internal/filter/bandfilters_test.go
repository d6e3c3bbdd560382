package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-opm-denoiser/internal/testutil"
)

const (
	// Band edges for a notch around 0.05 (normalized). The tap count keeps
	// the Kaiser transition width well inside the band half-width.
	testBandLow    = 0.04
	testBandHigh   = 0.06
	testBandCenter = 0.05

	// Band edges for the band-pass test
	testPassLow  = 0.04
	testPassHigh = 0.06

	testBandTaps = 2001
	testBandAtt  = 80.0

	// Attenuation expectations (dB)
	notchDepthDB    = -60.0
	passbandFlatDB  = 0.1
	stopbandFloorDB = -60.0
)

// TestDesignBandStopFilter_NotchDepth verifies strong attenuation at the
// notch center and unity gain away from it.
func TestDesignBandStopFilter_NotchDepth(t *testing.T) {
	coeffs, err := DesignBandStopFilter(BandParams{
		NumTaps:     testBandTaps,
		LowFreq:     testBandLow,
		HighFreq:    testBandHigh,
		Attenuation: testBandAtt,
	})
	require.NoError(t, err)
	require.Len(t, coeffs, testBandTaps)

	testutil.AssertSymmetric(t, coeffs, windowTolerance)
	testutil.AssertNoNaNOrInf(t, coeffs)

	// Unity DC gain
	testutil.AssertDCGain(t, coeffs, 1.0, 1e-9)

	// Deep notch at center
	centerDB := MagnitudeDB(magnitudeAt(coeffs, testBandCenter))
	assert.Less(t, centerDB, notchDepthDB,
		"notch depth at center: %f dB", centerDB)

	// Flat passband far from the notch
	for _, f := range []float64{0.01, 0.1, 0.2, 0.4} {
		db := MagnitudeDB(magnitudeAt(coeffs, f))
		assert.InDelta(t, 0.0, db, passbandFlatDB,
			"passband ripple at f=%f: %f dB", f, db)
	}
}

// TestDesignBandPassFilter_CenterGain verifies unity gain at band center and
// rejection outside the band.
func TestDesignBandPassFilter_CenterGain(t *testing.T) {
	coeffs, err := DesignBandPassFilter(BandParams{
		NumTaps:     testBandTaps,
		LowFreq:     testPassLow,
		HighFreq:    testPassHigh,
		Attenuation: testBandAtt,
	})
	require.NoError(t, err)

	center := (testPassLow + testPassHigh) / 2
	centerDB := MagnitudeDB(magnitudeAt(coeffs, center))
	assert.InDelta(t, 0.0, centerDB, 0.01, "center gain should be unity")

	// DC rejection
	dcDB := MagnitudeDB(magnitudeAt(coeffs, 0.0))
	assert.Less(t, dcDB, stopbandFloorDB, "band-pass should reject DC")

	// Far stopband rejection
	farDB := MagnitudeDB(magnitudeAt(coeffs, 0.25))
	assert.Less(t, farDB, stopbandFloorDB, "band-pass should reject far stopband")
}

// TestBandParams_Validate exercises parameter validation.
func TestBandParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		params BandParams
	}{
		{"even taps", BandParams{NumTaps: 100, LowFreq: 0.1, HighFreq: 0.2, Attenuation: 80}},
		{"low above high", BandParams{NumTaps: 101, LowFreq: 0.3, HighFreq: 0.2, Attenuation: 80}},
		{"low at zero", BandParams{NumTaps: 101, LowFreq: 0, HighFreq: 0.2, Attenuation: 80}},
		{"high at nyquist", BandParams{NumTaps: 101, LowFreq: 0.1, HighFreq: 0.5, Attenuation: 80}},
		{"negative attenuation", BandParams{NumTaps: 101, LowFreq: 0.1, HighFreq: 0.2, Attenuation: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.params.Validate())
		})
	}
}
