package denoiser

// Channel constants
const (
	axesPerSensor = 2   // Y and Z measurement axes per sensor
	maxSensors    = 256 // Maximum supported sensor count
)

// Default calibration parameters
const (
	defaultBandHalfWidth = 20.0 // Hz around the calibration tone
	defaultLowPassCutoff = 10.0 // Hz for the envelope smoother
	defaultCalibOrder    = 800  // band-pass FIR order (even)
	defaultFloorFraction = 0.01 // amplitude floor as fraction of target peak
)

// Default notch parameters
const (
	defaultNotchBandwidth = 10.0 // Hz, full stopband width
	defaultNotchOrder     = 1600 // band-stop FIR order (even)
	defaultNotchCascade   = 6    // zero-phase passes per frequency
)

// Default adaptive cancellation parameters
const (
	defaultLambda     = 0.999 // forgetting factor
	defaultMinSamples = 400   // warmup length before adaptation
)

// Shared filter design parameters
const (
	// defaultAttenuation is the Kaiser design stopband depth per pass in
	// dB. Cascaded zero-phase passes stack it, so a moderate per-pass
	// value keeps filter lengths practical at narrow bandwidths.
	defaultAttenuation = 40.0
)
