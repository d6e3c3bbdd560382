// Command denoise-wav runs the OPM denoising pipeline over a multichannel
// WAV container. Channels are expected in interleaved dual-axis order:
// sensor i occupies channels 2i (Y axis) and 2i+1 (Z axis).
//
// Usage:
//
//	denoise-wav -tone 240 -target 62400 input.wav output.wav
//	denoise-wav -tone 240 -target 62400 -refs 0,1 input.wav output.wav
//	denoise-wav -tone 240 -target 62400 -axis y -v input.wav output.wav
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	denoiser "github.com/tphakala/go-opm-denoiser"
)

const (
	minRequiredArgs = 2

	// CLI defaults
	defaultToneFreq  = 240.0
	defaultBandwidth = 10.0
	defaultCascade   = 6
	defaultLambda    = 0.999
	defaultWarmup    = 400
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	tone := flag.Float64("tone", defaultToneFreq, "Calibration tone frequency in Hz")
	target := flag.Float64("target", 0, "Calibration target peak amplitude in raw sample units (required)")
	bandwidth := flag.Float64("bandwidth", defaultBandwidth, "Notch stopband width in Hz")
	cascade := flag.Int("cascade", defaultCascade, "Notch cascade count")
	notches := flag.String("notch", "", "Additional notch frequencies in Hz, comma-separated (e.g. 50,60)")
	refs := flag.String("refs", "", "Reference sensor indices for RLS cancellation, comma-separated")
	lambda := flag.Float64("lambda", defaultLambda, "RLS forgetting factor")
	warmup := flag.Int("warmup", defaultWarmup, "RLS warmup sample count")
	axis := flag.String("axis", "both", "Output axes: both, y, or z")
	parallel := flag.Bool("parallel", true, "Enable parallel channel processing")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav output.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -tone 240 -target 62400 rec.wav clean.wav\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -tone 240 -target 62400 -refs 0 -axis y rec.wav clean.wav\n", os.Args[0])
		return fmt.Errorf("insufficient arguments")
	}
	if *target <= 0 {
		return fmt.Errorf("-target is required and must be positive")
	}

	axisMode, err := parseAxisMode(*axis)
	if err != nil {
		return err
	}

	channels, sampleRate, bitDepth, err := readWAVChannels(args[0], *verbose)
	if err != nil {
		return err
	}
	if len(channels)%2 != 0 {
		return fmt.Errorf("input has %d channels, dual-axis layout requires an even count", len(channels))
	}

	cfg := denoiser.DefaultConfig(*tone, *target)
	cfg.Notch.Bandwidth = *bandwidth
	cfg.Notch.Cascade = *cascade
	cfg.Axis = axisMode
	cfg.Parallel = *parallel

	if *notches != "" {
		extra, err := parseFreqList(*notches)
		if err != nil {
			return fmt.Errorf("invalid -notch list: %w", err)
		}
		cfg.Notch.Frequencies = append(cfg.Notch.Frequencies, extra...)
	}

	if *refs != "" {
		sensors, err := parseIndexList(*refs)
		if err != nil {
			return fmt.Errorf("invalid -refs list: %w", err)
		}
		cfg.Cancel.Enabled = true
		cfg.Cancel.ReferenceSensors = sensors
		cfg.Cancel.Lambda = *lambda
		cfg.Cancel.MinSamples = *warmup
	}

	start := time.Now()
	result, err := denoiser.DenoiseInterleaved(channels, sampleRate, cfg)
	if err != nil {
		return fmt.Errorf("denoising failed: %w", err)
	}

	if *verbose {
		elapsed := time.Since(start)
		log.Printf("Processed %d channels x %d samples in %v",
			len(channels), len(channels[0]), elapsed)
		printDiagnostics(&result.Diagnostics)
	}

	if err := writeWAVChannels(args[1], result.Data, sampleRate, bitDepth); err != nil {
		return err
	}

	if *verbose {
		log.Printf("Wrote %s (%d channels, axis=%s)", args[1], len(result.Data), result.Axis)
	}
	return nil
}

// printDiagnostics logs the per-stage summary.
func printDiagnostics(d *denoiser.Diagnostics) {
	log.Printf("Stage variance change: calibration %.2f%%, notch %.2f%%, cancellation %.2f%%, projection %.2f%% (rank %d)",
		d.CalibrationPercent, d.NotchPercent, d.CancelPercent, d.ProjectionPercent, d.ProjectionRank)
	for _, w := range d.Warnings {
		log.Printf("Warning: %s", w)
	}
}
