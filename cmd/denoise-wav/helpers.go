package main

import (
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	denoiser "github.com/tphakala/go-opm-denoiser"
)

// parseAxisMode maps the -axis flag value to an AxisMode.
func parseAxisMode(s string) (denoiser.AxisMode, error) {
	switch strings.ToLower(s) {
	case "both":
		return denoiser.AxisBoth, nil
	case "y":
		return denoiser.AxisY, nil
	case "z":
		return denoiser.AxisZ, nil
	default:
		return 0, fmt.Errorf("unknown axis %q (want both, y, or z)", s)
	}
}

// parseIndexList parses a comma-separated list of non-negative integers.
func parseIndexList(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad index %q: %w", p, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("negative index %d", v)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseFreqList parses a comma-separated list of positive frequencies.
func parseFreqList(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad frequency %q: %w", p, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("non-positive frequency %g", v)
		}
		out = append(out, v)
	}
	return out, nil
}

// readWAVChannels decodes a whole WAV file into per-channel float64 slices
// of raw sample values.
func readWAVChannels(path string, verbose bool) ([][]float64, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, 0, fmt.Errorf("invalid WAV file: %s", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	rate := buf.Format.SampleRate
	numChannels := buf.Format.NumChannels
	bitDepth := int(decoder.BitDepth)

	if verbose {
		log.Printf("Input format: %d Hz, %d channels, %d-bit", rate, numChannels, bitDepth)
	}

	return framesToChannels(buf.Data, numChannels), rate, bitDepth, nil
}

// framesToChannels converts frame-interleaved samples into per-channel
// slices.
func framesToChannels(data []int, numChannels int) [][]float64 {
	frames := len(data) / numChannels
	out := make([][]float64, numChannels)
	for ch := range out {
		out[ch] = make([]float64, frames)
		for i := 0; i < frames; i++ {
			out[ch][i] = float64(data[i*numChannels+ch])
		}
	}
	return out
}

// channelsToFrames converts per-channel slices back into frame-interleaved
// integer samples, clamping to the bit depth's range.
func channelsToFrames(channels [][]float64, bitDepth int) []int {
	if len(channels) == 0 {
		return nil
	}
	frames := len(channels[0])
	maxVal := float64(int(1)<<(bitDepth-1)) - 1
	minVal := -maxVal - 1

	out := make([]int, frames*len(channels))
	for ch := range channels {
		for i, v := range channels[ch] {
			v = math.Round(v)
			if v > maxVal {
				v = maxVal
			} else if v < minVal {
				v = minVal
			}
			out[i*len(channels)+ch] = int(v)
		}
	}
	return out
}

// writeWAVChannels encodes per-channel float64 slices into a PCM WAV file.
func writeWAVChannels(path string, channels [][]float64, sampleRate, bitDepth int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, len(channels), 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: len(channels),
			SampleRate:  sampleRate,
		},
		Data:           channelsToFrames(channels, bitDepth),
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to finalize WAV: %w", err)
	}
	return f.Close()
}
