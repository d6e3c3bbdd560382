package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	denoiser "github.com/tphakala/go-opm-denoiser"
)

func TestParseAxisMode(t *testing.T) {
	tests := []struct {
		in      string
		want    denoiser.AxisMode
		wantErr bool
	}{
		{"both", denoiser.AxisBoth, false},
		{"y", denoiser.AxisY, false},
		{"Z", denoiser.AxisZ, false},
		{"sideways", 0, true},
	}
	for _, tt := range tests {
		got, err := parseAxisMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseIndexList(t *testing.T) {
	got, err := parseIndexList("0, 3,7")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 7}, got)

	_, err = parseIndexList("1,-2")
	assert.Error(t, err)

	_, err = parseIndexList("1,x")
	assert.Error(t, err)
}

func TestParseFreqList(t *testing.T) {
	got, err := parseFreqList("50, 60.5")
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 60.5}, got)

	_, err = parseFreqList("50,0")
	assert.Error(t, err)
}

func TestFrameChannelRoundTrip(t *testing.T) {
	frames := []int{1, -1, 2, -2, 3, -3}

	channels := framesToChannels(frames, 2)
	require.Len(t, channels, 2)
	assert.Equal(t, []float64{1, 2, 3}, channels[0])
	assert.Equal(t, []float64{-1, -2, -3}, channels[1])

	back := channelsToFrames(channels, 16)
	assert.Equal(t, frames, back)
}

func TestChannelsToFramesClamps(t *testing.T) {
	channels := [][]float64{{40000.0, -40000.0}}
	out := channelsToFrames(channels, 16)
	assert.Equal(t, []int{32767, -32768}, out)
}
