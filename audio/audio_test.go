package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n, rate int, freq float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestClipRange(t *testing.T) {
	samples := make([]float32, 100)
	for i := range samples {
		samples[i] = float32(i)
	}

	tests := []struct {
		name       string
		start, end float64
		want       int
		first      float32
	}{
		{"inside", 0.1, 0.2, 10, 10},
		{"past end is clipped", 0.9, 5.0, 10, 90},
		{"negative start is clipped", -1, 0.05, 5, 0},
		{"fully past end", 2.0, 3.0, 0, 0},
		{"inverted", 0.5, 0.4, 0, 0},
		{"zero length", 0.3, 0.3, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClipRange(samples, 100, tt.start, tt.end)
			assert.Len(t, got, tt.want)
			if tt.want > 0 {
				assert.Equal(t, tt.first, got[0])
			}
		})
	}
}

func TestBuffer_Seconds(t *testing.T) {
	b := &Buffer{Samples: make([]float32, 24000), SampleRate: 16000}
	assert.InDelta(t, 1.5, b.Seconds(), 1e-9)
	assert.Equal(t, "1.5s", b.Duration().String())
}

func TestWAV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	in := sine(TargetSampleRate/2, TargetSampleRate, 440)
	require.NoError(t, WriteWAV(path, in, TargetSampleRate))

	buf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TargetSampleRate, buf.SampleRate)
	require.Len(t, buf.Samples, len(in))
	for i := 0; i < len(in); i += 997 {
		assert.InDelta(t, in[i], buf.Samples[i], 1e-3)
	}
}

func TestLoadRate_KeepsMatchingRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	in := sine(8000, 8000, 440)
	require.NoError(t, WriteWAV(path, in, 8000))

	buf, err := LoadRate(path, 8000)
	require.NoError(t, err)
	assert.Equal(t, 8000, buf.SampleRate)
	assert.Len(t, buf.Samples, len(in))

	_, err = LoadRate(path, 0)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.wav"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestLoad_Directory(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
}

func TestDownmix_AveragesChannels(t *testing.T) {
	got := downmix([]float32{1, 0, 0.5, 0.5, -1, 1}, 2)
	assert.Equal(t, []float32{0.5, 0.5, 0}, got)
}

func TestWriteMP3_ProducesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp3")
	require.NoError(t, WriteMP3(path, sine(TargetSampleRate, TargetSampleRate, 220), TargetSampleRate))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteMP3_Empty(t *testing.T) {
	require.Error(t, WriteMP3(filepath.Join(t.TempDir(), "x.mp3"), nil, TargetSampleRate))
}
