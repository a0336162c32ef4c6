package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load decodes a WAV or MP3 file into mono samples at TargetSampleRate.
func Load(path string) (*Buffer, error) {
	return LoadRate(path, TargetSampleRate)
}

// LoadRate decodes a WAV or MP3 file into mono samples at sampleRate.
func LoadRate(path string, sampleRate int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	var buf *Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		buf, err = decodeWAV(path)
	case ".mp3":
		buf, err = decodeMP3(path)
	default:
		// Unknown extension: try WAV first, it has a header we can check.
		buf, err = decodeWAV(path)
		if err != nil {
			buf, err = decodeMP3(path)
		}
	}
	if err != nil {
		return nil, err
	}

	if buf.SampleRate != sampleRate {
		resampled, err := Resample(buf.Samples, buf.SampleRate, sampleRate)
		if err != nil {
			return nil, err
		}
		buf = &Buffer{Samples: resampled, SampleRate: sampleRate}
	}
	return buf, nil
}
