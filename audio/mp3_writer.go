package audio

import (
	"fmt"
	"os"

	"github.com/braheezy/shine-mp3/pkg/mp3"
)

// shine encodes MPEG Layer III granules of 1152 samples per channel.
const shineFrameSize = 1152

// WriteMP3 encodes mono samples to an MP3 file with shine.
func WriteMP3(path string, samples []float32, sampleRate int) error {
	if len(samples) == 0 {
		return fmt.Errorf("no samples to write to %s", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	pcm := make([]int16, len(samples), len(samples)+shineFrameSize)
	for i, s := range samples {
		pcm[i] = int16(clampSample(s) * 32767)
	}
	for len(pcm)%shineFrameSize != 0 {
		pcm = append(pcm, 0)
	}

	encoder := mp3.NewEncoder(sampleRate, 1)
	encoder.Write(file, pcm)

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}
