package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts mono samples between rates.
func Resample(samples []float32, srcRate, dstRate int) ([]float32, error) {
	if srcRate == dstRate || len(samples) == 0 {
		return samples, nil
	}
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates: %d -> %d", srcRate, dstRate)
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	in := make([]float64, len(samples))
	for i, s := range samples {
		in[i] = float64(s)
	}
	out, err := r.Process(in)
	if err != nil {
		return nil, fmt.Errorf("resample %d -> %d: %w", srcRate, dstRate, err)
	}

	result := make([]float32, len(out))
	for i, s := range out {
		result[i] = clampSample(float32(s))
	}
	return result, nil
}
