// Package audio decodes meeting recordings into mono float32 PCM at the
// model sample rate and writes short clips back out.
package audio

import "time"

// TargetSampleRate is the rate every model in the pipeline expects.
const TargetSampleRate = 16000

// Buffer holds mono float32 samples in [-1, 1].
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the buffer length.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}

// Seconds returns the buffer length in seconds.
func (b *Buffer) Seconds() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Clip returns the samples in [start, end) seconds, clamped to the buffer.
// It returns nil when the clamped range is empty.
func (b *Buffer) Clip(start, end float64) []float32 {
	return ClipRange(b.Samples, b.SampleRate, start, end)
}

// ClipRange slices samples to [start*rate, end*rate), clamped to
// [0, len(samples)). The result shares memory with samples.
func ClipRange(samples []float32, sampleRate int, start, end float64) []float32 {
	from := int(start * float64(sampleRate))
	to := int(end * float64(sampleRate))
	if from < 0 {
		from = 0
	}
	if to > len(samples) {
		to = len(samples)
	}
	if from >= to {
		return nil
	}
	return samples[from:to]
}

func downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

func clampSample(s float32) float32 {
	if s > 1.0 {
		return 1.0
	}
	if s < -1.0 {
		return -1.0
	}
	return s
}
