package ai

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// MelConfig describes a log-mel filterbank front end.
type MelConfig struct {
	SampleRate int
	NMels      int
	HopLength  int // samples between frames
	WinLength  int // analysis window in samples
	NFFT       int
	Center     bool // frames centred on hop positions instead of starting there
	MeanNorm   bool // subtract the per-bin mean over all frames
}

// DefaultMelConfig matches the fbank front end WeSpeaker models were trained on:
// 80 bins, 25ms window, 10ms hop at 16kHz, mean-normalised.
func DefaultMelConfig() MelConfig {
	return MelConfig{
		SampleRate: 16000,
		NMels:      80,
		HopLength:  160,
		WinLength:  400,
		NFFT:       512,
		MeanNorm:   true,
	}
}

// MelProcessor computes log-mel features.
type MelProcessor struct {
	config  MelConfig
	filters [][]float64
	window  []float64
	fft     *fourier.FFT
}

func NewMelProcessor(config MelConfig) *MelProcessor {
	return &MelProcessor{
		config:  config,
		filters: createMelFilterbank(config.NFFT, config.NMels, config.SampleRate),
		window:  createHannWindow(config.WinLength),
		fft:     fourier.NewFFT(config.NFFT),
	}
}

// NumFrames is the number of frames Compute produces for n samples.
func (p *MelProcessor) NumFrames(n int) int {
	if p.config.Center {
		return n/p.config.HopLength + 1
	}
	if n < p.config.WinLength {
		return 1
	}
	return (n-p.config.WinLength)/p.config.HopLength + 1
}

// Compute returns features laid out [frame][mel] and the frame count.
func (p *MelProcessor) Compute(samples []float32) ([][]float32, int) {
	numFrames := p.NumFrames(len(samples))
	spec := make([][]float32, numFrames)
	frame := make([]float64, p.config.NFFT)
	power := make([]float64, p.config.NFFT/2+1)
	var coeffs []complex128

	for f := 0; f < numFrames; f++ {
		start := f * p.config.HopLength
		if p.config.Center {
			start -= p.config.WinLength / 2
		}

		clear(frame)
		for i := 0; i < p.config.WinLength; i++ {
			idx := start + i
			if idx >= 0 && idx < len(samples) {
				frame[i] = float64(samples[idx]) * p.window[i]
			}
		}

		coeffs = p.fft.Coefficients(coeffs, frame)
		for k := range power {
			re, im := real(coeffs[k]), imag(coeffs[k])
			power[k] = re*re + im*im
		}

		row := make([]float32, p.config.NMels)
		for m, filter := range p.filters {
			var sum float64
			for k, w := range filter {
				sum += power[k] * w
			}
			row[m] = float32(math.Log(math.Max(sum, 1e-9)))
		}
		spec[f] = row
	}

	if p.config.MeanNorm {
		meanNormalize(spec, p.config.NMels)
	}
	return spec, numFrames
}

func meanNormalize(spec [][]float32, nMels int) {
	if len(spec) == 0 {
		return
	}
	means := make([]float64, nMels)
	for _, row := range spec {
		for m, v := range row {
			means[m] += float64(v)
		}
	}
	for m := range means {
		means[m] /= float64(len(spec))
	}
	for _, row := range spec {
		for m := range row {
			row[m] -= float32(means[m])
		}
	}
}

// createMelFilterbank builds triangular HTK-scale filters in Hz, the same
// construction torchaudio uses.
func createMelFilterbank(nFFT, nMels, sampleRate int) [][]float64 {
	hzToMel := func(hz float64) float64 { return 2595.0 * math.Log10(1.0+hz/700.0) }
	melToHz := func(mel float64) float64 { return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0) }

	numBins := nFFT/2 + 1
	fMax := float64(sampleRate) / 2.0

	binFreqs := make([]float64, numBins)
	for i := range binFreqs {
		binFreqs[i] = float64(i) * fMax / float64(numBins-1)
	}

	mMax := hzToMel(fMax)
	points := make([]float64, nMels+2)
	for i := range points {
		points[i] = melToHz(float64(i) * mMax / float64(nMels+1))
	}

	filters := make([][]float64, nMels)
	for m := range filters {
		filters[m] = make([]float64, numBins)
		lowWidth := points[m+1] - points[m]
		highWidth := points[m+2] - points[m+1]
		for k, freq := range binFreqs {
			lower := (freq - points[m]) / lowWidth
			upper := (points[m+2] - freq) / highWidth
			filters[m][k] = math.Max(0, math.Min(lower, upper))
		}
	}
	return filters
}

func createHannWindow(size int) []float64 {
	window := make([]float64, size)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return window
}
