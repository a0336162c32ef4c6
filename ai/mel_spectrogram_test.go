package ai

import (
	"math"
	"testing"
)

func sine(freq float64, sampleRate, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

func TestMelProcessor_FrameCount(t *testing.T) {
	cfg := DefaultMelConfig()
	p := NewMelProcessor(cfg)

	tests := []struct {
		name    string
		samples int
		center  bool
		want    int
	}{
		{"one second", 16000, false, 98},
		{"shorter than window", 100, false, 1},
		{"exactly one window", 400, false, 1},
		{"centred", 16000, true, 101},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.config.Center = tt.center
			if got := p.NumFrames(tt.samples); got != tt.want {
				t.Errorf("NumFrames(%d) = %d, want %d", tt.samples, got, tt.want)
			}
		})
	}
}

func TestMelProcessor_ComputeShape(t *testing.T) {
	cfg := DefaultMelConfig()
	cfg.MeanNorm = false
	p := NewMelProcessor(cfg)

	spec, frames := p.Compute(sine(440, 16000, 16000))
	if frames != len(spec) {
		t.Fatalf("frames %d != rows %d", frames, len(spec))
	}
	for i, row := range spec {
		if len(row) != cfg.NMels {
			t.Fatalf("row %d has %d bins", i, len(row))
		}
		for _, v := range row {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("non-finite value in row %d", i)
			}
		}
	}
}

func TestMelProcessor_ToneEnergyInLowBins(t *testing.T) {
	cfg := DefaultMelConfig()
	cfg.MeanNorm = false
	p := NewMelProcessor(cfg)

	spec, _ := p.Compute(sine(300, 16000, 8000))
	row := spec[len(spec)/2]

	peak := 0
	for m := range row {
		if row[m] > row[peak] {
			peak = m
		}
	}
	// 300 Hz sits in the lowest quarter of an 80-bin HTK scale up to 8 kHz.
	if peak > cfg.NMels/4 {
		t.Errorf("peak bin %d, expected a low bin for 300 Hz", peak)
	}
}

func TestMelProcessor_MeanNormalisation(t *testing.T) {
	p := NewMelProcessor(DefaultMelConfig())
	spec, _ := p.Compute(sine(1000, 16000, 16000))

	for m := 0; m < 80; m++ {
		var sum float64
		for _, row := range spec {
			sum += float64(row[m])
		}
		if mean := sum / float64(len(spec)); math.Abs(mean) > 1e-3 {
			t.Fatalf("bin %d mean %f after normalisation", m, mean)
		}
	}
}

func TestMelFilterbank_Triangles(t *testing.T) {
	filters := createMelFilterbank(512, 80, 16000)
	if len(filters) != 80 {
		t.Fatalf("got %d filters", len(filters))
	}
	for m, f := range filters {
		if len(f) != 257 {
			t.Fatalf("filter %d has %d bins", m, len(f))
		}
		for _, w := range f {
			if w < 0 || w > 1 {
				t.Fatalf("filter %d weight %f outside [0,1]", m, w)
			}
		}
	}
}

func TestHannWindow(t *testing.T) {
	w := createHannWindow(400)
	if w[0] != 0 || math.Abs(w[399]) > 1e-12 {
		t.Errorf("edges should be zero: %f %f", w[0], w[399])
	}
	if math.Abs(w[200]-1) > 1e-3 {
		t.Errorf("middle should be ~1, got %f", w[200])
	}
}
