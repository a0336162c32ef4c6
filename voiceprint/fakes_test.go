package voiceprint

import (
	"context"
	"fmt"

	"skribbl/internal/logging"
)

// fakeEmbedder returns canned vectors. Whole-file embeddings are keyed by
// path; segment embeddings are keyed by the first sample value.
type fakeEmbedder struct {
	files    map[string][]float32
	segments map[float32][]float32
	fileErr  error
	segErr   error

	fileCalls int
	segCalls  int
}

func (f *fakeEmbedder) EmbedFile(_ context.Context, path string) ([]float32, error) {
	f.fileCalls++
	if f.fileErr != nil {
		return nil, f.fileErr
	}
	v, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("no canned embedding for %s", path)
	}
	return v, nil
}

func (f *fakeEmbedder) Embed(_ context.Context, samples []float32, _ int) ([]float32, error) {
	f.segCalls++
	if f.segErr != nil {
		return nil, f.segErr
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("empty clip")
	}
	v, ok := f.segments[samples[0]]
	if !ok {
		return nil, fmt.Errorf("no canned embedding for clip starting with %v", samples[0])
	}
	return v, nil
}

var (
	vecA = []float32{1, 0}
	vecB = []float32{0, 1}
)

func newTestStore(dir string, emb FileEmbedder) *Store {
	return NewStore(dir, emb, logging.Nop())
}

type region struct {
	seconds float64
	value   float32
}

// filled builds a signal out of constant-valued regions.
func filled(sampleRate int, regions ...region) []float32 {
	var out []float32
	for _, r := range regions {
		n := int(r.seconds * float64(sampleRate))
		for i := 0; i < n; i++ {
			out = append(out, r.value)
		}
	}
	return out
}
