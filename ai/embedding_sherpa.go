package ai

import (
	"context"
	"fmt"
	"os"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"
	"github.com/rs/zerolog"

	"skribbl/audio"
)

// SherpaEmbedderConfig configures SherpaEmbedder.
type SherpaEmbedderConfig struct {
	ModelPath  string
	NumThreads int
	Provider   string
}

// SherpaEmbedder extracts speaker embeddings with the sherpa-onnx
// SpeakerEmbeddingExtractor, the same model family the diarizer clusters with.
type SherpaEmbedder struct {
	extractor *sherpa.SpeakerEmbeddingExtractor
	provider  string
	log       zerolog.Logger
}

// NewSherpaEmbedder loads the embedding model.
func NewSherpaEmbedder(config SherpaEmbedderConfig, log zerolog.Logger) (*SherpaEmbedder, error) {
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("embedding model not found: %s", config.ModelPath)
	}

	provider := ResolveProvider(config.Provider)
	ec := sherpa.SpeakerEmbeddingExtractorConfig{
		Model:      config.ModelPath,
		NumThreads: config.NumThreads,
		Provider:   provider,
	}
	extractor := sherpa.NewSpeakerEmbeddingExtractor(&ec)
	if extractor == nil && provider != "cpu" {
		log.Warn().Str("provider", provider).Msg("embedding provider failed, falling back to cpu")
		provider = "cpu"
		ec.Provider = provider
		extractor = sherpa.NewSpeakerEmbeddingExtractor(&ec)
	}
	if extractor == nil {
		return nil, fmt.Errorf("failed to create speaker embedding extractor: %s", config.ModelPath)
	}

	log.Debug().Str("model", config.ModelPath).Int("dim", extractor.Dim()).Str("provider", provider).
		Msg("embedding extractor initialized")
	return &SherpaEmbedder{extractor: extractor, provider: provider, log: log}, nil
}

func (e *SherpaEmbedder) EmbedFile(ctx context.Context, path string) ([]float32, error) {
	buf, err := audio.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return e.Embed(ctx, buf.Samples, buf.SampleRate)
}

func (e *SherpaEmbedder) Embed(ctx context.Context, samples []float32, sampleRate int) ([]float32, error) {
	if e.extractor == nil {
		return nil, fmt.Errorf("embedder is closed")
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("empty audio")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stream := e.extractor.CreateStream()
	defer sherpa.DeleteOnlineStream(stream)

	stream.AcceptWaveform(sampleRate, samples)
	stream.InputFinished()
	if !e.extractor.IsReady(stream) {
		return nil, fmt.Errorf("audio too short for an embedding (%d samples)", len(samples))
	}

	raw := e.extractor.Compute(stream)
	out := make([]float32, len(raw))
	copy(out, raw)
	return out, nil
}

func (e *SherpaEmbedder) Dim() int {
	if e.extractor == nil {
		return 0
	}
	return e.extractor.Dim()
}

func (e *SherpaEmbedder) Close() {
	if e.extractor != nil {
		sherpa.DeleteSpeakerEmbeddingExtractor(e.extractor)
		e.extractor = nil
	}
}
