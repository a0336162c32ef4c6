package ai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"skribbl/internal/logging"
	"skribbl/models"
)

// ModelSource resolves model IDs to local files, downloading when needed.
type ModelSource interface {
	Ensure(ctx context.Context, modelID string) (string, error)
	FindFile(modelID, pattern string) (string, error)
}

// EngineSettings selects the models and runtime for every collaborator.
type EngineSettings struct {
	WhisperModel      string
	SegmentationModel string
	EmbeddingModel    string
	VADModel          string // empty disables VAD chunking
	EmbeddingBackend  string // sherpa or onnxruntime
	OnnxRuntimeLib    string
	NumThreads        int
	Provider          string
}

// EngineManager hands out lazily built collaborators. Nothing is loaded or
// downloaded until a command actually calls into a model.
type EngineManager struct {
	settings    EngineSettings
	source      ModelSource
	log         zerolog.Logger
	embedder    *LazyEmbedder
	diarizer    *LazyDiarizer
	transcriber *LazyTranscriber
}

func NewEngineManager(settings EngineSettings, source ModelSource, log zerolog.Logger) *EngineManager {
	em := &EngineManager{settings: settings, source: source, log: log}
	em.embedder = NewLazyEmbedder(em.buildEmbedder)
	em.diarizer = NewLazyDiarizer(em.buildDiarizer)
	em.transcriber = NewLazyTranscriber(em.buildTranscriber)
	return em
}

func (em *EngineManager) Embedder() *LazyEmbedder       { return em.embedder }
func (em *EngineManager) Diarizer() *LazyDiarizer       { return em.diarizer }
func (em *EngineManager) Transcriber() *LazyTranscriber { return em.transcriber }

// EmbeddingModelID is recorded in enrolled profiles.
func (em *EngineManager) EmbeddingModelID() string {
	return em.settings.EmbeddingModel
}

func (em *EngineManager) buildEmbedder(ctx context.Context) (Embedder, error) {
	path, err := em.source.Ensure(ctx, em.settings.EmbeddingModel)
	if err != nil {
		return nil, err
	}
	log := logging.WithComponent(em.log, "embedder")

	switch em.settings.EmbeddingBackend {
	case "onnxruntime":
		cfg := DefaultOrtEmbedderConfig(path)
		cfg.LibraryPath = em.settings.OnnxRuntimeLib
		return NewOrtEmbedder(cfg, log)
	case "", "sherpa":
		return NewSherpaEmbedder(SherpaEmbedderConfig{
			ModelPath:  path,
			NumThreads: em.settings.NumThreads,
			Provider:   em.settings.Provider,
		}, log)
	default:
		return nil, fmt.Errorf("unknown embedding backend: %s", em.settings.EmbeddingBackend)
	}
}

func (em *EngineManager) buildDiarizer(ctx context.Context) (Diarizer, error) {
	if _, err := em.source.Ensure(ctx, em.settings.SegmentationModel); err != nil {
		return nil, err
	}
	segPath, err := em.source.FindFile(em.settings.SegmentationModel, "*.onnx")
	if err != nil {
		return nil, err
	}
	embPath, err := em.source.Ensure(ctx, em.settings.EmbeddingModel)
	if err != nil {
		return nil, err
	}

	cfg := DefaultSherpaDiarizerConfig(segPath, embPath)
	cfg.NumThreads = em.settings.NumThreads
	cfg.Provider = em.settings.Provider
	return NewSherpaDiarizer(cfg, logging.WithComponent(em.log, "diarizer"))
}

func (em *EngineManager) buildTranscriber(ctx context.Context) (Transcriber, error) {
	id := em.settings.WhisperModel
	if _, err := em.source.Ensure(ctx, id); err != nil {
		return nil, err
	}

	cfg := SherpaTranscriberConfig{
		NumThreads: em.settings.NumThreads,
		Provider:   em.settings.Provider,
	}
	if info := models.GetModelByID(id); info != nil {
		cfg.EnglishOnly = info.EnglishOnly
	}

	var err error
	if cfg.EncoderPath, err = em.source.FindFile(id, "*encoder.int8.onnx"); err != nil {
		return nil, err
	}
	if cfg.DecoderPath, err = em.source.FindFile(id, "*decoder.int8.onnx"); err != nil {
		return nil, err
	}
	if cfg.TokensPath, err = em.source.FindFile(id, "*tokens.txt"); err != nil {
		return nil, err
	}

	if em.settings.VADModel != "" {
		if cfg.VADModelPath, err = em.source.Ensure(ctx, em.settings.VADModel); err != nil {
			return nil, err
		}
	}
	return NewSherpaTranscriber(cfg, logging.WithComponent(em.log, "transcriber"))
}

// Close releases whichever collaborators were built.
func (em *EngineManager) Close() {
	em.embedder.Close()
	em.diarizer.Close()
	em.transcriber.Close()
}
