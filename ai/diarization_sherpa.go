package ai

import (
	"context"
	"fmt"
	"os"
	"sort"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"
	"github.com/rs/zerolog"

	"skribbl/audio"
)

// SherpaDiarizerConfig configures SherpaDiarizer.
type SherpaDiarizerConfig struct {
	SegmentationModelPath string  // pyannote segmentation model
	EmbeddingModelPath    string  // wespeaker / 3dspeaker embedding model
	NumThreads            int
	ClusteringThreshold   float32 // used when the speaker count is unknown
	MinDurationOn         float32 // seconds
	MinDurationOff        float32 // seconds
	Provider              string  // cpu, cuda, coreml, auto
}

// DefaultSherpaDiarizerConfig returns defaults with the provider left on auto.
func DefaultSherpaDiarizerConfig(segmentationPath, embeddingPath string) SherpaDiarizerConfig {
	return SherpaDiarizerConfig{
		SegmentationModelPath: segmentationPath,
		EmbeddingModelPath:    embeddingPath,
		NumThreads:            4,
		ClusteringThreshold:   0.5,
		MinDurationOn:         0.3,
		MinDurationOff:        0.5,
		Provider:              "auto",
	}
}

// SherpaDiarizer runs pyannote segmentation plus embedding clustering
// through sherpa-onnx.
type SherpaDiarizer struct {
	config   SherpaDiarizerConfig
	diarizer *sherpa.OfflineSpeakerDiarization
	log      zerolog.Logger
}

// NewSherpaDiarizer loads both models. A non-cpu provider that fails to
// initialize is retried on cpu.
func NewSherpaDiarizer(config SherpaDiarizerConfig, log zerolog.Logger) (*SherpaDiarizer, error) {
	if _, err := os.Stat(config.SegmentationModelPath); err != nil {
		return nil, fmt.Errorf("segmentation model not found: %s", config.SegmentationModelPath)
	}
	if _, err := os.Stat(config.EmbeddingModelPath); err != nil {
		return nil, fmt.Errorf("embedding model not found: %s", config.EmbeddingModelPath)
	}

	provider := ResolveProvider(config.Provider)
	sc := diarizationConfig(config, provider, 0)

	diarizer := sherpa.NewOfflineSpeakerDiarization(sc)
	if diarizer == nil && provider != "cpu" {
		log.Warn().Str("provider", provider).Msg("diarizer provider failed, falling back to cpu")
		provider = "cpu"
		sc = diarizationConfig(config, provider, 0)
		diarizer = sherpa.NewOfflineSpeakerDiarization(sc)
	}
	if diarizer == nil {
		return nil, fmt.Errorf("failed to create sherpa-onnx diarizer (provider=%s)", provider)
	}

	config.Provider = provider
	log.Debug().
		Str("provider", provider).
		Str("segmentation", config.SegmentationModelPath).
		Str("embedding", config.EmbeddingModelPath).
		Msg("diarizer initialized")

	return &SherpaDiarizer{config: config, diarizer: diarizer, log: log}, nil
}

func diarizationConfig(config SherpaDiarizerConfig, provider string, numSpeakers int) *sherpa.OfflineSpeakerDiarizationConfig {
	return &sherpa.OfflineSpeakerDiarizationConfig{
		Segmentation: sherpa.OfflineSpeakerSegmentationModelConfig{
			Pyannote: sherpa.OfflineSpeakerSegmentationPyannoteModelConfig{
				Model: config.SegmentationModelPath,
			},
			NumThreads: config.NumThreads,
			Provider:   provider,
		},
		Embedding: sherpa.SpeakerEmbeddingExtractorConfig{
			Model:      config.EmbeddingModelPath,
			NumThreads: config.NumThreads,
			Provider:   provider,
		},
		Clustering:     clusteringConfig(numSpeakers, config.ClusteringThreshold),
		MinDurationOn:  config.MinDurationOn,
		MinDurationOff: config.MinDurationOff,
	}
}

// clusteringConfig fixes the cluster count when the caller knows it,
// otherwise clusters by distance threshold.
func clusteringConfig(numSpeakers int, threshold float32) sherpa.FastClusteringConfig {
	if numSpeakers > 0 {
		return sherpa.FastClusteringConfig{NumClusters: numSpeakers, Threshold: threshold}
	}
	return sherpa.FastClusteringConfig{NumClusters: -1, Threshold: threshold}
}

// Diarize returns speaker turns sorted by start time.
func (d *SherpaDiarizer) Diarize(ctx context.Context, samples []float32, sampleRate, numSpeakers int) ([]SpeakerTurn, error) {
	if d.diarizer == nil {
		return nil, fmt.Errorf("diarizer is closed")
	}
	if len(samples) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	samples, err := audio.Resample(samples, sampleRate, d.SampleRate())
	if err != nil {
		return nil, err
	}

	d.diarizer.SetConfig(&sherpa.OfflineSpeakerDiarizationConfig{
		Clustering: clusteringConfig(numSpeakers, d.config.ClusteringThreshold),
	})

	segments := d.diarizer.Process(samples)
	turns := make([]SpeakerTurn, 0, len(segments))
	for _, seg := range segments {
		turns = append(turns, SpeakerTurn{
			Start: float64(seg.Start),
			End:   float64(seg.End),
			Label: SpeakerLabel(seg.Speaker),
		})
	}
	sort.SliceStable(turns, func(i, j int) bool { return turns[i].Start < turns[j].Start })

	d.log.Info().
		Int("turns", len(turns)).
		Int("speakers", countSpeakers(turns)).
		Msg("diarization complete")
	return turns, nil
}

// SampleRate is the rate the models expect.
func (d *SherpaDiarizer) SampleRate() int {
	if d.diarizer != nil {
		return d.diarizer.SampleRate()
	}
	return audio.TargetSampleRate
}

// Provider returns the provider actually in use.
func (d *SherpaDiarizer) Provider() string {
	return d.config.Provider
}

func (d *SherpaDiarizer) Close() {
	if d.diarizer != nil {
		sherpa.DeleteOfflineSpeakerDiarization(d.diarizer)
		d.diarizer = nil
	}
}

func countSpeakers(turns []SpeakerTurn) int {
	seen := make(map[string]struct{})
	for _, t := range turns {
		seen[t.Label] = struct{}{}
	}
	return len(seen)
}
