package ai

import (
	"context"
	"os"
	"testing"

	"skribbl/internal/logging"
)

func TestSherpaDiarizer_Integration(t *testing.T) {
	segmentationPath := os.Getenv("DIARIZATION_SEGMENTATION_MODEL")
	embeddingPath := os.Getenv("DIARIZATION_EMBEDDING_MODEL")
	if segmentationPath == "" || embeddingPath == "" {
		t.Skip("DIARIZATION_SEGMENTATION_MODEL and DIARIZATION_EMBEDDING_MODEL not set")
	}

	diarizer, err := NewSherpaDiarizer(DefaultSherpaDiarizerConfig(segmentationPath, embeddingPath), logging.Nop())
	if err != nil {
		t.Fatalf("NewSherpaDiarizer: %v", err)
	}
	defer diarizer.Close()

	silence := make([]float32, 16000*3)
	turns, err := diarizer.Diarize(context.Background(), silence, 16000, 0)
	if err != nil {
		t.Errorf("Diarize: %v", err)
	}
	t.Logf("silence: %d turns", len(turns))
}

func TestSherpaDiarizer_MissingModels(t *testing.T) {
	cfg := DefaultSherpaDiarizerConfig("/nonexistent/seg.onnx", "/nonexistent/emb.onnx")
	if _, err := NewSherpaDiarizer(cfg, logging.Nop()); err == nil {
		t.Error("expected error for missing models")
	}
}

func TestSherpaDiarizerConfig_Defaults(t *testing.T) {
	cfg := DefaultSherpaDiarizerConfig("/path/to/seg.onnx", "/path/to/emb.onnx")

	if cfg.SegmentationModelPath != "/path/to/seg.onnx" || cfg.EmbeddingModelPath != "/path/to/emb.onnx" {
		t.Errorf("paths not carried over: %+v", cfg)
	}
	if cfg.NumThreads != 4 {
		t.Errorf("NumThreads = %d, want 4", cfg.NumThreads)
	}
	if cfg.ClusteringThreshold != 0.5 {
		t.Errorf("ClusteringThreshold = %f, want 0.5", cfg.ClusteringThreshold)
	}
	if cfg.MinDurationOn != 0.3 || cfg.MinDurationOff != 0.5 {
		t.Errorf("durations = %f/%f", cfg.MinDurationOn, cfg.MinDurationOff)
	}
	if cfg.Provider != "auto" {
		t.Errorf("Provider = %q, want auto", cfg.Provider)
	}
}

func TestClusteringConfig(t *testing.T) {
	if c := clusteringConfig(0, 0.5); c.NumClusters != -1 || c.Threshold != 0.5 {
		t.Errorf("auto clustering = %+v", c)
	}
	if c := clusteringConfig(3, 0.5); c.NumClusters != 3 {
		t.Errorf("fixed clustering = %+v", c)
	}
	if c := clusteringConfig(-2, 0.7); c.NumClusters != -1 {
		t.Errorf("negative count should mean auto, got %+v", c)
	}
}

func TestSpeakerLabel(t *testing.T) {
	tests := map[int]string{0: "SPEAKER_00", 7: "SPEAKER_07", 12: "SPEAKER_12", 100: "SPEAKER_100"}
	for idx, want := range tests {
		if got := SpeakerLabel(idx); got != want {
			t.Errorf("SpeakerLabel(%d) = %q, want %q", idx, got, want)
		}
	}
}

func TestCountSpeakers(t *testing.T) {
	turns := []SpeakerTurn{{Label: "SPEAKER_00"}, {Label: "SPEAKER_01"}, {Label: "SPEAKER_00"}}
	if n := countSpeakers(turns); n != 2 {
		t.Errorf("countSpeakers = %d, want 2", n)
	}
}

func TestResolveProvider(t *testing.T) {
	if got := ResolveProvider("cuda"); got != "cuda" {
		t.Errorf("explicit provider changed to %q", got)
	}
	auto := ResolveProvider("auto")
	if auto != "cpu" && auto != "coreml" {
		t.Errorf("auto resolved to %q", auto)
	}
	if ResolveProvider("") != auto {
		t.Error("empty provider should behave like auto")
	}
}
