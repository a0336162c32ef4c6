package ai

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"skribbl/internal/logging"
)

func TestFixedChunks(t *testing.T) {
	samples := make([]float32, 16000*65)
	chunks := fixedChunks(samples, 16000, 30)

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	wantStarts := []int{0, 16000 * 30, 16000 * 60}
	for i, c := range chunks {
		if c.start != wantStarts[i] {
			t.Errorf("chunk %d starts at %d, want %d", i, c.start, wantStarts[i])
		}
	}
	if n := len(chunks[2].samples); n != 16000*5 {
		t.Errorf("last chunk has %d samples", n)
	}
}

func TestFixedChunks_Empty(t *testing.T) {
	if chunks := fixedChunks(nil, 16000, 30); len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestNewSherpaTranscriber_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := SherpaTranscriberConfig{
		EncoderPath: filepath.Join(dir, "encoder.onnx"),
		DecoderPath: filepath.Join(dir, "decoder.onnx"),
		TokensPath:  filepath.Join(dir, "tokens.txt"),
	}
	if _, err := NewSherpaTranscriber(cfg, logging.Nop()); err == nil {
		t.Error("expected error for missing model files")
	}

	for _, p := range []string{cfg.EncoderPath, cfg.DecoderPath, cfg.TokensPath} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	cfg.VADModelPath = filepath.Join(dir, "silero_vad.onnx")
	if _, err := NewSherpaTranscriber(cfg, logging.Nop()); err == nil {
		t.Error("expected error for missing vad model")
	}

	cfg.VADModelPath = ""
	tr, err := NewSherpaTranscriber(cfg, logging.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Empty input never touches the recognizer.
	out, err := tr.Transcribe(context.Background(), nil, 16000, "en")
	if err != nil || len(out) != 0 {
		t.Errorf("Transcribe(nil) = %v, %v", out, err)
	}
}

func TestSherpaTranscriber_Integration(t *testing.T) {
	dir := os.Getenv("WHISPER_MODEL_DIR")
	if dir == "" {
		t.Skip("WHISPER_MODEL_DIR not set")
	}
	matches := func(pattern string) string {
		m, _ := filepath.Glob(filepath.Join(dir, pattern))
		if len(m) == 0 {
			t.Skipf("no %s in %s", pattern, dir)
		}
		return m[0]
	}

	tr, err := NewSherpaTranscriber(SherpaTranscriberConfig{
		EncoderPath: matches("*encoder.int8.onnx"),
		DecoderPath: matches("*decoder.int8.onnx"),
		TokensPath:  matches("*tokens.txt"),
		EnglishOnly: true,
		NumThreads:  2,
		Provider:    "cpu",
	}, logging.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	out, err := tr.Transcribe(context.Background(), make([]float32, 16000*2), 16000, "en")
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("silence: %d segments", len(out))
}
