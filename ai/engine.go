// Package ai wraps the speech models used by skribbl: speaker diarization,
// speaker embeddings and speech-to-text. Everything model-specific lives
// behind the interfaces in this file.
package ai

import (
	"context"
	"fmt"
)

// SpeakerTurn is one diarized stretch of speech.
type SpeakerTurn struct {
	Start float64 // seconds
	End   float64 // seconds
	Label string  // SPEAKER_00, SPEAKER_01, ...
}

// TimedText is a transcribed piece of audio with its position in seconds.
type TimedText struct {
	Start float64
	End   float64
	Text  string
}

// Embedder turns speech into a fixed-length speaker vector.
type Embedder interface {
	// EmbedFile embeds a whole audio file (enrollment).
	EmbedFile(ctx context.Context, path string) ([]float32, error)
	// Embed embeds an in-memory clip (segment resolution).
	Embed(ctx context.Context, samples []float32, sampleRate int) ([]float32, error)
	// Dim is the embedding length, 0 if unknown.
	Dim() int
}

// Diarizer splits audio into anonymous speaker turns.
// numSpeakers <= 0 lets the model decide.
type Diarizer interface {
	Diarize(ctx context.Context, samples []float32, sampleRate, numSpeakers int) ([]SpeakerTurn, error)
}

// Transcriber converts speech into timestamped text.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, sampleRate int, language string) ([]TimedText, error)
}

// SpeakerLabel formats a diarization cluster index.
func SpeakerLabel(index int) string {
	return fmt.Sprintf("SPEAKER_%02d", index)
}

type closer interface {
	Close()
}
