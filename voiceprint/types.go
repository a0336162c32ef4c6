// Package voiceprint keeps a library of enrolled speaker embeddings and maps
// anonymous diarization labels to enrolled names.
package voiceprint

import "time"

// VoiceProfile is one enrolled speaker.
type VoiceProfile struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Embedding  []float32 `json:"-" yaml:"-"`
	SourcePath string    `json:"enrollment_file" yaml:"enrollment_file"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	Model      string    `json:"model,omitempty" yaml:"model,omitempty"`
}

// Dim returns the embedding length.
func (p *VoiceProfile) Dim() int {
	return len(p.Embedding)
}

// profileMeta is the on-disk metadata artifact (<name>.json).
type profileMeta struct {
	Name           string    `json:"name"`
	EnrollmentFile string    `json:"enrollment_file"`
	CreatedAt      time.Time `json:"created_at"`
	ID             string    `json:"id,omitempty"`
	Model          string    `json:"model,omitempty"`
	Dim            int       `json:"dim,omitempty"`
}

// Confidence bands for diagnostic output (cosine similarity).
const (
	ThresholdHigh   = 0.85
	ThresholdMedium = 0.70
	ThresholdLow    = 0.50
)

// DefaultThreshold is the similarity a match must strictly exceed.
const DefaultThreshold = 0.7

// GetConfidence maps a similarity to high, medium, low or none.
func GetConfidence(similarity float64) string {
	switch {
	case similarity >= ThresholdHigh:
		return "high"
	case similarity >= ThresholdMedium:
		return "medium"
	case similarity >= ThresholdLow:
		return "low"
	default:
		return "none"
	}
}

// MatchResult is the best candidate for a query embedding.
type MatchResult struct {
	Name       string
	Similarity float64
	Confidence string
	// Matched is true only when Similarity strictly exceeds the threshold.
	Matched bool
}

// IdentityMapping maps anonymous diarization labels to enrolled names.
type IdentityMapping map[string]string

// Resolve returns the mapped name, or the label itself when unmapped.
func (m IdentityMapping) Resolve(label string) string {
	if name, ok := m[label]; ok {
		return name
	}
	return label
}

// Problem is an inconsistency found by Store.Verify.
type Problem struct {
	Name   string `json:"name" yaml:"name"`
	Reason string `json:"reason" yaml:"reason"`
	Err    error  `json:"-" yaml:"-"`
}
