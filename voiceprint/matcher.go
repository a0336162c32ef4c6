package voiceprint

import (
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"skribbl/internal/apperr"
)

// CosineSimilarity returns (a·b)/(|a||b|). Vectors of different length are a
// DimensionMismatch; a zero vector has similarity 0 with everything.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, apperr.DimensionMismatch(len(a), len(b))
	}
	if len(a) == 0 {
		return 0, nil
	}

	x, y := toFloat64(a), toFloat64(b)
	normA := math.Sqrt(floats.Dot(x, x))
	normB := math.Sqrt(floats.Dot(y, y))
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return floats.Dot(x, y) / (normA * normB), nil
}

// BestMatch scores query against every profile in the given order. The first
// profile with the highest similarity is reported; Matched is set only when
// that similarity is strictly above threshold.
func BestMatch(query []float32, profiles []VoiceProfile, threshold float64) (MatchResult, error) {
	var best MatchResult
	found := false

	for i := range profiles {
		sim, err := CosineSimilarity(query, profiles[i].Embedding)
		if err != nil {
			return MatchResult{}, err
		}
		if !found || sim > best.Similarity {
			best = MatchResult{Name: profiles[i].Name, Similarity: sim}
			found = true
		}
	}
	if !found {
		return MatchResult{Confidence: GetConfidence(0)}, nil
	}

	best.Confidence = GetConfidence(best.Similarity)
	best.Matched = best.Similarity > threshold
	return best, nil
}

// Match returns the enrolled name for query, if any profile is strictly
// more similar than threshold.
func Match(query []float32, profiles []VoiceProfile, threshold float64) (string, bool, error) {
	res, err := BestMatch(query, profiles, threshold)
	if err != nil || !res.Matched {
		return "", false, err
	}
	return res.Name, true, nil
}

// Matcher binds a threshold and logger to Match.
type Matcher struct {
	threshold float64
	log       zerolog.Logger
}

func NewMatcher(threshold float64, log zerolog.Logger) *Matcher {
	return &Matcher{threshold: threshold, log: log}
}

func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// FindBestMatch is Match with a debug log of the best candidate.
func (m *Matcher) FindBestMatch(query []float32, profiles []VoiceProfile) (MatchResult, error) {
	res, err := BestMatch(query, profiles, m.threshold)
	if err != nil {
		return res, err
	}
	m.log.Debug().
		Str("candidate", res.Name).
		Float64("similarity", res.Similarity).
		Str("confidence", res.Confidence).
		Bool("matched", res.Matched).
		Msg("best voiceprint candidate")
	return res, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
