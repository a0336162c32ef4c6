package voiceprint

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"skribbl/audio"
	"skribbl/internal/apperr"
	"skribbl/session"
)

// SegmentEmbedder computes a speaker embedding from in-memory samples.
type SegmentEmbedder interface {
	Embed(ctx context.Context, samples []float32, sampleRate int) ([]float32, error)
}

// ProfileSource is the read side of Store used during resolution.
type ProfileSource interface {
	Count() int
	Profiles() []VoiceProfile
}

// Representative is the first usable segment of an anonymous label.
type Representative struct {
	Label   string
	Segment session.Segment
	Samples []float32
}

// Representatives walks segments in order and takes, per label, the first
// segment encountered. When that segment is empty or its clipped sample
// range is empty, the label gets no representative and stays unmapped.
func Representatives(segments []session.Segment, samples []float32, sampleRate int) []Representative {
	seen := make(map[string]bool)
	var reps []Representative
	for _, seg := range segments {
		if seen[seg.Speaker] {
			continue
		}
		seen[seg.Speaker] = true
		if !seg.Valid() {
			continue
		}
		clip := audio.ClipRange(samples, sampleRate, seg.Start, seg.End)
		if len(clip) == 0 {
			continue
		}
		reps = append(reps, Representative{Label: seg.Speaker, Segment: seg, Samples: clip})
	}
	return reps
}

// Resolver maps anonymous diarization labels to enrolled names using one
// embedding per label.
type Resolver struct {
	profiles ProfileSource
	embedder SegmentEmbedder
	matcher  *Matcher
	log      zerolog.Logger
}

func NewResolver(profiles ProfileSource, embedder SegmentEmbedder, matcher *Matcher, log zerolog.Logger) *Resolver {
	return &Resolver{profiles: profiles, embedder: embedder, matcher: matcher, log: log}
}

// Resolve returns the label to name mapping for one diarization run. An empty
// library yields an empty mapping without embedding anything. Embedding
// failures abort the run.
func (r *Resolver) Resolve(ctx context.Context, segments []session.Segment, samples []float32, sampleRate int) (IdentityMapping, error) {
	mapping := make(IdentityMapping)
	if r.profiles.Count() == 0 {
		r.log.Info().Msg("no enrolled speakers, keeping anonymous labels")
		return mapping, nil
	}
	if r.embedder == nil {
		return nil, apperr.CollaboratorFailure("embedding model", errors.New("no embedder configured"))
	}

	reps := Representatives(segments, samples, sampleRate)
	embeddings := make([][]float32, len(reps))
	for i, rep := range reps {
		emb, err := r.embedder.Embed(ctx, rep.Samples, sampleRate)
		if err != nil {
			return nil, apperr.CollaboratorFailure("embedding model", err).WithDetail("label", rep.Label)
		}
		embeddings[i] = emb
	}

	profiles := r.profiles.Profiles()
	for i, rep := range reps {
		res, err := r.matcher.FindBestMatch(embeddings[i], profiles)
		if err != nil {
			return nil, err
		}
		if res.Matched {
			mapping[rep.Label] = res.Name
			r.log.Info().Float64("similarity", res.Similarity).Msgf("✓ %s → %s", rep.Label, res.Name)
		} else {
			r.log.Info().Float64("similarity", res.Similarity).Msgf("? %s → unknown", rep.Label)
		}
	}
	return mapping, nil
}

// Apply relabels segments through the mapping; unmapped labels are kept.
func (m IdentityMapping) Apply(segments []session.Segment) []session.Segment {
	out := make([]session.Segment, len(segments))
	for i, seg := range segments {
		seg.Speaker = m.Resolve(seg.Speaker)
		out[i] = seg
	}
	return out
}
