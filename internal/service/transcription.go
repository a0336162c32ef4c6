// Package service wires the collaborators and the voice profile library into
// the end-to-end transcription run.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"skribbl/ai"
	"skribbl/audio"
	"skribbl/internal/apperr"
	"skribbl/session"
	"skribbl/voiceprint"
)

// DefaultSelfLabel names the self track when nothing is configured.
const DefaultSelfLabel = "Me"

// Options configures a TranscriptionService.
type Options struct {
	SelfLabel         string
	SelfLabelExplicit bool // set by configuration rather than defaulted
	Language          string
	NumSpeakers       int // <= 0 lets the diarizer decide
	SampleRate        int // decode rate handed to the collaborators; 0 uses audio.TargetSampleRate
	Threshold         *float64 // nil uses voiceprint.DefaultThreshold; 0 is a valid setting
}

// Request is one transcription run.
type Request struct {
	SelfAudio   string
	OthersAudio string
	NumSpeakers int    // overrides Options.NumSpeakers when > 0
	ClipsDir    string // representative clips per anonymous label, optional
}

// Result is the merged transcript plus what was learned along the way.
type Result struct {
	RunID     string
	SelfLabel string
	Segments  []session.Segment
	Mapping   voiceprint.IdentityMapping
	Clips     map[string]string // label -> exported clip path
	Elapsed   time.Duration
}

// TranscriptionService runs the pipeline: transcribe the self track,
// transcribe and diarize the others track, resolve anonymous speakers
// against the library and merge both tracks by time.
type TranscriptionService struct {
	transcriber ai.Transcriber
	diarizer    ai.Diarizer
	embedder    voiceprint.SegmentEmbedder
	store       *voiceprint.Store
	opts        Options
	log         zerolog.Logger
}

func NewTranscriptionService(
	transcriber ai.Transcriber,
	diarizer ai.Diarizer,
	embedder voiceprint.SegmentEmbedder,
	store *voiceprint.Store,
	opts Options,
	log zerolog.Logger,
) *TranscriptionService {
	if opts.SelfLabel == "" {
		opts.SelfLabel = DefaultSelfLabel
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = audio.TargetSampleRate
	}
	if opts.Threshold == nil {
		t := voiceprint.DefaultThreshold
		opts.Threshold = &t
	}
	return &TranscriptionService{
		transcriber: transcriber,
		diarizer:    diarizer,
		embedder:    embedder,
		store:       store,
		opts:        opts,
		log:         log,
	}
}

// Run executes one transcription.
func (s *TranscriptionService) Run(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	runID := uuid.NewString()
	log := s.log.With().Str("run", runID).Logger()

	for _, p := range []string{req.SelfAudio, req.OthersAudio} {
		if err := checkAudioFile(p); err != nil {
			return nil, err
		}
	}

	if err := s.store.LoadAll(); err != nil {
		return nil, fmt.Errorf("load voice profiles: %w", err)
	}
	selfLabel := s.selfLabel(log)

	self, err := loadAudio(req.SelfAudio, s.opts.SampleRate)
	if err != nil {
		return nil, err
	}
	others, err := loadAudio(req.OthersAudio, s.opts.SampleRate)
	if err != nil {
		return nil, err
	}
	log.Info().
		Float64("self_sec", self.Seconds()).
		Float64("others_sec", others.Seconds()).
		Msg("audio loaded")

	selfTexts, err := s.transcriber.Transcribe(ctx, self.Samples, self.SampleRate, s.opts.Language)
	if err != nil {
		return nil, collaboratorErr("transcriber", err)
	}
	selfSegments := textsToSegments(selfTexts, selfLabel)

	otherTexts, err := s.transcriber.Transcribe(ctx, others.Samples, others.SampleRate, s.opts.Language)
	if err != nil {
		return nil, collaboratorErr("transcriber", err)
	}

	numSpeakers := s.opts.NumSpeakers
	if req.NumSpeakers > 0 {
		numSpeakers = req.NumSpeakers
	}
	turns, err := s.diarizer.Diarize(ctx, others.Samples, others.SampleRate, numSpeakers)
	if err != nil {
		return nil, collaboratorErr("diarizer", err)
	}
	turnSegments := turnsToSegments(turns)
	otherSegments := session.AssignSpeakers(textsToSegments(otherTexts, ""), toSessionTurns(turns))

	resolver := voiceprint.NewResolver(s.store, s.embedder, voiceprint.NewMatcher(*s.opts.Threshold, log), log)
	mapping, err := resolver.Resolve(ctx, turnSegments, others.Samples, others.SampleRate)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     runID,
		SelfLabel: selfLabel,
		Segments:  session.Merge(selfSegments, mapping.Apply(otherSegments)),
		Mapping:   mapping,
	}

	if req.ClipsDir != "" {
		clips, err := ExportClips(req.ClipsDir, turnSegments, others.Samples, others.SampleRate)
		if err != nil {
			return nil, err
		}
		result.Clips = clips
		log.Info().Int("clips", len(clips)).Str("dir", req.ClipsDir).Msg("speaker clips exported")
	}

	result.Elapsed = time.Since(started)
	log.Info().
		Int("segments", len(result.Segments)).
		Int("identified", len(mapping)).
		Dur("elapsed", result.Elapsed).
		Msg("transcription complete")
	return result, nil
}

// selfLabel applies the configured label even when it is not enrolled.
func (s *TranscriptionService) selfLabel(log zerolog.Logger) string {
	label := s.opts.SelfLabel
	if s.opts.SelfLabelExplicit {
		if _, ok := s.store.Get(label); !ok {
			log.Warn().Str("label", label).Msg("self speaker is not enrolled, using the label anyway")
		}
	}
	return label
}

// ExportClips writes each label's representative clip to dir/<label>.mp3.
func ExportClips(dir string, segments []session.Segment, samples []float32, sampleRate int) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create clips dir: %w", err)
	}
	clips := make(map[string]string)
	for _, rep := range voiceprint.Representatives(segments, samples, sampleRate) {
		path := filepath.Join(dir, rep.Label+".mp3")
		if err := audio.WriteMP3(path, rep.Samples, sampleRate); err != nil {
			return nil, fmt.Errorf("export clip %s: %w", rep.Label, err)
		}
		clips[rep.Label] = path
	}
	return clips, nil
}

func checkAudioFile(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return apperr.NotFound("audio file", path)
	}
	return nil
}

func loadAudio(path string, sampleRate int) (*audio.Buffer, error) {
	buf, err := audio.LoadRate(path, sampleRate)
	if err != nil {
		return nil, apperr.CollaboratorFailure("audio decoder", err).WithDetail("path", path)
	}
	return buf, nil
}

// collaboratorErr keeps errors that already carry a code.
func collaboratorErr(name string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.CollaboratorFailure(name, err)
}

func textsToSegments(texts []ai.TimedText, speaker string) []session.Segment {
	segs := make([]session.Segment, len(texts))
	for i, t := range texts {
		segs[i] = session.Segment{Start: t.Start, End: t.End, Speaker: speaker, Text: t.Text}
	}
	return segs
}

func turnsToSegments(turns []ai.SpeakerTurn) []session.Segment {
	segs := make([]session.Segment, len(turns))
	for i, t := range turns {
		segs[i] = session.Segment{Start: t.Start, End: t.End, Speaker: t.Label}
	}
	return segs
}

func toSessionTurns(turns []ai.SpeakerTurn) []session.Turn {
	out := make([]session.Turn, len(turns))
	for i, t := range turns {
		out[i] = session.Turn{Start: t.Start, End: t.End, Label: t.Label}
	}
	return out
}
