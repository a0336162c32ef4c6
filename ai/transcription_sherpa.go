package ai

import (
	"context"
	"fmt"
	"os"
	"strings"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"
	"github.com/rs/zerolog"

	"skribbl/audio"
)

// Whisper cannot decode more than 30 seconds at once.
const maxWhisperChunkSeconds = 30

// SherpaTranscriberConfig configures SherpaTranscriber.
type SherpaTranscriberConfig struct {
	EncoderPath  string
	DecoderPath  string
	TokensPath   string
	VADModelPath string // optional; fixed 30s windows without it
	EnglishOnly  bool   // *.en models take no language hint
	NumThreads   int
	Provider     string
}

// SherpaTranscriber runs Whisper through the sherpa-onnx offline recognizer.
// Audio is cut into speech chunks with Silero VAD first so every chunk fits
// Whisper's window and carries its own timestamps.
type SherpaTranscriber struct {
	config      SherpaTranscriberConfig
	provider    string
	recognizers map[string]*sherpa.OfflineRecognizer
	log         zerolog.Logger
}

// NewSherpaTranscriber checks the model files; recognizers are created per
// language on first use.
func NewSherpaTranscriber(config SherpaTranscriberConfig, log zerolog.Logger) (*SherpaTranscriber, error) {
	for _, p := range []string{config.EncoderPath, config.DecoderPath, config.TokensPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("whisper model file not found: %s", p)
		}
	}
	if config.VADModelPath != "" {
		if _, err := os.Stat(config.VADModelPath); err != nil {
			return nil, fmt.Errorf("vad model not found: %s", config.VADModelPath)
		}
	}
	return &SherpaTranscriber{
		config:      config,
		provider:    ResolveProvider(config.Provider),
		recognizers: make(map[string]*sherpa.OfflineRecognizer),
		log:         log,
	}, nil
}

func (t *SherpaTranscriber) recognizer(language string) (*sherpa.OfflineRecognizer, error) {
	if t.config.EnglishOnly {
		language = ""
	}
	if r, ok := t.recognizers[language]; ok {
		return r, nil
	}

	rc := sherpa.OfflineRecognizerConfig{
		FeatConfig: sherpa.FeatureConfig{SampleRate: audio.TargetSampleRate, FeatureDim: 80},
		ModelConfig: sherpa.OfflineModelConfig{
			Whisper: sherpa.OfflineWhisperModelConfig{
				Encoder:      t.config.EncoderPath,
				Decoder:      t.config.DecoderPath,
				Language:     language,
				Task:         "transcribe",
				TailPaddings: -1,
			},
			Tokens:     t.config.TokensPath,
			NumThreads: t.config.NumThreads,
			Provider:   t.provider,
		},
		DecodingMethod: "greedy_search",
	}
	r := sherpa.NewOfflineRecognizer(&rc)
	if r == nil && t.provider != "cpu" {
		t.log.Warn().Str("provider", t.provider).Msg("recognizer provider failed, falling back to cpu")
		t.provider = "cpu"
		rc.ModelConfig.Provider = "cpu"
		r = sherpa.NewOfflineRecognizer(&rc)
	}
	if r == nil {
		return nil, fmt.Errorf("failed to create whisper recognizer (%s)", t.config.EncoderPath)
	}
	t.recognizers[language] = r
	return r, nil
}

// Transcribe returns one TimedText per non-empty speech chunk.
func (t *SherpaTranscriber) Transcribe(ctx context.Context, samples []float32, sampleRate int, language string) ([]TimedText, error) {
	if len(samples) == 0 {
		return nil, nil
	}
	samples, err := audio.Resample(samples, sampleRate, audio.TargetSampleRate)
	if err != nil {
		return nil, err
	}
	sampleRate = audio.TargetSampleRate

	rec, err := t.recognizer(language)
	if err != nil {
		return nil, err
	}

	var chunks []speechChunk
	if t.config.VADModelPath != "" {
		chunks, err = t.vadChunks(samples, sampleRate)
		if err != nil {
			return nil, err
		}
	} else {
		chunks = fixedChunks(samples, sampleRate, maxWhisperChunkSeconds)
	}

	var out []TimedText
	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := decodeChunk(rec, c.samples, sampleRate)
		if text == "" {
			continue
		}
		start := float64(c.start) / float64(sampleRate)
		out = append(out, TimedText{
			Start: start,
			End:   start + float64(len(c.samples))/float64(sampleRate),
			Text:  text,
		})
		t.log.Debug().Int("chunk", i+1).Int("of", len(chunks)).Float64("start", start).Msg("decoded")
	}

	t.log.Info().Int("chunks", len(chunks)).Int("segments", len(out)).Msg("transcription complete")
	return out, nil
}

func decodeChunk(rec *sherpa.OfflineRecognizer, samples []float32, sampleRate int) string {
	stream := sherpa.NewOfflineStream(rec)
	defer sherpa.DeleteOfflineStream(stream)

	stream.AcceptWaveform(sampleRate, samples)
	rec.Decode(stream)
	return strings.TrimSpace(stream.GetResult().Text)
}

type speechChunk struct {
	start   int // sample offset
	samples []float32
}

// fixedChunks slices audio into windows of at most maxSeconds.
func fixedChunks(samples []float32, sampleRate, maxSeconds int) []speechChunk {
	size := sampleRate * maxSeconds
	if size <= 0 {
		return nil
	}
	var chunks []speechChunk
	for off := 0; off < len(samples); off += size {
		end := min(off+size, len(samples))
		chunks = append(chunks, speechChunk{start: off, samples: samples[off:end]})
	}
	return chunks
}

const vadWindowSize = 512

func (t *SherpaTranscriber) vadChunks(samples []float32, sampleRate int) ([]speechChunk, error) {
	vc := sherpa.VadModelConfig{
		SileroVad: sherpa.SileroVadModelConfig{
			Model:              t.config.VADModelPath,
			Threshold:          0.5,
			MinSilenceDuration: 0.5,
			MinSpeechDuration:  0.25,
			WindowSize:         vadWindowSize,
			MaxSpeechDuration:  maxWhisperChunkSeconds - 2,
		},
		SampleRate: sampleRate,
		NumThreads: 1,
		Provider:   "cpu",
	}
	vad := sherpa.NewVoiceActivityDetector(&vc, maxWhisperChunkSeconds*2)
	if vad == nil {
		return nil, fmt.Errorf("failed to create voice activity detector: %s", t.config.VADModelPath)
	}
	defer sherpa.DeleteVoiceActivityDetector(vad)

	var chunks []speechChunk
	drain := func() {
		for !vad.IsEmpty() {
			seg := vad.Front()
			chunk := make([]float32, len(seg.Samples))
			copy(chunk, seg.Samples)
			chunks = append(chunks, speechChunk{start: seg.Start, samples: chunk})
			vad.Pop()
		}
	}

	for off := 0; off+vadWindowSize <= len(samples); off += vadWindowSize {
		vad.AcceptWaveform(samples[off : off+vadWindowSize])
		drain()
	}
	vad.Flush()
	drain()

	t.log.Debug().Int("chunks", len(chunks)).Msg("vad segmentation")
	return chunks, nil
}

func (t *SherpaTranscriber) Close() {
	for lang, r := range t.recognizers {
		sherpa.DeleteOfflineRecognizer(r)
		delete(t.recognizers, lang)
	}
}
