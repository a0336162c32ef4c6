package ai

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"
	"gonum.org/v1/gonum/floats"

	"skribbl/audio"
)

// OrtEmbedderConfig configures the onnxruntime embedding backend.
type OrtEmbedderConfig struct {
	ModelPath   string
	LibraryPath string // onnxruntime shared library; searched when empty
	Mel         MelConfig
}

// DefaultOrtEmbedderConfig suits WeSpeaker ResNet34 exports.
func DefaultOrtEmbedderConfig(modelPath string) OrtEmbedderConfig {
	return OrtEmbedderConfig{ModelPath: modelPath, Mel: DefaultMelConfig()}
}

// OrtEmbedder runs a speaker embedding model directly through onnxruntime,
// computing the fbank features itself. It is the alternative to
// SherpaEmbedder for models sherpa-onnx does not load.
type OrtEmbedder struct {
	config  OrtEmbedderConfig
	session *ort.DynamicAdvancedSession
	mel     *MelProcessor
	dim     int
	log     zerolog.Logger
}

func NewOrtEmbedder(config OrtEmbedderConfig, log zerolog.Logger) (*OrtEmbedder, error) {
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", config.ModelPath)
	}
	if err := initONNXRuntime(config.LibraryPath); err != nil {
		return nil, err
	}

	inputInfo, outputInfo, err := ort.GetInputOutputInfo(config.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get model info: %w", err)
	}
	if len(inputInfo) == 0 || len(outputInfo) == 0 {
		return nil, fmt.Errorf("model %s has no inputs or outputs", config.ModelPath)
	}

	inputNames := make([]string, len(inputInfo))
	for i, info := range inputInfo {
		inputNames[i] = info.Name
	}
	outputNames := make([]string, len(outputInfo))
	for i, info := range outputInfo {
		outputNames[i] = info.Name
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(config.ModelPath, inputNames, outputNames, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create onnx session: %w", err)
	}

	e := &OrtEmbedder{
		config:  config,
		session: session,
		mel:     NewMelProcessor(config.Mel),
		dim:     staticDim(outputInfo[0].Dimensions),
		log:     log,
	}
	log.Debug().Strs("inputs", inputNames).Strs("outputs", outputNames).Int("dim", e.dim).
		Msg("onnx speaker encoder loaded")
	return e, nil
}

// staticDim is the last output dimension when the model declares it.
func staticDim(shape ort.Shape) int {
	if len(shape) == 0 {
		return 0
	}
	if d := shape[len(shape)-1]; d > 0 {
		return int(d)
	}
	return 0
}

func (e *OrtEmbedder) EmbedFile(ctx context.Context, path string) ([]float32, error) {
	buf, err := audio.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return e.Embed(ctx, buf.Samples, buf.SampleRate)
}

// Embed computes an L2-normalised embedding of the clip.
func (e *OrtEmbedder) Embed(ctx context.Context, samples []float32, sampleRate int) ([]float32, error) {
	if e.session == nil {
		return nil, fmt.Errorf("encoder is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	samples, err := audio.Resample(samples, sampleRate, e.config.Mel.SampleRate)
	if err != nil {
		return nil, err
	}
	if len(samples) < e.config.Mel.SampleRate/10 {
		return nil, fmt.Errorf("audio too short (%d samples)", len(samples))
	}

	features, numFrames := e.mel.Compute(samples)
	nMels := e.config.Mel.NMels
	flat := make([]float32, numFrames*nMels)
	for t, row := range features {
		copy(flat[t*nMels:], row)
	}

	input, err := ort.NewTensor(ort.NewShape(1, int64(numFrames), int64(nMels)), flat)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", outputs[0])
	}
	embedding := l2Normalize(tensor.GetData())
	if e.dim == 0 {
		e.dim = len(embedding)
	}
	return embedding, nil
}

// l2Normalize returns a fresh unit-length copy; near-zero vectors are copied as is.
func l2Normalize(v []float32) []float32 {
	tmp := make([]float64, len(v))
	for i, x := range v {
		tmp[i] = float64(x)
	}
	if norm := floats.Norm(tmp, 2); norm >= 1e-6 {
		floats.Scale(1/norm, tmp)
	}
	out := make([]float32, len(v))
	for i, x := range tmp {
		out[i] = float32(x)
	}
	return out
}

func (e *OrtEmbedder) Dim() int {
	return e.dim
}

func (e *OrtEmbedder) Close() {
	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
}
