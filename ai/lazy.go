package ai

import "context"

// Lazy constructs a value on first use and remembers the result, including
// a failed construction. It is not safe for concurrent use.
type Lazy[T any] struct {
	init   func(ctx context.Context) (T, error)
	loaded bool
	value  T
	err    error
}

// NewLazy wraps a constructor.
func NewLazy[T any](init func(ctx context.Context) (T, error)) *Lazy[T] {
	return &Lazy[T]{init: init}
}

// Get runs the constructor once and returns its cached result afterwards.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	if !l.loaded {
		l.value, l.err = l.init(ctx)
		l.loaded = true
	}
	return l.value, l.err
}

// Loaded reports whether the constructor has run.
func (l *Lazy[T]) Loaded() bool {
	return l.loaded
}

// Close releases the value if it was built and owns native resources.
func (l *Lazy[T]) Close() {
	if !l.loaded || l.err != nil {
		return
	}
	if c, ok := any(l.value).(closer); ok {
		c.Close()
	}
}

// LazyEmbedder defers building an Embedder until the first call.
type LazyEmbedder struct {
	*Lazy[Embedder]
}

func NewLazyEmbedder(init func(ctx context.Context) (Embedder, error)) *LazyEmbedder {
	return &LazyEmbedder{NewLazy(init)}
}

func (e *LazyEmbedder) EmbedFile(ctx context.Context, path string) ([]float32, error) {
	emb, err := e.Get(ctx)
	if err != nil {
		return nil, err
	}
	return emb.EmbedFile(ctx, path)
}

func (e *LazyEmbedder) Embed(ctx context.Context, samples []float32, sampleRate int) ([]float32, error) {
	emb, err := e.Get(ctx)
	if err != nil {
		return nil, err
	}
	return emb.Embed(ctx, samples, sampleRate)
}

// Dim builds the embedder if needed; 0 when it cannot be built.
func (e *LazyEmbedder) Dim() int {
	emb, err := e.Get(context.Background())
	if err != nil {
		return 0
	}
	return emb.Dim()
}

// LazyDiarizer defers building a Diarizer until the first call.
type LazyDiarizer struct {
	*Lazy[Diarizer]
}

func NewLazyDiarizer(init func(ctx context.Context) (Diarizer, error)) *LazyDiarizer {
	return &LazyDiarizer{NewLazy(init)}
}

func (d *LazyDiarizer) Diarize(ctx context.Context, samples []float32, sampleRate, numSpeakers int) ([]SpeakerTurn, error) {
	diar, err := d.Get(ctx)
	if err != nil {
		return nil, err
	}
	return diar.Diarize(ctx, samples, sampleRate, numSpeakers)
}

// LazyTranscriber defers building a Transcriber until the first call.
type LazyTranscriber struct {
	*Lazy[Transcriber]
}

func NewLazyTranscriber(init func(ctx context.Context) (Transcriber, error)) *LazyTranscriber {
	return &LazyTranscriber{NewLazy(init)}
}

func (t *LazyTranscriber) Transcribe(ctx context.Context, samples []float32, sampleRate int, language string) ([]TimedText, error) {
	tr, err := t.Get(ctx)
	if err != nil {
		return nil, err
	}
	return tr.Transcribe(ctx, samples, sampleRate, language)
}
