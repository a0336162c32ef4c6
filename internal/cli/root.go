// Package cli implements the skribbl command line.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"skribbl/ai"
	"skribbl/internal/config"
	"skribbl/internal/logging"
	"skribbl/models"
	"skribbl/voiceprint"
)

var (
	// Global flags
	verbose     bool
	noColor     bool
	configFile  string
	envFile     string
	profilesDir string
	modelsDir   string

	// Set by the root PersistentPreRunE.
	cfg *config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "skribbl",
	Short: "Meeting transcription with persistent speaker identification",
	Long: `skribbl transcribes two-track meeting recordings (your microphone and
everyone else) and names the other speakers using an enrolled voice library.

Examples:
  # Enroll a colleague from a clean sample of their voice
  skribbl enroll Alice samples/alice.wav

  # Transcribe a meeting
  skribbl transcribe recordings/me.wav recordings/others.wav > meeting.txt

  # Keep clips of unrecognised speakers so they can be enrolled later
  skribbl transcribe me.wav others.wav --export-clips clips/`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command. Ctrl-C cancels the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.BoolVar(&noColor, "no-color", false, "disable colored log output")
	pf.StringVar(&configFile, "config", "", "YAML config file")
	pf.StringVar(&envFile, "env-file", "", ".env file (default ./.env when present)")
	pf.StringVar(&profilesDir, "profiles-dir", "", "voice profile directory (overrides config)")
	pf.StringVar(&modelsDir, "models-dir", "", "model cache directory (overrides config)")
}

func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(config.Options{ConfigFile: configFile, EnvFile: envFile})
	if err != nil {
		return err
	}
	if profilesDir != "" {
		c.ProfilesDir = profilesDir
	}
	if modelsDir != "" {
		c.ModelsDir = modelsDir
	}
	cfg = c

	log = logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Verbose: verbose,
		NoColor: noColor,
		Output:  cmd.ErrOrStderr(),
	})
	return nil
}

// engines bundles the model-backed collaborators a command needs.
type engines struct {
	embedder    ai.Embedder
	diarizer    ai.Diarizer
	transcriber ai.Transcriber
	close       func()
}

// newEngines builds lazily loading collaborators; tests swap it for fakes.
var newEngines = func(c *config.Config, l zerolog.Logger) *engines {
	em := ai.NewEngineManager(ai.EngineSettings{
		WhisperModel:      c.WhisperModel,
		SegmentationModel: c.SegmentationModel,
		EmbeddingModel:    c.EmbeddingModel,
		VADModel:          c.VADModel,
		EmbeddingBackend:  c.EmbeddingBackend,
		OnnxRuntimeLib:    c.OnnxRuntimeLib,
		NumThreads:        c.NumThreads,
		Provider:          c.Provider,
	}, newModelManager(c, l), logging.WithComponent(l, "ai"))

	return &engines{
		embedder:    em.Embedder(),
		diarizer:    em.Diarizer(),
		transcriber: em.Transcriber(),
		close:       em.Close,
	}
}

func newModelManager(c *config.Config, l zerolog.Logger) *models.Manager {
	ml := logging.WithComponent(l, "models")
	return models.NewManager(c.ModelsDir, ml,
		models.WithAuthToken(c.AuthToken),
		models.WithProgress(func(id string, p float64) {
			ml.Debug().Str("model", id).Float64("percent", p).Msg("download progress")
		}),
	)
}

// openStore returns a store over the configured profile directory. The
// embedder may be nil for commands that never enroll.
func openStore(emb voiceprint.FileEmbedder) *voiceprint.Store {
	return voiceprint.NewStore(cfg.ProfilesDir, emb, logging.WithComponent(log, "voiceprint"),
		voiceprint.WithModelID(cfg.EmbeddingModel))
}

// loadStore opens the store read-only and loads every profile.
func loadStore() (*voiceprint.Store, error) {
	store := openStore(nil)
	if err := store.LoadAll(); err != nil {
		return nil, err
	}
	return store, nil
}
