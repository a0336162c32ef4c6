// Package config resolves skribbl settings from defaults, an optional YAML
// file, a .env file and the environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"skribbl/internal/apperr"
)

const (
	EnvPrefix          = "SKRIBBL"
	DefaultSelfSpeaker = "Me"
	DefaultThreshold   = 0.7
	DefaultSampleRate  = 16000
)

type Config struct {
	ProfilesDir string `mapstructure:"profiles_dir" validate:"required"`
	ModelsDir   string `mapstructure:"models_dir" validate:"required"`

	// AuthToken is sent as a bearer token for gated model downloads.
	AuthToken string `mapstructure:"auth_token"`

	SelfSpeaker string `mapstructure:"self_speaker"`
	// SelfSpeakerExplicit is true when SelfSpeaker came from configuration
	// rather than the default.
	SelfSpeakerExplicit bool `mapstructure:"-"`

	SimilarityThreshold float64 `mapstructure:"similarity_threshold" validate:"gte=0,lte=1"`
	Language            string  `mapstructure:"language" validate:"required"`
	SampleRate          int     `mapstructure:"sample_rate" validate:"gt=0"`

	WhisperModel      string `mapstructure:"whisper_model" validate:"required"`
	SegmentationModel string `mapstructure:"segmentation_model" validate:"required"`
	EmbeddingModel    string `mapstructure:"embedding_model" validate:"required"`
	VADModel          string `mapstructure:"vad_model" validate:"required"`

	// EmbeddingBackend selects the speaker embedding implementation.
	EmbeddingBackend string `mapstructure:"embedding_backend" validate:"oneof=sherpa onnxruntime"`
	OnnxRuntimeLib   string `mapstructure:"onnxruntime_lib"`

	NumThreads  int    `mapstructure:"num_threads" validate:"gte=1"`
	Provider    string `mapstructure:"provider" validate:"oneof=cpu cuda coreml auto"`
	NumSpeakers int    `mapstructure:"num_speakers" validate:"gte=0"`

	LogLevel string `mapstructure:"log_level"`
}

// Options points Load at explicit files. Empty fields use the defaults:
// no YAML file, and ./.env when present.
type Options struct {
	ConfigFile string
	EnvFile    string
}

var defaults = map[string]any{
	"profiles_dir":         "voice_profiles",
	"models_dir":           "models",
	"similarity_threshold": DefaultThreshold,
	"language":             "en",
	"sample_rate":          DefaultSampleRate,
	"whisper_model":        "whisper-base.en",
	"segmentation_model":   "pyannote-segmentation-3.0",
	"embedding_model":      "wespeaker-voxceleb-resnet34",
	"vad_model":            "silero-vad",
	"embedding_backend":    "sherpa",
	"onnxruntime_lib":      "",
	"num_threads":          4,
	"provider":             "auto",
	"num_speakers":         0,
	"log_level":            "info",
}

// Load builds and validates a Config.
func Load(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Legacy variable names.
	if err := v.BindEnv("auth_token", EnvPrefix+"_AUTH_TOKEN", "HF_TOKEN", "hf_token"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("self_speaker", EnvPrefix+"_SELF_SPEAKER", "SELF_SPEAKER_NAME"); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SelfSpeaker = strings.TrimSpace(cfg.SelfSpeaker)
	cfg.SelfSpeakerExplicit = cfg.SelfSpeaker != ""
	if !cfg.SelfSpeakerExplicit {
		cfg.SelfSpeaker = DefaultSelfSpeaker
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		ProfilesDir:         defaults["profiles_dir"].(string),
		ModelsDir:           defaults["models_dir"].(string),
		SelfSpeaker:         DefaultSelfSpeaker,
		SimilarityThreshold: DefaultThreshold,
		Language:            defaults["language"].(string),
		SampleRate:          DefaultSampleRate,
		WhisperModel:        defaults["whisper_model"].(string),
		SegmentationModel:   defaults["segmentation_model"].(string),
		EmbeddingModel:      defaults["embedding_model"].(string),
		VADModel:            defaults["vad_model"].(string),
		EmbeddingBackend:    defaults["embedding_backend"].(string),
		NumThreads:          defaults["num_threads"].(int),
		Provider:            defaults["provider"].(string),
		LogLevel:            defaults["log_level"].(string),
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports the first offending field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperr.InvalidInput(fe.Field(), fmt.Sprintf("failed '%s' rule (value %v)", fe.Tag(), fe.Value()))
	}
	return apperr.InvalidInput("config", err.Error())
}

func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		return nil
	}
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load(".env")
	}
	return nil
}
