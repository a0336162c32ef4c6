// Package models knows which speech models skribbl can use and where to get them.
package models

// EngineType is the role a model plays in the pipeline.
type EngineType string

const (
	EngineTypeWhisper      EngineType = "whisper"      // speech-to-text
	EngineTypeSegmentation EngineType = "segmentation" // diarization segmentation
	EngineTypeEmbedding    EngineType = "embedding"    // speaker embedding
	EngineTypeVAD          EngineType = "vad"          // voice activity detection
)

// ModelInfo describes a downloadable model.
type ModelInfo struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Engine      EngineType `json:"engine" yaml:"engine"`
	Size        string     `json:"size" yaml:"size"`
	SizeBytes   int64      `json:"sizeBytes" yaml:"size_bytes"`
	Description string     `json:"description" yaml:"description"`
	Languages   []string   `json:"languages" yaml:"languages"`
	Recommended bool       `json:"recommended,omitempty" yaml:"recommended,omitempty"`
	DownloadURL string     `json:"downloadUrl" yaml:"download_url"`
	IsArchive   bool       `json:"isArchive,omitempty" yaml:"is_archive,omitempty"` // tar.bz2, extracted into a directory
	EnglishOnly bool       `json:"englishOnly,omitempty" yaml:"english_only,omitempty"`
}

// ModelStatus is the on-disk state of a model.
type ModelStatus string

const (
	ModelStatusNotDownloaded ModelStatus = "not_downloaded"
	ModelStatusDownloaded    ModelStatus = "downloaded"
)

// ModelState is a registry entry plus its local state.
type ModelState struct {
	ModelInfo `yaml:",inline"`
	Status    ModelStatus `json:"status" yaml:"status"`
	Path      string      `json:"path,omitempty" yaml:"path,omitempty"`
}

const sherpaReleases = "https://github.com/k2-fsa/sherpa-onnx/releases/download/"

// Registry lists every model skribbl knows how to fetch.
var Registry = []ModelInfo{
	// Whisper (sherpa-onnx int8 exports)
	{
		ID:          "whisper-tiny.en",
		Name:        "Whisper tiny.en",
		Engine:      EngineTypeWhisper,
		Size:        "113 MB",
		SizeBytes:   113_000_000,
		Description: "Fastest English-only Whisper",
		Languages:   []string{"en"},
		DownloadURL: sherpaReleases + "asr-models/sherpa-onnx-whisper-tiny.en.tar.bz2",
		IsArchive:   true,
		EnglishOnly: true,
	},
	{
		ID:          "whisper-base.en",
		Name:        "Whisper base.en",
		Engine:      EngineTypeWhisper,
		Size:        "199 MB",
		SizeBytes:   199_000_000,
		Description: "English-only Whisper, good speed/quality balance",
		Languages:   []string{"en"},
		Recommended: true,
		DownloadURL: sherpaReleases + "asr-models/sherpa-onnx-whisper-base.en.tar.bz2",
		IsArchive:   true,
		EnglishOnly: true,
	},
	{
		ID:          "whisper-base",
		Name:        "Whisper base",
		Engine:      EngineTypeWhisper,
		Size:        "199 MB",
		SizeBytes:   199_000_000,
		Description: "Multilingual Whisper base",
		Languages:   []string{"multi"},
		DownloadURL: sherpaReleases + "asr-models/sherpa-onnx-whisper-base.tar.bz2",
		IsArchive:   true,
	},

	// Diarization
	{
		ID:          "pyannote-segmentation-3.0",
		Name:        "Pyannote Segmentation 3.0",
		Engine:      EngineTypeSegmentation,
		Size:        "5.9 MB",
		SizeBytes:   5_900_000,
		Description: "Speaker segmentation (pyannote.audio)",
		Languages:   []string{"multi"},
		Recommended: true,
		DownloadURL: sherpaReleases + "speaker-segmentation-models/sherpa-onnx-pyannote-segmentation-3-0.tar.bz2",
		IsArchive:   true,
	},

	// Speaker embeddings
	{
		ID:          "wespeaker-voxceleb-resnet34",
		Name:        "WeSpeaker ResNet34",
		Engine:      EngineTypeEmbedding,
		Size:        "26 MB",
		SizeBytes:   26_851_029,
		Description: "Speaker embedding trained on VoxCeleb",
		Languages:   []string{"multi"},
		Recommended: true,
		DownloadURL: sherpaReleases + "speaker-recongition-models/wespeaker_en_voxceleb_resnet34.onnx",
	},
	{
		ID:          "3dspeaker-speech-eres2net",
		Name:        "3D-Speaker ERes2Net",
		Engine:      EngineTypeEmbedding,
		Size:        "25 MB",
		SizeBytes:   25_000_000,
		Description: "Speaker embedding (3D-Speaker)",
		Languages:   []string{"multi"},
		DownloadURL: sherpaReleases + "speaker-recongition-models/3dspeaker_speech_eres2net_base_sv_zh-cn_3dspeaker_16k.onnx",
	},

	// VAD
	{
		ID:          "silero-vad",
		Name:        "Silero VAD",
		Engine:      EngineTypeVAD,
		Size:        "1.8 MB",
		SizeBytes:   1_807_522,
		Description: "Voice activity detector used to chunk audio for Whisper",
		Languages:   []string{"multi"},
		Recommended: true,
		DownloadURL: sherpaReleases + "asr-models/silero_vad.onnx",
	},
}

// GetModelByID returns a copy of the registry entry, or nil.
func GetModelByID(id string) *ModelInfo {
	for _, m := range Registry {
		if m.ID == id {
			return &m
		}
	}
	return nil
}

// GetModelsByEngine returns all models for one role.
func GetModelsByEngine(engine EngineType) []ModelInfo {
	var result []ModelInfo
	for _, m := range Registry {
		if m.Engine == engine {
			result = append(result, m)
		}
	}
	return result
}
