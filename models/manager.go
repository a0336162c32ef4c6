package models

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// ProgressCallback receives per-model download progress.
type ProgressCallback func(modelID string, progress float64)

// Manager resolves model IDs to files under a models directory and fetches
// missing ones on demand.
type Manager struct {
	modelsDir  string
	authToken  string
	client     *http.Client
	onProgress ProgressCallback
	log        zerolog.Logger
}

// ManagerOption customises a Manager.
type ManagerOption func(*Manager)

// WithAuthToken sends a bearer token with every download (gated models).
func WithAuthToken(token string) ManagerOption {
	return func(m *Manager) { m.authToken = token }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) ManagerOption {
	return func(m *Manager) { m.client = c }
}

// WithProgress registers a progress callback.
func WithProgress(cb ProgressCallback) ManagerOption {
	return func(m *Manager) { m.onProgress = cb }
}

// NewManager does not touch the filesystem; the directory is created on
// the first download.
func NewManager(modelsDir string, log zerolog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{modelsDir: modelsDir, log: log}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Dir() string {
	return m.modelsDir
}

// Path is where a model lives once downloaded: a directory for archives,
// a single .onnx file otherwise.
func (m *Manager) Path(modelID string) (string, error) {
	info := GetModelByID(modelID)
	if info == nil {
		return "", fmt.Errorf("unknown model: %s", modelID)
	}
	if info.IsArchive {
		return filepath.Join(m.modelsDir, modelID), nil
	}
	return filepath.Join(m.modelsDir, modelID+".onnx"), nil
}

// IsDownloaded checks the local copy without any network access.
func (m *Manager) IsDownloaded(modelID string) bool {
	info := GetModelByID(modelID)
	if info == nil {
		return false
	}
	path, _ := m.Path(modelID)

	stat, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsArchive {
		if !stat.IsDir() {
			return false
		}
		_, err := findFile(path, "*.onnx")
		return err == nil
	}
	return stat.Mode().IsRegular() && stat.Size() > 0
}

// Ensure returns the model path, downloading the model first if needed.
func (m *Manager) Ensure(ctx context.Context, modelID string) (string, error) {
	info := GetModelByID(modelID)
	if info == nil {
		return "", fmt.Errorf("unknown model: %s", modelID)
	}
	path, _ := m.Path(modelID)
	if m.IsDownloaded(modelID) {
		return path, nil
	}

	m.log.Info().Str("model", modelID).Str("size", info.Size).Msg("downloading model")
	opts := DownloadOptions{
		ExpectedSize: info.SizeBytes,
		AuthToken:    m.authToken,
		Client:       m.client,
		OnProgress: func(p float64) {
			if m.onProgress != nil {
				m.onProgress(modelID, p)
			}
		},
	}

	var err error
	if info.IsArchive {
		err = DownloadAndExtractTarBz2(ctx, info.DownloadURL, path, opts)
	} else {
		err = DownloadFile(ctx, info.DownloadURL, path, opts)
	}
	if err != nil {
		return "", fmt.Errorf("download %s: %w", modelID, err)
	}

	m.log.Info().Str("model", modelID).Str("path", path).Msg("model ready")
	return path, nil
}

// FindFile locates a file inside a downloaded model by glob pattern on the
// base name, e.g. "*encoder.int8.onnx". Single-file models match themselves.
func (m *Manager) FindFile(modelID, pattern string) (string, error) {
	path, err := m.Path(modelID)
	if err != nil {
		return "", err
	}
	info := GetModelByID(modelID)
	if !info.IsArchive {
		if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
			return path, nil
		}
		return "", fmt.Errorf("model %s has no file matching %s", modelID, pattern)
	}
	found, err := findFile(path, pattern)
	if err != nil {
		return "", fmt.Errorf("model %s: %w", modelID, err)
	}
	return found, nil
}

// findFile walks dir in lexical order and returns the first match.
func findFile(dir, pattern string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); ok {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("no file matching %s in %s", pattern, dir)
	}
	return found, nil
}

// States reports every registry entry with its local status.
func (m *Manager) States() []ModelState {
	states := make([]ModelState, len(Registry))
	for i, info := range Registry {
		state := ModelState{ModelInfo: info, Status: ModelStatusNotDownloaded}
		if m.IsDownloaded(info.ID) {
			state.Status = ModelStatusDownloaded
			state.Path, _ = m.Path(info.ID)
		}
		states[i] = state
	}
	return states
}

// Remove deletes a downloaded model.
func (m *Manager) Remove(modelID string) error {
	path, err := m.Path(modelID)
	if err != nil {
		return err
	}
	if !m.IsDownloaded(modelID) {
		return fmt.Errorf("model %s is not downloaded", modelID)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}
	m.log.Info().Str("model", modelID).Msg("model deleted")
	return nil
}
