package voiceprint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"skribbl/internal/apperr"
)

const (
	metaExt = ".json"
	vecExt  = ".vec"
)

// FileEmbedder computes a speaker embedding from a whole audio file.
type FileEmbedder interface {
	EmbedFile(ctx context.Context, path string) ([]float32, error)
}

// Store persists voice profiles as two artifacts per speaker in one
// directory: <name>.vec (gonum VecDense binary) and <name>.json (metadata).
// It assumes a single writer and does no locking.
type Store struct {
	dir      string
	embedder FileEmbedder
	modelID  string
	now      func() time.Time
	log      zerolog.Logger

	profiles map[string]*VoiceProfile
}

type StoreOption func(*Store)

// WithModelID records the embedding model id in new profiles.
func WithModelID(id string) StoreOption {
	return func(s *Store) { s.modelID = id }
}

// WithClock overrides time.Now for CreatedAt.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store over dir. The embedder is only needed by Enroll
// and may be nil for read-only use. Nothing is read until LoadAll.
func NewStore(dir string, embedder FileEmbedder, log zerolog.Logger, opts ...StoreOption) *Store {
	s := &Store{
		dir:      dir,
		embedder: embedder,
		now:      time.Now,
		log:      log,
		profiles: make(map[string]*VoiceProfile),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) metaPath(name string) string { return filepath.Join(s.dir, name+metaExt) }
func (s *Store) vecPath(name string) string  { return filepath.Join(s.dir, name+vecExt) }

// LoadAll replaces the cache with every valid profile on disk. Entries with a
// missing embedding, unreadable artifacts or a dimension that disagrees with
// the profiles already loaded are skipped with a warning. A missing directory
// is an empty library.
func (s *Store) LoadAll() error {
	s.profiles = make(map[string]*VoiceProfile)

	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Debug().Str("dir", s.dir).Msg("profile directory does not exist yet")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read profile directory: %w", err)
	}

	dim := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != metaExt {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), metaExt)

		if _, err := os.Stat(s.vecPath(name)); err != nil {
			s.log.Warn().Str("speaker", name).Msg("embedding file missing, skipping")
			continue
		}

		p, err := s.readProfile(name)
		if err != nil {
			s.log.Warn().Err(err).Str("speaker", name).Msg("unreadable profile, skipping")
			continue
		}
		if dim == 0 {
			dim = p.Dim()
		} else if p.Dim() != dim {
			s.log.Warn().Str("speaker", name).Int("dim", p.Dim()).Int("expected", dim).
				Msg("embedding dimension mismatch, skipping")
			continue
		}

		s.profiles[name] = p
	}

	s.log.Debug().Str("dir", s.dir).Int("profiles", len(s.profiles)).Msg("voice library loaded")
	return nil
}

func (s *Store) readProfile(name string) (*VoiceProfile, error) {
	raw, err := os.ReadFile(s.metaPath(name))
	if err != nil {
		return nil, err
	}
	var meta profileMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, apperr.CorruptProfile(name, "invalid metadata").WithCause(err)
	}

	embedding, err := readVector(s.vecPath(name))
	if err != nil {
		return nil, apperr.CorruptProfile(name, "invalid embedding").WithCause(err)
	}
	if len(embedding) == 0 {
		return nil, apperr.CorruptProfile(name, "empty embedding")
	}
	if meta.Dim != 0 && meta.Dim != len(embedding) {
		return nil, apperr.DimensionMismatch(meta.Dim, len(embedding))
	}
	if meta.Name != "" && meta.Name != name {
		s.log.Warn().Str("file", name).Str("name", meta.Name).Msg("metadata name differs from file name, using file name")
	}

	return &VoiceProfile{
		ID:         meta.ID,
		Name:       name,
		Embedding:  embedding,
		SourcePath: meta.EnrollmentFile,
		CreatedAt:  meta.CreatedAt,
		Model:      meta.Model,
	}, nil
}

// Exists checks the metadata artifact on disk, independent of LoadAll.
func (s *Store) Exists(name string) bool {
	if ValidateName(name) != nil {
		return false
	}
	_, err := os.Stat(s.metaPath(name))
	return err == nil
}

// Get returns a copy of a loaded profile.
func (s *Store) Get(name string) (*VoiceProfile, bool) {
	p, ok := s.profiles[name]
	if !ok {
		return nil, false
	}
	return cloneProfile(p), true
}

// ListNames returns loaded names in lexicographic order.
func (s *Store) ListNames() []string {
	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profiles returns copies of all loaded profiles, ordered by name.
func (s *Store) Profiles() []VoiceProfile {
	names := s.ListNames()
	out := make([]VoiceProfile, len(names))
	for i, name := range names {
		out[i] = *cloneProfile(s.profiles[name])
	}
	return out
}

func (s *Store) Count() int {
	return len(s.profiles)
}

// Dim returns the embedding length shared by the loaded profiles, or 0.
func (s *Store) Dim() int {
	for _, p := range s.profiles {
		return p.Dim()
	}
	return 0
}

// Enroll embeds audioPath and persists it under name. The embedding file is
// written before the metadata file; a crash in between leaves an orphan
// embedding that LoadAll ignores and Verify reports.
func (s *Store) Enroll(ctx context.Context, name, audioPath string, overwrite bool) (*VoiceProfile, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if s.Exists(name) && !overwrite {
		return nil, apperr.AlreadyExists(name)
	}
	if s.embedder == nil {
		return nil, apperr.CollaboratorFailure("embedding model", errors.New("no embedder configured"))
	}

	embedding, err := s.embedder.EmbedFile(ctx, audioPath)
	if err != nil {
		if apperr.CodeOf(err) != "" {
			return nil, err
		}
		return nil, apperr.CollaboratorFailure("embedding model", err)
	}
	if len(embedding) == 0 {
		return nil, apperr.CollaboratorFailure("embedding model", errors.New("empty embedding"))
	}
	for other, p := range s.profiles {
		if other != name && p.Dim() != len(embedding) {
			return nil, apperr.DimensionMismatch(p.Dim(), len(embedding))
		}
	}

	profile := &VoiceProfile{
		ID:         uuid.New().String(),
		Name:       name,
		Embedding:  append([]float32(nil), embedding...),
		SourcePath: audioPath,
		CreatedAt:  s.now().UTC(),
		Model:      s.modelID,
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}
	if err := writeVector(s.vecPath(name), profile.Embedding); err != nil {
		return nil, err
	}
	meta := profileMeta{
		Name:           profile.Name,
		EnrollmentFile: profile.SourcePath,
		CreatedAt:      profile.CreatedAt,
		ID:             profile.ID,
		Model:          profile.Model,
		Dim:            profile.Dim(),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile metadata: %w", err)
	}
	if err := writeFileAtomic(s.metaPath(name), data); err != nil {
		return nil, err
	}

	s.profiles[name] = profile
	s.log.Info().Str("speaker", name).Str("id", profile.ID[:8]).Int("dim", profile.Dim()).Msg("speaker enrolled")
	return cloneProfile(profile), nil
}

// Delete removes a loaded profile and both artifacts. It returns false, with
// no side effects, when name is not loaded.
func (s *Store) Delete(name string) (bool, error) {
	if _, ok := s.profiles[name]; !ok {
		return false, nil
	}
	for _, path := range []string{s.metaPath(name), s.vecPath(name)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("failed to delete %s: %w", filepath.Base(path), err)
		}
	}
	delete(s.profiles, name)
	s.log.Info().Str("speaker", name).Msg("speaker deleted")
	return true, nil
}

// Purge removes whatever artifacts exist on disk for name, loaded or not.
// It is how orphaned or unreadable profiles reported by Verify get cleaned
// up. It returns false when nothing was there.
func (s *Store) Purge(name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	removed := false
	for _, path := range []string{s.metaPath(name), s.vecPath(name)} {
		err := os.Remove(path)
		switch {
		case err == nil:
			removed = true
		case !errors.Is(err, os.ErrNotExist):
			return removed, fmt.Errorf("failed to delete %s: %w", filepath.Base(path), err)
		}
	}
	delete(s.profiles, name)
	if removed {
		s.log.Info().Str("speaker", name).Msg("speaker artifacts purged")
	}
	return removed, nil
}

// Verify inspects the directory and reports orphaned or unreadable artifacts.
func (s *Store) Verify() []Problem {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return []Problem{{Name: s.dir, Reason: "profile directory unreadable", Err: err}}
	}

	metas := make(map[string]bool)
	vecs := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case metaExt:
			metas[strings.TrimSuffix(entry.Name(), metaExt)] = true
		case vecExt:
			vecs[strings.TrimSuffix(entry.Name(), vecExt)] = true
		}
	}

	var problems []Problem
	dim := 0
	for _, name := range sortedKeys(metas, vecs) {
		switch {
		case metas[name] && !vecs[name]:
			problems = append(problems, Problem{Name: name, Reason: "embedding file missing",
				Err: apperr.CorruptProfile(name, "embedding file missing")})
		case vecs[name] && !metas[name]:
			problems = append(problems, Problem{Name: name, Reason: "metadata file missing",
				Err: apperr.CorruptProfile(name, "metadata file missing")})
		default:
			p, err := s.readProfile(name)
			if err != nil {
				problems = append(problems, Problem{Name: name, Reason: err.Error(), Err: err})
				continue
			}
			if dim == 0 {
				dim = p.Dim()
			} else if p.Dim() != dim {
				problems = append(problems, Problem{Name: name, Reason: "embedding dimension differs from library",
					Err: apperr.DimensionMismatch(dim, p.Dim())})
			}
		}
	}
	return problems
}

// ValidateName rejects names that cannot be used as a file stem.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return apperr.InvalidInput("name", "must not be empty")
	case strings.ContainsAny(name, `/\`) || name == "." || name == "..":
		return apperr.InvalidInput("name", "must not contain path separators")
	case strings.HasPrefix(name, "."):
		return apperr.InvalidInput("name", "must not start with a dot")
	}
	return nil
}

func readVector(path string) ([]float32, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v mat.VecDense
	if err := v.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	out := make([]float32, v.Len())
	for i := range out {
		out[i] = float32(v.AtVec(i))
	}
	return out, nil
}

func writeVector(path string, embedding []float32) error {
	v := mat.NewVecDense(len(embedding), toFloat64(embedding))
	data, err := v.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}
	return writeFileAtomic(path, data)
}

// writeFileAtomic writes through a temp file and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func cloneProfile(p *VoiceProfile) *VoiceProfile {
	c := *p
	c.Embedding = append([]float32(nil), p.Embedding...)
	return &c
}

func sortedKeys(sets ...map[string]bool) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, set := range sets {
		for k := range set {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
