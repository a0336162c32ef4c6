package voiceprint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skribbl/internal/apperr"
	"skribbl/internal/logging"
)

func TestStore_EnrollThenLoadAllRoundTrip(t *testing.T) {
	dir := t.TempDir()
	emb := &fakeEmbedder{files: map[string][]float32{
		"alice.wav": {0.25, -0.5, 0.125, 1e-7},
		"bob.wav":   {0.1, 0.2, 0.3, 0.4},
	}}
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewStore(dir, emb, logging.Nop(), WithClock(func() time.Time { return created }), WithModelID("wespeaker"))

	_, err := s.Enroll(context.Background(), "Alice", "alice.wav", false)
	require.NoError(t, err)
	_, err = s.Enroll(context.Background(), "Bob", "bob.wav", false)
	require.NoError(t, err)

	fresh := newTestStore(dir, nil)
	require.NoError(t, fresh.LoadAll())

	assert.Equal(t, []string{"Alice", "Bob"}, fresh.ListNames())
	alice, ok := fresh.Get("Alice")
	require.True(t, ok)
	assert.Equal(t, emb.files["alice.wav"], alice.Embedding)
	assert.Equal(t, "alice.wav", alice.SourcePath)
	assert.True(t, created.Equal(alice.CreatedAt))
	assert.Equal(t, "wespeaker", alice.Model)
	assert.NotEmpty(t, alice.ID)
	assert.Equal(t, 4, fresh.Dim())
}

func TestStore_ArtifactsOnDisk(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(dir, &fakeEmbedder{files: map[string][]float32{"a.wav": vecA}})

	_, err := s.Enroll(context.Background(), "Alice", "a.wav", false)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "Alice.json"))
	assert.FileExists(t, filepath.Join(dir, "Alice.vec"))
	assert.NoFileExists(t, filepath.Join(dir, "Alice.json.tmp"))

	raw, err := os.ReadFile(filepath.Join(dir, "Alice.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"enrollment_file": "a.wav"`)
	assert.Contains(t, string(raw), `"created_at"`)
	assert.Contains(t, string(raw), `"dim": 2`)
}

func TestStore_EnrollAlreadyExists(t *testing.T) {
	dir := t.TempDir()
	emb := &fakeEmbedder{files: map[string][]float32{"a.wav": vecA, "b.wav": vecB}}
	s := newTestStore(dir, emb)

	_, err := s.Enroll(context.Background(), "Alice", "a.wav", false)
	require.NoError(t, err)

	// A fresh store sees the name on disk even before LoadAll.
	fresh := newTestStore(dir, emb)
	_, err = fresh.Enroll(context.Background(), "Alice", "b.wav", false)
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
	assert.Equal(t, 1, emb.fileCalls, "no embedding work when refusing")

	p, err := fresh.Enroll(context.Background(), "Alice", "b.wav", true)
	require.NoError(t, err)
	assert.Equal(t, vecB, p.Embedding)

	require.NoError(t, fresh.LoadAll())
	got, _ := fresh.Get("Alice")
	assert.Equal(t, vecB, got.Embedding)
	assert.Equal(t, "b.wav", got.SourcePath)
}

func TestStore_EnrollDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	emb := &fakeEmbedder{files: map[string][]float32{"a.wav": vecA, "c.wav": {1, 2, 3}}}
	s := newTestStore(dir, emb)

	_, err := s.Enroll(context.Background(), "Alice", "a.wav", false)
	require.NoError(t, err)
	_, err = s.Enroll(context.Background(), "Carol", "c.wav", false)
	assert.ErrorIs(t, err, apperr.ErrDimensionMismatch)
	assert.False(t, s.Exists("Carol"))
}

func TestStore_EnrollCollaboratorFailure(t *testing.T) {
	s := newTestStore(t.TempDir(), &fakeEmbedder{fileErr: errors.New("model crashed")})

	_, err := s.Enroll(context.Background(), "Alice", "a.wav", false)
	assert.ErrorIs(t, err, apperr.ErrCollaboratorFailure)
	assert.False(t, s.Exists("Alice"))
}

func TestStore_EnrollRejectsBadNames(t *testing.T) {
	s := newTestStore(t.TempDir(), &fakeEmbedder{})
	for _, name := range []string{"", "  ", "../evil", "a/b", `a\b`, ".hidden"} {
		_, err := s.Enroll(context.Background(), name, "a.wav", false)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, "name %q", name)
	}
}

func TestStore_Delete(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(dir, &fakeEmbedder{files: map[string][]float32{"a.wav": vecA}})
	_, err := s.Enroll(context.Background(), "Alice", "a.wav", false)
	require.NoError(t, err)

	ok, err := s.Delete("Alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, s.Exists("Alice"))
	assert.NoFileExists(t, filepath.Join(dir, "Alice.json"))
	assert.NoFileExists(t, filepath.Join(dir, "Alice.vec"))
	assert.Zero(t, s.Count())

	ok, err = s.Delete("Alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_DeleteUnknownHasNoSideEffects(t *testing.T) {
	dir := t.TempDir()
	writer := newTestStore(dir, &fakeEmbedder{files: map[string][]float32{"a.wav": vecA}})
	_, err := writer.Enroll(context.Background(), "Alice", "a.wav", false)
	require.NoError(t, err)

	// Not loaded into this instance, so it is not "present".
	reader := newTestStore(dir, nil)
	ok, err := reader.Delete("Alice")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.FileExists(t, filepath.Join(dir, "Alice.json"))
}

func TestStore_DeleteToleratesMissingEmbedding(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(dir, &fakeEmbedder{files: map[string][]float32{"a.wav": vecA}})
	_, err := s.Enroll(context.Background(), "Alice", "a.wav", false)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "Alice.vec")))

	ok, err := s.Delete("Alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_PurgeRemovesOrphans(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(dir, &fakeEmbedder{files: map[string][]float32{"a.wav": vecA}})
	_, err := s.Enroll(context.Background(), "Alice", "a.wav", false)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "Alice.vec")))

	// Broken profiles are skipped on load, so Delete cannot see them.
	reader := newTestStore(dir, nil)
	require.NoError(t, reader.LoadAll())
	ok, err := reader.Delete("Alice")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = reader.Purge("Alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoFileExists(t, filepath.Join(dir, "Alice.json"))
	assert.Empty(t, reader.Verify())

	ok, err = reader.Purge("Alice")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = reader.Purge("../evil")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestStore_LoadAllSkipsBrokenEntries(t *testing.T) {
	dir := t.TempDir()
	emb := &fakeEmbedder{files: map[string][]float32{"a.wav": vecA, "b.wav": vecB, "d.wav": vecA}}
	s := newTestStore(dir, emb)
	for name, path := range map[string]string{"Alice": "a.wav", "Bob": "b.wav", "Dave": "d.wav"} {
		_, err := s.Enroll(context.Background(), name, path, false)
		require.NoError(t, err)
	}

	// Bob loses his embedding, Dave's metadata is garbage.
	require.NoError(t, os.Remove(filepath.Join(dir, "Bob.vec")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dave.json"), []byte("{not json"), 0644))

	fresh := newTestStore(dir, nil)
	require.NoError(t, fresh.LoadAll())
	assert.Equal(t, []string{"Alice"}, fresh.ListNames())
	assert.True(t, fresh.Exists("Bob"), "Exists only looks at metadata")
}

func TestStore_LoadAllSkipsDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(dir, &fakeEmbedder{files: map[string][]float32{"a.wav": vecA}})
	_, err := s.Enroll(context.Background(), "Alice", "a.wav", false)
	require.NoError(t, err)

	other := newTestStore(dir, &fakeEmbedder{files: map[string][]float32{"z.wav": {1, 2, 3}}})
	_, err = other.Enroll(context.Background(), "Zed", "z.wav", false)
	require.NoError(t, err)

	fresh := newTestStore(dir, nil)
	require.NoError(t, fresh.LoadAll())
	assert.Equal(t, []string{"Alice"}, fresh.ListNames())
}

func TestStore_LoadAllMissingDirectory(t *testing.T) {
	s := newTestStore(filepath.Join(t.TempDir(), "absent"), nil)
	require.NoError(t, s.LoadAll())
	assert.Zero(t, s.Count())
	assert.Empty(t, s.ListNames())
}

func TestStore_ProfilesSortedAndCopied(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(dir, &fakeEmbedder{files: map[string][]float32{"a.wav": vecA, "b.wav": vecB}})
	_, err := s.Enroll(context.Background(), "bob", "b.wav", false)
	require.NoError(t, err)
	_, err = s.Enroll(context.Background(), "Alice", "a.wav", false)
	require.NoError(t, err)

	profiles := s.Profiles()
	require.Len(t, profiles, 2)
	assert.Equal(t, "Alice", profiles[0].Name)
	assert.Equal(t, "bob", profiles[1].Name)

	profiles[0].Embedding[0] = 42
	again, _ := s.Get("Alice")
	assert.Equal(t, float32(1), again.Embedding[0])
}

func TestStore_Verify(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(dir, &fakeEmbedder{files: map[string][]float32{"a.wav": vecA, "b.wav": vecB}})
	_, err := s.Enroll(context.Background(), "Alice", "a.wav", false)
	require.NoError(t, err)
	_, err = s.Enroll(context.Background(), "Bob", "b.wav", false)
	require.NoError(t, err)
	assert.Empty(t, s.Verify())

	require.NoError(t, os.Remove(filepath.Join(dir, "Alice.json")))
	require.NoError(t, os.Remove(filepath.Join(dir, "Bob.vec")))

	problems := s.Verify()
	require.Len(t, problems, 2)
	assert.Equal(t, "Alice", problems[0].Name)
	assert.Equal(t, "metadata file missing", problems[0].Reason)
	assert.Equal(t, "Bob", problems[1].Name)
	assert.Equal(t, "embedding file missing", problems[1].Reason)
	assert.ErrorIs(t, problems[1].Err, apperr.ErrCorruptProfile)
}
