package voiceprint

import (
	"context"
	"errors"
	"os"

	"skribbl/internal/apperr"
)

// Enroller checks inputs before handing them to the store. It never asks for
// confirmation; callers decide overwrite.
type Enroller struct {
	store *Store
}

func NewEnroller(store *Store) *Enroller {
	return &Enroller{store: store}
}

// Validate checks the name and that audioPath is a regular file.
func (e *Enroller) Validate(name, audioPath string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	info, err := os.Stat(audioPath)
	if err != nil {
		nf := apperr.NotFound("audio file", audioPath)
		if !errors.Is(err, os.ErrNotExist) {
			nf.WithCause(err)
		}
		return nf
	}
	if !info.Mode().IsRegular() {
		return apperr.NotFound("audio file", audioPath).WithDetail("reason", "not a regular file")
	}
	return nil
}

// Enroll validates its inputs, reloads the library, then enrolls.
func (e *Enroller) Enroll(ctx context.Context, name, audioPath string, overwrite bool) (*VoiceProfile, error) {
	if err := e.Validate(name, audioPath); err != nil {
		return nil, err
	}
	if err := e.store.LoadAll(); err != nil {
		return nil, err
	}
	return e.store.Enroll(ctx, name, audioPath, overwrite)
}

// CheckDim fails fast when an embedder producing dim-length vectors cannot
// join the library. Profiles named name are ignored since they would be
// replaced. A dim of 0 means unknown and always passes.
func (e *Enroller) CheckDim(name string, dim int) error {
	if dim <= 0 {
		return nil
	}
	for _, p := range e.store.Profiles() {
		if p.Name != name && p.Dim() != dim {
			return apperr.DimensionMismatch(p.Dim(), dim).WithDetail("speaker", p.Name)
		}
	}
	return nil
}

// NeedsConfirmation reports whether enrolling name would overwrite a profile.
func (e *Enroller) NeedsConfirmation(name string) bool {
	return e.store.Exists(name)
}
