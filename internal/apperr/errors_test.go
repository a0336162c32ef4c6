package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFound_Details(t *testing.T) {
	err := NotFound("speaker", "Alice")
	assert.Equal(t, CodeNotFound, err.Code)
	assert.Equal(t, "speaker 'Alice' not found", err.Error())
	assert.Equal(t, "speaker", err.Details["resource"])
	assert.Equal(t, "Alice", err.Details["id"])
}

func TestIs_MatchesSentinelByCode(t *testing.T) {
	wrapped := fmt.Errorf("enroll: %w", AlreadyExists("Bob"))

	assert.True(t, errors.Is(wrapped, ErrAlreadyExists))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, CodeAlreadyExists, CodeOf(wrapped))
}

func TestCollaboratorFailure_Unwrap(t *testing.T) {
	cause := errors.New("onnx session crashed")
	err := CollaboratorFailure("embedding model", cause)

	require.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrCollaboratorFailure)
	assert.Equal(t, "embedding model failed: onnx session crashed", err.Error())
}

func TestDimensionMismatch_Message(t *testing.T) {
	err := DimensionMismatch(256, 512)
	assert.Contains(t, err.Error(), "expected 256, got 512")
	assert.Equal(t, 256, err.Details["expected"])
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(errors.New("boom")))
	assert.Equal(t, Code(""), CodeOf(nil))
}
