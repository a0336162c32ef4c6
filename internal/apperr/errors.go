// Package apperr defines the error taxonomy shared by the voice library,
// the transcription pipeline and the CLI.
package apperr

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeNotFound            Code = "NOT_FOUND"
	CodeAlreadyExists       Code = "ALREADY_EXISTS"
	CodeDimensionMismatch   Code = "DIMENSION_MISMATCH"
	CodeCorruptProfile      Code = "CORRUPT_PROFILE"
	CodeCollaboratorFailure Code = "COLLABORATOR_FAILURE"
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeCancelled           Code = "CANCELLED"
)

// Error is the application error type.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error carrying the same code, so sentinels such as
// ErrNotFound work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Code == e.Code
}

// WithCause sets the underlying cause and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Code sentinels for errors.Is.
var (
	ErrNotFound            = &Error{Code: CodeNotFound}
	ErrAlreadyExists       = &Error{Code: CodeAlreadyExists}
	ErrDimensionMismatch   = &Error{Code: CodeDimensionMismatch}
	ErrCorruptProfile      = &Error{Code: CodeCorruptProfile}
	ErrCollaboratorFailure = &Error{Code: CodeCollaboratorFailure}
	ErrInvalidInput        = &Error{Code: CodeInvalidInput}
	ErrCancelled           = &Error{Code: CodeCancelled}
)

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// NotFound reports a missing speaker, file or model.
func NotFound(resource, id string) *Error {
	return (&Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}).WithDetail("resource", resource).WithDetail("id", id)
}

// AlreadyExists reports an enrollment over an existing name without overwrite.
func AlreadyExists(name string) *Error {
	return (&Error{
		Code:    CodeAlreadyExists,
		Message: fmt.Sprintf("speaker '%s' already enrolled", name),
	}).WithDetail("name", name)
}

// DimensionMismatch reports embeddings of different lengths.
func DimensionMismatch(want, got int) *Error {
	return (&Error{
		Code:    CodeDimensionMismatch,
		Message: fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", want, got),
	}).WithDetail("expected", want).WithDetail("actual", got)
}

// CorruptProfile reports a profile whose artifacts are incomplete or unreadable.
func CorruptProfile(name, reason string) *Error {
	return (&Error{
		Code:    CodeCorruptProfile,
		Message: fmt.Sprintf("profile '%s' is corrupt: %s", name, reason),
	}).WithDetail("name", name)
}

// CollaboratorFailure wraps an error returned by a model or decoder.
func CollaboratorFailure(collaborator string, cause error) *Error {
	return (&Error{
		Code:    CodeCollaboratorFailure,
		Message: collaborator + " failed",
		Cause:   cause,
	}).WithDetail("collaborator", collaborator)
}

// InvalidInput reports a rejected argument.
func InvalidInput(field, reason string) *Error {
	return (&Error{
		Code:    CodeInvalidInput,
		Message: fmt.Sprintf("invalid %s: %s", field, reason),
	}).WithDetail("field", field)
}

// Cancelled reports an operation the user declined to confirm.
func Cancelled(message string) *Error {
	return &Error{Code: CodeCancelled, Message: message}
}
