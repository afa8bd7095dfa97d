package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Shard error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrCorruptState   ErrorCode = "CORRUPT_STATE"   // 422, persisted blob unreadable (non-fatal: treated as empty)
	ErrRemoteFailed   ErrorCode = "REMOTE_FAILED"   // 502, remote call failed (logged, local state unaffected)
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// ShardError represents a structured error with code, status, and details.
type ShardError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *ShardError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *ShardError {
	return &ShardError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a project cannot be found.
func NewNotFound(id string) *ShardError {
	return &ShardError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("project not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewCorruptState creates a 422 error for an unreadable persisted blob.
// Callers log it and fall back to an empty history; it never propagates
// as a fatal error.
func NewCorruptState(namespace string, cause error) *ShardError {
	msg := fmt.Sprintf("persisted state for namespace %q is corrupt", namespace)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &ShardError{
		Code:    ErrCorruptState,
		Status:  422,
		Message: msg,
		Details: map[string]any{"namespace": namespace},
	}
}

// NewRemoteFailed creates a 502 error for a failed remote store call.
func NewRemoteFailed(op string, cause error) *ShardError {
	msg := fmt.Sprintf("remote %s failed", op)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &ShardError{
		Code:    ErrRemoteFailed,
		Status:  502,
		Message: msg,
		Details: map[string]any{"op": op},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *ShardError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &ShardError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a ShardError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *ShardError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}
