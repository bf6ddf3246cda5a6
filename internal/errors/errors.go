package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrPermissionDenied - a capability check or the platform refused the action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidInput - invalid input (bad flag, malformed payload, rejected request)
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound - resource not found
	ErrNotFound = errors.New("not found")

	// ErrConflict - resource already exists or is held by another process
	ErrConflict = errors.New("conflict")

	// ErrTransient - transient error (rate limit, timeout, network); safe to retry
	ErrTransient = errors.New("transient error")

	// ErrInternal - internal error
	ErrInternal = errors.New("internal error")
)
