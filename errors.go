package blobkit

import "errors"

var (
	// Validation errors, surfaced before any network call.
	ErrEmptyFile          = errors.New("file is empty")
	ErrFileTooLarge       = errors.New("file size exceeds maximum allowed size")
	ErrMIMETypeNotAllowed = errors.New("MIME type is not allowed")

	// Orchestration errors.
	ErrNoBackends           = errors.New("no storage backend is configured")
	ErrDeleteFailed         = errors.New("delete failed on all configured backends")
	ErrPrimaryNotConfigured = errors.New("primary backend is not configured")
)

// ErrorKind labels the failure class reported to the application layer.
type ErrorKind string

const (
	ErrorValidation ErrorKind = "validation"
	ErrorNetwork    ErrorKind = "network"
	ErrorServer     ErrorKind = "server"
	ErrorClient     ErrorKind = "client"
	ErrorCORS       ErrorKind = "cors"
	ErrorUnknown    ErrorKind = "unknown"
)

// Error is the failure value crossing the package boundary. Message is a
// short human-readable string, never a raw backend error body.
type Error struct {
	Kind      ErrorKind
	Message   string
	Retriable bool
}

func (e *Error) Error() string {
	return e.Message
}
