package s3api

import "errors"

var (
	ErrEmptyObjectPath = errors.New("bucket and path are required")
	ErrInvalidPath     = errors.New("invalid path") // Prevents path traversal
)
