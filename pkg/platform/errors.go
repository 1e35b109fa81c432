package platform

import "errors"

var (
	ErrNotConfigured = errors.New("platform store is not configured")
	ErrSignURLFailed = errors.New("failed to create signed URL")
)
