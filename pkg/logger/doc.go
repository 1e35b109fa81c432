// Package logger builds configured slog loggers and provides attribute
// helpers with the canonical keys used across the upload pipeline (backend,
// bucket, path, attempt, status). Secrets must be masked by the caller before
// they reach any attribute; see the credentials package.
package logger
