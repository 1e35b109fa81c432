package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Backend records the storage backend name under the key "backend".
func Backend(name string) slog.Attr {
	return slog.String("backend", name)
}

// Bucket records the bucket name under the key "bucket".
func Bucket(name string) slog.Attr {
	return slog.String("bucket", name)
}

// Path records the object path under the key "path".
func Path(p string) slog.Attr {
	return slog.String("path", p)
}

// Attempt records the 0-based attempt index under the key "attempt".
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// Status records the HTTP status code under the key "status".
// If status is zero (no response), it returns an empty Attr.
func Status(code int) slog.Attr {
	if code == 0 {
		return slog.Attr{}
	}
	return slog.Int("status", code)
}
