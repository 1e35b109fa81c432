package blobkit

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PublicURL returns the public URL for an object, preferring the primary
// backend's public base when configured. With a warm credential cache this
// is pure string construction for the primary case.
func (u *Uploader) PublicURL(ctx context.Context, bucket, path string) string {
	creds := u.provider.Resolve(ctx)
	if creds.PublicBaseURL != "" {
		return u.primary.PublicURL(creds, bucket, path)
	}
	return u.secondary.PublicURL(bucket, path)
}

// Exists reports whether the object is present on the primary backend.
func (u *Uploader) Exists(ctx context.Context, bucket, path string) bool {
	creds := u.provider.Resolve(ctx)
	if !creds.IsConfigured() {
		return false
	}
	return u.primary.Head(ctx, creds, bucket, path).OK()
}

// PresignedUploadURL returns a URL authorizing a single direct PUT against
// the primary backend, signed with the same key-derivation chain as regular
// requests.
func (u *Uploader) PresignedUploadURL(ctx context.Context, bucket, path string, expires time.Duration) (string, error) {
	creds := u.provider.Resolve(ctx)
	if !creds.IsConfigured() {
		return "", ErrPrimaryNotConfigured
	}
	return u.primary.PresignPut(creds, bucket, path, expires)
}

// NewObjectPath generates a unique object path under prefix, keeping the
// original file extension. Uploads racing on the same path are not
// deduplicated, so callers are expected to generate a fresh path per object.
func NewObjectPath(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	name := uuid.NewString() + ext
	if prefix == "" {
		return name
	}
	return strings.Trim(prefix, "/") + "/" + name
}
