package blobkit

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/blobkit/pkg/logger"
	"github.com/dmitrymomot/blobkit/pkg/retry"
)

// Delete removes the object from every configured backend, best effort. It
// returns an error only when all configured backends fail; a partial success
// leaves a residual object behind on the failed backend, which is accepted
// as an operational cost and logged.
func (u *Uploader) Delete(ctx context.Context, bucket, path string) error {
	creds := u.provider.Resolve(ctx)

	var (
		errs      []error
		attempted int
		succeeded int
	)

	if creds.IsConfigured() {
		attempted++
		if out := u.primary.Delete(ctx, creds, bucket, path); out.OK() {
			succeeded++
		} else {
			errs = append(errs, outcomeError(BackendPrimary, out))
		}
	}

	if u.secondary.Configured() {
		attempted++
		if out := u.secondary.Delete(ctx, bucket, path); out.OK() {
			succeeded++
		} else {
			errs = append(errs, outcomeError(BackendSecondary, out))
		}
	}

	if attempted == 0 {
		return ErrNoBackends
	}
	if succeeded == 0 {
		return errors.Join(ErrDeleteFailed, errors.Join(errs...))
	}
	if len(errs) > 0 {
		u.logger.WarnContext(ctx, "partial delete, residual object left behind",
			logger.Bucket(bucket), logger.Path(path), logger.Error(errors.Join(errs...)))
	}
	return nil
}

// SignedURL mints a time-limited download URL. Per the platform contract
// this delegates to the secondary backend only; use PresignedUploadURL for
// the primary's query-signed PUT.
func (u *Uploader) SignedURL(ctx context.Context, bucket, path string, expiresInSeconds int) (string, error) {
	return u.secondary.CreateSignedURL(ctx, bucket, path, expiresInSeconds)
}

func outcomeError(backend Backend, out retry.Outcome) error {
	if out.Err != nil {
		return fmt.Errorf("%s: %w", backend, out.Err)
	}
	return fmt.Errorf("%s: unexpected status %d", backend, out.Status)
}
