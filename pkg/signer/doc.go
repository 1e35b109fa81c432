// Package signer implements SigV4 request signing for the S3-compatible
// storage backend without depending on a cloud SDK.
//
// Two signing modes are provided: header signing via Signer.Sign, which
// produces an Authorization header for server-side requests, and query
// presigning via Signer.Presign, which embeds the signature in the URL so a
// client without credentials can perform a single upload.
//
// Signing is deterministic for a fixed clock, which the Now field exposes for
// tests:
//
//	s := signer.New()
//	s.Now = func() time.Time { return fixedTime }
//	headers := s.Sign(creds, http.MethodPut, host, "/bucket/key", nil, body)
package signer
