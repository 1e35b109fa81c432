// Package credentials resolves primary-backend credentials from either the
// process environment (local development) or a remote secret store
// (production), caching the resolved set for a bounded window.
//
// Resolve never returns an error: when the backend cannot be configured the
// zero CredentialSet is returned and IsConfigured reports false, letting the
// orchestrator skip the backend instead of failing the whole upload.
//
// Secrets must never be logged in full; Mask keeps only the first 6 and last
// 4 characters for diagnostics.
package credentials
