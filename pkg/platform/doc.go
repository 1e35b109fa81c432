// Package platform is the REST client for the managed platform's object
// store, used as the secondary (fallback) backend. Authentication is a plain
// bearer token; the platform handles its own request validation, so unlike
// the primary backend no request signing is involved.
package platform
