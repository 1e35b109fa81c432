// Package s3api is the raw HTTP client for the S3-compatible primary
// backend. It supports exactly the operations the upload pipeline needs
// (PUT, DELETE, HEAD, presigned PUT and public URL construction) against
// https://{accountId}.{storageDomain}/{bucket}/{path}, signing each request
// with the signer package.
//
// Each operation returns a retry.Outcome so the orchestrator's retry policy
// classifies failures against one closed surface instead of raw transport
// types.
package s3api
