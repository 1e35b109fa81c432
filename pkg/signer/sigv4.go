package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
	"time"
)

const (
	algorithm = "AWS4-HMAC-SHA256"

	// UnsignedPayload is the sentinel content hash used when the request body
	// is not hashed (GET/HEAD/DELETE without a body).
	UnsignedPayload = "UNSIGNED-PAYLOAD"

	// The S3-compatible backend accepts a single pseudo-region.
	signingRegion  = "auto"
	signingService = "s3"

	amzDateFormat   = "20060102T150405Z"
	dateStampFormat = "20060102"
)

// Credentials carries the key material needed to sign a request.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// Signer produces SigV4 Authorization headers for the S3-compatible backend.
// It has no side effects: output is a pure function of its inputs and the
// clock. The zero value uses the wall clock; set Now to inject a fixed clock
// for deterministic output.
type Signer struct {
	Now func() time.Time
}

// New returns a Signer backed by the wall clock.
func New() *Signer {
	return &Signer{}
}

func (s *Signer) clock() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Sign builds the canonical request for method against host/path, derives the
// scoped signing key and returns the full set of headers to send, including
// Authorization, x-amz-date and x-amz-content-sha256. Caller-supplied headers
// in extra (content-type etc.) are included in the signature. A nil body is
// signed as UNSIGNED-PAYLOAD.
func (s *Signer) Sign(creds Credentials, method, host, path string, extra http.Header, body []byte) http.Header {
	// Both stamps derive from one clock read so the date cannot roll over
	// between the credential scope and the timestamp.
	now := s.clock().UTC()
	amzDate := now.Format(amzDateFormat)
	dateStamp := now.Format(dateStampFormat)

	payloadHash := UnsignedPayload
	if body != nil {
		payloadHash = hashHex(body)
	}

	headers := http.Header{}
	for k, vs := range extra {
		for _, v := range vs {
			headers.Add(k, v)
		}
	}
	headers.Set("host", host)
	headers.Set("x-amz-content-sha256", payloadHash)
	headers.Set("x-amz-date", amzDate)

	canonicalHeaders, signedHeaders := canonicalizeHeaders(headers)

	canonicalRequest := strings.Join([]string{
		method,
		path,
		"", // header-signed requests carry no query string
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	scope := credentialScope(dateStamp)
	stringToSign := strings.Join([]string{
		algorithm,
		amzDate,
		scope,
		hashHex([]byte(canonicalRequest)),
	}, "\n")

	signature := hex.EncodeToString(hmacSHA256(signingKey(creds.SecretAccessKey, dateStamp), stringToSign))

	headers.Set("Authorization", algorithm+
		" Credential="+creds.AccessKeyID+"/"+scope+
		", SignedHeaders="+signedHeaders+
		", Signature="+signature)

	return headers
}

func credentialScope(dateStamp string) string {
	return strings.Join([]string{dateStamp, signingRegion, signingService, "aws4_request"}, "/")
}

// signingKey derives the scoped key via the four-stage HMAC-SHA256 chain,
// each stage consuming the previous digest as its key.
func signingKey(secret, dateStamp string) []byte {
	k := hmacSHA256([]byte("AWS4"+secret), dateStamp)
	k = hmacSHA256(k, signingRegion)
	k = hmacSHA256(k, signingService)
	return hmacSHA256(k, "aws4_request")
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

func hashHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// canonicalizeHeaders lower-cases and sorts header names, producing the
// canonical header block (one "name:value" line per header, each terminated
// by a newline) and the semicolon-joined signed header list.
func canonicalizeHeaders(h http.Header) (canonical, signed string) {
	names := make([]string, 0, len(h))
	for k := range h {
		if strings.EqualFold(k, "Authorization") {
			continue
		}
		names = append(names, strings.ToLower(k))
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(strings.TrimSpace(h.Get(name)))
		b.WriteByte('\n')
	}

	return b.String(), strings.Join(names, ";")
}
