package signer

import (
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Presign returns a presigned URL authorizing method against host/path for
// the given validity window. The signature travels in the query string
// (X-Amz-Signature) instead of an Authorization header, but is derived
// through the same key-derivation chain as Sign. Only the host header is
// signed, so the URL can be used by any HTTP client.
func (s *Signer) Presign(creds Credentials, method, host, path string, expires time.Duration) string {
	now := s.clock().UTC()
	amzDate := now.Format(amzDateFormat)
	dateStamp := now.Format(dateStampFormat)
	scope := credentialScope(dateStamp)

	q := url.Values{}
	q.Set("X-Amz-Algorithm", algorithm)
	q.Set("X-Amz-Credential", creds.AccessKeyID+"/"+scope)
	q.Set("X-Amz-Date", amzDate)
	q.Set("X-Amz-Expires", strconv.FormatInt(int64(expires.Seconds()), 10))
	q.Set("X-Amz-SignedHeaders", "host")

	// Encode sorts keys and percent-encodes values, which matches the
	// canonical query string requirements.
	canonicalQuery := q.Encode()

	canonicalRequest := strings.Join([]string{
		method,
		path,
		canonicalQuery,
		"host:" + host + "\n",
		"host",
		UnsignedPayload,
	}, "\n")

	stringToSign := strings.Join([]string{
		algorithm,
		amzDate,
		scope,
		hashHex([]byte(canonicalRequest)),
	}, "\n")

	signature := hex.EncodeToString(hmacSHA256(signingKey(creds.SecretAccessKey, dateStamp), stringToSign))

	return "https://" + host + path + "?" + canonicalQuery + "&X-Amz-Signature=" + signature
}
