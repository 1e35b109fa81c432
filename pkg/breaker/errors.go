package breaker

import "errors"

var (
	ErrNilRedisClient   = errors.New("redis client is nil")
	ErrStoreUnavailable = errors.New("circuit store unavailable")
	ErrMalformedState   = errors.New("malformed circuit state")
)
