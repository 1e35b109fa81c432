package credentials

import "errors"

var (
	ErrNilSecretStore     = errors.New("secret store is nil")
	ErrMissingStoreConfig = errors.New("secret store base URL and token are required")
	ErrSecretFetchFailed  = errors.New("failed to fetch secrets")
)
