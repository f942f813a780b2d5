package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by all marketplace clients and the router.
var (
	// ErrInvalidIdentifier means the marketplace identifier is malformed.
	// It is raised before any network call is made.
	ErrInvalidIdentifier = errors.New("invalid marketplace identifier")

	// ErrInvalidURL means the listing URL could not be parsed at all.
	ErrInvalidURL = errors.New("invalid listing URL")

	// ErrUnsupportedProvider means the URL or marketplace value does not
	// correspond to any configured provider.
	ErrUnsupportedProvider = errors.New("unsupported marketplace provider")

	// ErrIdentifierNotFound means the URL belongs to a known provider but
	// no listing identifier could be extracted from its path.
	ErrIdentifierNotFound = errors.New("no listing identifier in URL")

	// ErrNotFound means the request was valid and the provider confirmed
	// no such item exists. Distinct from a transport failure.
	ErrNotFound = errors.New("listing not found")

	// ErrNotConfigured means a required credential was missing at
	// construction time. Clients fail fast rather than erroring on the
	// first request.
	ErrNotConfigured = errors.New("provider credentials not configured")

	// ErrUnsupportedOperation means the provider cannot perform the
	// requested operation (e.g. single-item fetch on a search-only API).
	ErrUnsupportedOperation = errors.New("operation not supported by provider")
)

// ProviderError carries a non-2xx status or provider-reported fatal
// error, with the raw body retained for diagnostics.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, e.Body)
}

// IsProviderError reports whether err is (or wraps) a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
