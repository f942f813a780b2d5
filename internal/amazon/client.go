// Package amazon implements the two interchangeable Amazon product
// clients behind one interface: the SigV4-signed Product Advertising
// API and a key-authenticated RapidAPI data source. Which one serves
// requests is a startup-time decision, never a runtime failover.
package amazon

import (
	"context"

	domain "github.com/mclarke/listing-gateway/pkg/types"
)

// Provider names for the Amazon-compatible clients.
const (
	ProviderPAAPI    = "paapi"
	ProviderRapidAPI = "rapidapi"
)

// ProductClient defines the interface both Amazon clients implement.
type ProductClient interface {
	// FetchByASIN returns the listing for an ASIN, or (nil, nil) when the
	// provider confirms no such item exists.
	FetchByASIN(ctx context.Context, asin string) (*domain.Listing, error)

	// Search runs a keyword search and normalizes the results.
	Search(ctx context.Context, params domain.SearchParams) (*domain.SearchResult, error)

	// Name identifies the backing provider for logging and metrics.
	Name() string
}
