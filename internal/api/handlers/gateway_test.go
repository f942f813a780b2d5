package handlers_test

import (
	"context"

	domain "github.com/mclarke/listing-gateway/pkg/types"
)

// fakeGateway is a hand-rolled Gateway test double. Each call records its
// arguments and returns the configured result.
type fakeGateway struct {
	listing *domain.Listing
	result  *domain.SearchResult
	err     error

	resolvedMarket domain.Marketplace
	resolvedID     string
	fetchedURL     string
	searchedMarket domain.Marketplace
	searchedParams domain.SearchParams
}

func (f *fakeGateway) Resolve(_ context.Context, m domain.Marketplace, id string) (*domain.Listing, error) {
	f.resolvedMarket = m
	f.resolvedID = id
	return f.listing, f.err
}

func (f *fakeGateway) FetchFromURL(_ context.Context, rawURL string) (*domain.Listing, error) {
	f.fetchedURL = rawURL
	if f.err != nil {
		return nil, f.err
	}
	if f.listing == nil {
		return nil, domain.ErrNotFound
	}
	return f.listing, nil
}

func (f *fakeGateway) Search(_ context.Context, m domain.Marketplace, params domain.SearchParams) (*domain.SearchResult, error) {
	f.searchedMarket = m
	f.searchedParams = params
	return f.result, f.err
}
