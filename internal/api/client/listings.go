package client

import (
	"context"
	"fmt"

	domain "github.com/mclarke/listing-gateway/pkg/types"
)

// SearchRequest defines the body for the search endpoint.
type SearchRequest struct {
	Marketplace string  `json:"marketplace"`
	Query       string  `json:"query"`
	Category    string  `json:"category,omitempty"`
	MinPrice    float64 `json:"min_price,omitempty"`
	MaxPrice    float64 `json:"max_price,omitempty"`
	Condition   string  `json:"condition,omitempty"`
	Sort        string  `json:"sort,omitempty"`
	Limit       int     `json:"limit,omitempty"`
	Offset      int     `json:"offset,omitempty"`
}

// SearchResponse wraps a paginated search response.
type SearchResponse struct {
	Listings []domain.Listing `json:"listings"`
	Total    int              `json:"total"`
	HasMore  bool             `json:"has_more"`
}

// Search runs a keyword search against one marketplace.
func (c *Client) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.post(ctx, "/api/v1/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResolveResponse is the parsed and optionally fetched result of a
// listing URL.
type ResolveResponse struct {
	Marketplace string          `json:"marketplace"`
	ID          string          `json:"id"`
	Listing     *domain.Listing `json:"listing,omitempty"`
}

// Resolve parses a listing URL and fetches the listing it points at.
// With parseOnly set the provider fetch is skipped.
func (c *Client) Resolve(ctx context.Context, rawURL string, parseOnly bool) (*ResolveResponse, error) {
	body := map[string]any{"url": rawURL}
	if parseOnly {
		body["parse_only"] = true
	}

	var resp ResolveResponse
	if err := c.post(ctx, "/api/v1/resolve", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetListing fetches a single listing by marketplace and native ID.
func (c *Client) GetListing(ctx context.Context, marketplace, id string) (*domain.Listing, error) {
	var l domain.Listing
	if err := c.get(ctx, fmt.Sprintf("/api/v1/listings/%s/%s", marketplace, id), &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// ProviderQuota mirrors the quota endpoint's per-provider entry.
type ProviderQuota struct {
	Provider        string  `json:"provider"`
	Capacity        float64 `json:"capacity"`
	Tokens          float64 `json:"tokens"`
	RefillPerSecond float64 `json:"refill_per_second"`
	WaitMillis      int64   `json:"wait_ms"`
}

// GetQuota returns the rate limit state of every configured provider.
func (c *Client) GetQuota(ctx context.Context) ([]ProviderQuota, error) {
	var resp struct {
		Providers []ProviderQuota `json:"providers"`
	}
	if err := c.get(ctx, "/api/v1/quota", &resp); err != nil {
		return nil, err
	}
	return resp.Providers, nil
}
