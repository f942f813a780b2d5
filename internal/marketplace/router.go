// Package marketplace routes provider-agnostic listing requests to the
// correct provider client. Normalization never happens here: each
// client hands back canonical listings, and the router only classifies,
// dispatches and translates "no result" into ErrNotFound.
package marketplace

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mclarke/listing-gateway/internal/amazon"
	"github.com/mclarke/listing-gateway/pkg/logger"
	domain "github.com/mclarke/listing-gateway/pkg/types"
)

// Searcher is the slice of a provider client the router needs for
// keyword search dispatch.
type Searcher interface {
	Search(ctx context.Context, params domain.SearchParams) (*domain.SearchResult, error)
}

// Router is the facade in front of all provider clients.
type Router struct {
	amazon amazon.ProductClient
	ebay   Searcher
	logger *slog.Logger
}

// RouterOption configures the Router.
type RouterOption func(*Router)

// WithRouterLogger sets the logger.
func WithRouterLogger(l *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = l
	}
}

// New creates a Router over the configured provider clients.
func New(amazonClient amazon.ProductClient, ebayClient Searcher, opts ...RouterOption) *Router {
	r := &Router{
		amazon: amazonClient,
		ebay:   ebayClient,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fetches a single listing by explicit marketplace and
// identifier. Returns (nil, nil) when the provider confirms no such
// item. The eBay provider is search-only, so an eBay resolve fails with
// ErrUnsupportedOperation rather than guessing at a search.
func (r *Router) Resolve(ctx context.Context, marketplace domain.Marketplace, id string) (*domain.Listing, error) {
	switch marketplace {
	case domain.MarketplaceAmazon:
		if r.amazon == nil {
			return nil, fmt.Errorf("%w: amazon", domain.ErrNotConfigured)
		}
		return r.amazon.FetchByASIN(ctx, id)
	case domain.MarketplaceEbay:
		return nil, fmt.Errorf("%w: ebay has no single-item fetch", domain.ErrUnsupportedOperation)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, marketplace)
	}
}

// FetchFromURL parses a listing URL and resolves it. A confirmed-empty
// result becomes ErrNotFound so callers can tell it apart from
// transport failures.
func (r *Router) FetchFromURL(ctx context.Context, rawURL string) (*domain.Listing, error) {
	parsed, err := ParseListingURL(rawURL)
	if err != nil {
		return nil, err
	}

	listing, err := r.Resolve(ctx, parsed.Marketplace, parsed.ID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		r.logger.Info("listing not found",
			"marketplace", parsed.Marketplace,
			"id", parsed.ID,
		)
		return nil, fmt.Errorf("%w: %s %s", domain.ErrNotFound, parsed.Marketplace, parsed.ID)
	}
	return listing, nil
}

// Search dispatches a keyword search to the named marketplace.
func (r *Router) Search(ctx context.Context, marketplace domain.Marketplace, params domain.SearchParams) (*domain.SearchResult, error) {
	switch marketplace {
	case domain.MarketplaceAmazon:
		if r.amazon == nil {
			return nil, fmt.Errorf("%w: amazon", domain.ErrNotConfigured)
		}
		return r.amazon.Search(ctx, params)
	case domain.MarketplaceEbay:
		if r.ebay == nil {
			return nil, fmt.Errorf("%w: ebay", domain.ErrNotConfigured)
		}
		return r.ebay.Search(ctx, params)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, marketplace)
	}
}
