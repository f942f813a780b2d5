package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/mclarke/listing-gateway/pkg/types"
)

// Gateway is the marketplace routing surface the handlers depend on.
// *marketplace.Router satisfies it.
type Gateway interface {
	Resolve(ctx context.Context, marketplace domain.Marketplace, id string) (*domain.Listing, error)
	FetchFromURL(ctx context.Context, rawURL string) (*domain.Listing, error)
	Search(ctx context.Context, marketplace domain.Marketplace, params domain.SearchParams) (*domain.SearchResult, error)
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

// StatusResponse is a generic status response body.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// mapDomainError translates domain sentinels into Huma status errors so
// every handler reports provider and validation failures the same way.
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidIdentifier),
		errors.Is(err, domain.ErrInvalidURL),
		errors.Is(err, domain.ErrIdentifierNotFound):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, domain.ErrUnsupportedProvider),
		errors.Is(err, domain.ErrUnsupportedOperation):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, domain.ErrNotConfigured):
		return huma.Error503ServiceUnavailable(err.Error())
	case domain.IsProviderError(err):
		return huma.Error502BadGateway("marketplace API error: " + err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}
