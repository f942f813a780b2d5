package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mclarke/listing-gateway/internal/marketplace"
	domain "github.com/mclarke/listing-gateway/pkg/types"
)

// ResolveHandler turns raw listing URLs into normalized listings.
type ResolveHandler struct {
	gw Gateway
}

// NewResolveHandler creates a new ResolveHandler.
func NewResolveHandler(gw Gateway) *ResolveHandler {
	return &ResolveHandler{gw: gw}
}

// ResolveInput is the request body for the resolve endpoint.
type ResolveInput struct {
	Body struct {
		URL       string `json:"url" minLength:"1" format:"uri" doc:"Marketplace listing URL" example:"https://www.amazon.com/dp/B08XYZ1234"`
		ParseOnly bool   `json:"parse_only,omitempty" doc:"Only parse the URL; skip the provider fetch"`
	}
}

// ResolveOutput is the response body for the resolve endpoint.
type ResolveOutput struct {
	Body struct {
		Marketplace domain.Marketplace `json:"marketplace" doc:"Marketplace the URL belongs to" example:"amazon"`
		ID          string             `json:"id" doc:"Marketplace-native listing identifier" example:"B08XYZ1234"`
		Listing     *domain.Listing    `json:"listing,omitempty" doc:"Fetched listing, absent when parse_only is set"`
	}
}

// Resolve parses a listing URL, and unless parse_only is set, fetches the
// listing from its marketplace.
func (h *ResolveHandler) Resolve(ctx context.Context, input *ResolveInput) (*ResolveOutput, error) {
	parsed, err := marketplace.ParseListingURL(input.Body.URL)
	if err != nil {
		return nil, mapDomainError(err)
	}

	out := &ResolveOutput{}
	out.Body.Marketplace = parsed.Marketplace
	out.Body.ID = parsed.ID

	if input.Body.ParseOnly {
		return out, nil
	}

	listing, err := h.gw.FetchFromURL(ctx, input.Body.URL)
	if err != nil {
		return nil, mapDomainError(err)
	}
	out.Body.Listing = listing

	return out, nil
}

// RegisterResolveRoutes registers the resolve endpoint with the Huma API.
func RegisterResolveRoutes(api huma.API, h *ResolveHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "resolve-listing-url",
		Method:      http.MethodPost,
		Path:        "/api/v1/resolve",
		Summary:     "Resolve a listing URL",
		Description: "Parses a marketplace listing URL and fetches the listing it points at.",
		Tags:        []string{"listings"},
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
			http.StatusBadGateway,
		},
	}, h.Resolve)
}
