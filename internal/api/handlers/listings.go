package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/mclarke/listing-gateway/pkg/types"
)

// ListingsHandler handles single-listing fetch endpoints.
type ListingsHandler struct {
	gw Gateway
}

// NewListingsHandler creates a new ListingsHandler.
func NewListingsHandler(gw Gateway) *ListingsHandler {
	return &ListingsHandler{gw: gw}
}

// GetListingInput is the input for fetching one listing by marketplace ID.
type GetListingInput struct {
	Marketplace string `path:"marketplace" enum:"amazon,ebay" doc:"Marketplace name"`
	ID          string `path:"id" doc:"Marketplace-native listing identifier" example:"B08XYZ1234"`
}

// GetListingOutput is the response for fetching one listing.
type GetListingOutput struct {
	Body domain.Listing
}

// GetListing fetches a single listing from its marketplace by native ID.
func (h *ListingsHandler) GetListing(
	ctx context.Context,
	input *GetListingInput,
) (*GetListingOutput, error) {
	listing, err := h.gw.Resolve(ctx, domain.Marketplace(input.Marketplace), input.ID)
	if err != nil {
		return nil, mapDomainError(err)
	}
	if listing == nil {
		return nil, huma.Error404NotFound("listing not found")
	}

	return &GetListingOutput{Body: *listing}, nil
}

// RegisterListingRoutes registers listing endpoints with the Huma API.
func RegisterListingRoutes(api huma.API, h *ListingsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-listing",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings/{marketplace}/{id}",
		Summary:     "Get a listing by marketplace ID",
		Description: "Fetches a single listing from its marketplace by native identifier.",
		Tags:        []string{"listings"},
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
			http.StatusBadGateway,
		},
	}, h.GetListing)
}
