// Package handlers implements HTTP handlers for the listing-gateway API.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/mclarke/listing-gateway/pkg/types"
)

// SearchHandler handles marketplace search requests.
type SearchHandler struct {
	gw Gateway
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(gw Gateway) *SearchHandler {
	return &SearchHandler{gw: gw}
}

// SearchInput is the request body for the search endpoint.
type SearchInput struct {
	Body struct {
		Marketplace string  `json:"marketplace" enum:"amazon,ebay" doc:"Marketplace to search" example:"ebay"`
		Query       string  `json:"query" minLength:"1" doc:"Keyword search query" example:"technics sl-1200 turntable"`
		Category    string  `json:"category,omitempty" doc:"Provider category or search index" example:"Electronics"`
		MinPrice    float64 `json:"min_price,omitempty" minimum:"0" doc:"Minimum price in major currency units" example:"50"`
		MaxPrice    float64 `json:"max_price,omitempty" minimum:"0" doc:"Maximum price in major currency units" example:"400"`
		Condition   string  `json:"condition,omitempty" enum:"new,used,refurbished,vintage,collectible," doc:"Listing condition filter"`
		Sort        string  `json:"sort,omitempty" enum:"price,relevance,newest," doc:"Sort order" example:"price"`
		Limit       int     `json:"limit,omitempty" minimum:"1" maximum:"100" doc:"Maximum results to return (default 10)" example:"10"`
		Offset      int     `json:"offset,omitempty" minimum:"0" doc:"Pagination offset" example:"0"`
	}
}

// SearchOutput is the response body for the search endpoint.
type SearchOutput struct {
	Body struct {
		Listings []domain.Listing `json:"listings" doc:"Normalized listing results"`
		Total    int              `json:"total" doc:"Provider-reported total matching items"`
		HasMore  bool             `json:"has_more" doc:"Whether more results are available"`
	}
}

// Search dispatches a keyword search to the requested marketplace and
// returns normalized listings.
func (h *SearchHandler) Search(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	limit := input.Body.Limit
	if limit <= 0 {
		limit = 10
	}

	result, err := h.gw.Search(ctx, domain.Marketplace(input.Body.Marketplace), domain.SearchParams{
		Keywords:  strings.Fields(input.Body.Query),
		Category:  input.Body.Category,
		MinPrice:  input.Body.MinPrice,
		MaxPrice:  input.Body.MaxPrice,
		Condition: domain.Condition(input.Body.Condition),
		SortBy:    domain.SortOrder(input.Body.Sort),
		Limit:     limit,
		Offset:    input.Body.Offset,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}

	out := &SearchOutput{}
	out.Body.Listings = result.Listings
	out.Body.Total = result.Total
	out.Body.HasMore = result.HasMore
	return out, nil
}

// RegisterSearchRoutes registers search endpoints with the Huma API.
func RegisterSearchRoutes(api huma.API, h *SearchHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "search-listings",
		Method:      http.MethodPost,
		Path:        "/api/v1/search",
		Summary:     "Search marketplace listings",
		Description: "Dispatches a keyword search to the requested marketplace and returns normalized listings.",
		Tags:        []string{"search"},
		Errors:      []int{http.StatusBadRequest, http.StatusBadGateway},
	}, h.Search)
}
