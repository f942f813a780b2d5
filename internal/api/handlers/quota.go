package handlers

import (
	"context"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mclarke/listing-gateway/internal/ratelimit"
)

// QuotaHandler exposes the state of each provider's token bucket.
type QuotaHandler struct {
	buckets map[string]*ratelimit.Bucket
}

// NewQuotaHandler creates a new QuotaHandler. The map key is the provider
// name as reported in the response.
func NewQuotaHandler(buckets map[string]*ratelimit.Bucket) *QuotaHandler {
	return &QuotaHandler{buckets: buckets}
}

// ProviderQuota describes one provider's current rate limit state.
type ProviderQuota struct {
	Provider        string  `json:"provider" example:"paapi" doc:"Provider name"`
	Capacity        float64 `json:"capacity" example:"10" doc:"Maximum token balance"`
	Tokens          float64 `json:"tokens" example:"7.5" doc:"Current token balance"`
	RefillPerSecond float64 `json:"refill_per_second" example:"1" doc:"Tokens restored per second"`
	WaitMillis      int64   `json:"wait_ms" example:"0" doc:"Delay before the next call is admitted, in milliseconds"`
}

// QuotaOutput is the response body for the quota endpoint.
type QuotaOutput struct {
	Body struct {
		Providers []ProviderQuota `json:"providers"`
	}
}

// GetQuota returns the current rate limit state for every configured provider.
func (h *QuotaHandler) GetQuota(_ context.Context, _ *struct{}) (*QuotaOutput, error) {
	resp := &QuotaOutput{}
	resp.Body.Providers = make([]ProviderQuota, 0, len(h.buckets))

	for name, b := range h.buckets {
		if b == nil {
			continue
		}
		resp.Body.Providers = append(resp.Body.Providers, ProviderQuota{
			Provider:        name,
			Capacity:        b.Capacity(),
			Tokens:          b.Tokens(),
			RefillPerSecond: b.Rate(),
			WaitMillis:      b.WaitTime().Milliseconds(),
		})
	}

	// Stable ordering for clients and tests.
	sort.Slice(resp.Body.Providers, func(i, j int) bool {
		return resp.Body.Providers[i].Provider < resp.Body.Providers[j].Provider
	})

	return resp, nil
}

// RegisterQuotaRoutes registers the quota endpoint with the Huma API.
func RegisterQuotaRoutes(api huma.API, h *QuotaHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-quota",
		Method:      http.MethodGet,
		Path:        "/api/v1/quota",
		Summary:     "Get provider rate limit state",
		Description: "Returns the token balance and admission delay for every configured provider bucket.",
		Tags:        []string{"quota"},
	}, h.GetQuota)
}
