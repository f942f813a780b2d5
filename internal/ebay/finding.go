// Package ebay implements a search client for the eBay Finding API.
//
// The Finding API is an XML service with a JSON rendering bolted on:
// every field arrives wrapped in a singleton array, and fields are
// routinely absent. All accessors here tolerate a missing wrapper
// without panicking.
package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mclarke/listing-gateway/internal/metrics"
	"github.com/mclarke/listing-gateway/internal/ratelimit"
	"github.com/mclarke/listing-gateway/pkg/logger"
	domain "github.com/mclarke/listing-gateway/pkg/types"
)

const (
	// ProviderName labels this client in logs and metrics.
	ProviderName = "ebay"

	defaultEndpoint = "https://svcs.ebay.com/services/search/FindingService/v1"
	serviceVersion  = "1.13.0"
	defaultGlobalID = "EBAY-US"
)

// FindingClient performs keyword searches against the Finding API.
// Single-item fetch is not part of this client: the Finding API has no
// item endpoint, and callers work from search results directly.
type FindingClient struct {
	appID    string
	globalID string
	endpoint string
	client   *http.Client
	limiter  *ratelimit.Bucket
	logger   *slog.Logger
}

// FindingOption configures the FindingClient.
type FindingOption func(*FindingClient)

// WithFindingEndpoint overrides the Finding API endpoint.
func WithFindingEndpoint(u string) FindingOption {
	return func(c *FindingClient) {
		c.endpoint = u
	}
}

// WithFindingGlobalID overrides the default marketplace site.
func WithFindingGlobalID(id string) FindingOption {
	return func(c *FindingClient) {
		c.globalID = id
	}
}

// WithFindingHTTPClient overrides the default HTTP client.
func WithFindingHTTPClient(hc *http.Client) FindingOption {
	return func(c *FindingClient) {
		c.client = hc
	}
}

// WithFindingLogger sets the logger.
func WithFindingLogger(l *slog.Logger) FindingOption {
	return func(c *FindingClient) {
		c.logger = l
	}
}

// NewFindingClient creates a Finding API client. Fails fast with
// ErrNotConfigured when the application ID is missing.
func NewFindingClient(appID string, limiter *ratelimit.Bucket, opts ...FindingOption) (*FindingClient, error) {
	if appID == "" {
		return nil, fmt.Errorf(
			"%w: the Finding API requires an application ID",
			domain.ErrNotConfigured,
		)
	}

	c := &FindingClient{
		appID:    appID,
		globalID: defaultGlobalID,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  limiter,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Search runs findItemsByKeywords and normalizes the response.
func (c *FindingClient) Search(ctx context.Context, params domain.SearchParams) (*domain.SearchResult, error) {
	waitStart := time.Now()
	if err := c.limiter.Admit(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	metrics.RateLimitWaitSeconds.WithLabelValues(ProviderName).
		Observe(time.Since(waitStart).Seconds())
	metrics.ProviderCallsTotal.WithLabelValues(ProviderName, "find_items").Inc()

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.endpoint+"?"+c.buildQuery(params).Encode(), http.NoBody,
	)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.ProviderCallDuration.WithLabelValues(ProviderName, "find_items").
		Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderErrorsTotal.WithLabelValues(ProviderName, "find_items").Inc()
		return nil, fmt.Errorf("executing search request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ProviderErrorsTotal.WithLabelValues(ProviderName, "find_items").Inc()
		return nil, &domain.ProviderError{
			Provider: ProviderName,
			Status:   resp.StatusCode,
			Body:     string(raw),
		}
	}

	var decoded findResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		c.logger.Warn("unparsable Finding API payload", "err", err)
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	body, ok := first(decoded.Body)
	if !ok {
		return domain.NewSearchResult(nil, 0), nil
	}
	if ack := firstString(body.Ack); ack != "" && ack != "Success" && ack != "Warning" {
		metrics.ProviderErrorsTotal.WithLabelValues(ProviderName, "find_items").Inc()
		return nil, &domain.ProviderError{
			Provider: ProviderName,
			Status:   resp.StatusCode,
			Body:     string(raw),
		}
	}

	sr, _ := first(body.SearchResult)
	listings := make([]domain.Listing, 0, len(sr.Item))
	for i := range sr.Item {
		listings = append(listings, toListing(&sr.Item[i]))
	}

	page, _ := first(body.PaginationOutput)
	total := atoiFirst(page.TotalEntries)
	pageNum := atoiFirst(page.PageNumber)
	totalPages := atoiFirst(page.TotalPages)

	return &domain.SearchResult{
		Listings: listings,
		Total:    total,
		HasMore:  pageNum < totalPages,
	}, nil
}

// buildQuery assembles the single query string the Finding API expects:
// fixed protocol parameters plus positional itemFilter(N) slots. The
// filter index must increment across every filter present, since the
// wire format has no named slots.
func (c *FindingClient) buildQuery(params domain.SearchParams) url.Values {
	q := url.Values{}
	q.Set("OPERATION-NAME", "findItemsByKeywords")
	q.Set("SERVICE-VERSION", serviceVersion)
	q.Set("SECURITY-APPNAME", c.appID)
	q.Set("RESPONSE-DATA-FORMAT", "JSON")
	q.Set("REST-PAYLOAD", "true")
	q.Set("GLOBAL-ID", c.globalID)
	q.Set("keywords", strings.Join(params.Keywords, " "))

	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}
	q.Set("paginationInput.entriesPerPage", strconv.Itoa(limit))
	q.Set("paginationInput.pageNumber", strconv.Itoa(params.Offset/limit+1))

	q.Set("sortOrder", sortOrderFor(params.SortBy))

	idx := 0
	addFilter := func(name, value string) {
		prefix := fmt.Sprintf("itemFilter(%d)", idx)
		q.Set(prefix+".name", name)
		q.Set(prefix+".value", value)
		idx++
	}
	if params.MinPrice > 0 {
		addFilter("MinPrice", strconv.FormatFloat(params.MinPrice, 'f', 2, 64))
	}
	if params.MaxPrice > 0 {
		addFilter("MaxPrice", strconv.FormatFloat(params.MaxPrice, 'f', 2, 64))
	}
	if id := conditionID(params.Condition); id != "" {
		addFilter("Condition", id)
	}

	return q
}

func sortOrderFor(sort domain.SortOrder) string {
	switch sort {
	case domain.SortPrice:
		return "PricePlusShippingLowest"
	case domain.SortNewest:
		return "StartTimeNewest"
	default:
		return "BestMatch"
	}
}

// conditionID maps a normalized condition onto eBay's numeric condition
// identifiers. Vintage and collectible have no Finding API equivalent
// and add no filter.
func conditionID(cond domain.Condition) string {
	switch cond {
	case domain.ConditionNew:
		return "1000"
	case domain.ConditionRefurbished:
		return "2500"
	case domain.ConditionUsed:
		return "3000"
	default:
		return ""
	}
}

func toListing(item *findingItem) domain.Listing {
	l := domain.Listing{
		ID:            uuid.NewString(),
		Marketplace:   domain.MarketplaceEbay,
		MarketplaceID: firstString(item.ItemID),
		Title:         firstString(item.Title),
		Currency:      "USD",
		ListingURL:    firstString(item.ViewItemURL),
		Available:     true,
	}

	if gallery := firstString(item.GalleryURL); gallery != "" {
		l.Images = []string{gallery}
	}

	if cat, ok := first(item.PrimaryCategory); ok {
		l.Category = firstString(cat.CategoryName)
	}

	if status, ok := first(item.SellingStatus); ok {
		if price, ok := first(status.CurrentPrice); ok {
			if v, err := strconv.ParseFloat(price.Value, 64); err == nil && v >= 0 {
				l.Price = v
			}
			if price.CurrencyID != "" {
				l.Currency = price.CurrencyID
			}
		}
		if state := firstString(status.SellingState); state != "" {
			l.Available = state == "Active"
		}
	}

	display := ""
	if cond, ok := first(item.Condition); ok {
		display = firstString(cond.ConditionDisplayName)
	}
	l.Condition = normalizeCondition(display, l.Title)

	if seller, ok := first(item.SellerInfo); ok {
		l.SellerName = firstString(seller.SellerUserName)
		if pct, err := strconv.ParseFloat(firstString(seller.PositiveFeedbackPercent), 64); err == nil {
			// Feedback percentage (0–100) onto the 0–5 rating scale.
			rating := pct / 20
			l.SellerRating = &rating
		}
	}

	return l
}

// normalizeCondition prefers the provider's display name, falling back
// to title keywords. Precedence mirrors the rest of the system:
// refurbished beats used beats vintage beats collectible, default new.
func normalizeCondition(display, title string) domain.Condition {
	text := strings.ToLower(display)
	if text == "" {
		text = strings.ToLower(title)
	}
	switch {
	case strings.Contains(text, "refurbished"), strings.Contains(text, "renewed"):
		return domain.ConditionRefurbished
	case strings.Contains(text, "used"), strings.Contains(text, "pre-owned"):
		return domain.ConditionUsed
	case strings.Contains(text, "vintage"):
		return domain.ConditionVintage
	case strings.Contains(text, "collectible"):
		return domain.ConditionCollectible
	default:
		return domain.ConditionNew
	}
}
