package amazon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
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
	rapidKeyHeader  = "X-RapidAPI-Key"
	rapidHostHeader = "X-RapidAPI-Host"
)

// descriptionDenylist names the attribute keys excluded when a listing
// description is synthesized: provider bookkeeping fields that add
// noise, not product information. Compared lower-cased.
var descriptionDenylist = map[string]struct{}{
	"asin":                 {},
	"customer reviews":     {},
	"best sellers rank":    {},
	"date first available": {},
}

// RapidAPIClient implements ProductClient against a RapidAPI-hosted
// Amazon data API: plain GETs authenticated by two static headers.
type RapidAPIClient struct {
	apiKey  string
	apiHost string
	baseURL string
	country string
	client  *http.Client
	limiter *ratelimit.Bucket
	logger  *slog.Logger
}

// RapidAPIOption configures the RapidAPIClient.
type RapidAPIOption func(*RapidAPIClient)

// WithRapidAPIBaseURL overrides the endpoint, mainly for tests.
func WithRapidAPIBaseURL(u string) RapidAPIOption {
	return func(c *RapidAPIClient) {
		c.baseURL = u
	}
}

// WithRapidAPIHTTPClient overrides the default HTTP client.
func WithRapidAPIHTTPClient(hc *http.Client) RapidAPIOption {
	return func(c *RapidAPIClient) {
		c.client = hc
	}
}

// WithRapidAPILogger sets the logger.
func WithRapidAPILogger(l *slog.Logger) RapidAPIOption {
	return func(c *RapidAPIClient) {
		c.logger = l
	}
}

// NewRapidAPIClient creates a key-authenticated Amazon data client.
// Fails fast with ErrNotConfigured when the key or host is missing.
func NewRapidAPIClient(
	apiKey, apiHost string,
	limiter *ratelimit.Bucket,
	opts ...RapidAPIOption,
) (*RapidAPIClient, error) {
	if apiKey == "" || apiHost == "" {
		return nil, fmt.Errorf(
			"%w: RapidAPI requires an API key and host",
			domain.ErrNotConfigured,
		)
	}

	c := &RapidAPIClient{
		apiKey:  apiKey,
		apiHost: apiHost,
		baseURL: "https://" + apiHost,
		country: "US",
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: limiter,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name implements ProductClient.
func (*RapidAPIClient) Name() string { return ProviderRapidAPI }

type rapidProductResponse struct {
	Status string       `json:"status"`
	Data   rapidProduct `json:"data"`
}

type rapidProduct struct {
	ASIN               string            `json:"asin"`
	Title              string            `json:"product_title"`
	Price              string            `json:"product_price"`
	OriginalPrice      string            `json:"product_original_price"`
	StarRating         string            `json:"product_star_rating"`
	URL                string            `json:"product_url"`
	Photo              string            `json:"product_photo"`
	Photos             []string          `json:"product_photos"`
	Availability       string            `json:"product_availability"`
	Description        string            `json:"product_description"`
	Brand              string            `json:"product_byline"`
	Category           string            `json:"category_path"`
	ProductInformation map[string]string `json:"product_information"`
	ProductDetails     map[string]string `json:"product_details"`
}

type rapidSearchResponse struct {
	Status string `json:"status"`
	Data   struct {
		TotalProducts int            `json:"total_products"`
		Products      []rapidProduct `json:"products"`
	} `json:"data"`
}

// FetchByASIN implements ProductClient.
func (c *RapidAPIClient) FetchByASIN(ctx context.Context, asin string) (*domain.Listing, error) {
	normalized, err := NormalizeASIN(asin)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("asin", normalized)
	q.Set("country", c.country)

	raw, status, err := c.get(ctx, "product_details", "/product-details", q)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}

	var resp rapidProductResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.Warn("unparsable RapidAPI payload", "operation", "product_details", "err", err)
		return nil, fmt.Errorf("parsing product details response: %w", err)
	}
	if resp.Data.ASIN == "" {
		return nil, nil
	}

	listing := c.toListing(&resp.Data, true)
	return &listing, nil
}

// Search implements ProductClient. Search items carry a lighter shape
// than a detail fetch: one photo and no description.
func (c *RapidAPIClient) Search(ctx context.Context, params domain.SearchParams) (*domain.SearchResult, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}

	q := url.Values{}
	q.Set("query", strings.Join(params.Keywords, " "))
	q.Set("country", c.country)
	q.Set("page", strconv.Itoa(params.Offset/limit+1))
	if s := rapidSortFor(params.SortBy); s != "" {
		q.Set("sort_by", s)
	}
	if cond := rapidConditionFor(params.Condition); cond != "" {
		q.Set("product_condition", cond)
	}
	if params.MinPrice > 0 {
		q.Set("min_price", strconv.Itoa(int(params.MinPrice)))
	}
	if params.MaxPrice > 0 {
		q.Set("max_price", strconv.Itoa(int(params.MaxPrice)))
	}
	if params.Category != "" {
		q.Set("category", params.Category)
	}

	raw, _, err := c.get(ctx, "search", "/search", q)
	if err != nil {
		return nil, err
	}

	var resp rapidSearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.Warn("unparsable RapidAPI payload", "operation", "search", "err", err)
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	limited := resp.Data.Products
	if len(limited) > limit {
		limited = limited[:limit]
	}
	listings := make([]domain.Listing, 0, len(limited))
	for i := range limited {
		listings = append(listings, c.toListing(&limited[i], false))
	}
	return domain.NewSearchResult(listings, resp.Data.TotalProducts), nil
}

func (c *RapidAPIClient) get(ctx context.Context, op, path string, q url.Values) ([]byte, int, error) {
	waitStart := time.Now()
	if err := c.limiter.Admit(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limit: %w", err)
	}
	metrics.RateLimitWaitSeconds.WithLabelValues(ProviderRapidAPI).
		Observe(time.Since(waitStart).Seconds())
	metrics.ProviderCallsTotal.WithLabelValues(ProviderRapidAPI, op).Inc()

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), http.NoBody,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("creating %s request: %w", op, err)
	}
	req.Header.Set(rapidKeyHeader, c.apiKey)
	req.Header.Set(rapidHostHeader, c.apiHost)

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.ProviderCallDuration.WithLabelValues(ProviderRapidAPI, op).
		Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderErrorsTotal.WithLabelValues(ProviderRapidAPI, op).Inc()
		return nil, 0, fmt.Errorf("executing %s request: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s response: %w", op, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return raw, resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ProviderErrorsTotal.WithLabelValues(ProviderRapidAPI, op).Inc()
		return nil, 0, &domain.ProviderError{
			Provider: ProviderRapidAPI,
			Status:   resp.StatusCode,
			Body:     string(raw),
		}
	}
	return raw, resp.StatusCode, nil
}

func (c *RapidAPIClient) toListing(p *rapidProduct, detail bool) domain.Listing {
	l := domain.Listing{
		ID:            uuid.NewString(),
		Marketplace:   domain.MarketplaceAmazon,
		MarketplaceID: p.ASIN,
		Title:         p.Title,
		Currency:      "USD",
		Category:      p.Category,
		ListingURL:    p.URL,
		Available:     available(p.Availability),
	}

	// Current price first, original as fallback; both are display
	// strings like "$1,234.56".
	l.Price = parsePrice(p.Price)
	if l.Price == 0 {
		l.Price = parsePrice(p.OriginalPrice)
	}

	if rating, err := strconv.ParseFloat(p.StarRating, 64); err == nil && rating >= 0 && rating <= 5 {
		l.SellerRating = &rating
	}

	if len(p.Photos) > 0 {
		l.Images = p.Photos
	} else if p.Photo != "" {
		l.Images = []string{p.Photo}
	}

	if detail {
		l.Description = synthesizeDescription(p)
	}
	l.Condition = inferCondition(p.Title + " " + l.Description)

	return l
}

// available reports stock from the availability message. A missing
// message means the item is purchasable.
func available(message string) bool {
	if message == "" {
		return true
	}
	m := strings.ToLower(message)
	for _, phrase := range []string{"out of stock", "currently unavailable", "unavailable"} {
		if strings.Contains(m, phrase) {
			return false
		}
	}
	return true
}

// synthesizeDescription assembles a description from the brand line,
// free text and the two structured attribute maps, since the provider
// has no single description field worth showing on its own.
func synthesizeDescription(p *rapidProduct) string {
	var parts []string
	if p.Brand != "" {
		parts = append(parts, p.Brand)
	}
	if p.Description != "" {
		parts = append(parts, p.Description)
	}
	for _, attrs := range []map[string]string{p.ProductInformation, p.ProductDetails} {
		for _, k := range sortedKeys(attrs) {
			if _, skip := descriptionDenylist[strings.ToLower(k)]; skip {
				continue
			}
			parts = append(parts, "- "+k+": "+attrs[k])
		}
	}
	return strings.Join(parts, "\n")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func rapidSortFor(sort domain.SortOrder) string {
	switch sort {
	case domain.SortPrice:
		return "LOWEST_PRICE"
	case domain.SortNewest:
		return "NEWEST"
	case domain.SortRelevance:
		return "RELEVANCE"
	default:
		return ""
	}
}

func rapidConditionFor(cond domain.Condition) string {
	switch cond {
	case domain.ConditionNew:
		return "NEW"
	case domain.ConditionUsed:
		return "USED"
	case domain.ConditionRefurbished:
		return "REFURBISHED"
	case domain.ConditionCollectible, domain.ConditionVintage:
		return "COLLECTIBLE"
	default:
		return ""
	}
}
