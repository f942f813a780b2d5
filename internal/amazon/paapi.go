package amazon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mclarke/listing-gateway/internal/metrics"
	"github.com/mclarke/listing-gateway/internal/ratelimit"
	"github.com/mclarke/listing-gateway/pkg/logger"
	domain "github.com/mclarke/listing-gateway/pkg/types"
)

const (
	paapiGetItemsPath    = "/paapi5/getitems"
	paapiSearchItemsPath = "/paapi5/searchitems"
	paapiTargetPrefix    = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1."
)

// regionTLDs maps a signing region to the Amazon domain suffix serving
// it. Unknown regions fall back to ".com".
var regionTLDs = map[string]string{
	"us-east-1":      "com",
	"us-west-2":      "com",
	"ca-central-1":   "ca",
	"eu-west-1":      "co.uk",
	"eu-west-2":      "co.uk",
	"eu-central-1":   "de",
	"ap-northeast-1": "co.jp",
	"ap-southeast-2": "com.au",
}

func domainSuffix(region string) string {
	if tld, ok := regionTLDs[region]; ok {
		return tld
	}
	return "com"
}

// itemResources is the fixed resource set requested on every call:
// images, title, features, classification, pricing, availability,
// condition and merchant.
var itemResources = []string{
	"Images.Primary.Large",
	"Images.Variants.Large",
	"ItemInfo.Title",
	"ItemInfo.Features",
	"ItemInfo.Classifications",
	"Offers.Listings.Price",
	"Offers.Listings.Availability.Type",
	"Offers.Listings.Condition",
	"Offers.Listings.MerchantInfo",
}

// PAAPIClient implements ProductClient against the Product Advertising
// API 5.0: signed JSON POSTs with the operation named in X-Amz-Target.
type PAAPIClient struct {
	signer      *Signer
	partnerTag  string
	marketplace string
	endpoint    string // scheme://host, no path
	host        string
	client      *http.Client
	limiter     *ratelimit.Bucket
	logger      *slog.Logger
}

// PAAPIOption configures the PAAPIClient.
type PAAPIOption func(*PAAPIClient)

// WithPAAPIEndpoint overrides the regional endpoint (scheme://host).
func WithPAAPIEndpoint(u string) PAAPIOption {
	return func(c *PAAPIClient) {
		c.endpoint = u
	}
}

// WithPAAPIHTTPClient overrides the default HTTP client.
func WithPAAPIHTTPClient(hc *http.Client) PAAPIOption {
	return func(c *PAAPIClient) {
		c.client = hc
	}
}

// WithPAAPILogger sets the logger.
func WithPAAPILogger(l *slog.Logger) PAAPIOption {
	return func(c *PAAPIClient) {
		c.logger = l
	}
}

// WithPAAPISigner replaces the signer, mainly to pin the clock in tests.
func WithPAAPISigner(s *Signer) PAAPIOption {
	return func(c *PAAPIClient) {
		c.signer = s
	}
}

// NewPAAPIClient creates a PA-API client for the given credentials.
// Fails fast with ErrNotConfigured when any credential is missing.
func NewPAAPIClient(
	accessKey, secretKey, partnerTag, region string,
	limiter *ratelimit.Bucket,
	opts ...PAAPIOption,
) (*PAAPIClient, error) {
	if accessKey == "" || secretKey == "" || partnerTag == "" {
		return nil, fmt.Errorf(
			"%w: PA-API requires access key, secret key and partner tag",
			domain.ErrNotConfigured,
		)
	}
	if region == "" {
		region = "us-east-1"
	}

	suffix := domainSuffix(region)
	c := &PAAPIClient{
		signer:      NewSigner(accessKey, secretKey, region),
		partnerTag:  partnerTag,
		marketplace: "www.amazon." + suffix,
		endpoint:    "https://webservices.amazon." + suffix,
		client:      &http.Client{Timeout: 30 * time.Second},
		limiter:     limiter,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	u, err := url.Parse(c.endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("parsing PA-API endpoint %q: %w", c.endpoint, err)
	}
	c.host = u.Host
	return c, nil
}

// Name implements ProductClient.
func (*PAAPIClient) Name() string { return ProviderPAAPI }

type getItemsRequest struct {
	ItemIds     []string `json:"ItemIds"`
	Resources   []string `json:"Resources"`
	PartnerTag  string   `json:"PartnerTag"`
	PartnerType string   `json:"PartnerType"`
	Marketplace string   `json:"Marketplace"`
}

type searchItemsRequest struct {
	Keywords    string   `json:"Keywords"`
	SearchIndex string   `json:"SearchIndex,omitempty"`
	ItemCount   int      `json:"ItemCount"`
	ItemPage    int      `json:"ItemPage"`
	SortBy      string   `json:"SortBy,omitempty"`
	Condition   string   `json:"Condition,omitempty"`
	MinPrice    int      `json:"MinPrice,omitempty"` // lowest currency unit
	MaxPrice    int      `json:"MaxPrice,omitempty"`
	Resources   []string `json:"Resources"`
	PartnerTag  string   `json:"PartnerTag"`
	PartnerType string   `json:"PartnerType"`
	Marketplace string   `json:"Marketplace"`
}

type paapiResponse struct {
	ItemsResult struct {
		Items []paapiItem `json:"Items"`
	} `json:"ItemsResult"`
	SearchResult struct {
		Items            []paapiItem `json:"Items"`
		TotalResultCount int         `json:"TotalResultCount"`
	} `json:"SearchResult"`
	Errors []paapiError `json:"Errors"`
}

type paapiError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

type paapiItem struct {
	ASIN          string `json:"ASIN"`
	DetailPageURL string `json:"DetailPageURL"`
	Images        *struct {
		Primary *struct {
			Large *paapiImage `json:"Large"`
		} `json:"Primary"`
		Variants []struct {
			Large *paapiImage `json:"Large"`
		} `json:"Variants"`
	} `json:"Images"`
	ItemInfo *struct {
		Title *struct {
			DisplayValue string `json:"DisplayValue"`
		} `json:"Title"`
		Features *struct {
			DisplayValues []string `json:"DisplayValues"`
		} `json:"Features"`
		Classifications *struct {
			ProductGroup *struct {
				DisplayValue string `json:"DisplayValue"`
			} `json:"ProductGroup"`
		} `json:"Classifications"`
	} `json:"ItemInfo"`
	Offers *struct {
		Listings []paapiListing `json:"Listings"`
	} `json:"Offers"`
}

type paapiImage struct {
	URL string `json:"URL"`
}

type paapiListing struct {
	Price *struct {
		Amount        float64 `json:"Amount"`
		Currency      string  `json:"Currency"`
		DisplayAmount string  `json:"DisplayAmount"`
	} `json:"Price"`
	Availability *struct {
		Type string `json:"Type"`
	} `json:"Availability"`
	Condition *struct {
		Value string `json:"Value"`
	} `json:"Condition"`
	MerchantInfo *struct {
		Name string `json:"Name"`
	} `json:"MerchantInfo"`
}

// FetchByASIN implements ProductClient. Provider responses whose error
// list says the item is not accessible or the parameter is invalid mean
// "no such item" and return (nil, nil), not an error.
func (c *PAAPIClient) FetchByASIN(ctx context.Context, asin string) (*domain.Listing, error) {
	normalized, err := NormalizeASIN(asin)
	if err != nil {
		return nil, err
	}

	body := getItemsRequest{
		ItemIds:     []string{normalized},
		Resources:   itemResources,
		PartnerTag:  c.partnerTag,
		PartnerType: "Associates",
		Marketplace: c.marketplace,
	}

	resp, err := c.call(ctx, "get_items", paapiGetItemsPath, "GetItems", body)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}

	if len(resp.ItemsResult.Items) == 0 {
		return nil, nil
	}
	listing := c.toListing(&resp.ItemsResult.Items[0])
	return &listing, nil
}

// Search implements ProductClient.
func (c *PAAPIClient) Search(ctx context.Context, params domain.SearchParams) (*domain.SearchResult, error) {
	limit := params.Limit
	if limit <= 0 || limit > 10 {
		limit = 10 // PA-API page ceiling
	}

	body := searchItemsRequest{
		Keywords:    strings.Join(params.Keywords, " "),
		SearchIndex: searchIndexFor(params.Category),
		ItemCount:   limit,
		ItemPage:    params.Offset/limit + 1,
		SortBy:      sortByFor(params.SortBy),
		Condition:   conditionFor(params.Condition),
		Resources:   itemResources,
		PartnerTag:  c.partnerTag,
		PartnerType: "Associates",
		Marketplace: c.marketplace,
	}
	if params.MinPrice > 0 {
		body.MinPrice = int(params.MinPrice * 100)
	}
	if params.MaxPrice > 0 {
		body.MaxPrice = int(params.MaxPrice * 100)
	}

	resp, err := c.call(ctx, "search_items", paapiSearchItemsPath, "SearchItems", body)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return domain.NewSearchResult(nil, 0), nil
	}

	listings := make([]domain.Listing, 0, len(resp.SearchResult.Items))
	for i := range resp.SearchResult.Items {
		listings = append(listings, c.toListing(&resp.SearchResult.Items[i]))
	}
	return domain.NewSearchResult(listings, resp.SearchResult.TotalResultCount), nil
}

// call admits through the rate limiter, signs, posts and decodes one
// PA-API operation. A nil response with nil error means the provider
// reported the item as not found.
func (c *PAAPIClient) call(ctx context.Context, op, path, operation string, body any) (*paapiResponse, error) {
	waitStart := time.Now()
	if err := c.limiter.Admit(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	metrics.RateLimitWaitSeconds.WithLabelValues(ProviderPAAPI).
		Observe(time.Since(waitStart).Seconds())
	metrics.ProviderCallsTotal.WithLabelValues(ProviderPAAPI, op).Inc()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s request: %w", operation, err)
	}

	target := paapiTargetPrefix + operation
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", operation, err)
	}
	req.Header = c.signer.Sign(http.MethodPost, c.host, path, payload, target)
	req.Host = c.host

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.ProviderCallDuration.WithLabelValues(ProviderPAAPI, op).
		Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderErrorsTotal.WithLabelValues(ProviderPAAPI, op).Inc()
		return nil, fmt.Errorf("executing %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ProviderErrorsTotal.WithLabelValues(ProviderPAAPI, op).Inc()
		return nil, &domain.ProviderError{
			Provider: ProviderPAAPI,
			Status:   resp.StatusCode,
			Body:     string(raw),
		}
	}

	var decoded paapiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		c.logger.Warn("unparsable PA-API payload", "operation", operation, "err", err)
		return nil, fmt.Errorf("parsing %s response: %w", operation, err)
	}

	for _, pe := range decoded.Errors {
		switch pe.Code {
		case "ItemNotAccessible", "InvalidParameterValue", "NoResults":
			return nil, nil
		}
	}
	if len(decoded.Errors) > 0 {
		metrics.ProviderErrorsTotal.WithLabelValues(ProviderPAAPI, op).Inc()
		return nil, &domain.ProviderError{
			Provider: ProviderPAAPI,
			Status:   resp.StatusCode,
			Body:     decoded.Errors[0].Code + ": " + decoded.Errors[0].Message,
		}
	}

	return &decoded, nil
}

func (c *PAAPIClient) toListing(item *paapiItem) domain.Listing {
	l := domain.Listing{
		ID:            uuid.NewString(),
		Marketplace:   domain.MarketplaceAmazon,
		MarketplaceID: item.ASIN,
		ListingURL:    item.DetailPageURL,
		Currency:      "USD",
		Condition:     domain.ConditionNew,
	}

	if info := item.ItemInfo; info != nil {
		if info.Title != nil {
			l.Title = info.Title.DisplayValue
		}
		if info.Features != nil {
			l.Description = strings.Join(info.Features.DisplayValues, "\n")
		}
		if info.Classifications != nil && info.Classifications.ProductGroup != nil {
			l.Category = info.Classifications.ProductGroup.DisplayValue
		}
	}

	if imgs := item.Images; imgs != nil {
		if imgs.Primary != nil && imgs.Primary.Large != nil && imgs.Primary.Large.URL != "" {
			l.Images = append(l.Images, imgs.Primary.Large.URL)
		}
		for _, v := range imgs.Variants {
			if v.Large != nil && v.Large.URL != "" {
				l.Images = append(l.Images, v.Large.URL)
			}
		}
	}

	if item.Offers != nil && len(item.Offers.Listings) > 0 {
		offer := &item.Offers.Listings[0]
		if offer.Price != nil {
			if offer.Price.Amount > 0 {
				l.Price = offer.Price.Amount
			} else {
				l.Price = parsePrice(offer.Price.DisplayAmount)
			}
			if offer.Price.Currency != "" {
				l.Currency = offer.Price.Currency
			}
		}
		if offer.Availability != nil {
			l.Available = offer.Availability.Type == "Now"
		}
		if offer.Condition != nil {
			l.Condition = paapiCondition(offer.Condition.Value, l.Title)
		}
		if offer.MerchantInfo != nil {
			l.SellerName = offer.MerchantInfo.Name
		}
	}

	return l
}

// paapiCondition maps the offer condition enum, falling back to keyword
// inference over the title when the provider omits it.
func paapiCondition(value, title string) domain.Condition {
	switch value {
	case "New":
		return domain.ConditionNew
	case "Used":
		return domain.ConditionUsed
	case "Refurbished":
		return domain.ConditionRefurbished
	case "Collectible":
		return domain.ConditionCollectible
	default:
		return inferCondition(title)
	}
}

// searchIndexFor maps generic categories onto PA-API search indices.
var searchIndices = map[string]string{
	"electronics": "Electronics",
	"books":       "Books",
	"music":       "Music",
	"toys":        "ToysAndGames",
	"video games": "VideoGames",
	"clothing":    "Fashion",
	"home":        "HomeAndKitchen",
}

func searchIndexFor(category string) string {
	if idx, ok := searchIndices[strings.ToLower(category)]; ok {
		return idx
	}
	return "All"
}

func sortByFor(sort domain.SortOrder) string {
	switch sort {
	case domain.SortPrice:
		return "Price:LowToHigh"
	case domain.SortNewest:
		return "NewestArrivals"
	case domain.SortRelevance:
		return "Relevance"
	default:
		return ""
	}
}

func conditionFor(cond domain.Condition) string {
	switch cond {
	case domain.ConditionNew:
		return "New"
	case domain.ConditionUsed:
		return "Used"
	case domain.ConditionRefurbished:
		return "Refurbished"
	case domain.ConditionCollectible, domain.ConditionVintage:
		return "Collectible"
	default:
		return ""
	}
}
