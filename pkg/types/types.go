// Package domain defines the canonical, provider-independent types for
// listing-gateway. Every marketplace client normalizes its native wire
// format into these types; nothing provider-specific leaks past this
// package.
package domain

// Marketplace identifies a supported marketplace provider.
type Marketplace string

// Marketplace constants.
const (
	MarketplaceAmazon Marketplace = "amazon"
	MarketplaceEbay   Marketplace = "ebay"
)

// Valid reports whether m is a known marketplace.
func (m Marketplace) Valid() bool {
	return m == MarketplaceAmazon || m == MarketplaceEbay
}

// Condition represents normalized listing condition. Providers rarely
// state condition authoritatively, so this is always inferred.
type Condition string

// Condition constants.
const (
	ConditionNew         Condition = "new"
	ConditionUsed        Condition = "used"
	ConditionRefurbished Condition = "refurbished"
	ConditionVintage     Condition = "vintage"
	ConditionCollectible Condition = "collectible"
)

// SortOrder controls search result ordering.
type SortOrder string

// Sort order constants.
const (
	SortPrice     SortOrder = "price"
	SortRelevance SortOrder = "relevance"
	SortNewest    SortOrder = "newest"
)

// Listing is the canonical listing record all provider clients
// normalize into.
type Listing struct {
	ID            string      `json:"id"`
	Marketplace   Marketplace `json:"marketplace"`
	MarketplaceID string      `json:"marketplace_id"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// Price is always >= 0. A zero price means "unknown", not "free" —
	// callers must not treat it as a real quote.
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`

	Images       []string  `json:"images"`
	Category     string    `json:"category,omitempty"`
	Condition    Condition `json:"condition"`
	SellerName   string    `json:"seller_name,omitempty"`
	SellerRating *float64  `json:"seller_rating,omitempty"` // 0–5 scale

	ListingURL string `json:"listing_url"`
	Available  bool   `json:"available"`
}

// SearchParams defines a provider-agnostic keyword search.
type SearchParams struct {
	Keywords  []string  `json:"keywords"`
	Category  string    `json:"category,omitempty"`
	MinPrice  float64   `json:"min_price,omitempty"`
	MaxPrice  float64   `json:"max_price,omitempty"`
	Condition Condition `json:"condition,omitempty"`
	SortBy    SortOrder `json:"sort_by,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	Offset    int       `json:"offset,omitempty"`
}

// SearchResult holds one page of normalized search results.
type SearchResult struct {
	Listings []Listing `json:"listings"`
	// Total is the provider-reported match count and may exceed
	// len(Listings).
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

// NewSearchResult builds a SearchResult, deriving HasMore from the
// provider-reported total versus the items actually returned.
func NewSearchResult(listings []Listing, total int) *SearchResult {
	return &SearchResult{
		Listings: listings,
		Total:    total,
		HasMore:  total > len(listings),
	}
}
