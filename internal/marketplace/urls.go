package marketplace

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	domain "github.com/mclarke/listing-gateway/pkg/types"
)

// ParsedListing is the result of classifying a listing URL: which
// provider owns it and the provider-native identifier.
type ParsedListing struct {
	Marketplace domain.Marketplace `json:"marketplace"`
	ID          string             `json:"id"`
}

// The three path shapes Amazon uses for product pages. Matching is
// case-insensitive; the captured identifier is normalized to uppercase.
var amazonPathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/dp/([A-Z0-9]{10})(?:/|$)`),
	regexp.MustCompile(`(?i)/gp/product/([A-Z0-9]{10})(?:/|$)`),
	regexp.MustCompile(`(?i)/product/([A-Z0-9]{10})(?:/|$)`),
}

// eBay item URLs carry a numeric identifier after /itm/, optionally
// preceded by a title slug.
var ebayItemPattern = regexp.MustCompile(`/itm/(?:[^/]+/)?(\d+)(?:/|$)`)

// ParseListingURL classifies a listing URL by hostname and extracts the
// provider-native identifier from its path.
func ParseListingURL(raw string) (*ParsedListing, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidURL, raw)
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "amazon."):
		for _, pattern := range amazonPathPatterns {
			if m := pattern.FindStringSubmatch(u.Path); m != nil {
				return &ParsedListing{
					Marketplace: domain.MarketplaceAmazon,
					ID:          strings.ToUpper(m[1]),
				}, nil
			}
		}
		return nil, fmt.Errorf("%w: no ASIN in %q", domain.ErrIdentifierNotFound, u.Path)

	case strings.Contains(host, "ebay."):
		if m := ebayItemPattern.FindStringSubmatch(u.Path); m != nil {
			return &ParsedListing{
				Marketplace: domain.MarketplaceEbay,
				ID:          m[1],
			}, nil
		}
		return nil, fmt.Errorf("%w: no item ID in %q", domain.ErrIdentifierNotFound, u.Path)

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, host)
	}
}
