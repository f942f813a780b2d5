package amazon

import (
	"regexp"
	"strconv"
	"strings"

	domain "github.com/mclarke/listing-gateway/pkg/types"
)

// priceJunk matches everything that is not a digit or decimal point, so
// "$1,234.56", "USD 12.99" and "12,99 €" all reduce to a parseable core.
var priceJunk = regexp.MustCompile(`[^0-9.]`)

// parsePrice extracts a non-negative price from a display string.
// Anything unparsable yields 0, which callers treat as "unknown".
func parsePrice(s string) float64 {
	cleaned := priceJunk.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// inferCondition scans free text for condition keywords. Precedence
// matters: refurbished wins over every other keyword, and text with no
// known keyword means the item is sold as new.
func inferCondition(text string) domain.Condition {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "refurbished"), strings.Contains(t, "renewed"):
		return domain.ConditionRefurbished
	case strings.Contains(t, "used"):
		return domain.ConditionUsed
	case strings.Contains(t, "vintage"):
		return domain.ConditionVintage
	case strings.Contains(t, "collectible"):
		return domain.ConditionCollectible
	default:
		return domain.ConditionNew
	}
}
