package ebay

import "strconv"

// Wire types for the Finding API's JSON rendering. The XML heritage
// wraps every field in a singleton array; the first/firstString helpers
// are the only way these are read.

type findResponse struct {
	Body []findResponseBody `json:"findItemsByKeywordsResponse"`
}

type findResponseBody struct {
	Ack              []string           `json:"ack"`
	SearchResult     []searchResult     `json:"searchResult"`
	PaginationOutput []paginationOutput `json:"paginationOutput"`
}

type searchResult struct {
	Count string        `json:"@count"`
	Item  []findingItem `json:"item"`
}

type paginationOutput struct {
	PageNumber   []string `json:"pageNumber"`
	TotalPages   []string `json:"totalPages"`
	TotalEntries []string `json:"totalEntries"`
}

type findingItem struct {
	ItemID          []string        `json:"itemId"`
	Title           []string        `json:"title"`
	GalleryURL      []string        `json:"galleryURL"`
	ViewItemURL     []string        `json:"viewItemURL"`
	PrimaryCategory []category      `json:"primaryCategory"`
	SellingStatus   []sellingStatus `json:"sellingStatus"`
	Condition       []conditionInfo `json:"condition"`
	SellerInfo      []sellerInfo    `json:"sellerInfo"`
}

type category struct {
	CategoryName []string `json:"categoryName"`
}

type sellingStatus struct {
	CurrentPrice []currencyValue `json:"currentPrice"`
	SellingState []string        `json:"sellingState"`
}

// currencyValue is the Finding API's currency-tagged scalar: the value
// lives under "__value__" next to an "@currencyId" attribute.
type currencyValue struct {
	CurrencyID string `json:"@currencyId"`
	Value      string `json:"__value__"`
}

type conditionInfo struct {
	ConditionDisplayName []string `json:"conditionDisplayName"`
}

type sellerInfo struct {
	SellerUserName          []string `json:"sellerUserName"`
	PositiveFeedbackPercent []string `json:"positiveFeedbackPercent"`
}

// first returns the leading element of an array-wrapped field, with ok
// false when the wrapper is absent.
func first[T any](s []T) (T, bool) {
	if len(s) == 0 {
		var zero T
		return zero, false
	}
	return s[0], true
}

func firstString(s []string) string {
	v, _ := first(s)
	return v
}

func atoiFirst(s []string) int {
	n, err := strconv.Atoi(firstString(s))
	if err != nil {
		return 0
	}
	return n
}
