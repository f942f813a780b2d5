package amazon_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mclarke/listing-gateway/internal/amazon"
	"github.com/mclarke/listing-gateway/internal/ratelimit"
	domain "github.com/mclarke/listing-gateway/pkg/types"
)

func looseBucket() *ratelimit.Bucket {
	return ratelimit.New(1000, 1000)
}

func newPAAPIClient(t *testing.T, srv *httptest.Server) *amazon.PAAPIClient {
	t.Helper()
	c, err := amazon.NewPAAPIClient(
		"test-access", "test-secret", "test-tag-20", "us-east-1",
		looseBucket(),
		amazon.WithPAAPIEndpoint(srv.URL),
		amazon.WithPAAPIHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c
}

const paapiItemJSON = `{
	"ASIN": "B08XYZ1234",
	"DetailPageURL": "https://www.amazon.com/dp/B08XYZ1234",
	"Images": {
		"Primary": {"Large": {"URL": "https://img.example.com/primary.jpg"}},
		"Variants": [
			{"Large": {"URL": "https://img.example.com/v1.jpg"}},
			{"Large": {"URL": "https://img.example.com/v2.jpg"}}
		]
	},
	"ItemInfo": {
		"Title": {"DisplayValue": "Mechanical Keyboard"},
		"Features": {"DisplayValues": ["Hot-swappable switches", "RGB backlight"]},
		"Classifications": {"ProductGroup": {"DisplayValue": "Electronics"}}
	},
	"Offers": {
		"Listings": [{
			"Price": {"Amount": 89.99, "Currency": "USD", "DisplayAmount": "$89.99"},
			"Availability": {"Type": "Now"},
			"Condition": {"Value": "New"},
			"MerchantInfo": {"Name": "Acme Retail"}
		}]
	}
}`

func TestPAAPIClient_FetchByASIN(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/paapi5/getitems", r.URL.Path)
		assert.Equal(t,
			"com.amazon.paapi5.v1.ProductAdvertisingAPIv1.GetItems",
			r.Header.Get("X-Amz-Target"),
		)
		assert.NotEmpty(t, r.Header.Get("X-Amz-Date"))
		auth := r.Header.Get("Authorization")
		assert.True(t, strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=test-access/"))
		assert.Contains(t, auth, "SignedHeaders=host;x-amz-date;x-amz-target")

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []any{"B08XYZ1234"}, body["ItemIds"])
		assert.Equal(t, "Associates", body["PartnerType"])
		assert.Equal(t, "test-tag-20", body["PartnerTag"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ItemsResult":{"Items":[` + paapiItemJSON + `]}}`))
	}))
	defer srv.Close()

	c := newPAAPIClient(t, srv)

	// Lowercase input must be normalized before hitting the wire.
	got, err := c.FetchByASIN(context.Background(), "b08xyz1234")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, domain.MarketplaceAmazon, got.Marketplace)
	assert.Equal(t, "B08XYZ1234", got.MarketplaceID)
	assert.Equal(t, "Mechanical Keyboard", got.Title)
	assert.Equal(t, "Hot-swappable switches\nRGB backlight", got.Description)
	assert.InDelta(t, 89.99, got.Price, 1e-9)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, []string{
		"https://img.example.com/primary.jpg",
		"https://img.example.com/v1.jpg",
		"https://img.example.com/v2.jpg",
	}, got.Images)
	assert.Equal(t, "Electronics", got.Category)
	assert.Equal(t, domain.ConditionNew, got.Condition)
	assert.Equal(t, "Acme Retail", got.SellerName)
	assert.Equal(t, "https://www.amazon.com/dp/B08XYZ1234", got.ListingURL)
	assert.True(t, got.Available)
	assert.NotEmpty(t, got.ID)
}

func TestPAAPIClient_FetchByASIN_DisplayAmountFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ItemsResult":{"Items":[{
			"ASIN": "B000TEST01",
			"ItemInfo": {"Title": {"DisplayValue": "Widget"}},
			"Offers": {"Listings": [{
				"Price": {"DisplayAmount": "$1,234.56"},
				"Availability": {"Type": "Backorder"}
			}]}
		}]}}`))
	}))
	defer srv.Close()

	got, err := newPAAPIClient(t, srv).FetchByASIN(context.Background(), "B000TEST01")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.InDelta(t, 1234.56, got.Price, 1e-9)
	assert.False(t, got.Available, "only availability type Now counts as in stock")
}

func TestPAAPIClient_FetchByASIN_NotFoundCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code string
	}{
		{name: "item not accessible", code: "ItemNotAccessible"},
		{name: "invalid parameter value", code: "InvalidParameterValue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"Errors":[{"Code":"` + tt.code + `","Message":"nope"}]}`))
			}))
			defer srv.Close()

			got, err := newPAAPIClient(t, srv).FetchByASIN(context.Background(), "B08XYZ1234")
			require.NoError(t, err, "provider-reported not-found is not an error")
			assert.Nil(t, got)
		})
	}
}

func TestPAAPIClient_FetchByASIN_OtherProviderErrorCode(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Errors":[{"Code":"TooManyRequests","Message":"slow down"}]}`))
	}))
	defer srv.Close()

	_, err := newPAAPIClient(t, srv).FetchByASIN(context.Background(), "B08XYZ1234")
	require.Error(t, err)
	assert.True(t, domain.IsProviderError(err))
	assert.Contains(t, err.Error(), "TooManyRequests")
}

func TestPAAPIClient_FetchByASIN_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	_, err := newPAAPIClient(t, srv).FetchByASIN(context.Background(), "B08XYZ1234")
	require.Error(t, err)

	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusServiceUnavailable, pe.Status)
	assert.Equal(t, "upstream down", pe.Body)
}

func TestPAAPIClient_FetchByASIN_InvalidIDSkipsNetwork(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newPAAPIClient(t, srv).FetchByASIN(context.Background(), "not-an-asin")
	require.ErrorIs(t, err, domain.ErrInvalidIdentifier)
	assert.Zero(t, calls.Load(), "validation failures must not reach the network")
}

func TestPAAPIClient_Search(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/paapi5/searchitems", r.URL.Path)
		assert.Equal(t,
			"com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems",
			r.Header.Get("X-Amz-Target"),
		)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "vintage stereo receiver", body["Keywords"])
		assert.Equal(t, "Electronics", body["SearchIndex"])
		assert.Equal(t, "Price:LowToHigh", body["SortBy"])
		// offset 20 / limit 10 -> page 3
		assert.Equal(t, float64(3), body["ItemPage"])
		assert.Equal(t, float64(10), body["ItemCount"])
		assert.Equal(t, float64(5000), body["MinPrice"])

		_, _ = w.Write([]byte(`{"SearchResult":{"TotalResultCount":57,"Items":[` + paapiItemJSON + `]}}`))
	}))
	defer srv.Close()

	got, err := newPAAPIClient(t, srv).Search(context.Background(), domain.SearchParams{
		Keywords: []string{"vintage", "stereo", "receiver"},
		Category: "electronics",
		SortBy:   domain.SortPrice,
		MinPrice: 50,
		Limit:    10,
		Offset:   20,
	})
	require.NoError(t, err)

	require.Len(t, got.Listings, 1)
	assert.Equal(t, 57, got.Total)
	assert.True(t, got.HasMore)
	assert.Equal(t, "B08XYZ1234", got.Listings[0].MarketplaceID)
}

func TestPAAPIClient_Search_NoResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Errors":[{"Code":"NoResults","Message":"none"}]}`))
	}))
	defer srv.Close()

	got, err := newPAAPIClient(t, srv).Search(context.Background(), domain.SearchParams{
		Keywords: []string{"zxqv"},
	})
	require.NoError(t, err)
	assert.Empty(t, got.Listings)
	assert.Zero(t, got.Total)
	assert.False(t, got.HasMore)
}

func TestNewPAAPIClient_MissingCredentials(t *testing.T) {
	t.Parallel()

	_, err := amazon.NewPAAPIClient("", "secret", "tag", "us-east-1", looseBucket())
	require.ErrorIs(t, err, domain.ErrNotConfigured)

	_, err = amazon.NewPAAPIClient("key", "", "tag", "us-east-1", looseBucket())
	require.ErrorIs(t, err, domain.ErrNotConfigured)

	_, err = amazon.NewPAAPIClient("key", "secret", "", "us-east-1", looseBucket())
	require.ErrorIs(t, err, domain.ErrNotConfigured)
}
