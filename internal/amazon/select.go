package amazon

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mclarke/listing-gateway/internal/ratelimit"
	domain "github.com/mclarke/listing-gateway/pkg/types"
)

// Settings carries the credentials and preference flag for selecting an
// Amazon-compatible client at startup.
type Settings struct {
	// Preferred names the client to construct first: ProviderPAAPI or
	// ProviderRapidAPI. Empty means ProviderPAAPI.
	Preferred string

	// PA-API credentials.
	AccessKey  string
	SecretKey  string
	PartnerTag string
	Region     string

	// RapidAPI credentials.
	APIKey  string
	APIHost string
}

// SelectClient picks one of the two interchangeable Amazon clients at
// construction time. When the preferred client lacks credentials it
// warns and falls back to the other; when neither is usable it fails
// with ErrNotConfigured. There is no runtime failover between them.
func SelectClient(
	s Settings,
	paapiBucket, rapidBucket *ratelimit.Bucket,
	log *slog.Logger,
	opts ...SelectOption,
) (ProductClient, error) {
	o := selectOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	preferred := s.Preferred
	if preferred == "" {
		preferred = ProviderPAAPI
	}
	if preferred != ProviderPAAPI && preferred != ProviderRapidAPI {
		return nil, fmt.Errorf(
			"unknown amazon provider %q (want %s or %s)",
			preferred, ProviderPAAPI, ProviderRapidAPI,
		)
	}

	order := []string{ProviderPAAPI, ProviderRapidAPI}
	if preferred == ProviderRapidAPI {
		order = []string{ProviderRapidAPI, ProviderPAAPI}
	}

	for i, name := range order {
		var (
			client ProductClient
			err    error
		)
		switch name {
		case ProviderPAAPI:
			client, err = NewPAAPIClient(
				s.AccessKey, s.SecretKey, s.PartnerTag, s.Region,
				paapiBucket, o.paapiOpts...,
			)
		case ProviderRapidAPI:
			client, err = NewRapidAPIClient(
				s.APIKey, s.APIHost, rapidBucket, o.rapidOpts...,
			)
		}
		if err == nil {
			if i > 0 {
				log.Warn("preferred amazon provider not configured, falling back",
					"preferred", preferred,
					"using", name,
				)
			}
			return client, nil
		}
		if !errors.Is(err, domain.ErrNotConfigured) {
			return nil, err
		}
	}

	return nil, fmt.Errorf(
		"%w: no usable amazon provider (checked %s and %s)",
		domain.ErrNotConfigured, order[0], order[1],
	)
}

type selectOptions struct {
	paapiOpts []PAAPIOption
	rapidOpts []RapidAPIOption
}

// SelectOption adjusts how SelectClient constructs the underlying
// clients, mainly to point them at test servers.
type SelectOption func(*selectOptions)

// WithSelectPAAPIOptions forwards options to a constructed PAAPIClient.
func WithSelectPAAPIOptions(opts ...PAAPIOption) SelectOption {
	return func(o *selectOptions) {
		o.paapiOpts = append(o.paapiOpts, opts...)
	}
}

// WithSelectRapidAPIOptions forwards options to a constructed RapidAPIClient.
func WithSelectRapidAPIOptions(opts ...RapidAPIOption) SelectOption {
	return func(o *selectOptions) {
		o.rapidOpts = append(o.rapidOpts, opts...)
	}
}
