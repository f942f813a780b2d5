package amazon_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mclarke/listing-gateway/internal/amazon"
	domain "github.com/mclarke/listing-gateway/pkg/types"
)

func TestSelectClient(t *testing.T) {
	t.Parallel()

	full := amazon.Settings{
		AccessKey:  "ak",
		SecretKey:  "sk",
		PartnerTag: "tag",
		Region:     "us-east-1",
		APIKey:     "rk",
		APIHost:    "amazon-data.test.rapidapi.com",
	}

	tests := []struct {
		name     string
		mutate   func(*amazon.Settings)
		want     string
		wantWarn bool
		wantErr  error
	}{
		{
			name:   "defaults to paapi",
			mutate: func(*amazon.Settings) {},
			want:   amazon.ProviderPAAPI,
		},
		{
			name: "explicit rapidapi preference",
			mutate: func(s *amazon.Settings) {
				s.Preferred = amazon.ProviderRapidAPI
			},
			want: amazon.ProviderRapidAPI,
		},
		{
			name: "paapi preferred but unconfigured falls back with warning",
			mutate: func(s *amazon.Settings) {
				s.SecretKey = ""
			},
			want:     amazon.ProviderRapidAPI,
			wantWarn: true,
		},
		{
			name: "rapidapi preferred but unconfigured falls back with warning",
			mutate: func(s *amazon.Settings) {
				s.Preferred = amazon.ProviderRapidAPI
				s.APIKey = ""
			},
			want:     amazon.ProviderPAAPI,
			wantWarn: true,
		},
		{
			name: "neither configured",
			mutate: func(s *amazon.Settings) {
				s.SecretKey = ""
				s.APIKey = ""
			},
			wantErr: domain.ErrNotConfigured,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := full
			tt.mutate(&s)

			var buf bytes.Buffer
			log := slog.New(slog.NewTextHandler(&buf, nil))

			client, err := amazon.SelectClient(s, looseBucket(), looseBucket(), log)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, client.Name())

			if tt.wantWarn {
				assert.Contains(t, buf.String(), "falling back")
			} else {
				assert.NotContains(t, buf.String(), "falling back")
			}
		})
	}
}

func TestSelectClient_UnknownPreference(t *testing.T) {
	t.Parallel()

	_, err := amazon.SelectClient(
		amazon.Settings{Preferred: "walmart"},
		looseBucket(), looseBucket(),
		slog.New(slog.DiscardHandler),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown amazon provider")
}
