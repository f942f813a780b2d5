package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		envVars   map[string]string
		wantErr   string
		checkFunc func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid minimal config",
			yaml: `
amazon:
  provider: paapi
  paapi:
    access_key: AKIAEXAMPLE
    secret_key: shh
    partner_tag: mytag-20
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "paapi", cfg.Amazon.Provider)
				assert.Equal(t, "AKIAEXAMPLE", cfg.Amazon.PAAPI.AccessKey)
				assert.Equal(t, "mytag-20", cfg.Amazon.PAAPI.PartnerTag)
			},
		},
		{
			name: "defaults applied for optional fields",
			yaml: `
amazon:
  paapi:
    access_key: AKIAEXAMPLE
    secret_key: shh
    partner_tag: mytag-20
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, "paapi", cfg.Amazon.Provider)
				assert.Equal(t, "us-east-1", cfg.Amazon.PAAPI.Region)
				assert.Equal(t, 1.0, cfg.Amazon.PAAPI.RateLimit.Capacity)
				assert.Equal(t, 1.0, cfg.Amazon.PAAPI.RateLimit.RefillPerSecond)
				assert.Equal(t, 10.0, cfg.Amazon.RapidAPI.RateLimit.Capacity)
				assert.Equal(t, 5.0, cfg.Amazon.RapidAPI.RateLimit.RefillPerSecond)
				assert.Equal(t, "EBAY-US", cfg.Ebay.GlobalID)
				assert.Equal(t, 1.0, cfg.Ebay.RateLimit.Capacity)
				assert.Equal(t, 0.058, cfg.Ebay.RateLimit.RefillPerSecond)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
			},
		},
		{
			name: "inbound rate limit burst defaults to twice the rate",
			yaml: `
server:
  rate_limit:
    per_second: 10
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, 10.0, cfg.Server.RateLimit.PerSecond)
				assert.Equal(t, 20, cfg.Server.RateLimit.Burst)
			},
		},
		{
			name: "env var substitution",
			yaml: `
amazon:
  provider: rapidapi
  rapidapi:
    api_key: "${TEST_RAPID_KEY}"
    api_host: real-time-amazon-data.p.rapidapi.com
`,
			envVars: map[string]string{
				"TEST_RAPID_KEY": "secret123",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "secret123", cfg.Amazon.RapidAPI.APIKey)
			},
		},
		{
			name: "invalid amazon provider",
			yaml: `
amazon:
  provider: scraping
`,
			wantErr: `amazon.provider must be one of: paapi, rapidapi (got "scraping")`,
		},
		{
			name: "rate limit capacity below one",
			yaml: `
ebay:
  app_id: my-app-id
  rate_limit:
    capacity: 0.5
    refill_per_second: 1
`,
			wantErr: "ebay.rate_limit.capacity must be at least 1",
		},
		{
			name: "negative refill rate",
			yaml: `
amazon:
  paapi:
    rate_limit:
      capacity: 1
      refill_per_second: -2
`,
			wantErr: "amazon.paapi.rate_limit.refill_per_second must be positive",
		},
		{
			name: "invalid logging level",
			yaml: `
logging:
  level: loud
`,
			wantErr: `logging.level must be one of: debug, info, warn, error (got "loud")`,
		},
		{
			name:    "invalid YAML",
			yaml:    `{{{not valid yaml`,
			wantErr: "parsing config YAML",
		},
		{
			name: "full config with overrides",
			yaml: `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 60s
  write_timeout: 60s
amazon:
  provider: rapidapi
  paapi:
    access_key: AKIAEXAMPLE
    secret_key: shh
    partner_tag: mytag-20
    region: eu-west-1
    rate_limit:
      capacity: 2
      refill_per_second: 2
  rapidapi:
    api_key: rapid-key
    api_host: real-time-amazon-data.p.rapidapi.com
    rate_limit:
      capacity: 20
      refill_per_second: 10
ebay:
  app_id: my-app-id
  global_id: EBAY-GB
  rate_limit:
    capacity: 3
    refill_per_second: 0.1
logging:
  level: debug
  format: json
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "rapidapi", cfg.Amazon.Provider)
				assert.Equal(t, "eu-west-1", cfg.Amazon.PAAPI.Region)
				assert.Equal(t, 2.0, cfg.Amazon.PAAPI.RateLimit.Capacity)
				assert.Equal(t, "rapid-key", cfg.Amazon.RapidAPI.APIKey)
				assert.Equal(t, 20.0, cfg.Amazon.RapidAPI.RateLimit.Capacity)
				assert.Equal(t, "my-app-id", cfg.Ebay.AppID)
				assert.Equal(t, "EBAY-GB", cfg.Ebay.GlobalID)
				assert.Equal(t, 0.1, cfg.Ebay.RateLimit.RefillPerSecond)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Only parallelize tests that don't modify env vars.
			if len(tt.envVars) == 0 {
				t.Parallel()
			}

			// Set env vars for this test.
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			// Write YAML to a temp file.
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			cfg, err := Load(path)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}
