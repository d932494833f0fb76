package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultTestConfig(t *testing.T) *Config {
	t.Helper()

	v := viper.New()
	setDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	cfg.applyFallbacks()
	return &cfg
}

func TestDefaultsProduceValidConfig(t *testing.T) {
	cfg := defaultTestConfig(t)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultPollInterval(t *testing.T) {
	cfg := defaultTestConfig(t)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{
			name:     "missing backend base URL",
			mutate:   func(c *Config) { c.Backend.BaseURL = "" },
			errorMsg: "backend base URL is required",
		},
		{
			name:     "non-positive backend timeout",
			mutate:   func(c *Config) { c.Backend.Timeout = 0 },
			errorMsg: "backend timeout must be positive",
		},
		{
			name:     "non-positive poll interval",
			mutate:   func(c *Config) { c.Poll.Interval = 0 },
			errorMsg: "poll interval must be positive",
		},
		{
			name:     "unknown research depth",
			mutate:   func(c *Config) { c.Research.DefaultDepth = "exhaustive" },
			errorMsg: "invalid default research depth",
		},
		{
			name:     "missing server port",
			mutate:   func(c *Config) { c.Server.Port = "" },
			errorMsg: "server port is required",
		},
		{
			name:     "default format not in supported formats",
			mutate:   func(c *Config) { c.App.DefaultFormat = "yaml" },
			errorMsg: "invalid default format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultTestConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestServerAPIKeyFallback(t *testing.T) {
	t.Setenv("JOBHELP_SERVER_APIKEYS", "key-one, key-two ,key-three")

	cfg := defaultTestConfig(t)
	assert.Equal(t, []string{"key-one", "key-two", "key-three"}, cfg.Server.APIKeys)
}

func TestBackendKeyLegacyFallback(t *testing.T) {
	t.Setenv("COMPANY_RESEARCH_API_KEY", "legacy-backend-key")

	cfg := defaultTestConfig(t)
	assert.Equal(t, "legacy-backend-key", cfg.Backend.APIKey)
}

func TestServiceInstanceGenerated(t *testing.T) {
	cfg := defaultTestConfig(t)
	assert.NotEmpty(t, cfg.Observability.ServiceInstance)
	assert.Contains(t, cfg.Observability.ServiceInstance, cfg.Observability.ServiceName)
}
