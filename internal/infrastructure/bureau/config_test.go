package bureau

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pendencias/backend/internal/domain/pendency"
	"github.com/pendencias/backend/internal/infrastructure/config"
)

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestClientConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *ClientConfig
		wantErr error
	}{
		{name: "valid config", config: NewClientConfig("https://api.serasa.example/")},
		{name: "zero values get defaults", config: &ClientConfig{BaseURL: "http://localhost:8090/spc"}},
		{name: "missing base url", config: &ClientConfig{}, wantErr: ErrConfigMissingBaseURL},
		{name: "relative base url", config: &ClientConfig{BaseURL: "/serasa"}, wantErr: ErrConfigInvalidBaseURL},
		{name: "unsupported scheme", config: &ClientConfig{BaseURL: "ftp://host"}, wantErr: ErrConfigInvalidBaseURL},
		{name: "negative retries", config: &ClientConfig{BaseURL: "http://h", MaxRetries: -1}, wantErr: ErrConfigInvalidRetries},
		{name: "negative rate", config: &ClientConfig{BaseURL: "http://h", RateLimitRPS: -2}, wantErr: ErrConfigInvalidRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotContains(t, tt.config.BaseURL[len(tt.config.BaseURL)-1:], "/")
			assert.Positive(t, tt.config.Timeout)
			assert.Positive(t, tt.config.RetryInitialInterval)
			assert.Positive(t, tt.config.MaxResponseBytes)
		})
	}
}

func TestClientConfig_ValidateRateBurst(t *testing.T) {
	cfg := &ClientConfig{BaseURL: "http://h", RateLimitRPS: 3}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.RateBurst)
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := config.BureauConfig{
		MaxRetries:           3,
		RetryInitialInterval: 50 * time.Millisecond,
		RetryMaxInterval:     time.Second,
		MaxResponseBytes:     1024,
		Providers: map[string]config.ProviderConfig{
			"serasa":    {Enabled: true, BaseURL: "http://s", APIKey: "k1", Timeout: time.Second},
			"spc":       {Enabled: false, BaseURL: "http://p", APIKey: "k2"},
			"boa_vista": {Enabled: true, BaseURL: "http://b", RateLimitRPS: 2, RateBurst: 4},
			"pgfn":      {Enabled: true, BaseURL: "http://g", APIKey: "k5"},
		},
	}

	settings, creds := SettingsFromConfig(cfg)

	require.Len(t, settings, 3)
	assert.Equal(t, pendency.ProviderSerasa, settings[0].Code)
	assert.Equal(t, pendency.ProviderBoaVista, settings[1].Code)
	assert.Equal(t, pendency.ProviderPGFN, settings[2].Code)

	assert.Equal(t, 3, settings[0].Client.MaxRetries)
	assert.Equal(t, time.Second, settings[0].Client.Timeout)
	assert.Equal(t, int64(1024), settings[0].Client.MaxResponseBytes)
	assert.Equal(t, 2.0, settings[1].Client.RateLimitRPS)
	assert.Equal(t, 4, settings[1].Client.RateBurst)

	assert.Equal(t, pendency.Credentials{pendency.ProviderSerasa: "k1", pendency.ProviderPGFN: "k5"}, creds)
}
