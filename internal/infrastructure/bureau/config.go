package bureau

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/pendencias/backend/internal/domain/pendency"
	"github.com/pendencias/backend/internal/infrastructure/config"
)

const (
	defaultTimeout          = 10 * time.Second
	defaultMaxRetries       = 2
	defaultInitialInterval  = 200 * time.Millisecond
	defaultMaxInterval      = 2 * time.Second
	defaultMaxResponseBytes = 10 << 20 // 10MB
)

// Errors for provider configuration
var (
	ErrConfigMissingBaseURL = errors.New("bureau: base url is required")
	ErrConfigInvalidBaseURL = errors.New("bureau: base url must be an absolute http(s) url")
	ErrConfigInvalidRetries = errors.New("bureau: max retries cannot be negative")
	ErrConfigInvalidRate    = errors.New("bureau: rate limit cannot be negative")
)

// ClientConfig holds the transport settings of one provider
type ClientConfig struct {
	// BaseURL is the provider API root, without trailing slash
	BaseURL string
	// Timeout bounds a whole Fetch, retries included
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt
	MaxRetries int
	// RetryInitialInterval is the first backoff delay
	RetryInitialInterval time.Duration
	// RetryMaxInterval caps each backoff delay
	RetryMaxInterval time.Duration
	// RateLimitRPS is the outbound request rate, 0 for unlimited
	RateLimitRPS float64
	// RateBurst is the token bucket size
	RateBurst int
	// MaxResponseBytes caps how much of a response body is read
	MaxResponseBytes int64
}

// NewClientConfig creates a configuration with defaults for baseURL
func NewClientConfig(baseURL string) *ClientConfig {
	return &ClientConfig{
		BaseURL:              baseURL,
		Timeout:              defaultTimeout,
		MaxRetries:           defaultMaxRetries,
		RetryInitialInterval: defaultInitialInterval,
		RetryMaxInterval:     defaultMaxInterval,
		MaxResponseBytes:     defaultMaxResponseBytes,
	}
}

// Validate validates the configuration and fills zero values with defaults
func (c *ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrConfigInvalidBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.MaxRetries < 0 {
		return ErrConfigInvalidRetries
	}
	if c.RateLimitRPS < 0 {
		return ErrConfigInvalidRate
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.RetryInitialInterval <= 0 {
		c.RetryInitialInterval = defaultInitialInterval
	}
	if c.RetryMaxInterval <= 0 {
		c.RetryMaxInterval = defaultMaxInterval
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = defaultMaxResponseBytes
	}
	if c.RateLimitRPS > 0 && c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	return nil
}

// ProviderSettings pairs a provider with its transport configuration
type ProviderSettings struct {
	Code   pendency.ProviderCode
	Client *ClientConfig
}

// SettingsFromConfig converts the application configuration into the
// settings of every enabled provider, in registration order, plus the
// credentials configured for them.
func SettingsFromConfig(cfg config.BureauConfig) ([]ProviderSettings, pendency.Credentials) {
	settings := make([]ProviderSettings, 0, len(config.ProviderKeys))
	creds := make(pendency.Credentials, len(config.ProviderKeys))

	for _, key := range config.ProviderKeys {
		p, ok := cfg.Provider(key)
		if !ok || !p.Enabled {
			continue
		}
		code := pendency.ProviderCode(strings.ToUpper(key))
		settings = append(settings, ProviderSettings{
			Code: code,
			Client: &ClientConfig{
				BaseURL:              p.BaseURL,
				Timeout:              p.Timeout,
				MaxRetries:           cfg.MaxRetries,
				RetryInitialInterval: cfg.RetryInitialInterval,
				RetryMaxInterval:     cfg.RetryMaxInterval,
				RateLimitRPS:         p.RateLimitRPS,
				RateBurst:            p.RateBurst,
				MaxResponseBytes:     cfg.MaxResponseBytes,
			},
		})
		if p.APIKey != "" {
			creds[code] = p.APIKey
		}
	}
	return settings, creds
}
