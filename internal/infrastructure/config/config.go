package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Swagger   SwaggerConfig
	Telemetry TelemetryConfig
	Bureau    BureauConfig
	History   HistoryConfig
	Audit     AuditConfig
	Sandbox   SandboxConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings.
// The database only backs the search audit trail.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// SwaggerConfig holds Swagger documentation endpoint configuration
type SwaggerConfig struct {
	Enabled    bool     // Whether to enable Swagger endpoint
	AllowedIPs []string // IP whitelist (empty = allow all)
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool // Export zap logs through the OTLP log pipeline
	DBTraceEnabled    bool // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool // Log full SQL statements (dev only)
}

// ProviderConfig holds the settings of one pendency provider
type ProviderConfig struct {
	Enabled      bool
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	RateLimitRPS float64 // 0 = unlimited
	RateBurst    int
}

// BureauConfig holds outbound provider settings
type BureauConfig struct {
	Timeout              time.Duration // default per-provider timeout
	MaxRetries           int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	MaxResponseBytes     int64
	Providers            map[string]ProviderConfig // keyed by lowercase provider code
}

// Provider returns the settings for a lowercase provider key
func (b *BureauConfig) Provider(key string) (ProviderConfig, bool) {
	p, ok := b.Providers[key]
	return p, ok
}

// HistoryConfig holds search history settings
type HistoryConfig struct {
	MaxEntries int
	TTL        time.Duration // 0 = no expiry
	KeyPrefix  string
}

// AuditConfig holds search audit settings
type AuditConfig struct {
	Enabled       bool
	HashKey       string        // key for the keyed tax id fingerprint
	Retention     time.Duration // audits older than this are purged; 0 keeps them forever
	PurgeSchedule string        // "minute hour * * *", local time
}

// SandboxConfig holds the bureau sandbox server settings
type SandboxConfig struct {
	Port    string
	Latency time.Duration // artificial latency added to each response
	Seed    int64
}

// ProviderKeys lists the provider sections read from configuration
var ProviderKeys = []string{"serasa", "spc", "boa_vista", "quod", "pgfn"}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with PND_ prefix (e.g., PND_BUREAU_SERASA_API_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is like Load but reads the given config file instead of searching for config.toml
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./backend")
		v.AddConfigPath("/app")
	}

	setBoolDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("PND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Swagger: SwaggerConfig{
			Enabled:    v.GetBool("swagger.enabled"),
			AllowedIPs: v.GetStringSlice("swagger.allowed_ips"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
		},
		Bureau: BureauConfig{
			Timeout:              v.GetDuration("bureau.timeout"),
			MaxRetries:           v.GetInt("bureau.max_retries"),
			RetryInitialInterval: v.GetDuration("bureau.retry_initial_interval"),
			RetryMaxInterval:     v.GetDuration("bureau.retry_max_interval"),
			MaxResponseBytes:     v.GetInt64("bureau.max_response_bytes"),
			Providers:            make(map[string]ProviderConfig, len(ProviderKeys)),
		},
		History: HistoryConfig{
			MaxEntries: v.GetInt("history.max_entries"),
			TTL:        v.GetDuration("history.ttl"),
			KeyPrefix:  v.GetString("history.key_prefix"),
		},
		Audit: AuditConfig{
			Enabled:       v.GetBool("audit.enabled"),
			HashKey:       v.GetString("audit.hash_key"),
			Retention:     v.GetDuration("audit.retention"),
			PurgeSchedule: v.GetString("audit.purge_schedule"),
		},
		Sandbox: SandboxConfig{
			Port:    v.GetString("sandbox.port"),
			Latency: v.GetDuration("sandbox.latency"),
			Seed:    v.GetInt64("sandbox.seed"),
		},
	}

	for _, key := range ProviderKeys {
		prefix := "bureau." + key + "."
		cfg.Bureau.Providers[key] = ProviderConfig{
			Enabled:      v.GetBool(prefix + "enabled"),
			BaseURL:      v.GetString(prefix + "base_url"),
			APIKey:       v.GetString(prefix + "api_key"),
			Timeout:      v.GetDuration(prefix + "timeout"),
			RateLimitRPS: v.GetFloat64(prefix + "rate_limit_rps"),
			RateBurst:    v.GetInt(prefix + "rate_burst"),
		}
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setBoolDefaults registers the boolean settings that default to true,
// which applyDefaults cannot tell apart from an explicit false.
func setBoolDefaults(v *viper.Viper) {
	v.SetDefault("redis.enabled", true)
	v.SetDefault("swagger.enabled", true)
	v.SetDefault("http.rate_limit_enabled", true)
	v.SetDefault("telemetry.metrics_enabled", true)
	for _, key := range ProviderKeys {
		v.SetDefault("bureau."+key+".enabled", true)
	}
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "pendency-service"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "pendencies"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 64 << 10 // 64KB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 60
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// Empty CORS origins means no cross-origin requests until configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID", "X-Client-ID"}
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}

	if cfg.Bureau.Timeout == 0 {
		cfg.Bureau.Timeout = 10 * time.Second
	}
	if cfg.Bureau.MaxRetries == 0 {
		cfg.Bureau.MaxRetries = 2
	}
	if cfg.Bureau.RetryInitialInterval == 0 {
		cfg.Bureau.RetryInitialInterval = 200 * time.Millisecond
	}
	if cfg.Bureau.RetryMaxInterval == 0 {
		cfg.Bureau.RetryMaxInterval = 2 * time.Second
	}
	if cfg.Bureau.MaxResponseBytes == 0 {
		cfg.Bureau.MaxResponseBytes = 10 << 20 // 10MB
	}
	for key, p := range cfg.Bureau.Providers {
		if p.BaseURL == "" {
			p.BaseURL = "http://localhost:8090/" + key
		}
		if p.Timeout == 0 {
			p.Timeout = cfg.Bureau.Timeout
		}
		if p.RateLimitRPS > 0 && p.RateBurst == 0 {
			p.RateBurst = 1
		}
		cfg.Bureau.Providers[key] = p
	}

	if cfg.History.MaxEntries == 0 {
		cfg.History.MaxEntries = 10
	}
	if cfg.History.KeyPrefix == "" {
		cfg.History.KeyPrefix = "pendency:history:"
	}

	if cfg.Audit.PurgeSchedule == "" {
		cfg.Audit.PurgeSchedule = "0 3 * * *"
	}

	if cfg.Sandbox.Port == "" {
		cfg.Sandbox.Port = "8090"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.History.MaxEntries < 1 || c.History.MaxEntries > 100 {
		return fmt.Errorf("history.max_entries must be between 1 and 100, got %d", c.History.MaxEntries)
	}
	if c.Audit.Retention < 0 {
		return fmt.Errorf("audit.retention cannot be negative")
	}
	if c.Bureau.MaxRetries < 0 {
		return fmt.Errorf("bureau.max_retries cannot be negative")
	}
	for key, p := range c.Bureau.Providers {
		if !p.Enabled {
			continue
		}
		u, err := url.Parse(p.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("bureau.%s.base_url must be an absolute URL, got %q", key, p.BaseURL)
		}
		if p.RateLimitRPS < 0 {
			return fmt.Errorf("bureau.%s.rate_limit_rps cannot be negative", key)
		}
	}

	if c.App.Env == "production" {
		if c.Audit.Enabled {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
			if len(c.Audit.HashKey) < 32 {
				return fmt.Errorf("audit.hash_key must be at least 32 characters in production")
			}
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Swagger.Enabled && len(c.Swagger.AllowedIPs) == 0 {
			return fmt.Errorf("swagger endpoint must be disabled or IP restricted in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
		for key, p := range c.Bureau.Providers {
			if p.Enabled && strings.HasPrefix(p.BaseURL, "http://") {
				return fmt.Errorf("bureau.%s.base_url must use https in production", key)
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
