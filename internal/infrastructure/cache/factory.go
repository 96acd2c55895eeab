package cache

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/pendencias/backend/internal/domain/pendency"
	"github.com/pendencias/backend/internal/infrastructure/config"
)

// HistoryStore is a pendency.HistoryStore that owns resources
type HistoryStore interface {
	pendency.HistoryStore
	io.Closer
}

// HistoryStoreFactory creates history stores based on configuration
type HistoryStoreFactory struct {
	redisConfig           config.RedisConfig
	options               HistoryOptions
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// HistoryStoreFactoryOption is a functional option for configuring the factory
type HistoryStoreFactoryOption func(*HistoryStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) HistoryStoreFactoryOption {
	return func(f *HistoryStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory store when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) HistoryStoreFactoryOption {
	return func(f *HistoryStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewHistoryStoreFactory creates a new factory
func NewHistoryStoreFactory(redisCfg config.RedisConfig, historyCfg config.HistoryConfig, opts ...HistoryStoreFactoryOption) *HistoryStoreFactory {
	f := &HistoryStoreFactory{
		redisConfig: redisCfg,
		options: HistoryOptions{
			MaxEntries: historyCfg.MaxEntries,
			TTL:        historyCfg.TTL,
			KeyPrefix:  historyCfg.KeyPrefix,
		},
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisStore creates a Redis-based history store
func (f *HistoryStoreFactory) CreateRedisStore() (HistoryStore, error) {
	store, err := NewRedisHistoryStore(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.options)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis history store: %w", err)
	}
	return store, nil
}

// CreateInMemoryStore creates an in-memory history store.
// In-memory history is per instance: clients behind a load balancer may
// see different lists.
func (f *HistoryStoreFactory) CreateInMemoryStore() HistoryStore {
	return NewInMemoryHistoryStore(f.options)
}

// CreateStore uses Redis when it is enabled and reachable, and falls back
// to memory otherwise unless fallback was disabled
func (f *HistoryStoreFactory) CreateStore() (HistoryStore, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory history store")
		return f.CreateInMemoryStore(), nil
	}

	store, err := f.CreateRedisStore()
	if err == nil {
		f.logger.Info("using Redis history store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for search history but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory history store. "+
		"History will not be shared between instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStore(), nil
}
