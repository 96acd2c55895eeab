package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pendencias/backend/internal/domain/pendency"
)

const defaultHistoryKeyPrefix = "pendency:history:"

// HistoryOptions configures a history store
type HistoryOptions struct {
	MaxEntries int           // Default: pendency.MaxHistoryEntries
	TTL        time.Duration // 0 = entries never expire
	KeyPrefix  string        // Redis only
}

func (o HistoryOptions) withDefaults() HistoryOptions {
	if o.MaxEntries <= 0 {
		o.MaxEntries = pendency.MaxHistoryEntries
	}
	if o.KeyPrefix == "" {
		o.KeyPrefix = defaultHistoryKeyPrefix
	}
	return o
}

// RedisHistoryStore keeps each owner's history in a Redis list, newest first.
// It is shared by every instance of the service.
type RedisHistoryStore struct {
	client *redis.Client
	opts   HistoryOptions
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisHistoryStore connects to Redis and verifies the connection
func NewRedisHistoryStore(cfg RedisConfig, opts HistoryOptions) (*RedisHistoryStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisHistoryStoreWithClient(client, opts), nil
}

// NewRedisHistoryStoreWithClient creates a store with an existing Redis client
func NewRedisHistoryStoreWithClient(client *redis.Client, opts HistoryOptions) *RedisHistoryStore {
	return &RedisHistoryStore{client: client, opts: opts.withDefaults()}
}

func (s *RedisHistoryStore) key(owner string) string {
	return s.opts.KeyPrefix + owner
}

// Add moves query to the front of owner's history and trims it to the cap.
// LREM, LPUSH and LTRIM run in one MULTI/EXEC so readers never see a
// duplicated or oversized list.
func (s *RedisHistoryStore) Add(ctx context.Context, owner, query string) error {
	q, err := pendency.ValidateHistoryEntry(owner, query)
	if err != nil {
		return err
	}
	key := s.key(owner)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, key, 0, q)
		pipe.LPush(ctx, key, q)
		pipe.LTrim(ctx, key, 0, int64(s.opts.MaxEntries-1))
		if s.opts.TTL > 0 {
			pipe.Expire(ctx, key, s.opts.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add history entry: %w", err)
	}
	return nil
}

// List returns owner's history, newest first
func (s *RedisHistoryStore) List(ctx context.Context, owner string) ([]string, error) {
	entries, err := s.client.LRange(ctx, s.key(owner), 0, int64(s.opts.MaxEntries-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

// Clear deletes owner's history
func (s *RedisHistoryStore) Clear(ctx context.Context, owner string) error {
	if err := s.client.Del(ctx, s.key(owner)).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisHistoryStore) Close() error {
	return s.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (s *RedisHistoryStore) GetClient() *redis.Client {
	return s.client
}

var _ pendency.HistoryStore = (*RedisHistoryStore)(nil)
