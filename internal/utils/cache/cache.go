package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned by Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a thin prefix-namespaced wrapper around a Redis client.
type Cache struct {
	client *redis.Client
	logger *zap.Logger
	prefix string
}

// NewCache creates a new cache instance.
func NewCache(client *redis.Client, logger *zap.Logger, prefix string) *Cache {
	return &Cache{
		client: client,
		logger: logger,
		prefix: prefix,
	}
}

func (c *Cache) formatKey(key string) string {
	return fmt.Sprintf("%s:%s", c.prefix, key)
}

// Set stores a value. Non-string values are serialized as JSON.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	var dataToStore interface{}
	switch v := value.(type) {
	case string:
		dataToStore = v
	case []byte:
		dataToStore = string(v)
	default:
		jsonData, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal cache value: %w", err)
		}
		dataToStore = string(jsonData)
	}

	if err := c.client.Set(ctx, c.formatKey(key), dataToStore, expiration).Err(); err != nil {
		c.logger.Error("Failed to set cache value", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to set cache value: %w", err)
	}
	return nil
}

// Get retrieves a raw string value. Returns ErrCacheMiss when absent.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, c.formatKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		c.logger.Error("Failed to get cache value", zap.Error(err), zap.String("key", key))
		return "", fmt.Errorf("failed to get cache value: %w", err)
	}
	return value, nil
}

// GetObject retrieves a value and unmarshals it into dest.
func (c *Cache) GetObject(ctx context.Context, key string, dest interface{}) error {
	value, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(value), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.formatKey(key)).Err(); err != nil {
		c.logger.Error("Failed to delete cache value", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to delete cache value: %w", err)
	}
	return nil
}

// DeleteByPattern removes all keys matching the pattern.
func (c *Cache) DeleteByPattern(ctx context.Context, pattern string) error {
	keys, err := c.client.Keys(ctx, c.formatKey(pattern)).Result()
	if err != nil {
		return fmt.Errorf("failed to get keys by pattern: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys by pattern: %w", err)
	}
	return nil
}
