package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"video-aggregator/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

const keyNamespace = "va:"

// NewCache connects to Redis and pings it. Callers treat an error as "shared tier disabled".
func NewCache(ctx context.Context, addr, username, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// RedisCache is the shared cache tier. A nil client turns every call into a no-op miss.
type RedisCache struct {
	client redis.UniversalClient
}

func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get decodes the JSON stored under key into dest
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	raw, err := c.client.Get(ctx, keyNamespace+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// corrupt entry, drop it so the next write heals it
		_ = c.client.Del(ctx, keyNamespace+key).Err()
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyNamespace+key, raw, ttl).Err()
}

// DeletePrefix removes keys by prefix using SCAN so large keyspaces are not blocked
func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) error {
	if !c.Enabled() {
		return nil
	}
	iter := c.client.Scan(ctx, 0, keyNamespace+prefix+"*", 200).Iterator()
	var batch []string
	deleted := 0
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 200 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			deleted += len(batch)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return err
		}
		deleted += len(batch)
	}
	logger.GetLogger().WithFields(map[string]interface{}{"prefix": prefix, "deleted": deleted}).Debug("redis keys deleted")
	return nil
}
