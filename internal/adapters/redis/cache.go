package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

// GetJSON loads a cached value into dest. Returns false on a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := c.client.Get(ctx, "cache:"+key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(val, dest)
}

func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "cache:"+key, data, ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, "cache:"+key).Err()
}
