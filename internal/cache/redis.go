package cache

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "pplx:score:"

// Redis shares scores between filter processes.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// DialRedis connects to addr and pings it once.
func DialRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedis(client, ttl), nil
}

func (c *Redis) Get(ctx context.Context, key string) (float64, bool, error) {
	v, err := c.client.Get(ctx, redisPrefix+key).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, value float64) error {
	return c.client.Set(ctx, redisPrefix+key, strconv.FormatFloat(value, 'g', -1, 64), c.ttl).Err()
}

// ScanKeys calls fn with every stored score key, prefix stripped.
func (c *Redis) ScanKeys(ctx context.Context, fn func(key string)) error {
	iter := c.client.Scan(ctx, 0, redisPrefix+"*", 1000).Iterator()
	for iter.Next(ctx) {
		fn(strings.TrimPrefix(iter.Val(), redisPrefix))
	}
	return iter.Err()
}

func (c *Redis) Close() error {
	return c.client.Close()
}
