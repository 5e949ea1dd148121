// Package redis provides a thin wrapper around go-redis/v9 for publishing
// run reports on a pub/sub channel.
package redis

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/letterscan/pkg/config"
	"github.com/redis/go-redis/v9"
)

// Client wraps a go-redis client.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a Redis client. Connections are made lazily; use Ping
// to verify reachability.
func NewClient(cfg config.RedisConfig) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	return &Client{rdb: rdb}
}

// Publish posts message on channel and returns the number of subscribers
// that received it.
func (c *Client) Publish(ctx context.Context, channel string, message any) (int64, error) {
	n, err := c.rdb.Publish(ctx, channel, message).Result()
	if err != nil {
		return 0, fmt.Errorf("publishing to %s: %w", channel, err)
	}
	return n, nil
}

// Subscribe opens a subscription on the given channels. The caller closes
// the returned PubSub.
func (c *Client) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return c.rdb.Subscribe(ctx, channels...)
}

// Close closes the underlying Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping sends a PING to Redis and returns any error.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
