package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"driver-review-service/pkg/logger"
)

// ErrCacheMiss is returned by GetJSON when the key is absent or the client is unset.
var ErrCacheMiss = errors.New("cache miss")

const revokedPrefix = "auth:revoked:"

// Client wraps the Redis connection. A nil *Client is valid: reads miss and
// writes are no-ops, so callers keep working without Redis.
type Client struct {
	rdb *goredis.Client
	log logger.ILogger
}

// NewClient connects to Redis with retry.
func NewClient(ctx context.Context, addr, password string, log logger.ILogger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr, Password: password})
	for i := 0; i < 20; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.Info("connected to redis", logger.String("addr", addr))
			return &Client{rdb: rdb, log: log}, nil
		}
		log.Warning("waiting for redis", logger.Int("attempt", i+1), logger.Error(err))
		select {
		case <-ctx.Done():
			rdb.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	rdb.Close()
	return nil, fmt.Errorf("redis: failed to connect after 20 attempts")
}

// Wrap builds a Client around an existing connection.
func Wrap(rdb *goredis.Client, log logger.ILogger) *Client {
	return &Client{rdb: rdb, log: log}
}

// GetJSON loads key and unmarshals it into dest.
func (c *Client) GetJSON(ctx context.Context, key string, dest any) error {
	if c == nil {
		return ErrCacheMiss
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache unmarshal: %w", err)
	}
	return nil
}

// SetJSON stores value under key for ttl.
func (c *Client) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// InvalidatePrefix deletes every key starting with prefix. SCAN is used instead of KEYS.
func (c *Client) InvalidatePrefix(ctx context.Context, prefix string) error {
	if c == nil {
		return nil
	}
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan: %w", err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache delete: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// RevokeToken denylists a token id until it would have expired anyway.
func (c *Client) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, revokedPrefix+jti, 1, ttl).Err()
}

// IsRevoked reports whether jti was signed out.
func (c *Client) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if c == nil {
		return false, nil
	}
	n, err := c.rdb.Exists(ctx, revokedPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Close tears down the Redis connection.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
