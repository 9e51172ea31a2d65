package config

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions builds client options from the REDIS_* settings.
func (c Config) RedisOptions() *redis.Options {
	opts := &redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
	if c.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

// NewRedisClient connects to Redis and pings it.  On error the client is
// closed and callers run without the settings cache and rate limiter.
func NewRedisClient(ctx context.Context, c Config) (*redis.Client, error) {
	client := redis.NewClient(c.RedisOptions())
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
