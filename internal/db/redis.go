package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient wraps the Redis client that backs the study history
type RedisClient struct {
	client *redis.Client
	config RedisConfig
}

// RedisConfig holds configuration for Redis connection
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultRedisConfig returns a Redis configuration with sensible defaults
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:         "localhost",
		Port:         6379,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// withDefaults fills zero fields from DefaultRedisConfig
func (c RedisConfig) withDefaults() RedisConfig {
	d := DefaultRedisConfig()
	if c.Host == "" {
		c.Host = d.Host
	}
	if c.Port == 0 {
		c.Port = d.Port
	}
	if c.PoolSize == 0 {
		c.PoolSize = d.PoolSize
	}
	if c.MinIdleConns == 0 {
		c.MinIdleConns = d.MinIdleConns
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = d.DialTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	return c
}

// NewRedisClient creates a new Redis client with connection pooling.
// No connection is made until first use.
func NewRedisClient(config RedisConfig) *RedisClient {
	config = config.withDefaults()

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr(),
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	return &RedisClient{
		client: client,
		config: config,
	}
}

// Connect creates a client and verifies the server answers a PING
func Connect(ctx context.Context, config RedisConfig) (*RedisClient, error) {
	c := NewRedisClient(config)
	if err := c.Ping(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("redis %s: %w", c.config.Addr(), err)
	}
	return c, nil
}

// Ping checks if Redis is alive
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// PoolStats returns connection pool statistics
func (r *RedisClient) PoolStats() *redis.PoolStats {
	return r.client.PoolStats()
}

// Close closes the Redis client and releases all connections
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// GetClient returns the underlying redis client for repositories
func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}
