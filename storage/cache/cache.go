// Package cache implements core.Cache on redis, or in memory when no redis server is configured.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/igreja/core"
)

// New returns a redis cache when conf.RedisAddress is set, an in-memory cache otherwise.
func New(conf *core.Config, logger core.Logger) (core.Cache, error) {
	if conf.RedisAddress == "" {
		logger.Info("no redis address configured, using the in-memory cache")
		return NewMemory(), nil
	}
	client := redis.NewClient(&redis.Options{Addr: conf.RedisAddress})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrapf(err, "connecting to redis at %s", conf.RedisAddress)
	}
	return NewRedis(client), nil
}

type Redis struct {
	client *redis.Client
}

var _ core.Cache = (*Redis)(nil)

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrCacheMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading cache")
	}
	return val, nil
}

func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.Wrap(c.client.Set(ctx, key, value, ttl).Err(), "writing cache")
}

func (c *Redis) Delete(ctx context.Context, key string) error {
	return errors.Wrap(c.client.Del(ctx, key).Err(), "deleting cache key")
}

func (c *Redis) Close() error {
	return c.client.Close()
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a process-local cache. Expired entries are dropped when read.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
}

var _ core.Cache = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry)}
}

func (c *Memory) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, core.ErrCacheMiss
	}
	if !e.expiresAt.IsZero() && !core.NowFunc().Before(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, core.ErrCacheMiss
	}
	return e.value, nil
}

// Set stores value until ttl elapses. A zero ttl never expires.
func (c *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = core.NowFunc().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *Memory) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}
