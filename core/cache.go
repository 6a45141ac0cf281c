package core

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache stores short-lived values shared by the API instances: revoked tokens and cached reports.
type Cache interface {
	// Get returns ErrCacheMiss when key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
