package ports

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by SharedCachePort.GetJSON when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// SharedCachePort is the distributed cache tier. Implementations: redis client
// and a null object for deployments without redis. Errors from this port are
// always swallowed by the cache service - the system degrades to the fast tier.
type SharedCachePort interface {
	GetJSON(ctx context.Context, key string, target any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// DeletePattern removes all keys matching a glob pattern. Used when a model
	// swap invalidates every version-keyed entry.
	DeletePattern(ctx context.Context, pattern string) (int64, error)

	Ping(ctx context.Context) error
}

// NullSharedCache is the capability-absent implementation: every read misses,
// every write succeeds silently.
type NullSharedCache struct{}

func (NullSharedCache) GetJSON(context.Context, string, any) error          { return ErrCacheMiss }
func (NullSharedCache) SetJSON(context.Context, string, any, time.Duration) error { return nil }
func (NullSharedCache) Delete(context.Context, ...string) error             { return nil }
func (NullSharedCache) DeletePattern(context.Context, string) (int64, error) { return 0, nil }
func (NullSharedCache) Ping(context.Context) error                          { return nil }
