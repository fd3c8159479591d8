package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
	ErrLocked    = errors.New("cache: key is locked")
)

// Service defines cache operations. Values are JSON encoded, so Get decodes
// into dest the same way whatever the backend.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error)
	// TryLock sets key to token when it is free. Unlock only releases a lock
	// that still holds the same token.
	TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key, token string) error
	Close() error
}

// GetOrLoad returns the cached value of key or calls load and caches its
// result for ttl. Cache failures fall through to load.
func GetOrLoad[T any](ctx context.Context, c Service, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var v T
	if err := c.Get(ctx, key, &v); err == nil {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	_ = c.Set(ctx, key, v, ttl)
	return v, nil
}

// Shared returns the level of c that every replica reads. A LayeredCache
// answers from its local L1 first, which suits catalogs but not state that
// several replicas edit.
func Shared(c Service) Service {
	if lc, ok := c.(*LayeredCache); ok {
		return lc.redis
	}
	return c
}

// AcquireLock takes key's lock under a fresh token, trying up to attempts
// times wait apart. The returned func releases it; ErrLocked means the lock
// stayed taken.
func AcquireLock(ctx context.Context, c Service, key string, ttl time.Duration, attempts int, wait time.Duration) (func(), error) {
	token := uuid.NewString()
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; ; i++ {
		ok, err := c.TryLock(ctx, key, token, ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() { _ = c.Unlock(context.WithoutCancel(ctx), key, token) }, nil
		}
		if i == attempts-1 {
			return nil, ErrLocked
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
