package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type memoryItem struct {
	data     []byte
	expireAt time.Time
}

func (m memoryItem) expired(now time.Time) bool {
	return !m.expireAt.IsZero() && now.After(m.expireAt)
}

// MemoryCache implements Service in process, bounded by an LRU. Expiry is
// checked lazily on read.
type MemoryCache struct {
	items      *lru.Cache[string, memoryItem]
	defaultTTL time.Duration
	// mu serialises check-and-set operations (TryLock, Expire); plain reads
	// and writes rely on the LRU's own locking.
	mu  sync.Mutex
	now func() time.Time
}

func NewMemoryCache(opts ...MemoryOption) (*MemoryCache, error) {
	cfg := &MemoryConfig{MaxSize: 1000, DefaultTTL: 24 * time.Hour}
	for _, opt := range opts {
		opt(cfg)
	}
	items, err := lru.New[string, memoryItem](cfg.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("memory cache: %w", err)
	}
	return &MemoryCache{items: items, defaultTTL: cfg.DefaultTTL, now: time.Now}, nil
}

func (mc *MemoryCache) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		ttl = mc.defaultTTL
	}
	if ttl <= 0 {
		return time.Time{}
	}
	return mc.now().Add(ttl)
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	mc.items.Add(key, memoryItem{data: data, expireAt: mc.expiry(expiration)})
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	item, ok := mc.live(key)
	if !ok {
		return ErrCacheMiss
	}
	return decode(item.data, dest)
}

func (mc *MemoryCache) live(key string) (memoryItem, bool) {
	item, ok := mc.items.Get(key)
	if !ok {
		return memoryItem{}, false
	}
	if item.expired(mc.now()) {
		mc.items.Remove(key)
		return memoryItem{}, false
	}
	return item, true
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		mc.items.Remove(k)
	}
	return nil
}

// DeleteByPattern removes keys matching a glob pattern (path.Match syntax,
// which covers the "prefix:*" patterns BuildPattern produces).
func (mc *MemoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	for _, k := range mc.items.Keys() {
		ok, err := path.Match(pattern, k)
		if err != nil {
			return fmt.Errorf("pattern %q: %w", pattern, err)
		}
		if ok {
			mc.items.Remove(k)
		}
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	for _, k := range keys {
		if _, ok := mc.live(k); ok {
			return true, nil
		}
	}
	return false, nil
}

func (mc *MemoryCache) Expire(_ context.Context, key string, expiration time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	item, ok := mc.live(key)
	if !ok {
		return false, nil
	}
	item.expireAt = mc.expiry(expiration)
	mc.items.Add(key, item)
	return true, nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if _, ok := mc.live(key); ok {
		return false, nil
	}
	mc.items.Add(key, memoryItem{data: []byte(token), expireAt: mc.expiry(ttl)})
	return true, nil
}

func (mc *MemoryCache) Unlock(_ context.Context, key, token string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if item, ok := mc.live(key); ok && string(item.data) == token {
		mc.items.Remove(key)
	}
	return nil
}

// Len is the number of entries, expired ones included until read.
func (mc *MemoryCache) Len() int { return mc.items.Len() }

func (mc *MemoryCache) Close() error {
	mc.items.Purge()
	return nil
}

func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		return json.Marshal(value)
	}
}

func decode(data []byte, dest interface{}) error {
	switch d := dest.(type) {
	case *[]byte:
		*d = append((*d)[:0], data...)
		return nil
	case *json.RawMessage:
		*d = append((*d)[:0], data...)
		return nil
	default:
		return json.Unmarshal(data, dest)
	}
}
