package cache

import (
	"context"
	"path"
	"time"

	"github.com/athebyme/gomarket-platform/marketplace-service/pkg/interfaces"
	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache кэш в памяти процесса. Блокировки действуют только внутри процесса.
type MemoryCache struct {
	items *gocache.Cache
}

func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{items: gocache.New(defaultExpiration, cleanupInterval)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.items.Get(key)
	if !ok {
		return nil, interfaces.ErrCacheMiss
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, interfaces.ErrCacheMiss
	}
	return b, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	if expiration == 0 {
		expiration = gocache.NoExpiration
	}
	m.items.Set(key, value, expiration)
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.items.Delete(key)
	return nil
}

// DeleteByPattern поддерживает шаблоны в стиле Redis: *, ? и [...]
func (m *MemoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	for key := range m.items.Items() {
		if ok, _ := path.Match(pattern, key); ok {
			m.items.Delete(key)
		}
	}
	return nil
}

func (m *MemoryCache) Lock(_ context.Context, key string, expiration time.Duration) (bool, error) {
	if expiration == 0 {
		expiration = gocache.NoExpiration
	}
	// Add завершается ошибкой, если ключ уже есть
	if err := m.items.Add(lockKey(key), struct{}{}, expiration); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *MemoryCache) Unlock(_ context.Context, key string) error {
	m.items.Delete(lockKey(key))
	return nil
}

func (m *MemoryCache) Close() error {
	m.items.Flush()
	return nil
}

func lockKey(key string) string {
	return "lock:" + key
}

var (
	_ interfaces.CachePort = (*MemoryCache)(nil)
	_ interfaces.CachePort = (*RedisCache)(nil)
)
