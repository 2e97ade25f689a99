package store

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultCleanupInterval is how often expired values are swept.
const DefaultCleanupInterval = 10 * time.Minute

// CacheStore keeps values in process memory. It never returns errors.
type CacheStore struct {
	cache *cache.Cache
}

// NewCacheStore sweeps expired values every cleanupInterval. Expiry itself
// comes from the ttl passed to Set.
func NewCacheStore(cleanupInterval time.Duration) *CacheStore {
	return &CacheStore{
		cache: cache.New(cache.NoExpiration, cleanupInterval),
	}
}

func (s *CacheStore) Get(_ context.Context, key string) (string, bool, error) {
	if x, found := s.cache.Get(key); found {
		return x.(string), true, nil
	}
	return "", false, nil
}

func (s *CacheStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	s.cache.Set(key, value, ttl)
	return nil
}

func (s *CacheStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}
