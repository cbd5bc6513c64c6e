package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
)

// slightly less than the presign expiration
const cacheCleanupInterval = 12 * time.Minute

type URLCacheServiceProvider interface {
	GetReadURL(ctx context.Context, objectKey string) (string, error)
}

// URLCacheService hands out presigned read URLs for objects in a private
// bucket, loading them on a miss.
type URLCacheService struct {
	cache *cache.LoadableCache[string]
}

func NewURLCacheService(presigner ReadURLPresigner) (*URLCacheService, error) {
	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e6,
		MaxCost:     1 << 24,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}
	ristrettoStore := ristretto_store.NewRistretto(ristrettoCache)

	loadFunction := func(ctx context.Context, key any) (string, []store.Option, error) {
		objectKey, ok := key.(string)
		if !ok {
			return "", nil, fmt.Errorf("invalid key type provided to URL cache: expected string, got %T", key)
		}
		fmt.Printf("[URLCache] Miss for %s, presigning\n", objectKey)
		url, err := presigner.PresignedReadURL(ctx, objectKey)
		return url, []store.Option{store.WithExpiration(cacheCleanupInterval), store.WithCost(1)}, err
	}

	return &URLCacheService{
		cache: cache.NewLoadable[string](loadFunction, cache.New[string](ristrettoStore)),
	}, nil
}

func (s *URLCacheService) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	if objectKey == "" {
		return "", nil
	}
	return s.cache.Get(ctx, objectKey)
}
