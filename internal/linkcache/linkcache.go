package linkcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/meshboard/meshgate/internal/service"
)

// WrapLRU puts an expirable LRU in front of link resolution. Link payloads
// are immutable after Put, so cached reads can never go stale; the TTL only
// bounds memory for keys that stop being visited.
func WrapLRU(next service.LinkStore, size int, ttl time.Duration) service.LinkStore {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &cachedLinkStore{
		next:  next,
		cache: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

type cachedLinkStore struct {
	next  service.LinkStore
	cache *expirable.LRU[string, string]
}

func (s *cachedLinkStore) Put(ctx context.Context, payload string) (string, error) {
	key, err := s.next.Put(ctx, payload)
	if err != nil {
		return "", err
	}
	s.cache.Add(key, payload)
	return key, nil
}

func (s *cachedLinkStore) Get(ctx context.Context, key string) (string, error) {
	if payload, ok := s.cache.Get(key); ok {
		logutil.GetLogger(ctx).Debug("link cache hit", zap.String("key", key))
		return payload, nil
	}
	payload, err := s.next.Get(ctx, key)
	if err != nil {
		return "", err
	}
	s.cache.Add(key, payload)
	return payload, nil
}
