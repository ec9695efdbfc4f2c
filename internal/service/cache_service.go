package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/Payphone-Digital/locatory/internal/constants"
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"github.com/Payphone-Digital/locatory/pkg/metrics"
)

// CacheStore is satisfied by the Redis client and the in-memory fallback.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CacheService is a best-effort cache-aside helper: store failures are
// logged and treated as misses.
type CacheService struct {
	store      CacheStore
	defaultTTL time.Duration
}

func NewCacheService(store CacheStore, defaultTTL time.Duration) *CacheService {
	return &CacheService{store: store, defaultTTL: defaultTTL}
}

func PlaceCacheKey(id string) string {
	return constants.CacheKeyPlace + id
}

func AlertCacheKey(userID uint) string {
	return constants.CacheKeyUnreadAlerts + strconv.FormatUint(uint64(userID), 10)
}

// GetJSON decodes the cached value for key into dst and reports a hit.
func (s *CacheService) GetJSON(ctx context.Context, key string, dst any) bool {
	if s == nil || s.store == nil {
		return false
	}
	data, ok, err := s.store.Get(ctx, key)
	if err != nil {
		logger.WarnWithContext(ctx, "Cache get failed").String("key", key).Err(err).Log()
		metrics.ObserveCache(false)
		return false
	}
	if !ok {
		metrics.ObserveCache(false)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logger.WarnWithContext(ctx, "Cache entry undecodable, dropping").String("key", key).Err(err).Log()
		s.Invalidate(ctx, key)
		return false
	}
	logger.DebugWithContext(ctx, "Cache hit").String("key", key).Log()
	metrics.ObserveCache(true)
	return true
}

// SetJSON stores v under key; ttl <= 0 uses the default TTL.
func (s *CacheService) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if s == nil || s.store == nil {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	data, err := json.Marshal(v)
	if err != nil {
		logger.WarnWithContext(ctx, "Cache encode failed").String("key", key).Err(err).Log()
		return
	}
	if err := s.store.Set(ctx, key, data, ttl); err != nil {
		logger.WarnWithContext(ctx, "Cache set failed").String("key", key).Err(err).Log()
	}
}

func (s *CacheService) Invalidate(ctx context.Context, keys ...string) {
	if s == nil || s.store == nil || len(keys) == 0 {
		return
	}
	if err := s.store.Delete(ctx, keys...); err != nil {
		logger.WarnWithContext(ctx, "Cache invalidate failed").Any("keys", keys).Err(err).Log()
	}
}
