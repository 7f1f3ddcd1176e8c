package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/campushq/records-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService fronts the optional read cache for list endpoints. Every
// method tolerates a nil receiver and a disabled cache: callers read
// through to the database and never branch on cache availability.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled reports whether lookups will actually reach the cache.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get loads a cached entry into dest and reports whether it was a hit.
// Misses and backend failures both return false; only the latter carries an
// error.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}

	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	hit := err == nil
	s.metrics.RecordCacheOperation(hit, time.Since(start))

	if hit {
		return true, nil
	}
	if errors.Is(err, appErrors.ErrCacheMiss) {
		return false, nil
	}
	s.warn("cache get failed", key, err)
	return false, err
}

// Set stores value under key, falling back to the default TTL.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.warn("cache set failed", key, err)
	}
	return err
}

// Invalidate drops every cached entry matching the pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.warn("cache invalidate failed", pattern, err)
		return err
	}
	return nil
}

func (s *CacheService) warn(msg, key string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.Warn(msg, zap.String("key", key), zap.Error(err))
}
