package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/maminech/smartkid-api/pkg/errors"
)

type cacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CacheService fronts the redis cache repository and feeds lookup
// metrics. A disabled or nil service degrades every call to a no-op.
type CacheService struct {
	repo    cacheRepository
	metrics *MetricsService
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo cacheRepository, metrics *MetricsService, logger *zap.Logger, enabled bool) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, logger: logger, enabled: enabled}
}

// Enabled reports whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get retrieves a cached entry into dest. A miss surfaces as
// ErrCacheMiss; other failures are logged and returned.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	if !s.Enabled() {
		return appErrors.ErrCacheMiss
	}
	err := s.repo.Get(ctx, key, dest)
	if err != nil {
		s.metrics.RecordCacheOperation(false)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return err
	}
	s.metrics.RecordCacheOperation(true)
	return nil
}

// Set stores a value under key for ttl.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Delete drops one cached entry.
func (s *CacheService) Delete(ctx context.Context, key string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		s.logger.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}
