package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"driver-review-service/internal/models"
	"driver-review-service/internal/storage"
	"driver-review-service/pkg/logger"
	rredis "driver-review-service/pkg/redis"
)

// CachePrefix namespaces every cached leaderboard projection.
const CachePrefix = "leaderboard:"

const (
	DefaultLimit = 5
	MaxLimit     = 50
)

// Service serves read-only leaderboard projections, cached in Redis.
type Service struct {
	store        storage.IStorage
	cache        *rredis.Client
	ttl          time.Duration
	defaultLimit int
	log          logger.ILogger
}

// NewService creates a leaderboard service. cache may be nil.
func NewService(store storage.IStorage, cache *rredis.Client, ttl time.Duration, defaultLimit int, log logger.ILogger) *Service {
	if defaultLimit <= 0 || defaultLimit > MaxLimit {
		defaultLimit = DefaultLimit
	}
	return &Service{store: store, cache: cache, ttl: ttl, defaultLimit: defaultLimit, log: log}
}

// ClampLimit maps a requested limit onto [1, MaxLimit], 0 meaning the default.
func (s *Service) ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return s.defaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// TopContributors ranks profiles by contribution score.
func (s *Service) TopContributors(ctx context.Context, limit int) ([]models.Contributor, error) {
	limit = s.ClampLimit(limit)
	return cached(ctx, s, fmt.Sprintf("contributors:%d", limit), func() ([]models.Contributor, error) {
		return s.store.Profile().TopContributors(ctx, limit)
	})
}

// TopRatedDrivers ranks rated drivers by average rating.
func (s *Service) TopRatedDrivers(ctx context.Context, limit int) ([]models.DriverSummary, error) {
	limit = s.ClampLimit(limit)
	return cached(ctx, s, fmt.Sprintf("drivers:%d", limit), func() ([]models.DriverSummary, error) {
		return s.store.Driver().TopRated(ctx, limit)
	})
}

// Stats returns platform-wide totals.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	return cached(ctx, s, "stats", func() (*models.Stats, error) {
		var st models.Stats
		var err error
		if st.TotalDrivers, err = s.store.Driver().Count(ctx); err != nil {
			return nil, err
		}
		if st.TotalReviews, err = s.store.Review().Count(ctx); err != nil {
			return nil, err
		}
		if st.TotalUsers, err = s.store.Profile().Count(ctx); err != nil {
			return nil, err
		}
		if st.AverageRating, err = s.store.Driver().AverageRating(ctx); err != nil {
			return nil, err
		}
		return &st, nil
	})
}

// Invalidate drops every cached projection.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.InvalidatePrefix(ctx, CachePrefix)
}

func cached[T any](ctx context.Context, s *Service, key string, load func() (T, error)) (T, error) {
	key = CachePrefix + key
	var out T
	err := s.cache.GetJSON(ctx, key, &out)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, rredis.ErrCacheMiss) {
		s.log.Warning("leaderboard cache read failed", logger.String("key", key), logger.Error(err))
	}

	out, err = load()
	if err != nil {
		return out, err
	}
	if err := s.cache.SetJSON(ctx, key, out, s.ttl); err != nil {
		s.log.Warning("leaderboard cache write failed", logger.String("key", key), logger.Error(err))
	}
	return out, nil
}
