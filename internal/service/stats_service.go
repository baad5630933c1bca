package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/maminech/smartkid-api/internal/access"
	"github.com/maminech/smartkid-api/internal/models"
	appErrors "github.com/maminech/smartkid-api/pkg/errors"
)

const statsCacheKey = "admin:stats"

// recentWindow is how far back "recent" report aggregates look.
const recentWindow = 7 * 24 * time.Hour

type statsUserRepository interface {
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
}

type statsStudentRepository interface {
	Count(ctx context.Context) (int, error)
}

type statsClassRepository interface {
	Count(ctx context.Context) (int, error)
}

type statsReportRepository interface {
	Count(ctx context.Context) (int, error)
	CountSince(ctx context.Context, date string) (int, error)
	MoodCountsSince(ctx context.Context, date string) (map[models.Mood]int, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// StatsConfig controls caching of the admin snapshot.
type StatsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// StatsService computes the admin stats snapshot from database
// aggregates, with an optional redis cache in front.
type StatsService struct {
	users    statsUserRepository
	students statsStudentRepository
	classes  statsClassRepository
	reports  statsReportRepository
	cache    statsCache
	metrics  *MetricsService
	cfg      StatsConfig
	logger   *zap.Logger
}

// NewStatsService constructs the stats service. cache may be nil when
// caching is disabled; metrics may be nil when observation is off.
func NewStatsService(users statsUserRepository, students statsStudentRepository, classes statsClassRepository, reports statsReportRepository, cache statsCache, metrics *MetricsService, cfg StatsConfig, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		users:    users,
		students: students,
		classes:  classes,
		reports:  reports,
		cache:    cache,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger,
	}
}

// AdminStats returns the platform-wide snapshot for admins and
// directors. Cache failures degrade to a direct computation.
func (s *StatsService) AdminStats(ctx context.Context, caller models.Identity) (*models.AdminStats, error) {
	if !access.CanViewAdmin(caller.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}

	if s.cacheActive() {
		var cached models.AdminStats
		err := s.cache.Get(ctx, statsCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		}
	}

	stats, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if s.cacheActive() {
		if err := s.cache.Set(ctx, statsCacheKey, stats, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

// Invalidate drops the cached snapshot so the next read recomputes.
func (s *StatsService) Invalidate(ctx context.Context) {
	if !s.cacheActive() {
		return
	}
	if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

func (s *StatsService) cacheActive() bool {
	return s.cfg.CacheEnabled && s.cache != nil
}

func (s *StatsService) compute(ctx context.Context) (*models.AdminStats, error) {
	stats := &models.AdminStats{MoodCounts: map[models.Mood]int{}}

	var err error
	start := time.Now()
	if stats.TotalStudents, err = s.students.Count(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	if stats.TotalTeachers, err = s.users.CountByRole(ctx, models.RoleTeacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}
	if stats.TotalParents, err = s.users.CountByRole(ctx, models.RoleParent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count parents")
	}
	if stats.TotalClasses, err = s.classes.Count(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count classes")
	}
	if stats.TotalReports, err = s.reports.Count(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count reports")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("stats_totals", time.Since(start))
	}

	start = time.Now()
	since := time.Now().UTC().Add(-recentWindow).Format("2006-01-02")
	if stats.RecentReportsCount, err = s.reports.CountSince(ctx, since); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count recent reports")
	}
	moods, err := s.reports.MoodCountsSince(ctx, since)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate moods")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("stats_recent_reports", time.Since(start))
	}
	for _, mood := range models.Moods {
		stats.MoodCounts[mood] = moods[mood]
	}
	return stats, nil
}
