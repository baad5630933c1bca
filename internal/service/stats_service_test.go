package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maminech/smartkid-api/internal/models"
	appErrors "github.com/maminech/smartkid-api/pkg/errors"
)

type stubCounts struct {
	students int
	classes  int
	reports  int
	recent   int
	byRole   map[models.UserRole]int
	moods    map[models.Mood]int
}

func (s *stubCounts) CountByRole(ctx context.Context, role models.UserRole) (int, error) {
	return s.byRole[role], nil
}

func (s *stubCounts) Count(ctx context.Context) (int, error) { return s.students, nil }

type stubClassCounts struct{ n int }

func (s *stubClassCounts) Count(ctx context.Context) (int, error) { return s.n, nil }

type stubReportCounts struct {
	total     int
	recent    int
	moods     map[models.Mood]int
	lastSince string
}

func (s *stubReportCounts) Count(ctx context.Context) (int, error) { return s.total, nil }

func (s *stubReportCounts) CountSince(ctx context.Context, date string) (int, error) {
	s.lastSince = date
	return s.recent, nil
}

func (s *stubReportCounts) MoodCountsSince(ctx context.Context, date string) (map[models.Mood]int, error) {
	return s.moods, nil
}

type memoryCache struct {
	entries map[string][]byte
	sets    int
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.entries == nil {
		c.entries = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	c.sets++
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func newStatsFixture(cache statsCache, enabled bool) (*StatsService, *stubReportCounts) {
	users := &stubCounts{students: 12, byRole: map[models.UserRole]int{models.RoleTeacher: 3, models.RoleParent: 9}}
	reports := &stubReportCounts{total: 40, recent: 7, moods: map[models.Mood]int{models.MoodHappy: 5, models.MoodSad: 2}}
	svc := NewStatsService(users, users, &stubClassCounts{n: 4}, reports, cache, nil, StatsConfig{CacheEnabled: enabled, CacheTTL: time.Minute}, nil)
	return svc, reports
}

func TestAdminStatsRoleGate(t *testing.T) {
	svc, _ := newStatsFixture(nil, false)

	_, err := svc.AdminStats(context.Background(), teacherCaller("t1"))
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	_, err = svc.AdminStats(context.Background(), parentCaller("p1"))
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
}

func TestAdminStatsAggregates(t *testing.T) {
	svc, reports := newStatsFixture(nil, false)

	stats, err := svc.AdminStats(context.Background(), directorCaller("d1"))
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalStudents)
	assert.Equal(t, 3, stats.TotalTeachers)
	assert.Equal(t, 9, stats.TotalParents)
	assert.Equal(t, 4, stats.TotalClasses)
	assert.Equal(t, 40, stats.TotalReports)
	assert.Equal(t, 7, stats.RecentReportsCount)
	assert.Equal(t, 5, stats.MoodCounts[models.MoodHappy])
	assert.Equal(t, 2, stats.MoodCounts[models.MoodSad])
	// Moods with no reports still appear with a zero count.
	assert.Contains(t, stats.MoodCounts, models.MoodAmazing)
	assert.Equal(t, 0, stats.MoodCounts[models.MoodAmazing])

	// The recent window is seven days wide.
	want := time.Now().UTC().Add(-7 * 24 * time.Hour).Format("2006-01-02")
	assert.Equal(t, want, reports.lastSince)
}

func TestAdminStatsServedFromCache(t *testing.T) {
	cache := &memoryCache{}
	svc, reports := newStatsFixture(cache, true)

	_, err := svc.AdminStats(context.Background(), directorCaller("d1"))
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// A change in the underlying data is not visible until the TTL or an
	// explicit invalidation.
	reports.total = 99
	stats, err := svc.AdminStats(context.Background(), directorCaller("d1"))
	require.NoError(t, err)
	assert.Equal(t, 40, stats.TotalReports)
	assert.Equal(t, 1, cache.sets)

	svc.Invalidate(context.Background())
	stats, err = svc.AdminStats(context.Background(), directorCaller("d1"))
	require.NoError(t, err)
	assert.Equal(t, 99, stats.TotalReports)
}

func TestAdminStatsRecordsQueryDurations(t *testing.T) {
	users := &stubCounts{students: 12, byRole: map[models.UserRole]int{models.RoleTeacher: 3}}
	reports := &stubReportCounts{total: 40, recent: 7, moods: map[models.Mood]int{}}
	metrics := NewMetricsService()
	svc := NewStatsService(users, users, &stubClassCounts{n: 4}, reports, nil, metrics, StatsConfig{}, nil)

	_, err := svc.AdminStats(context.Background(), directorCaller("d1"))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `db_query_duration_seconds_count{query="stats_totals"} 1`)
	assert.Contains(t, body, `db_query_duration_seconds_count{query="stats_recent_reports"} 1`)
}
