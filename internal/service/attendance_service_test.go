package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maminech/smartkid-api/internal/models"
)

type mockAttendanceRepo struct {
	records     map[string]models.Attendance
	lastIDs     []string
	lastIDsSeen bool
}

func (m *mockAttendanceRepo) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	if rec, ok := m.records[id]; ok {
		return &rec, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) FindByStudentAndDate(ctx context.Context, studentID, date string) (*models.Attendance, error) {
	for _, rec := range m.records {
		if rec.StudentID == studentID && rec.Date == date {
			return &rec, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) ListByDate(ctx context.Context, date, classID string, studentIDs []string) ([]models.Attendance, error) {
	m.lastIDs = studentIDs
	m.lastIDsSeen = true
	if studentIDs != nil && len(studentIDs) == 0 {
		return nil, nil
	}
	var out []models.Attendance
	for _, rec := range m.records {
		if rec.Date != date {
			continue
		}
		if studentIDs != nil {
			found := false
			for _, id := range studentIDs {
				if rec.StudentID == id {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *mockAttendanceRepo) Create(ctx context.Context, record *models.Attendance) error {
	if m.records == nil {
		m.records = make(map[string]models.Attendance)
	}
	if record.ID == "" {
		record.ID = "generated"
	}
	m.records[record.ID] = *record
	return nil
}

func (m *mockAttendanceRepo) Update(ctx context.Context, record *models.Attendance) error {
	m.records[record.ID] = *record
	return nil
}

func TestAttendanceCreateParentForbidden(t *testing.T) {
	svc := NewAttendanceService(&mockAttendanceRepo{}, &stubResolver{}, nil, nil)

	_, err := svc.Create(context.Background(), parentCaller("p1"), CreateAttendanceRequest{
		StudentID: "s1", Date: "2026-03-02", Status: "present",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
}

func TestAttendanceCreateRecordsCaller(t *testing.T) {
	repo := &mockAttendanceRepo{}
	resolver := &stubResolver{byUser: map[string][]string{"t1": {"s1"}}}
	svc := NewAttendanceService(repo, resolver, nil, nil)

	record, err := svc.Create(context.Background(), teacherCaller("t1"), CreateAttendanceRequest{
		StudentID: "s1", Date: "2026-03-02", Status: "present",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AttendancePresent, record.Status)
	assert.Equal(t, "t1", record.RecordedBy)
}

func TestAttendanceCreateSecondSameDayConflicts(t *testing.T) {
	repo := &mockAttendanceRepo{}
	resolver := &stubResolver{byUser: map[string][]string{"t1": {"s1"}}}
	svc := NewAttendanceService(repo, resolver, nil, nil)

	req := CreateAttendanceRequest{StudentID: "s1", Date: "2026-03-02", Status: "present"}
	_, err := svc.Create(context.Background(), teacherCaller("t1"), req)
	require.NoError(t, err)

	req.Status = "late"
	_, err = svc.Create(context.Background(), teacherCaller("t1"), req)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
}

func TestAttendanceCreateUnentitledStudentMasked(t *testing.T) {
	resolver := &stubResolver{byUser: map[string][]string{"t1": {"s1"}}}
	svc := NewAttendanceService(&mockAttendanceRepo{}, resolver, nil, nil)

	_, err := svc.Create(context.Background(), teacherCaller("t1"), CreateAttendanceRequest{
		StudentID: "s-other", Date: "2026-03-02", Status: "present",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestAttendanceListRequiresDate(t *testing.T) {
	svc := NewAttendanceService(&mockAttendanceRepo{}, &stubResolver{}, nil, nil)

	_, err := svc.ListByDate(context.Background(), directorCaller("d1"), "", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestAttendanceListNarrowsForTeacher(t *testing.T) {
	repo := &mockAttendanceRepo{records: map[string]models.Attendance{
		"a1": {ID: "a1", StudentID: "s1", Date: "2026-03-02", Status: models.AttendancePresent},
		"a2": {ID: "a2", StudentID: "s2", Date: "2026-03-02", Status: models.AttendanceLate},
	}}
	resolver := &stubResolver{byUser: map[string][]string{"t1": {"s1"}}}
	svc := NewAttendanceService(repo, resolver, nil, nil)

	records, err := svc.ListByDate(context.Background(), teacherCaller("t1"), "2026-03-02", "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "s1", records[0].StudentID)
	assert.Equal(t, []string{"s1"}, repo.lastIDs)
}

func TestAttendanceListDirectorUnrestricted(t *testing.T) {
	repo := &mockAttendanceRepo{records: map[string]models.Attendance{
		"a1": {ID: "a1", StudentID: "s1", Date: "2026-03-02"},
		"a2": {ID: "a2", StudentID: "s2", Date: "2026-03-02"},
	}}
	svc := NewAttendanceService(repo, &stubResolver{}, nil, nil)

	records, err := svc.ListByDate(context.Background(), directorCaller("d1"), "2026-03-02", "")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	require.True(t, repo.lastIDsSeen)
	assert.Nil(t, repo.lastIDs)
}

func TestAttendanceUpdateCorrectsStatus(t *testing.T) {
	repo := &mockAttendanceRepo{records: map[string]models.Attendance{
		"a1": {ID: "a1", StudentID: "s1", Date: "2026-03-02", Status: models.AttendanceAbsent},
	}}
	resolver := &stubResolver{byUser: map[string][]string{"t1": {"s1"}}}
	svc := NewAttendanceService(repo, resolver, nil, nil)

	updated, err := svc.Update(context.Background(), teacherCaller("t1"), "a1", UpdateAttendanceRequest{Status: "late"})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceLate, updated.Status)
}
