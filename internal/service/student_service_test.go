package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maminech/smartkid-api/internal/models"
	appErrors "github.com/maminech/smartkid-api/pkg/errors"
)

type mockStudentRepo struct {
	students   map[string]models.Student
	lastByIDs  []string
	lastFilter models.StudentFilter
	deleted    []string
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	m.lastFilter = filter
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockStudentRepo) ListByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	m.lastByIDs = ids
	var out []models.Student
	for _, id := range ids {
		if s, ok := m.students[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	if student.ID == "" {
		student.ID = "generated"
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.students[id]; !ok {
		return sql.ErrNoRows
	}
	m.deleted = append(m.deleted, id)
	delete(m.students, id)
	return nil
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	return appErr.Status
}

func TestStudentListNarrowsToEntitlement(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"s1": {ID: "s1", FirstName: "Mila"},
		"s2": {ID: "s2", FirstName: "Youssef"},
	}}
	resolver := &stubResolver{byUser: map[string][]string{"p1": {"s1"}}}
	svc := NewStudentService(repo, resolver, nil, nil)

	students, err := svc.List(context.Background(), parentCaller("p1"), models.StudentFilter{})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "s1", students[0].ID)
	assert.Equal(t, []string{"s1"}, repo.lastByIDs)
}

func TestStudentListDirectorSeesAll(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"s1": {ID: "s1"},
		"s2": {ID: "s2"},
	}}
	svc := NewStudentService(repo, &stubResolver{}, nil, nil)

	students, err := svc.List(context.Background(), directorCaller("d1"), models.StudentFilter{})
	require.NoError(t, err)
	assert.Len(t, students, 2)
}

func TestStudentListChildlessParentGetsEmpty(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"s1": {ID: "s1"}}}
	svc := NewStudentService(repo, &stubResolver{}, nil, nil)

	students, err := svc.List(context.Background(), parentCaller("p-empty"), models.StudentFilter{})
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
}

func TestStudentGetMasksUnentitled(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"s2": {ID: "s2"}}}
	resolver := &stubResolver{byUser: map[string][]string{"p1": {"s1"}}}
	svc := NewStudentService(repo, resolver, nil, nil)

	_, err := svc.Get(context.Background(), parentCaller("p1"), "s2")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestStudentCreateRequiresStaffRole(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &stubResolver{}, nil, nil)

	req := CreateStudentRequest{FirstName: "Mila", LastName: "Ben Salah", DateOfBirth: "2021-04-02"}

	_, err := svc.Create(context.Background(), parentCaller("p1"), req)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	student, err := svc.Create(context.Background(), teacherCaller("t1"), req)
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
}

func TestStudentCreateValidatesDate(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, &stubResolver{}, nil, nil)

	_, err := svc.Create(context.Background(), teacherCaller("t1"), CreateStudentRequest{
		FirstName:   "Mila",
		LastName:    "Ben Salah",
		DateOfBirth: "02/04/2021",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestStudentDeleteDirectorOnly(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"s1": {ID: "s1"}}}
	svc := NewStudentService(repo, &stubResolver{byUser: map[string][]string{"t1": {"s1"}}}, nil, nil)

	err := svc.Delete(context.Background(), teacherCaller("t1"), "s1")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	require.NoError(t, svc.Delete(context.Background(), directorCaller("d1"), "s1"))
	assert.Equal(t, []string{"s1"}, repo.deleted)
}
