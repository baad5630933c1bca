package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maminech/smartkid-api/internal/models"
)

type mockClassRepo struct {
	classes     []models.Class
	activities  []models.Activity
	lastTeacher string
	lastClassID string
}

func (m *mockClassRepo) ListAll(ctx context.Context) ([]models.Class, error) {
	return m.classes, nil
}

func (m *mockClassRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.Class, error) {
	m.lastTeacher = teacherID
	var out []models.Class
	for _, c := range m.classes {
		if c.TeacherID == teacherID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = "generated"
	}
	m.classes = append(m.classes, *class)
	return nil
}

func (m *mockClassRepo) ListActivities(ctx context.Context, classID string) ([]models.Activity, error) {
	m.lastClassID = classID
	return m.activities, nil
}

func (m *mockClassRepo) CreateActivity(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = "generated"
	}
	m.activities = append(m.activities, *activity)
	return nil
}

func TestClassListScopesByRole(t *testing.T) {
	repo := &mockClassRepo{classes: []models.Class{
		{ID: "c1", Name: "Les Papillons", TeacherID: "t1"},
		{ID: "c2", Name: "Les Abeilles", TeacherID: "t2"},
	}}
	svc := NewClassService(repo, nil, nil)

	classes, err := svc.List(context.Background(), teacherCaller("t1"))
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "c1", classes[0].ID)

	classes, err = svc.List(context.Background(), directorCaller("d1"))
	require.NoError(t, err)
	assert.Len(t, classes, 2)

	classes, err = svc.List(context.Background(), parentCaller("p1"))
	require.NoError(t, err)
	assert.Empty(t, classes)
}

func TestClassCreateDirectorOnly(t *testing.T) {
	repo := &mockClassRepo{}
	svc := NewClassService(repo, nil, nil)

	_, err := svc.Create(context.Background(), teacherCaller("t1"), CreateClassRequest{Name: "Les Papillons", TeacherID: "t1"})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	class, err := svc.Create(context.Background(), directorCaller("d1"), CreateClassRequest{Name: "Les Papillons", TeacherID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "t1", class.TeacherID)
}

func TestActivityCreateTeacherOrDirector(t *testing.T) {
	repo := &mockClassRepo{}
	svc := NewClassService(repo, nil, nil)

	_, err := svc.CreateActivity(context.Background(), parentCaller("p1"), CreateActivityRequest{Name: "Peinture"})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	classID := "c1"
	activity, err := svc.CreateActivity(context.Background(), teacherCaller("t1"), CreateActivityRequest{Name: "Peinture", ClassID: &classID})
	require.NoError(t, err)
	require.NotNil(t, activity.ClassID)
	assert.Equal(t, "c1", *activity.ClassID)
}
