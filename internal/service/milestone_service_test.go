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

type mockMilestoneRepo struct {
	milestones map[string]models.Milestone
	lastFilter models.MilestoneFilter
}

func (m *mockMilestoneRepo) FindByID(ctx context.Context, id string) (*models.Milestone, error) {
	if ms, ok := m.milestones[id]; ok {
		return &ms, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMilestoneRepo) List(ctx context.Context, filter models.MilestoneFilter) ([]models.Milestone, error) {
	m.lastFilter = filter
	var out []models.Milestone
	for _, ms := range m.milestones {
		if filter.StudentIDs != nil {
			found := false
			for _, id := range filter.StudentIDs {
				if ms.StudentID == id {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, ms)
	}
	return out, nil
}

func (m *mockMilestoneRepo) Create(ctx context.Context, milestone *models.Milestone) error {
	if m.milestones == nil {
		m.milestones = make(map[string]models.Milestone)
	}
	if milestone.ID == "" {
		milestone.ID = "generated"
	}
	m.milestones[milestone.ID] = *milestone
	return nil
}

func (m *mockMilestoneRepo) Update(ctx context.Context, milestone *models.Milestone) error {
	m.milestones[milestone.ID] = *milestone
	return nil
}

func TestMilestoneCreateRecordsCaller(t *testing.T) {
	repo := &mockMilestoneRepo{}
	resolver := &stubResolver{byUser: map[string][]string{"t1": {"s1"}}}
	svc := NewMilestoneService(repo, resolver, nil, nil)

	milestone, err := svc.Create(context.Background(), teacherCaller("t1"), CreateMilestoneRequest{
		StudentID: "s1",
		Title:     "Counts to ten",
		Date:      "2026-03-02",
		Category:  "academic",
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", milestone.TeacherID)
	assert.Equal(t, models.MilestoneAcademic, milestone.Category)
}

func TestMilestoneCreateParentForbidden(t *testing.T) {
	svc := NewMilestoneService(&mockMilestoneRepo{}, &stubResolver{}, nil, nil)

	_, err := svc.Create(context.Background(), parentCaller("p1"), CreateMilestoneRequest{
		StudentID: "s1", Title: "x", Date: "2026-03-02", Category: "social",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
}

func TestMilestoneUpdateCreatorOnlyForTeachers(t *testing.T) {
	repo := &mockMilestoneRepo{milestones: map[string]models.Milestone{
		"m1": {ID: "m1", StudentID: "s1", Title: "Old", Date: "2026-03-02", Category: models.MilestoneSocial, TeacherID: "t1"},
	}}
	resolver := &stubResolver{byUser: map[string][]string{"t1": {"s1"}, "t2": {"s1"}}}
	svc := NewMilestoneService(repo, resolver, nil, nil)

	req := UpdateMilestoneRequest{Title: "New", Date: "2026-03-02", Category: "social", Completed: true}

	_, err := svc.Update(context.Background(), teacherCaller("t2"), "m1", req)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	updated, err := svc.Update(context.Background(), teacherCaller("t1"), "m1", req)
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.True(t, updated.Completed)

	// Directors may edit any visible milestone.
	updated, err = svc.Update(context.Background(), directorCaller("d1"), "m1", UpdateMilestoneRequest{
		Title: "Director edit", Date: "2026-03-03", Category: "social",
	})
	require.NoError(t, err)
	assert.Equal(t, "Director edit", updated.Title)
}

func TestMilestoneGetMasksUnentitled(t *testing.T) {
	repo := &mockMilestoneRepo{milestones: map[string]models.Milestone{
		"m1": {ID: "m1", StudentID: "s2", Title: "Ties shoelaces"},
	}}
	resolver := &stubResolver{byUser: map[string][]string{"p1": {"s1"}}}
	svc := NewMilestoneService(repo, resolver, nil, nil)

	_, err := svc.Get(context.Background(), parentCaller("p1"), "m1")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	milestone, err := svc.Get(context.Background(), directorCaller("d1"), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Ties shoelaces", milestone.Title)
}

func TestMilestoneListNarrowsForParent(t *testing.T) {
	repo := &mockMilestoneRepo{milestones: map[string]models.Milestone{
		"m1": {ID: "m1", StudentID: "s1"},
		"m2": {ID: "m2", StudentID: "s2"},
	}}
	resolver := &stubResolver{byUser: map[string][]string{"p1": {"s1"}}}
	svc := NewMilestoneService(repo, resolver, nil, nil)

	milestones, err := svc.List(context.Background(), parentCaller("p1"), "")
	require.NoError(t, err)
	require.Len(t, milestones, 1)
	assert.Equal(t, "s1", milestones[0].StudentID)
}
