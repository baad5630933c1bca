package service

import (
	"context"
	"database/sql"
	"net/http"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maminech/smartkid-api/internal/models"
)

type mockRoadmapRepo struct {
	templates map[string]models.RoadmapTemplate
	stages    map[string]models.RoadmapStage
	roadmaps  map[string]models.StudentRoadmap
	progress  map[string]models.StageProgress
}

func newMockRoadmapRepo() *mockRoadmapRepo {
	return &mockRoadmapRepo{
		templates: make(map[string]models.RoadmapTemplate),
		stages:    make(map[string]models.RoadmapStage),
		roadmaps:  make(map[string]models.StudentRoadmap),
		progress:  make(map[string]models.StageProgress),
	}
}

func (m *mockRoadmapRepo) CreateTemplate(ctx context.Context, template *models.RoadmapTemplate) error {
	if template.ID == "" {
		template.ID = "tpl-generated"
	}
	m.templates[template.ID] = *template
	return nil
}

func (m *mockRoadmapRepo) ListTemplates(ctx context.Context) ([]models.RoadmapTemplate, error) {
	var out []models.RoadmapTemplate
	for _, t := range m.templates {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockRoadmapRepo) FindTemplate(ctx context.Context, id string) (*models.RoadmapTemplate, error) {
	if t, ok := m.templates[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRoadmapRepo) CreateStage(ctx context.Context, stage *models.RoadmapStage) error {
	if stage.ID == "" {
		stage.ID = "stage-generated"
	}
	m.stages[stage.ID] = *stage
	return nil
}

func (m *mockRoadmapRepo) ListStagesByTemplate(ctx context.Context, templateID string) ([]models.RoadmapStage, error) {
	var out []models.RoadmapStage
	for _, s := range m.stages {
		if s.TemplateID == templateID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *mockRoadmapRepo) FindStage(ctx context.Context, id string) (*models.RoadmapStage, error) {
	if s, ok := m.stages[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRoadmapRepo) CreateStudentRoadmap(ctx context.Context, roadmap *models.StudentRoadmap) error {
	if roadmap.ID == "" {
		roadmap.ID = "rm-generated"
	}
	stages, _ := m.ListStagesByTemplate(ctx, roadmap.TemplateID)
	if len(stages) > 0 {
		first := stages[0].ID
		roadmap.CurrentStageID = &first
	}
	m.roadmaps[roadmap.ID] = *roadmap
	return nil
}

func (m *mockRoadmapRepo) FindRoadmapByStudent(ctx context.Context, studentID string) (*models.StudentRoadmap, error) {
	for _, r := range m.roadmaps {
		if r.StudentID == studentID {
			return &r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockRoadmapRepo) FindRoadmapByID(ctx context.Context, id string) (*models.StudentRoadmap, error) {
	if r, ok := m.roadmaps[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRoadmapRepo) ListProgressByRoadmap(ctx context.Context, roadmapID string) ([]models.StageProgress, error) {
	var out []models.StageProgress
	for _, p := range m.progress {
		if p.StudentRoadmapID == roadmapID {
			out = append(out, p)
		}
	}
	return out, nil
}

// UpsertProgress mirrors the repository's advance-on-completion rule.
func (m *mockRoadmapRepo) UpsertProgress(ctx context.Context, progress *models.StageProgress) (*models.StageProgress, error) {
	key := progress.StudentRoadmapID + "/" + progress.StageID
	if existing, ok := m.progress[key]; ok {
		progress.ID = existing.ID
	} else if progress.ID == "" {
		progress.ID = "prog-generated"
	}
	m.progress[key] = *progress

	if progress.Status == models.StageCompleted {
		roadmap := m.roadmaps[progress.StudentRoadmapID]
		completed := m.stages[progress.StageID]
		stages, _ := m.ListStagesByTemplate(ctx, roadmap.TemplateID)
		for _, s := range stages {
			if s.Order > completed.Order {
				next := s.ID
				roadmap.CurrentStageID = &next
				m.roadmaps[roadmap.ID] = roadmap
				break
			}
		}
	}
	saved := m.progress[key]
	return &saved, nil
}

func seedRoadmap(repo *mockRoadmapRepo) {
	repo.templates["tpl1"] = models.RoadmapTemplate{ID: "tpl1", Name: "Toddler Growth", AgeGroup: "2-3", IsActive: true}
	repo.stages["st1"] = models.RoadmapStage{ID: "st1", TemplateID: "tpl1", Title: "First Words", Order: 1, SkillCategory: models.SkillLanguage}
	repo.stages["st2"] = models.RoadmapStage{ID: "st2", TemplateID: "tpl1", Title: "Short Sentences", Order: 2, SkillCategory: models.SkillLanguage}
	cur := "st1"
	repo.roadmaps["rm1"] = models.StudentRoadmap{ID: "rm1", StudentID: "s1", TemplateID: "tpl1", CurrentStageID: &cur}
}

func TestRoadmapAssignStartsAtFirstStage(t *testing.T) {
	repo := newMockRoadmapRepo()
	repo.templates["tpl1"] = models.RoadmapTemplate{ID: "tpl1", IsActive: true}
	repo.stages["st1"] = models.RoadmapStage{ID: "st1", TemplateID: "tpl1", Order: 1, SkillCategory: models.SkillCognitive}
	repo.stages["st2"] = models.RoadmapStage{ID: "st2", TemplateID: "tpl1", Order: 2, SkillCategory: models.SkillCognitive}
	resolver := &stubResolver{byUser: map[string][]string{"t1": {"s1"}}}
	svc := NewRoadmapService(repo, resolver, nil, nil)

	roadmap, err := svc.Assign(context.Background(), teacherCaller("t1"), AssignRoadmapRequest{StudentID: "s1", TemplateID: "tpl1"})
	require.NoError(t, err)
	require.NotNil(t, roadmap.CurrentStageID)
	assert.Equal(t, "st1", *roadmap.CurrentStageID)
}

func TestRoadmapProgressCompletionAdvancesPointer(t *testing.T) {
	repo := newMockRoadmapRepo()
	seedRoadmap(repo)
	resolver := &stubResolver{byUser: map[string][]string{"t1": {"s1"}}}
	svc := NewRoadmapService(repo, resolver, nil, nil)

	progress, err := svc.UpdateProgress(context.Background(), teacherCaller("t1"), UpdateProgressRequest{
		StudentRoadmapID: "rm1",
		StageID:          "st1",
		Status:           "completed",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StageCompleted, progress.Status)
	assert.NotNil(t, progress.CompletedAt)

	roadmap := repo.roadmaps["rm1"]
	require.NotNil(t, roadmap.CurrentStageID)
	assert.Equal(t, "st2", *roadmap.CurrentStageID)
}

func TestRoadmapProgressLastStageKeepsPointer(t *testing.T) {
	repo := newMockRoadmapRepo()
	seedRoadmap(repo)
	resolver := &stubResolver{byUser: map[string][]string{"t1": {"s1"}}}
	svc := NewRoadmapService(repo, resolver, nil, nil)

	_, err := svc.UpdateProgress(context.Background(), teacherCaller("t1"), UpdateProgressRequest{
		StudentRoadmapID: "rm1",
		StageID:          "st2",
		Status:           "completed",
	})
	require.NoError(t, err)

	roadmap := repo.roadmaps["rm1"]
	require.NotNil(t, roadmap.CurrentStageID)
	assert.Equal(t, "st1", *roadmap.CurrentStageID)
}

func TestRoadmapProgressRejectsForeignStage(t *testing.T) {
	repo := newMockRoadmapRepo()
	seedRoadmap(repo)
	repo.templates["tpl2"] = models.RoadmapTemplate{ID: "tpl2", IsActive: true}
	repo.stages["other"] = models.RoadmapStage{ID: "other", TemplateID: "tpl2", Order: 1, SkillCategory: models.SkillPhysical}
	resolver := &stubResolver{byUser: map[string][]string{"t1": {"s1"}}}
	svc := NewRoadmapService(repo, resolver, nil, nil)

	_, err := svc.UpdateProgress(context.Background(), teacherCaller("t1"), UpdateProgressRequest{
		StudentRoadmapID: "rm1",
		StageID:          "other",
		Status:           "in_progress",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestRoadmapProgressMaskedOutsideEntitlement(t *testing.T) {
	repo := newMockRoadmapRepo()
	seedRoadmap(repo)
	resolver := &stubResolver{byUser: map[string][]string{"t1": {"s-other"}}}
	svc := NewRoadmapService(repo, resolver, nil, nil)

	_, err := svc.UpdateProgress(context.Background(), teacherCaller("t1"), UpdateProgressRequest{
		StudentRoadmapID: "rm1",
		StageID:          "st1",
		Status:           "in_progress",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestGetStudentRoadmapBundlesDetail(t *testing.T) {
	repo := newMockRoadmapRepo()
	seedRoadmap(repo)
	repo.progress["rm1/st1"] = models.StageProgress{ID: "pr1", StudentRoadmapID: "rm1", StageID: "st1", Status: models.StageInProgress}
	resolver := &stubResolver{byUser: map[string][]string{"p1": {"s1"}}}
	svc := NewRoadmapService(repo, resolver, nil, nil)

	detail, err := svc.GetStudentRoadmap(context.Background(), parentCaller("p1"), "s1")
	require.NoError(t, err)
	assert.Equal(t, "tpl1", detail.Template.ID)
	assert.Len(t, detail.Stages, 2)
	require.Len(t, detail.Progress, 1)
	assert.Equal(t, models.StageInProgress, detail.Progress[0].Status)

	_, err = svc.GetStudentRoadmap(context.Background(), parentCaller("p-other"), "s1")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}
