package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/maminech/smartkid-api/internal/access"
	"github.com/maminech/smartkid-api/internal/models"
	appErrors "github.com/maminech/smartkid-api/pkg/errors"
)

type roadmapRepository interface {
	CreateTemplate(ctx context.Context, template *models.RoadmapTemplate) error
	ListTemplates(ctx context.Context) ([]models.RoadmapTemplate, error)
	FindTemplate(ctx context.Context, id string) (*models.RoadmapTemplate, error)
	CreateStage(ctx context.Context, stage *models.RoadmapStage) error
	ListStagesByTemplate(ctx context.Context, templateID string) ([]models.RoadmapStage, error)
	FindStage(ctx context.Context, id string) (*models.RoadmapStage, error)
	CreateStudentRoadmap(ctx context.Context, roadmap *models.StudentRoadmap) error
	FindRoadmapByStudent(ctx context.Context, studentID string) (*models.StudentRoadmap, error)
	FindRoadmapByID(ctx context.Context, id string) (*models.StudentRoadmap, error)
	ListProgressByRoadmap(ctx context.Context, roadmapID string) ([]models.StageProgress, error)
	UpsertProgress(ctx context.Context, progress *models.StageProgress) (*models.StageProgress, error)
}

// CreateTemplateRequest holds payload for defining a roadmap template.
type CreateTemplateRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	AgeGroup    string  `json:"age_group" validate:"required"`
}

// CreateStageRequest holds payload for appending a stage to a template.
type CreateStageRequest struct {
	TemplateID       string  `json:"template_id" validate:"required"`
	Title            string  `json:"title" validate:"required"`
	Description      *string `json:"description"`
	Order            int     `json:"order" validate:"gte=1"`
	ExpectedDuration *int    `json:"expected_duration"`
	SkillCategory    string  `json:"skill_category" validate:"required,oneof=cognitive physical social emotional language creativity"`
}

// AssignRoadmapRequest holds payload for starting a student on a template.
type AssignRoadmapRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	TemplateID string `json:"template_id" validate:"required"`
}

// UpdateProgressRequest holds payload for recording stage progress.
type UpdateProgressRequest struct {
	StudentRoadmapID string   `json:"student_roadmap_id" validate:"required"`
	StageID          string   `json:"stage_id" validate:"required"`
	Status           string   `json:"status" validate:"required,oneof=not_started in_progress completed needs_review"`
	TeacherFeedback  *string  `json:"teacher_feedback"`
	Evidence         []string `json:"evidence"`
}

// StudentRoadmapDetail bundles a student's roadmap with its template,
// stages and recorded progress.
type StudentRoadmapDetail struct {
	Roadmap  models.StudentRoadmap  `json:"roadmap"`
	Template models.RoadmapTemplate `json:"template"`
	Stages   []models.RoadmapStage  `json:"stages"`
	Progress []models.StageProgress `json:"progress"`
}

// RoadmapService handles roadmap templates, student assignments and
// stage progress. Completing a stage advances the student's current
// stage pointer inside one transaction.
type RoadmapService struct {
	repo      roadmapRepository
	resolver  entitlementResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoadmapService constructs the roadmap service.
func NewRoadmapService(repo roadmapRepository, resolver entitlementResolver, validate *validator.Validate, logger *zap.Logger) *RoadmapService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoadmapService{repo: repo, resolver: resolver, validator: validate, logger: logger}
}

// ListTemplates returns active roadmap templates.
func (s *RoadmapService) ListTemplates(ctx context.Context) ([]models.RoadmapTemplate, error) {
	templates, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list templates")
	}
	if templates == nil {
		templates = []models.RoadmapTemplate{}
	}
	return templates, nil
}

// CreateTemplate defines a new roadmap template owned by the caller.
func (s *RoadmapService) CreateTemplate(ctx context.Context, caller models.Identity, req CreateTemplateRequest) (*models.RoadmapTemplate, error) {
	if !access.CanManageRoadmaps(caller.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}

	template := &models.RoadmapTemplate{
		Name:        req.Name,
		Description: req.Description,
		AgeGroup:    req.AgeGroup,
		CreatedByID: caller.UserID,
		IsActive:    true,
	}
	if err := s.repo.CreateTemplate(ctx, template); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create template")
	}
	return template, nil
}

// ListStages returns a template's stages in order.
func (s *RoadmapService) ListStages(ctx context.Context, templateID string) ([]models.RoadmapStage, error) {
	if _, err := s.repo.FindTemplate(ctx, templateID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	stages, err := s.repo.ListStagesByTemplate(ctx, templateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list stages")
	}
	if stages == nil {
		stages = []models.RoadmapStage{}
	}
	return stages, nil
}

// CreateStage appends a stage to an existing template.
func (s *RoadmapService) CreateStage(ctx context.Context, caller models.Identity, req CreateStageRequest) (*models.RoadmapStage, error) {
	if !access.CanManageRoadmaps(caller.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid stage payload")
	}
	if _, err := s.repo.FindTemplate(ctx, req.TemplateID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}

	stage := &models.RoadmapStage{
		TemplateID:       req.TemplateID,
		Title:            req.Title,
		Description:      req.Description,
		Order:            req.Order,
		ExpectedDuration: req.ExpectedDuration,
		SkillCategory:    models.SkillCategory(req.SkillCategory),
	}
	if err := s.repo.CreateStage(ctx, stage); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create stage")
	}
	return stage, nil
}

// Assign starts a student on a template. The roadmap begins at the
// template's first stage by order.
func (s *RoadmapService) Assign(ctx context.Context, caller models.Identity, req AssignRoadmapRequest) (*models.StudentRoadmap, error) {
	if !access.CanManageRoadmaps(caller.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	ents, err := s.resolver.Entitlements(ctx, caller)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve entitlements")
	}
	if !ents.Allows(req.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if _, err := s.repo.FindTemplate(ctx, req.TemplateID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}

	roadmap := &models.StudentRoadmap{
		StudentID:  req.StudentID,
		TemplateID: req.TemplateID,
		StartDate:  time.Now().UTC(),
	}
	if err := s.repo.CreateStudentRoadmap(ctx, roadmap); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign roadmap")
	}
	return roadmap, nil
}

// GetStudentRoadmap returns a student's roadmap with template, stages
// and progress. Students outside the entitlement read as absent.
func (s *RoadmapService) GetStudentRoadmap(ctx context.Context, caller models.Identity, studentID string) (*StudentRoadmapDetail, error) {
	ents, err := s.resolver.Entitlements(ctx, caller)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve entitlements")
	}
	if !ents.Allows(studentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	roadmap, err := s.repo.FindRoadmapByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "roadmap not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roadmap")
	}

	template, err := s.repo.FindTemplate(ctx, roadmap.TemplateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	stages, err := s.repo.ListStagesByTemplate(ctx, roadmap.TemplateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list stages")
	}
	progress, err := s.repo.ListProgressByRoadmap(ctx, roadmap.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list progress")
	}
	if stages == nil {
		stages = []models.RoadmapStage{}
	}
	if progress == nil {
		progress = []models.StageProgress{}
	}

	return &StudentRoadmapDetail{
		Roadmap:  *roadmap,
		Template: *template,
		Stages:   stages,
		Progress: progress,
	}, nil
}

// ListProgress returns recorded progress for one student roadmap.
func (s *RoadmapService) ListProgress(ctx context.Context, caller models.Identity, roadmapID string) ([]models.StageProgress, error) {
	roadmap, err := s.repo.FindRoadmapByID(ctx, roadmapID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "roadmap not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roadmap")
	}

	ents, err := s.resolver.Entitlements(ctx, caller)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve entitlements")
	}
	if !ents.Allows(roadmap.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "roadmap not found")
	}

	progress, err := s.repo.ListProgressByRoadmap(ctx, roadmapID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list progress")
	}
	if progress == nil {
		progress = []models.StageProgress{}
	}
	return progress, nil
}

// UpdateProgress upserts one stage's progress. Marking a stage completed
// advances the roadmap's current stage pointer to the next stage in
// order; on the last stage the pointer stays put.
func (s *RoadmapService) UpdateProgress(ctx context.Context, caller models.Identity, req UpdateProgressRequest) (*models.StageProgress, error) {
	if !access.CanManageRoadmaps(caller.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress payload")
	}

	roadmap, err := s.repo.FindRoadmapByID(ctx, req.StudentRoadmapID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "roadmap not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roadmap")
	}

	ents, err := s.resolver.Entitlements(ctx, caller)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve entitlements")
	}
	if !ents.Allows(roadmap.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "roadmap not found")
	}

	stage, err := s.repo.FindStage(ctx, req.StageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "stage not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stage")
	}
	if stage.TemplateID != roadmap.TemplateID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "stage does not belong to the roadmap's template")
	}

	now := time.Now().UTC()
	progress := &models.StageProgress{
		StudentRoadmapID: req.StudentRoadmapID,
		StageID:          req.StageID,
		Status:           models.StageStatus(req.Status),
		TeacherFeedback:  req.TeacherFeedback,
		Evidence:         models.StringList(req.Evidence),
	}
	switch progress.Status {
	case models.StageInProgress:
		progress.StartedAt = &now
	case models.StageCompleted:
		progress.CompletedAt = &now
	}

	saved, err := s.repo.UpsertProgress(ctx, progress)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record progress")
	}
	return saved, nil
}
