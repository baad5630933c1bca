package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/maminech/smartkid-api/internal/access"
	"github.com/maminech/smartkid-api/internal/models"
	appErrors "github.com/maminech/smartkid-api/pkg/errors"
)

type milestoneRepository interface {
	FindByID(ctx context.Context, id string) (*models.Milestone, error)
	List(ctx context.Context, filter models.MilestoneFilter) ([]models.Milestone, error)
	Create(ctx context.Context, milestone *models.Milestone) error
	Update(ctx context.Context, milestone *models.Milestone) error
}

// CreateMilestoneRequest holds payload for recording a milestone.
type CreateMilestoneRequest struct {
	StudentID   string  `json:"student_id" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	Category    string  `json:"category" validate:"required,oneof=academic behavioral physical social creative"`
	Completed   bool    `json:"completed"`
}

// UpdateMilestoneRequest holds payload for updating a milestone.
type UpdateMilestoneRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	Category    string  `json:"category" validate:"required,oneof=academic behavioral physical social creative"`
	Completed   bool    `json:"completed"`
}

// MilestoneService handles developmental milestone use cases.
type MilestoneService struct {
	repo      milestoneRepository
	resolver  entitlementResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMilestoneService constructs the milestone service.
func NewMilestoneService(repo milestoneRepository, resolver entitlementResolver, validate *validator.Validate, logger *zap.Logger) *MilestoneService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MilestoneService{repo: repo, resolver: resolver, validator: validate, logger: logger}
}

// List returns milestones narrowed to the caller's entitled students.
func (s *MilestoneService) List(ctx context.Context, caller models.Identity, studentID string) ([]models.Milestone, error) {
	ents, err := s.resolver.Entitlements(ctx, caller)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve entitlements")
	}

	filter := models.MilestoneFilter{}
	if studentID != "" {
		if !ents.Allows(studentID) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		filter.StudentIDs = []string{studentID}
	} else if !ents.All {
		ids := ents.IDs()
		if ids == nil {
			ids = []string{}
		}
		filter.StudentIDs = ids
	}

	milestones, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list milestones")
	}
	if milestones == nil {
		milestones = []models.Milestone{}
	}
	return milestones, nil
}

// Get returns one milestone. Unentitled callers get a not-found error
// whether or not the record exists.
func (s *MilestoneService) Get(ctx context.Context, caller models.Identity, id string) (*models.Milestone, error) {
	milestone, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "milestone not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load milestone")
	}

	ents, err := s.resolver.Entitlements(ctx, caller)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve entitlements")
	}
	if !ents.Allows(milestone.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "milestone not found")
	}
	return milestone, nil
}

// Create records a milestone for an entitled student. The recording
// teacher is the caller.
func (s *MilestoneService) Create(ctx context.Context, caller models.Identity, req CreateMilestoneRequest) (*models.Milestone, error) {
	if !access.CanCreateMilestones(caller.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid milestone payload")
	}

	ents, err := s.resolver.Entitlements(ctx, caller)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve entitlements")
	}
	if !ents.Allows(req.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	milestone := &models.Milestone{
		StudentID:   req.StudentID,
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Category:    models.MilestoneCategory(req.Category),
		Completed:   req.Completed,
		TeacherID:   caller.UserID,
	}
	if err := s.repo.Create(ctx, milestone); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create milestone")
	}
	return milestone, nil
}

// Update mutates a milestone. Teachers may only edit milestones they
// recorded; directors and admins may edit any visible milestone.
func (s *MilestoneService) Update(ctx context.Context, caller models.Identity, id string, req UpdateMilestoneRequest) (*models.Milestone, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid milestone payload")
	}

	milestone, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "milestone not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load milestone")
	}

	ents, err := s.resolver.Entitlements(ctx, caller)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve entitlements")
	}
	if !ents.Allows(milestone.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "milestone not found")
	}
	if !access.CanEditMilestone(caller, milestone) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the recording teacher may update a milestone")
	}

	milestone.Title = req.Title
	milestone.Description = req.Description
	milestone.Date = req.Date
	milestone.Category = models.MilestoneCategory(req.Category)
	milestone.Completed = req.Completed

	if err := s.repo.Update(ctx, milestone); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update milestone")
	}
	return milestone, nil
}
