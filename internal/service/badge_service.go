package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/maminech/smartkid-api/internal/access"
	"github.com/maminech/smartkid-api/internal/models"
	"github.com/maminech/smartkid-api/internal/repository"
	appErrors "github.com/maminech/smartkid-api/pkg/errors"
)

type badgeRepository interface {
	ListBadges(ctx context.Context, category string) ([]models.Badge, error)
	FindBadge(ctx context.Context, id string) (*models.Badge, error)
	CreateBadge(ctx context.Context, badge *models.Badge) error
	ListAwardsByStudent(ctx context.Context, studentID string) ([]models.StudentBadgeDetail, error)
	AwardExists(ctx context.Context, studentID, badgeID string) (bool, error)
	CreateAward(ctx context.Context, award *models.StudentBadge) error
}

// CreateBadgeRequest holds payload for defining a badge template.
type CreateBadgeRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Icon        string `json:"icon" validate:"required"`
	Category    string `json:"category" validate:"required,oneof=academic behavioral attendance special"`
}

// AwardBadgeRequest holds payload for awarding a badge to a student.
type AwardBadgeRequest struct {
	StudentID   string `json:"student_id" validate:"required"`
	BadgeID     string `json:"badge_id" validate:"required"`
	DateAwarded string `json:"date_awarded" validate:"required,datetime=2006-01-02"`
}

// BadgeService handles badge templates and per-student awards.
type BadgeService struct {
	repo      badgeRepository
	resolver  entitlementResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBadgeService constructs the badge service.
func NewBadgeService(repo badgeRepository, resolver entitlementResolver, validate *validator.Validate, logger *zap.Logger) *BadgeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BadgeService{repo: repo, resolver: resolver, validator: validate, logger: logger}
}

// ListBadges returns badge templates, optionally filtered by category.
// Templates carry no student data, so every authenticated role may read them.
func (s *BadgeService) ListBadges(ctx context.Context, category string) ([]models.Badge, error) {
	badges, err := s.repo.ListBadges(ctx, category)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list badges")
	}
	if badges == nil {
		badges = []models.Badge{}
	}
	return badges, nil
}

// GetBadge returns one badge template.
func (s *BadgeService) GetBadge(ctx context.Context, id string) (*models.Badge, error) {
	badge, err := s.repo.FindBadge(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "badge not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load badge")
	}
	return badge, nil
}

// CreateBadge defines a new badge template.
func (s *BadgeService) CreateBadge(ctx context.Context, caller models.Identity, req CreateBadgeRequest) (*models.Badge, error) {
	if !access.CanCreateBadges(caller.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid badge payload")
	}

	badge := &models.Badge{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Category:    models.BadgeCategory(req.Category),
	}
	if err := s.repo.CreateBadge(ctx, badge); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create badge")
	}
	return badge, nil
}

// ListStudentBadges returns a student's awards with the badge templates
// embedded. Students outside the caller's entitlement read as absent.
func (s *BadgeService) ListStudentBadges(ctx context.Context, caller models.Identity, studentID string) ([]models.StudentBadgeDetail, error) {
	ents, err := s.resolver.Entitlements(ctx, caller)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve entitlements")
	}
	if !ents.Allows(studentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	awards, err := s.repo.ListAwardsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student badges")
	}
	if awards == nil {
		awards = []models.StudentBadgeDetail{}
	}
	return awards, nil
}

// Award grants a badge to a student. Each badge is awarded at most once
// per student; a repeat award is rejected with a conflict.
func (s *BadgeService) Award(ctx context.Context, caller models.Identity, req AwardBadgeRequest) (*models.StudentBadge, error) {
	if !access.CanAwardBadges(caller.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid award payload")
	}

	ents, err := s.resolver.Entitlements(ctx, caller)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve entitlements")
	}
	if !ents.Allows(req.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	if _, err := s.repo.FindBadge(ctx, req.BadgeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "badge not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load badge")
	}

	exists, err := s.repo.AwardExists(ctx, req.StudentID, req.BadgeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check award")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "badge already awarded to this student")
	}

	award := &models.StudentBadge{
		StudentID:   req.StudentID,
		BadgeID:     req.BadgeID,
		DateAwarded: req.DateAwarded,
		AwardedBy:   caller.UserID,
	}
	if err := s.repo.CreateAward(ctx, award); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "badge already awarded to this student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to award badge")
	}
	return award, nil
}
