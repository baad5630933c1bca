package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/maminech/smartkid-api/internal/access"
	"github.com/maminech/smartkid-api/internal/models"
	appErrors "github.com/maminech/smartkid-api/pkg/errors"
)

type classRepository interface {
	ListAll(ctx context.Context) ([]models.Class, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	ListActivities(ctx context.Context, classID string) ([]models.Activity, error)
	CreateActivity(ctx context.Context, activity *models.Activity) error
}

// CreateClassRequest holds payload for creating classes.
type CreateClassRequest struct {
	Name      string `json:"name" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
}

// CreateActivityRequest holds payload for creating class activities.
type CreateActivityRequest struct {
	Name    string  `json:"name" validate:"required"`
	ClassID *string `json:"class_id"`
}

// ClassService handles class and activity use cases.
type ClassService struct {
	repo      classRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs the class service.
func NewClassService(repo classRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, validator: validate, logger: logger}
}

// List returns the classes visible to the caller: teachers their own,
// directors and admins all, parents none.
func (s *ClassService) List(ctx context.Context, caller models.Identity) ([]models.Class, error) {
	var classes []models.Class
	var err error
	switch caller.Role {
	case models.RoleTeacher:
		classes, err = s.repo.ListByTeacher(ctx, caller.UserID)
	case models.RoleDirector, models.RoleAdmin:
		classes, err = s.repo.ListAll(ctx)
	default:
		return []models.Class{}, nil
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	if classes == nil {
		classes = []models.Class{}
	}
	return classes, nil
}

// Create registers a new class under a teacher.
func (s *ClassService) Create(ctx context.Context, caller models.Identity, req CreateClassRequest) (*models.Class, error) {
	if !access.CanManageClasses(caller.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class := &models.Class{Name: req.Name, TeacherID: req.TeacherID}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// ListActivities returns activities, optionally scoped to one class.
func (s *ClassService) ListActivities(ctx context.Context, classID string) ([]models.Activity, error) {
	activities, err := s.repo.ListActivities(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	if activities == nil {
		activities = []models.Activity{}
	}
	return activities, nil
}

// CreateActivity registers a new activity.
func (s *ClassService) CreateActivity(ctx context.Context, caller models.Identity, req CreateActivityRequest) (*models.Activity, error) {
	if caller.Role != models.RoleTeacher && caller.Role != models.RoleDirector {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}

	activity := &models.Activity{Name: req.Name, ClassID: req.ClassID}
	if err := s.repo.CreateActivity(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create activity")
	}
	return activity, nil
}
