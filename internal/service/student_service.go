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

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	FirstName    string  `json:"first_name" validate:"required"`
	LastName     string  `json:"last_name" validate:"required"`
	DateOfBirth  string  `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	ProfileImage *string `json:"profile_image"`
	ParentID     *string `json:"parent_id"`
	ClassID      *string `json:"class_id"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	FirstName    string  `json:"first_name" validate:"required"`
	LastName     string  `json:"last_name" validate:"required"`
	DateOfBirth  string  `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	ProfileImage *string `json:"profile_image"`
	ParentID     *string `json:"parent_id"`
	ClassID      *string `json:"class_id"`
}

// StudentService handles student use cases with role-scoped narrowing.
type StudentService struct {
	repo      studentRepository
	resolver  entitlementResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, resolver entitlementResolver, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, resolver: resolver, validator: validate, logger: logger}
}

// List returns exactly the students the caller is entitled to see.
func (s *StudentService) List(ctx context.Context, caller models.Identity, filter models.StudentFilter) ([]models.Student, error) {
	ents, err := s.resolver.Entitlements(ctx, caller)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve entitlements")
	}

	var students []models.Student
	if ents.All {
		students, err = s.repo.List(ctx, filter)
	} else {
		students, err = s.repo.ListByIDs(ctx, ents.IDs())
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// Get returns one student. Records outside the caller's entitlement are
// reported as absent.
func (s *StudentService) Get(ctx context.Context, caller models.Identity, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	ents, err := s.resolver.Entitlements(ctx, caller)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve entitlements")
	}
	if !ents.Allows(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, caller models.Identity, req CreateStudentRequest) (*models.Student, error) {
	if !access.CanManageStudents(caller.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student := &models.Student{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DateOfBirth:  req.DateOfBirth,
		ProfileImage: req.ProfileImage,
		ParentID:     req.ParentID,
		ClassID:      req.ClassID,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update mutates the student. Teachers can only touch students in classes
// they teach; for everyone else entitlement follows the usual rules.
func (s *StudentService) Update(ctx context.Context, caller models.Identity, id string, req UpdateStudentRequest) (*models.Student, error) {
	if !access.CanManageStudents(caller.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.DateOfBirth = req.DateOfBirth
	student.ProfileImage = req.ProfileImage
	student.ParentID = req.ParentID
	student.ClassID = req.ClassID

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete removes a student. Only directors and admins may delete; Student
// is the only entity with hard deletion.
func (s *StudentService) Delete(ctx context.Context, caller models.Identity, id string) error {
	if !access.CanDeleteStudents(caller.Role) {
		return appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}
