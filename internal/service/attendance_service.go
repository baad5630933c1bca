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

type attendanceRepository interface {
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	FindByStudentAndDate(ctx context.Context, studentID, date string) (*models.Attendance, error)
	ListByDate(ctx context.Context, date, classID string, studentIDs []string) ([]models.Attendance, error)
	Create(ctx context.Context, record *models.Attendance) error
	Update(ctx context.Context, record *models.Attendance) error
}

// CreateAttendanceRequest holds payload for marking attendance.
type CreateAttendanceRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	Status    string  `json:"status" validate:"required,oneof=present absent late"`
	Notes     *string `json:"notes"`
}

// UpdateAttendanceRequest holds payload for correcting a record.
type UpdateAttendanceRequest struct {
	Status string  `json:"status" validate:"required,oneof=present absent late"`
	Notes  *string `json:"notes"`
}

// AttendanceService handles attendance use cases. The one-record-per-day
// invariant is pre-checked for a typed conflict and backed by the unique
// index for racing creates.
type AttendanceService struct {
	repo      attendanceRepository
	resolver  entitlementResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, resolver entitlementResolver, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, resolver: resolver, validator: validate, logger: logger}
}

// ListByDate returns the day's records narrowed to the caller's entitled
// students.
func (s *AttendanceService) ListByDate(ctx context.Context, caller models.Identity, date, classID string) ([]models.Attendance, error) {
	if date == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date parameter is required")
	}

	ents, err := s.resolver.Entitlements(ctx, caller)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve entitlements")
	}

	var studentIDs []string
	if !ents.All {
		studentIDs = ents.IDs()
		if studentIDs == nil {
			studentIDs = []string{}
		}
	}

	records, err := s.repo.ListByDate(ctx, date, classID, studentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	if records == nil {
		records = []models.Attendance{}
	}
	return records, nil
}

// Create marks attendance for one student on one day. A second record for
// the same day is rejected with a conflict.
func (s *AttendanceService) Create(ctx context.Context, caller models.Identity, req CreateAttendanceRequest) (*models.Attendance, error) {
	if !access.CanMarkAttendance(caller.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	if err := s.requireEntitled(ctx, caller, req.StudentID); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByStudentAndDate(ctx, req.StudentID, req.Date); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attendance already recorded for this day")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance")
	}

	record := &models.Attendance{
		StudentID:  req.StudentID,
		Date:       req.Date,
		Status:     models.AttendanceStatus(req.Status),
		Notes:      req.Notes,
		RecordedBy: caller.UserID,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "attendance already recorded for this day")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create attendance")
	}
	return record, nil
}

// Update corrects the status or notes of an existing record.
func (s *AttendanceService) Update(ctx context.Context, caller models.Identity, id string, req UpdateAttendanceRequest) (*models.Attendance, error) {
	if !access.CanMarkAttendance(caller.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}

	if err := s.requireEntitled(ctx, caller, record.StudentID); err != nil {
		return nil, err
	}

	record.Status = models.AttendanceStatus(req.Status)
	record.Notes = req.Notes
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance")
	}
	return record, nil
}

func (s *AttendanceService) requireEntitled(ctx context.Context, caller models.Identity, studentID string) error {
	ents, err := s.resolver.Entitlements(ctx, caller)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve entitlements")
	}
	if !ents.Allows(studentID) {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return nil
}
