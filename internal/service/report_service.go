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

type reportRepository interface {
	FindByID(ctx context.Context, id string) (*models.Report, error)
	FindByStudentAndDate(ctx context.Context, studentID, date string) (*models.Report, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
	Create(ctx context.Context, report *models.Report) error
	Update(ctx context.Context, report *models.Report) error
}

// CreateReportRequest holds payload for authoring a daily report.
type CreateReportRequest struct {
	StudentID    string   `json:"student_id" validate:"required"`
	Date         string   `json:"date" validate:"required,datetime=2006-01-02"`
	Mood         string   `json:"mood" validate:"required,oneof=amazing happy okay sad upset"`
	Activities   []string `json:"activities"`
	Notes        *string  `json:"notes"`
	Achievements []string `json:"achievements"`
}

// UpdateReportRequest holds payload for updating a daily report.
type UpdateReportRequest struct {
	Mood         string   `json:"mood" validate:"required,oneof=amazing happy okay sad upset"`
	Activities   []string `json:"activities"`
	Notes        *string  `json:"notes"`
	Achievements []string `json:"achievements"`
}

// ReportService handles daily report use cases. One report per student
// per day; only the authoring teacher may update a report.
type ReportService struct {
	repo      reportRepository
	resolver  entitlementResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(repo reportRepository, resolver entitlementResolver, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, resolver: resolver, validator: validate, logger: logger}
}

// List returns reports narrowed to the caller's entitled students. An
// explicit studentId filter outside the entitlement reads as absent.
func (s *ReportService) List(ctx context.Context, caller models.Identity, studentID string) ([]models.Report, error) {
	ents, err := s.resolver.Entitlements(ctx, caller)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve entitlements")
	}

	filter := models.ReportFilter{}
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

	reports, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}

// Get returns one report, masked as absent outside the entitlement.
func (s *ReportService) Get(ctx context.Context, caller models.Identity, id string) (*models.Report, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}

	ents, err := s.resolver.Entitlements(ctx, caller)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve entitlements")
	}
	if !ents.Allows(report.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	return report, nil
}

// Create authors a report for one student on one day. The author is the
// caller; a second report for the same day is rejected with a conflict.
func (s *ReportService) Create(ctx context.Context, caller models.Identity, req CreateReportRequest) (*models.Report, error) {
	if !access.CanAuthorReports(caller.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	ents, err := s.resolver.Entitlements(ctx, caller)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve entitlements")
	}
	if !ents.Allows(req.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	if _, err := s.repo.FindByStudentAndDate(ctx, req.StudentID, req.Date); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "report already exists for this day")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check report")
	}

	report := &models.Report{
		StudentID:    req.StudentID,
		TeacherID:    caller.UserID,
		Date:         req.Date,
		Mood:         models.Mood(req.Mood),
		Activities:   models.StringList(req.Activities),
		Notes:        req.Notes,
		Achievements: models.StringList(req.Achievements),
	}
	if err := s.repo.Create(ctx, report); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "report already exists for this day")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report")
	}
	return report, nil
}

// Update mutates a report. Entitlement failures read as absent; an
// entitled teacher who is not the author is refused outright.
func (s *ReportService) Update(ctx context.Context, caller models.Identity, id string, req UpdateReportRequest) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	report, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !access.CanEditReport(caller, report) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the authoring teacher may update a report")
	}

	report.Mood = models.Mood(req.Mood)
	report.Activities = models.StringList(req.Activities)
	report.Notes = req.Notes
	report.Achievements = models.StringList(req.Achievements)

	if err := s.repo.Update(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report")
	}
	return report, nil
}
