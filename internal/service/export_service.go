package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/maminech/smartkid-api/internal/models"
	appErrors "github.com/maminech/smartkid-api/pkg/errors"
	"github.com/maminech/smartkid-api/pkg/export"
)

type exportStudentRepository interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Student, error)
}

// ExportFormat selects the rendering of a report export.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult is a rendered document ready to stream to the client.
type ExportResult struct {
	ContentType string
	Filename    string
	Body        []byte
}

// ExportService renders entitled daily reports as downloadable CSV or
// PDF documents.
type ExportService struct {
	reports  reportRepository
	students exportStudentRepository
	resolver entitlementResolver
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(reports reportRepository, students exportStudentRepository, resolver entitlementResolver, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		reports:  reports,
		students: students,
		resolver: resolver,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// ExportReports renders the caller's entitled reports, optionally scoped
// to one student. Only teachers and directors may export.
func (s *ExportService) ExportReports(ctx context.Context, caller models.Identity, format ExportFormat, studentID string) (*ExportResult, error) {
	if caller.Role != models.RoleTeacher && caller.Role != models.RoleDirector {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

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

	reports, err := s.reports.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}

	names, err := s.studentNames(ctx, reports)
	if err != nil {
		return nil, err
	}
	data := buildReportDataset(reports, names)

	switch format {
	case FormatPDF:
		body, err := s.pdf.Render(data, "Daily Reports")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{ContentType: "application/pdf", Filename: "reports.pdf", Body: body}, nil
	default:
		body, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{ContentType: "text/csv", Filename: "reports.csv", Body: body}, nil
	}
}

func (s *ExportService) studentNames(ctx context.Context, reports []models.Report) (map[string]string, error) {
	seen := make(map[string]struct{}, len(reports))
	ids := make([]string, 0, len(reports))
	for _, r := range reports {
		if _, ok := seen[r.StudentID]; ok {
			continue
		}
		seen[r.StudentID] = struct{}{}
		ids = append(ids, r.StudentID)
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	students, err := s.students.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	names := make(map[string]string, len(students))
	for _, st := range students {
		names[st.ID] = st.FirstName + " " + st.LastName
	}
	return names, nil
}

func buildReportDataset(reports []models.Report, names map[string]string) export.Dataset {
	data := export.Dataset{
		Headers: []string{"Date", "Student", "Mood", "Activities", "Notes", "Achievements"},
	}
	for _, r := range reports {
		notes := ""
		if r.Notes != nil {
			notes = *r.Notes
		}
		data.Rows = append(data.Rows, map[string]string{
			"Date":         r.Date,
			"Student":      names[r.StudentID],
			"Mood":         string(r.Mood),
			"Activities":   strings.Join(r.Activities, ", "),
			"Notes":        notes,
			"Achievements": strings.Join(r.Achievements, ", "),
		})
	}
	return data
}
