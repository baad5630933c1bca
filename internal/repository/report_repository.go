package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/maminech/smartkid-api/internal/models"
)

const reportColumns = "id, student_id, teacher_id, date, mood, activities, notes, achievements, created_at, updated_at"

// ReportRepository manages persistence for daily reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs a ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// FindByID fetches a report by ID.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.Report, error) {
	query := fmt.Sprintf("SELECT %s FROM reports WHERE id = $1", reportColumns)
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// FindByStudentAndDate fetches the report for one student on one day.
func (r *ReportRepository) FindByStudentAndDate(ctx context.Context, studentID, date string) (*models.Report, error) {
	query := fmt.Sprintf("SELECT %s FROM reports WHERE student_id = $1 AND date = $2", reportColumns)
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, studentID, date); err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns reports matching the filter, newest day first. A non-nil
// empty StudentIDs slice yields no rows: the caller is entitled to nothing.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.StudentIDs != nil {
		if len(filter.StudentIDs) == 0 {
			return nil, nil
		}
		conditions = append(conditions, "student_id IN (?)")
		args = append(args, filter.StudentIDs)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, "teacher_id = ?")
		args = append(args, filter.TeacherID)
	}
	if filter.Date != "" {
		conditions = append(conditions, "date = ?")
		args = append(args, filter.Date)
	}

	raw := fmt.Sprintf("SELECT %s FROM reports WHERE %s ORDER BY date DESC, created_at DESC",
		reportColumns, strings.Join(conditions, " AND "))
	query, inArgs, err := sqlx.In(raw, args...)
	if err != nil {
		return nil, fmt.Errorf("build reports query: %w", err)
	}
	query = r.db.Rebind(query)

	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, query, inArgs...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// Create inserts a new report. The unique index on (student_id, date) is
// the last line of defense against duplicate days.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	report.CreatedAt = now
	report.UpdatedAt = now

	query := `INSERT INTO reports (id, student_id, teacher_id, date, mood, activities, notes, achievements, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		report.ID, report.StudentID, report.TeacherID, report.Date, report.Mood,
		report.Activities, report.Notes, report.Achievements, report.CreatedAt, report.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// Update persists the mutable fields of a report.
func (r *ReportRepository) Update(ctx context.Context, report *models.Report) error {
	report.UpdatedAt = time.Now().UTC()
	query := `UPDATE reports SET mood = $2, activities = $3, notes = $4, achievements = $5, updated_at = $6 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		report.ID, report.Mood, report.Activities, report.Notes, report.Achievements, report.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update report: no rows for %s", report.ID)
	}
	return nil
}

// Count returns the total number of reports.
func (r *ReportRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM reports"); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return count, nil
}

// CountSince returns the number of reports dated on or after the given day.
// Dates are zero-padded ISO strings, so string comparison is chronological.
func (r *ReportRepository) CountSince(ctx context.Context, date string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM reports WHERE date >= $1", date); err != nil {
		return 0, fmt.Errorf("count recent reports: %w", err)
	}
	return count, nil
}

// MoodCountsSince aggregates report moods on or after the given day.
func (r *ReportRepository) MoodCountsSince(ctx context.Context, date string) (map[models.Mood]int, error) {
	rows := []struct {
		Mood  models.Mood `db:"mood"`
		Count int         `db:"count"`
	}{}
	query := "SELECT mood, COUNT(*) AS count FROM reports WHERE date >= $1 GROUP BY mood"
	if err := r.db.SelectContext(ctx, &rows, query, date); err != nil {
		return nil, fmt.Errorf("aggregate moods: %w", err)
	}
	counts := make(map[models.Mood]int, len(rows))
	for _, row := range rows {
		counts[row.Mood] = row.Count
	}
	return counts, nil
}
