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

const attendanceColumns = "id, student_id, date, status, notes, recorded_by, created_at, updated_at"

// AttendanceRepository manages persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// FindByID fetches an attendance record by ID.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance WHERE id = $1", attendanceColumns)
	var record models.Attendance
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByStudentAndDate fetches the record for one student on one day.
func (r *AttendanceRepository) FindByStudentAndDate(ctx context.Context, studentID, date string) (*models.Attendance, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance WHERE student_id = $1 AND date = $2", attendanceColumns)
	var record models.Attendance
	if err := r.db.GetContext(ctx, &record, query, studentID, date); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByDate returns the records for a day, optionally narrowed to a class
// and to a set of entitled students.
func (r *AttendanceRepository) ListByDate(ctx context.Context, date, classID string, studentIDs []string) ([]models.Attendance, error) {
	conditions := []string{"a.date = ?"}
	args := []interface{}{date}

	if classID != "" {
		conditions = append(conditions, "s.class_id = ?")
		args = append(args, classID)
	}
	if studentIDs != nil {
		if len(studentIDs) == 0 {
			return nil, nil
		}
		conditions = append(conditions, "a.student_id IN (?)")
		args = append(args, studentIDs)
	}

	raw := fmt.Sprintf(`SELECT a.id, a.student_id, a.date, a.status, a.notes, a.recorded_by, a.created_at, a.updated_at
FROM attendance a JOIN students s ON s.id = a.student_id
WHERE %s ORDER BY a.student_id`, strings.Join(conditions, " AND "))

	query, inArgs, err := sqlx.In(raw, args...)
	if err != nil {
		return nil, fmt.Errorf("build attendance query: %w", err)
	}
	query = r.db.Rebind(query)

	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, query, inArgs...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// Create inserts a new attendance record. The unique index on
// (student_id, date) is the last line of defense against duplicate days.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.Attendance) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	query := `INSERT INTO attendance (id, student_id, date, status, notes, recorded_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.StudentID, record.Date, record.Status, record.Notes, record.RecordedBy, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// Update persists status and notes of an existing record.
func (r *AttendanceRepository) Update(ctx context.Context, record *models.Attendance) error {
	record.UpdatedAt = time.Now().UTC()
	query := `UPDATE attendance SET status = $2, notes = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, record.ID, record.Status, record.Notes, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update attendance: no rows for %s", record.ID)
	}
	return nil
}
