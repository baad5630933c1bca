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

const studentColumns = "id, first_name, last_name, date_of_birth, profile_image, parent_id, class_id, created_at, updated_at"

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.ParentID != "" {
		conditions = append(conditions, fmt.Sprintf("parent_id = $%d", len(args)+1))
		args = append(args, filter.ParentID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	query := fmt.Sprintf("SELECT %s FROM students WHERE %s ORDER BY last_name, first_name",
		studentColumns, strings.Join(conditions, " AND "))
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// ListByIDs returns the students with the given ids.
func (r *StudentRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf("SELECT %s FROM students WHERE id IN (?) ORDER BY last_name, first_name", studentColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("build students query: %w", err)
	}
	query = r.db.Rebind(query)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students by ids: %w", err)
	}
	return students, nil
}

// ListIDsByParent returns the ids of students owned by the given parent.
func (r *StudentRepository) ListIDsByParent(ctx context.Context, parentID string) ([]string, error) {
	var ids []string
	query := "SELECT id FROM students WHERE parent_id = $1"
	if err := r.db.SelectContext(ctx, &ids, query, parentID); err != nil {
		return nil, fmt.Errorf("list student ids by parent: %w", err)
	}
	return ids, nil
}

// ListIDsByTeacher returns the ids of students enrolled in classes the
// given teacher owns.
func (r *StudentRepository) ListIDsByTeacher(ctx context.Context, teacherID string) ([]string, error) {
	var ids []string
	query := `SELECT s.id FROM students s JOIN classes c ON c.id = s.class_id WHERE c.teacher_id = $1`
	if err := r.db.SelectContext(ctx, &ids, query, teacherID); err != nil {
		return nil, fmt.Errorf("list student ids by teacher: %w", err)
	}
	return ids, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	query := `INSERT INTO students (id, first_name, last_name, date_of_birth, profile_image, parent_id, class_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		student.ID, student.FirstName, student.LastName, student.DateOfBirth,
		student.ProfileImage, student.ParentID, student.ClassID, student.CreatedAt, student.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update persists the mutable fields of a student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	query := `UPDATE students SET first_name = $2, last_name = $3, date_of_birth = $4, profile_image = $5, parent_id = $6, class_id = $7, updated_at = $8
WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		student.ID, student.FirstName, student.LastName, student.DateOfBirth,
		student.ProfileImage, student.ParentID, student.ClassID, student.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update student: no rows for %s", student.ID)
	}
	return nil
}

// Delete removes a student. Students are the only hard-deletable entity.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// Count returns the total number of students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}
