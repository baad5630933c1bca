package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/maminech/smartkid-api/internal/models"
)

// ClassRepository manages persistence for classes and their activities.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// ListAll returns every class.
func (r *ClassRepository) ListAll(ctx context.Context) ([]models.Class, error) {
	var classes []models.Class
	query := "SELECT id, name, teacher_id, created_at, updated_at FROM classes ORDER BY name"
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// ListByTeacher returns the classes owned by the given teacher.
func (r *ClassRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Class, error) {
	var classes []models.Class
	query := "SELECT id, name, teacher_id, created_at, updated_at FROM classes WHERE teacher_id = $1 ORDER BY name"
	if err := r.db.SelectContext(ctx, &classes, query, teacherID); err != nil {
		return nil, fmt.Errorf("list classes by teacher: %w", err)
	}
	return classes, nil
}

// FindByID fetches a class by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	var class models.Class
	query := "SELECT id, name, teacher_id, created_at, updated_at FROM classes WHERE id = $1"
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// Create inserts a new class record.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now

	query := `INSERT INTO classes (id, name, teacher_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, class.ID, class.Name, class.TeacherID, class.CreatedAt, class.UpdatedAt); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Count returns the total number of classes.
func (r *ClassRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM classes"); err != nil {
		return 0, fmt.Errorf("count classes: %w", err)
	}
	return count, nil
}

// ListActivities returns activities, optionally scoped to one class.
func (r *ClassRepository) ListActivities(ctx context.Context, classID string) ([]models.Activity, error) {
	var activities []models.Activity
	if classID != "" {
		query := "SELECT id, name, class_id FROM activities WHERE class_id = $1 ORDER BY name"
		if err := r.db.SelectContext(ctx, &activities, query, classID); err != nil {
			return nil, fmt.Errorf("list activities by class: %w", err)
		}
		return activities, nil
	}
	query := "SELECT id, name, class_id FROM activities ORDER BY name"
	if err := r.db.SelectContext(ctx, &activities, query); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

// CreateActivity inserts a new activity record.
func (r *ClassRepository) CreateActivity(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	query := `INSERT INTO activities (id, name, class_id) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, activity.ID, activity.Name, activity.ClassID); err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}
