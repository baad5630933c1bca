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

const milestoneColumns = "id, student_id, title, description, date, category, completed, teacher_id, created_at, updated_at"

// MilestoneRepository manages persistence for developmental milestones.
type MilestoneRepository struct {
	db *sqlx.DB
}

// NewMilestoneRepository constructs a MilestoneRepository.
func NewMilestoneRepository(db *sqlx.DB) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

// FindByID fetches a milestone by ID.
func (r *MilestoneRepository) FindByID(ctx context.Context, id string) (*models.Milestone, error) {
	query := fmt.Sprintf("SELECT %s FROM milestones WHERE id = $1", milestoneColumns)
	var milestone models.Milestone
	if err := r.db.GetContext(ctx, &milestone, query, id); err != nil {
		return nil, err
	}
	return &milestone, nil
}

// List returns milestones matching the filter, newest day first. A non-nil
// empty StudentIDs slice yields no rows.
func (r *MilestoneRepository) List(ctx context.Context, filter models.MilestoneFilter) ([]models.Milestone, error) {
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

	raw := fmt.Sprintf("SELECT %s FROM milestones WHERE %s ORDER BY date DESC",
		milestoneColumns, strings.Join(conditions, " AND "))
	query, inArgs, err := sqlx.In(raw, args...)
	if err != nil {
		return nil, fmt.Errorf("build milestones query: %w", err)
	}
	query = r.db.Rebind(query)

	var milestones []models.Milestone
	if err := r.db.SelectContext(ctx, &milestones, query, inArgs...); err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	return milestones, nil
}

// Create inserts a new milestone.
func (r *MilestoneRepository) Create(ctx context.Context, milestone *models.Milestone) error {
	if milestone.ID == "" {
		milestone.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	milestone.CreatedAt = now
	milestone.UpdatedAt = now

	query := `INSERT INTO milestones (id, student_id, title, description, date, category, completed, teacher_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		milestone.ID, milestone.StudentID, milestone.Title, milestone.Description,
		milestone.Date, milestone.Category, milestone.Completed, milestone.TeacherID,
		milestone.CreatedAt, milestone.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create milestone: %w", err)
	}
	return nil
}

// Update persists the mutable fields of a milestone.
func (r *MilestoneRepository) Update(ctx context.Context, milestone *models.Milestone) error {
	milestone.UpdatedAt = time.Now().UTC()
	query := `UPDATE milestones SET title = $2, description = $3, date = $4, category = $5, completed = $6, updated_at = $7 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		milestone.ID, milestone.Title, milestone.Description, milestone.Date,
		milestone.Category, milestone.Completed, milestone.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update milestone: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update milestone: no rows for %s", milestone.ID)
	}
	return nil
}
