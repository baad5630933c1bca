package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/maminech/smartkid-api/internal/models"
)

// BadgeRepository manages persistence for badge templates and awards.
type BadgeRepository struct {
	db *sqlx.DB
}

// NewBadgeRepository constructs a BadgeRepository.
func NewBadgeRepository(db *sqlx.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// ListBadges returns badge templates, optionally filtered by category.
func (r *BadgeRepository) ListBadges(ctx context.Context, category string) ([]models.Badge, error) {
	var badges []models.Badge
	if category != "" {
		query := "SELECT id, name, description, icon, category, created_at FROM badges WHERE category = $1 ORDER BY name"
		if err := r.db.SelectContext(ctx, &badges, query, category); err != nil {
			return nil, fmt.Errorf("list badges by category: %w", err)
		}
		return badges, nil
	}
	query := "SELECT id, name, description, icon, category, created_at FROM badges ORDER BY name"
	if err := r.db.SelectContext(ctx, &badges, query); err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return badges, nil
}

// FindBadge fetches a badge template by ID.
func (r *BadgeRepository) FindBadge(ctx context.Context, id string) (*models.Badge, error) {
	var badge models.Badge
	query := "SELECT id, name, description, icon, category, created_at FROM badges WHERE id = $1"
	if err := r.db.GetContext(ctx, &badge, query, id); err != nil {
		return nil, err
	}
	return &badge, nil
}

// CreateBadge inserts a new badge template.
func (r *BadgeRepository) CreateBadge(ctx context.Context, badge *models.Badge) error {
	if badge.ID == "" {
		badge.ID = uuid.NewString()
	}
	badge.CreatedAt = time.Now().UTC()

	query := `INSERT INTO badges (id, name, description, icon, category, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, badge.ID, badge.Name, badge.Description, badge.Icon, badge.Category, badge.CreatedAt); err != nil {
		return fmt.Errorf("create badge: %w", err)
	}
	return nil
}

// ListAwardsByStudent returns a student's awards joined with their badges.
func (r *BadgeRepository) ListAwardsByStudent(ctx context.Context, studentID string) ([]models.StudentBadgeDetail, error) {
	rows := []struct {
		models.StudentBadge
		BadgeName        string               `db:"badge_name"`
		BadgeDescription string               `db:"badge_description"`
		BadgeIcon        string               `db:"badge_icon"`
		BadgeCategory    models.BadgeCategory `db:"badge_category"`
		BadgeCreatedAt   time.Time            `db:"badge_created_at"`
	}{}
	query := `SELECT sb.id, sb.student_id, sb.badge_id, sb.date_awarded, sb.awarded_by, sb.created_at,
b.name AS badge_name, b.description AS badge_description, b.icon AS badge_icon, b.category AS badge_category, b.created_at AS badge_created_at
FROM student_badges sb JOIN badges b ON b.id = sb.badge_id
WHERE sb.student_id = $1 ORDER BY sb.date_awarded DESC`
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list student badges: %w", err)
	}

	details := make([]models.StudentBadgeDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, models.StudentBadgeDetail{
			StudentBadge: row.StudentBadge,
			Badge: models.Badge{
				ID:          row.BadgeID,
				Name:        row.BadgeName,
				Description: row.BadgeDescription,
				Icon:        row.BadgeIcon,
				Category:    row.BadgeCategory,
				CreatedAt:   row.BadgeCreatedAt,
			},
		})
	}
	return details, nil
}

// AwardExists reports whether the badge was already awarded to the student.
func (r *BadgeRepository) AwardExists(ctx context.Context, studentID, badgeID string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS (SELECT 1 FROM student_badges WHERE student_id = $1 AND badge_id = $2)"
	if err := r.db.GetContext(ctx, &exists, query, studentID, badgeID); err != nil {
		return false, fmt.Errorf("check award: %w", err)
	}
	return exists, nil
}

// CreateAward inserts a badge award. The unique index on
// (student_id, badge_id) is the last line of defense against duplicates.
func (r *BadgeRepository) CreateAward(ctx context.Context, award *models.StudentBadge) error {
	if award.ID == "" {
		award.ID = uuid.NewString()
	}
	award.CreatedAt = time.Now().UTC()

	query := `INSERT INTO student_badges (id, student_id, badge_id, date_awarded, awarded_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, award.ID, award.StudentID, award.BadgeID, award.DateAwarded, award.AwardedBy, award.CreatedAt); err != nil {
		return fmt.Errorf("create award: %w", err)
	}
	return nil
}
