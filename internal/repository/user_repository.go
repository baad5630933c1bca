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

const userColumns = "id, first_name, last_name, email, password_hash, role, profile_image, theme, last_active, created_at, updated_at"

// UserRepository manages persistence for user records.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail fetches a user by case-insensitive email match.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID fetches a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Theme == "" {
		user.Theme = models.ThemeSystem
	}

	query := `INSERT INTO users (id, first_name, last_name, email, password_hash, role, profile_image, theme, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash,
		user.Role, user.ProfileImage, user.Theme, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// List returns users matching the provided filters.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(email) LIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	clause := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM users WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		userColumns, clause, size, offset)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM users WHERE %s", clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

// UpdateProfile updates the mutable profile fields of a user.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	query := `UPDATE users SET first_name = $2, last_name = $3, profile_image = $4, theme = $5, updated_at = $6 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.ProfileImage, user.Theme, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update user profile: no rows for %s", user.ID)
	}
	return nil
}

// UpdatePassword stores a new password hash for the user.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	query := `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	return nil
}

// UpdateLastActive stamps the user's last activity time.
func (r *UserRepository) UpdateLastActive(ctx context.Context, id string, ts time.Time) error {
	query := `UPDATE users SET last_active = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last active: %w", err)
	}
	return nil
}

// CountByRole returns the number of users holding the given role.
func (r *UserRepository) CountByRole(ctx context.Context, role models.UserRole) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users WHERE role = $1", role); err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return count, nil
}
