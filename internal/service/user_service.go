package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/maminech/smartkid-api/internal/access"
	"github.com/maminech/smartkid-api/internal/models"
	"github.com/maminech/smartkid-api/internal/repository"
	appErrors "github.com/maminech/smartkid-api/pkg/errors"
)

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
}

// UpdateProfileRequest holds the self-service profile mutation payload.
type UpdateProfileRequest struct {
	FirstName    string  `json:"first_name" validate:"required"`
	LastName     string  `json:"last_name" validate:"required"`
	ProfileImage *string `json:"profile_image"`
	Theme        string  `json:"theme" validate:"omitempty,oneof=light dark system"`
}

// ChangePasswordRequest holds the password change payload.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// CreateUserRequest is the admin user-creation payload. Unlike
// self-registration it may mint admin accounts.
type CreateUserRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      string `json:"role" validate:"required,oneof=parent teacher director admin"`
}

// UserService handles profile and admin user management use cases.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the user service.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// UpdateProfile mutates the caller's own profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	if req.ProfileImage != nil {
		user.ProfileImage = req.ProfileImage
	}
	if req.Theme != "" {
		user.Theme = models.Theme(req.Theme)
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return user, nil
}

// ChangePassword verifies the old password and stores a new hash.
func (s *UserService) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid password payload")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrForbidden, "old password does not match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	if err := s.repo.UpdatePassword(ctx, userID, string(hash), time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	return nil
}

// List returns users for admin management.
func (s *UserService) List(ctx context.Context, caller models.Identity, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if !access.CanViewAdmin(caller.Role) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create registers a user on behalf of an admin.
func (s *UserService) Create(ctx context.Context, caller models.Identity, req CreateUserRequest) (*models.User, error) {
	if !access.CanCreateUsers(caller.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	avatar := defaultAvatarURL(req.FirstName, req.LastName)
	user := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.UserRole(req.Role),
		ProfileImage: &avatar,
		Theme:        models.ThemeSystem,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	return user, nil
}
