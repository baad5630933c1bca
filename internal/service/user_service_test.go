package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/maminech/smartkid-api/internal/models"
)

type mockProfileRepo struct {
	users      map[string]models.User
	lastFilter models.UserFilter
	passwords  map[string]string
	createErr  error
}

func (m *mockProfileRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfileRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfileRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.users == nil {
		m.users = make(map[string]models.User)
	}
	if user.ID == "" {
		user.ID = "generated"
	}
	m.users[user.ID] = *user
	return nil
}

func (m *mockProfileRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	m.lastFilter = filter
	var out []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *mockProfileRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	m.users[user.ID] = *user
	return nil
}

func (m *mockProfileRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if m.passwords == nil {
		m.passwords = make(map[string]string)
	}
	m.passwords[id] = passwordHash
	u := m.users[id]
	u.PasswordHash = passwordHash
	m.users[id] = u
	return nil
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestUpdateProfileKeepsImageWhenOmitted(t *testing.T) {
	img := "https://example.com/a.png"
	repo := &mockProfileRepo{users: map[string]models.User{
		"u1": {ID: "u1", FirstName: "Amal", LastName: "Trabelsi", ProfileImage: &img, Theme: models.ThemeLight},
	}}
	svc := NewUserService(repo, nil, nil)

	user, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{
		FirstName: "Amal", LastName: "Ben Salah", Theme: "dark",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ben Salah", user.LastName)
	assert.Equal(t, models.ThemeDark, user.Theme)
	require.NotNil(t, user.ProfileImage)
	assert.Equal(t, img, *user.ProfileImage)
}

func TestChangePasswordRejectsWrongOldPassword(t *testing.T) {
	repo := &mockProfileRepo{users: map[string]models.User{
		"u1": {ID: "u1", PasswordHash: hashOf(t, "correct-horse")},
	}}
	svc := NewUserService(repo, nil, nil)

	err := svc.ChangePassword(context.Background(), "u1", ChangePasswordRequest{
		OldPassword: "wrong-horse", NewPassword: "new-secret",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
	assert.Empty(t, repo.passwords)
}

func TestChangePasswordStoresNewHash(t *testing.T) {
	repo := &mockProfileRepo{users: map[string]models.User{
		"u1": {ID: "u1", PasswordHash: hashOf(t, "correct-horse")},
	}}
	svc := NewUserService(repo, nil, nil)

	err := svc.ChangePassword(context.Background(), "u1", ChangePasswordRequest{
		OldPassword: "correct-horse", NewPassword: "new-secret",
	})
	require.NoError(t, err)
	require.Contains(t, repo.passwords, "u1")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwords["u1"]), []byte("new-secret")))
}

func TestUserListRequiresAdminAccess(t *testing.T) {
	repo := &mockProfileRepo{users: map[string]models.User{
		"u1": {ID: "u1", Role: models.RoleTeacher},
		"u2": {ID: "u2", Role: models.RoleParent},
	}}
	svc := NewUserService(repo, nil, nil)

	_, _, err := svc.List(context.Background(), teacherCaller("u1"), models.UserFilter{})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	role := models.RoleParent
	users, pagination, err := svc.List(context.Background(), models.Identity{UserID: "a1", Role: models.RoleAdmin}, models.UserFilter{Role: &role})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestAdminCreateMayMintAdmins(t *testing.T) {
	repo := &mockProfileRepo{users: map[string]models.User{}}
	svc := NewUserService(repo, nil, nil)

	_, err := svc.Create(context.Background(), directorCaller("d1"), CreateUserRequest{
		FirstName: "Root", LastName: "Admin", Email: "root@smartkid.tn", Password: "secret1", Role: "admin",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	user, err := svc.Create(context.Background(), models.Identity{UserID: "a1", Role: models.RoleAdmin}, CreateUserRequest{
		FirstName: "Root", LastName: "Admin", Email: "root@smartkid.tn", Password: "secret1", Role: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.NotNil(t, user.ProfileImage)

	_, err = svc.Create(context.Background(), models.Identity{UserID: "a1", Role: models.RoleAdmin}, CreateUserRequest{
		FirstName: "Root", LastName: "Admin", Email: "root@smartkid.tn", Password: "secret1", Role: "admin",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestAdminCreateUniqueViolationBecomesValidationError(t *testing.T) {
	// An insert racing past the email pre-check fails on the unique index
	// and must map to the duplicate-email response, not a 500.
	repo := &mockProfileRepo{
		users:     map[string]models.User{},
		createErr: &pq.Error{Code: "23505", Constraint: "users_email_lower_idx"},
	}
	svc := NewUserService(repo, nil, nil)

	_, err := svc.Create(context.Background(), models.Identity{UserID: "a1", Role: models.RoleAdmin}, CreateUserRequest{
		FirstName: "Root", LastName: "Admin", Email: "root@smartkid.tn", Password: "secret1", Role: "admin",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Contains(t, err.Error(), "already registered")
}
