package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maminech/smartkid-api/internal/models"
)

func newUserMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "password_hash", "role", "profile_image", "theme", "last_active", "created_at", "updated_at"}).
		AddRow("u1", "Amal", "Trabelsi", "amal@smartkid.tn", "hash", "teacher", nil, "light", nil, time.Now(), time.Now())
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, first_name, last_name, email, password_hash, role, profile_image, theme, last_active, created_at, updated_at FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("Amal@smartkid.tn").
		WillReturnRows(userRows())

	user, err := repo.FindByEmail(context.Background(), "Amal@smartkid.tn")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, models.RoleTeacher, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "Amal", "Trabelsi", "amal@smartkid.tn", "hash", models.RoleTeacher, sqlmock.AnyArg(), models.ThemeSystem, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{FirstName: "Amal", LastName: "Trabelsi", Email: "amal@smartkid.tn", PasswordHash: "hash", Role: models.RoleTeacher}
	err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, models.ThemeSystem, user.Theme)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryList(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, first_name, last_name, email, password_hash, role, profile_image, theme, last_active, created_at, updated_at FROM users WHERE 1=1 AND role = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(models.RoleTeacher).
		WillReturnRows(userRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1 AND role = $1")).
		WithArgs(models.RoleTeacher).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	role := models.RoleTeacher
	users, total, err := repo.List(context.Background(), models.UserFilter{Role: &role})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateProfileMissingRow(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users SET first_name").
		WithArgs("u404", "Amal", "Trabelsi", sqlmock.AnyArg(), models.ThemeDark, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateProfile(context.Background(), &models.User{ID: "u404", FirstName: "Amal", LastName: "Trabelsi", Theme: models.ThemeDark})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCountByRole(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE role = $1")).
		WithArgs(models.RoleParent).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	count, err := repo.CountByRole(context.Background(), models.RoleParent)
	require.NoError(t, err)
	assert.Equal(t, 12, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
