package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleParent   UserRole = "parent"
	RoleTeacher  UserRole = "teacher"
	RoleDirector UserRole = "director"
	RoleAdmin    UserRole = "admin"
)

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleParent, RoleTeacher, RoleDirector, RoleAdmin:
		return true
	}
	return false
}

// Theme is a UI preference stored on the user.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         UserRole   `db:"role" json:"role"`
	ProfileImage *string    `db:"profile_image" json:"profile_image,omitempty"`
	Theme        Theme      `db:"theme" json:"theme"`
	LastActive   *time.Time `db:"last_active" json:"last_active,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Search   string
	Page     int
	PageSize int
}

// JWTClaims are the custom claims embedded in access tokens.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller resolved from a bearer token.
// Every authorization decision pivots on it.
type Identity struct {
	UserID string
	Role   UserRole
}

// Identity extracts the caller identity from the claims.
func (c *JWTClaims) Identity() Identity {
	return Identity{UserID: c.UserID, Role: c.Role}
}
