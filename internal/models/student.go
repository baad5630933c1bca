package models

import "time"

// Student is the central entity: every access-control decision resolves
// through its parent_id and class_id ownership links.
type Student struct {
	ID           string    `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	DateOfBirth  string    `db:"date_of_birth" json:"date_of_birth"`
	ProfileImage *string   `db:"profile_image" json:"profile_image,omitempty"`
	ParentID     *string   `db:"parent_id" json:"parent_id,omitempty"`
	ClassID      *string   `db:"class_id" json:"class_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter captures filtering criteria for listing students.
type StudentFilter struct {
	ClassID  string
	ParentID string
	Search   string
}
