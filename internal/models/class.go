package models

import "time"

// Class groups students under one owning teacher.
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Activity is a named daily activity offered by a class.
type Activity struct {
	ID      string  `db:"id" json:"id"`
	Name    string  `db:"name" json:"name"`
	ClassID *string `db:"class_id" json:"class_id,omitempty"`
}
