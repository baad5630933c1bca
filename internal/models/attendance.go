package models

import "time"

// AttendanceStatus enumerates the per-day attendance outcomes.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

// Attendance records one student's presence for one calendar day.
// At most one record exists per (student_id, date).
type Attendance struct {
	ID         string           `db:"id" json:"id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	Date       string           `db:"date" json:"date"`
	Status     AttendanceStatus `db:"status" json:"status"`
	Notes      *string          `db:"notes" json:"notes,omitempty"`
	RecordedBy string           `db:"recorded_by" json:"recorded_by"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}
