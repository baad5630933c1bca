package models

import "time"

// BadgeCategory classifies achievement badges.
type BadgeCategory string

const (
	BadgeAcademic   BadgeCategory = "academic"
	BadgeBehavioral BadgeCategory = "behavioral"
	BadgeAttendance BadgeCategory = "attendance"
	BadgeSpecial    BadgeCategory = "special"
)

// Badge is a reusable achievement template, not tied to a student.
type Badge struct {
	ID          string        `db:"id" json:"id"`
	Name        string        `db:"name" json:"name"`
	Description string        `db:"description" json:"description"`
	Icon        string        `db:"icon" json:"icon"`
	Category    BadgeCategory `db:"category" json:"category"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// StudentBadge links a badge award to a student. A given badge is awarded
// to a given student at most once.
type StudentBadge struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	BadgeID     string    `db:"badge_id" json:"badge_id"`
	DateAwarded string    `db:"date_awarded" json:"date_awarded"`
	AwardedBy   string    `db:"awarded_by" json:"awarded_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// StudentBadgeDetail is an award enriched with the badge template.
type StudentBadgeDetail struct {
	StudentBadge
	Badge Badge `json:"badge"`
}
