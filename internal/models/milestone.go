package models

import "time"

// MilestoneCategory classifies developmental milestones.
type MilestoneCategory string

const (
	MilestoneAcademic   MilestoneCategory = "academic"
	MilestoneBehavioral MilestoneCategory = "behavioral"
	MilestonePhysical   MilestoneCategory = "physical"
	MilestoneSocial     MilestoneCategory = "social"
	MilestoneCreative   MilestoneCategory = "creative"
)

// Milestone is a developmental milestone recorded for a student by a teacher.
type Milestone struct {
	ID          string            `db:"id" json:"id"`
	StudentID   string            `db:"student_id" json:"student_id"`
	Title       string            `db:"title" json:"title"`
	Description *string           `db:"description" json:"description,omitempty"`
	Date        string            `db:"date" json:"date"`
	Category    MilestoneCategory `db:"category" json:"category"`
	Completed   bool              `db:"completed" json:"completed"`
	TeacherID   string            `db:"teacher_id" json:"teacher_id"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// MilestoneFilter captures filtering criteria for listing milestones.
type MilestoneFilter struct {
	StudentIDs []string
	TeacherID  string
}
