package models

import "time"

// SkillCategory classifies roadmap stages by developmental skill.
type SkillCategory string

const (
	SkillCognitive  SkillCategory = "cognitive"
	SkillPhysical   SkillCategory = "physical"
	SkillSocial     SkillCategory = "social"
	SkillEmotional  SkillCategory = "emotional"
	SkillLanguage   SkillCategory = "language"
	SkillCreativity SkillCategory = "creativity"
)

// StageStatus is the progress state of a student on one roadmap stage.
type StageStatus string

const (
	StageNotStarted  StageStatus = "not_started"
	StageInProgress  StageStatus = "in_progress"
	StageCompleted   StageStatus = "completed"
	StageNeedsReview StageStatus = "needs_review"
)

// Valid reports whether the status is one of the known values.
func (s StageStatus) Valid() bool {
	switch s {
	case StageNotStarted, StageInProgress, StageCompleted, StageNeedsReview:
		return true
	}
	return false
}

// RoadmapTemplate is a reusable development roadmap for an age group.
type RoadmapTemplate struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	AgeGroup    string    `db:"age_group" json:"age_group"`
	CreatedByID string    `db:"created_by_id" json:"created_by_id"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// RoadmapStage is one ordered step within a template.
type RoadmapStage struct {
	ID               string        `db:"id" json:"id"`
	TemplateID       string        `db:"template_id" json:"template_id"`
	Title            string        `db:"title" json:"title"`
	Description      *string       `db:"description" json:"description,omitempty"`
	Order            int           `db:"stage_order" json:"order"`
	ExpectedDuration *int          `db:"expected_duration" json:"expected_duration,omitempty"`
	SkillCategory    SkillCategory `db:"skill_category" json:"skill_category"`
}

// StudentRoadmap tracks a student's path through one template.
// CurrentStageID points at the stage the student is working on.
type StudentRoadmap struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	TemplateID     string    `db:"template_id" json:"template_id"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	CurrentStageID *string   `db:"current_stage_id" json:"current_stage_id,omitempty"`
	TeacherNotes   *string   `db:"teacher_notes" json:"teacher_notes,omitempty"`
	LastUpdated    time.Time `db:"last_updated" json:"last_updated"`
}

// StageProgress records a student's state on one stage of their roadmap.
// Unique per (student_roadmap_id, stage_id).
type StageProgress struct {
	ID               string      `db:"id" json:"id"`
	StudentRoadmapID string      `db:"student_roadmap_id" json:"student_roadmap_id"`
	StageID          string      `db:"stage_id" json:"stage_id"`
	Status           StageStatus `db:"status" json:"status"`
	StartedAt        *time.Time  `db:"started_at" json:"started_at,omitempty"`
	CompletedAt      *time.Time  `db:"completed_at" json:"completed_at,omitempty"`
	TeacherFeedback  *string     `db:"teacher_feedback" json:"teacher_feedback,omitempty"`
	Evidence         StringList  `db:"evidence" json:"evidence"`
}
