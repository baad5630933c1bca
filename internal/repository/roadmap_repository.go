package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/maminech/smartkid-api/internal/models"
)

const stageColumns = "id, template_id, title, description, stage_order, expected_duration, skill_category"
const progressColumns = "id, student_roadmap_id, stage_id, status, started_at, completed_at, teacher_feedback, evidence"

// RoadmapRepository manages persistence for roadmap templates, stages,
// student roadmaps and stage progress.
type RoadmapRepository struct {
	db *sqlx.DB
}

// NewRoadmapRepository constructs a RoadmapRepository.
func NewRoadmapRepository(db *sqlx.DB) *RoadmapRepository {
	return &RoadmapRepository{db: db}
}

// CreateTemplate inserts a new roadmap template.
func (r *RoadmapRepository) CreateTemplate(ctx context.Context, template *models.RoadmapTemplate) error {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	template.CreatedAt = time.Now().UTC()

	query := `INSERT INTO roadmap_templates (id, name, description, age_group, created_by_id, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		template.ID, template.Name, template.Description, template.AgeGroup,
		template.CreatedByID, template.IsActive, template.CreatedAt)
	if err != nil {
		return fmt.Errorf("create roadmap template: %w", err)
	}
	return nil
}

// ListTemplates returns the active roadmap templates.
func (r *RoadmapRepository) ListTemplates(ctx context.Context) ([]models.RoadmapTemplate, error) {
	var templates []models.RoadmapTemplate
	query := "SELECT id, name, description, age_group, created_by_id, is_active, created_at FROM roadmap_templates WHERE is_active ORDER BY name"
	if err := r.db.SelectContext(ctx, &templates, query); err != nil {
		return nil, fmt.Errorf("list roadmap templates: %w", err)
	}
	return templates, nil
}

// FindTemplate fetches a roadmap template by ID.
func (r *RoadmapRepository) FindTemplate(ctx context.Context, id string) (*models.RoadmapTemplate, error) {
	var template models.RoadmapTemplate
	query := "SELECT id, name, description, age_group, created_by_id, is_active, created_at FROM roadmap_templates WHERE id = $1"
	if err := r.db.GetContext(ctx, &template, query, id); err != nil {
		return nil, err
	}
	return &template, nil
}

// CreateStage inserts a new roadmap stage.
func (r *RoadmapRepository) CreateStage(ctx context.Context, stage *models.RoadmapStage) error {
	if stage.ID == "" {
		stage.ID = uuid.NewString()
	}
	query := `INSERT INTO roadmap_stages (id, template_id, title, description, stage_order, expected_duration, skill_category)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		stage.ID, stage.TemplateID, stage.Title, stage.Description,
		stage.Order, stage.ExpectedDuration, stage.SkillCategory)
	if err != nil {
		return fmt.Errorf("create roadmap stage: %w", err)
	}
	return nil
}

// ListStagesByTemplate returns a template's stages in order.
func (r *RoadmapRepository) ListStagesByTemplate(ctx context.Context, templateID string) ([]models.RoadmapStage, error) {
	var stages []models.RoadmapStage
	query := fmt.Sprintf("SELECT %s FROM roadmap_stages WHERE template_id = $1 ORDER BY stage_order", stageColumns)
	if err := r.db.SelectContext(ctx, &stages, query, templateID); err != nil {
		return nil, fmt.Errorf("list roadmap stages: %w", err)
	}
	return stages, nil
}

// FindStage fetches a roadmap stage by ID.
func (r *RoadmapRepository) FindStage(ctx context.Context, id string) (*models.RoadmapStage, error) {
	var stage models.RoadmapStage
	query := fmt.Sprintf("SELECT %s FROM roadmap_stages WHERE id = $1", stageColumns)
	if err := r.db.GetContext(ctx, &stage, query, id); err != nil {
		return nil, err
	}
	return &stage, nil
}

// CreateStudentRoadmap assigns a template to a student, starting at the
// template's first stage when one exists.
func (r *RoadmapRepository) CreateStudentRoadmap(ctx context.Context, roadmap *models.StudentRoadmap) error {
	if roadmap.ID == "" {
		roadmap.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	roadmap.StartDate = now
	roadmap.LastUpdated = now

	if roadmap.CurrentStageID == nil {
		var firstStageID string
		err := r.db.GetContext(ctx, &firstStageID,
			"SELECT id FROM roadmap_stages WHERE template_id = $1 ORDER BY stage_order LIMIT 1", roadmap.TemplateID)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("find first stage: %w", err)
		}
		if err == nil {
			roadmap.CurrentStageID = &firstStageID
		}
	}

	query := `INSERT INTO student_roadmaps (id, student_id, template_id, start_date, current_stage_id, teacher_notes, last_updated)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		roadmap.ID, roadmap.StudentID, roadmap.TemplateID, roadmap.StartDate,
		roadmap.CurrentStageID, roadmap.TeacherNotes, roadmap.LastUpdated)
	if err != nil {
		return fmt.Errorf("create student roadmap: %w", err)
	}
	return nil
}

// FindRoadmapByStudent fetches the roadmap assigned to a student.
func (r *RoadmapRepository) FindRoadmapByStudent(ctx context.Context, studentID string) (*models.StudentRoadmap, error) {
	var roadmap models.StudentRoadmap
	query := "SELECT id, student_id, template_id, start_date, current_stage_id, teacher_notes, last_updated FROM student_roadmaps WHERE student_id = $1"
	if err := r.db.GetContext(ctx, &roadmap, query, studentID); err != nil {
		return nil, err
	}
	return &roadmap, nil
}

// FindRoadmapByID fetches a student roadmap by ID.
func (r *RoadmapRepository) FindRoadmapByID(ctx context.Context, id string) (*models.StudentRoadmap, error) {
	var roadmap models.StudentRoadmap
	query := "SELECT id, student_id, template_id, start_date, current_stage_id, teacher_notes, last_updated FROM student_roadmaps WHERE id = $1"
	if err := r.db.GetContext(ctx, &roadmap, query, id); err != nil {
		return nil, err
	}
	return &roadmap, nil
}

// ListProgressByRoadmap returns every progress row of one student roadmap.
func (r *RoadmapRepository) ListProgressByRoadmap(ctx context.Context, roadmapID string) ([]models.StageProgress, error) {
	var entries []models.StageProgress
	query := fmt.Sprintf(`SELECT %s FROM stage_progress sp WHERE student_roadmap_id = $1
ORDER BY (SELECT stage_order FROM roadmap_stages rs WHERE rs.id = sp.stage_id)`,
		"sp.id, sp.student_roadmap_id, sp.stage_id, sp.status, sp.started_at, sp.completed_at, sp.teacher_feedback, sp.evidence")
	if err := r.db.SelectContext(ctx, &entries, query, roadmapID); err != nil {
		return nil, fmt.Errorf("list stage progress: %w", err)
	}
	return entries, nil
}

// UpsertProgress writes a stage progress row and, when the stage is being
// completed, advances the roadmap's current_stage_id to the next stage by
// order within the template. Both writes happen inside one transaction with
// the roadmap row locked, so racing completions serialize and the caller
// observes either both effects or neither.
func (r *RoadmapRepository) UpsertProgress(ctx context.Context, progress *models.StageProgress) (*models.StageProgress, error) {
	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin stage progress: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	// Lock the roadmap row up front so concurrent completions on the same
	// roadmap serialize before either touches stage_progress.
	var roadmap models.StudentRoadmap
	if err := tx.GetContext(ctx, &roadmap,
		"SELECT id, student_id, template_id, start_date, current_stage_id, teacher_notes, last_updated FROM student_roadmaps WHERE id = $1 FOR UPDATE",
		progress.StudentRoadmapID); err != nil {
		return nil, err
	}

	upsert := fmt.Sprintf(`INSERT INTO stage_progress (id, student_roadmap_id, stage_id, status, started_at, completed_at, teacher_feedback, evidence)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (student_roadmap_id, stage_id) DO UPDATE SET
status = EXCLUDED.status,
started_at = COALESCE(stage_progress.started_at, EXCLUDED.started_at),
completed_at = EXCLUDED.completed_at,
teacher_feedback = EXCLUDED.teacher_feedback,
evidence = EXCLUDED.evidence
RETURNING %s`, progressColumns)

	var stored models.StageProgress
	if err := tx.QueryRowxContext(ctx, upsert,
		progress.ID, progress.StudentRoadmapID, progress.StageID, progress.Status,
		progress.StartedAt, progress.CompletedAt, progress.TeacherFeedback, progress.Evidence,
	).StructScan(&stored); err != nil {
		return nil, fmt.Errorf("upsert stage progress: %w", err)
	}

	if progress.Status == models.StageCompleted {
		var next models.RoadmapStage
		err := tx.GetContext(ctx, &next, fmt.Sprintf(`SELECT %s FROM roadmap_stages
WHERE template_id = $1 AND stage_order > (SELECT stage_order FROM roadmap_stages WHERE id = $2)
ORDER BY stage_order LIMIT 1`, stageColumns), roadmap.TemplateID, progress.StageID)
		switch err {
		case nil:
			if _, err := tx.ExecContext(ctx,
				"UPDATE student_roadmaps SET current_stage_id = $2, last_updated = $3 WHERE id = $1",
				roadmap.ID, next.ID, time.Now().UTC()); err != nil {
				return nil, fmt.Errorf("advance roadmap: %w", err)
			}
		case sql.ErrNoRows:
			// Last stage completed: the pointer stays where it is.
		default:
			return nil, fmt.Errorf("find next stage: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit stage progress: %w", err)
	}
	committed = true
	return &stored, nil
}
