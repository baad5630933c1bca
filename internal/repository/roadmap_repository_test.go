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

func newRoadmapMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func roadmapRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "template_id", "start_date", "current_stage_id", "teacher_notes", "last_updated"}).
		AddRow("rm1", "s1", "tpl1", time.Now(), "st1", nil, time.Now())
}

func progressRow(status models.StageStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "student_roadmap_id", "stage_id", "status", "started_at", "completed_at", "teacher_feedback", "evidence"}).
		AddRow("pg1", "rm1", "st1", string(status), now, now, nil, []byte(`[]`))
}

func TestRoadmapRepositoryCreateStudentRoadmapStartsAtFirstStage(t *testing.T) {
	db, mock, cleanup := newRoadmapMock(t)
	defer cleanup()
	repo := NewRoadmapRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM roadmap_stages WHERE template_id = $1 ORDER BY stage_order LIMIT 1")).
		WithArgs("tpl1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("st1"))
	mock.ExpectExec("INSERT INTO student_roadmaps").
		WithArgs(sqlmock.AnyArg(), "s1", "tpl1", sqlmock.AnyArg(), "st1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	roadmap := &models.StudentRoadmap{StudentID: "s1", TemplateID: "tpl1"}
	err := repo.CreateStudentRoadmap(context.Background(), roadmap)
	require.NoError(t, err)
	require.NotNil(t, roadmap.CurrentStageID)
	assert.Equal(t, "st1", *roadmap.CurrentStageID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoadmapRepositoryUpsertProgressAdvancesOnCompletion(t *testing.T) {
	db, mock, cleanup := newRoadmapMock(t)
	defer cleanup()
	repo := NewRoadmapRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, student_id, template_id, start_date, current_stage_id, teacher_notes, last_updated FROM student_roadmaps WHERE id = .+ FOR UPDATE").
		WithArgs("rm1").
		WillReturnRows(roadmapRow())
	mock.ExpectQuery("INSERT INTO stage_progress .+ ON CONFLICT \\(student_roadmap_id, stage_id\\) DO UPDATE").
		WithArgs(sqlmock.AnyArg(), "rm1", "st1", models.StageCompleted, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(progressRow(models.StageCompleted))
	mock.ExpectQuery("SELECT .+ FROM roadmap_stages\\s+WHERE template_id = .+ AND stage_order > .+ ORDER BY stage_order LIMIT 1").
		WithArgs("tpl1", "st1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "template_id", "title", "description", "stage_order", "expected_duration", "skill_category"}).
			AddRow("st2", "tpl1", "Second", nil, 2, nil, "cognitive"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_roadmaps SET current_stage_id = $2, last_updated = $3 WHERE id = $1")).
		WithArgs("rm1", "st2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	stored, err := repo.UpsertProgress(context.Background(), &models.StageProgress{
		StudentRoadmapID: "rm1",
		StageID:          "st1",
		Status:           models.StageCompleted,
		StartedAt:        &now,
		CompletedAt:      &now,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StageCompleted, stored.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoadmapRepositoryUpsertProgressLastStageKeepsPointer(t *testing.T) {
	db, mock, cleanup := newRoadmapMock(t)
	defer cleanup()
	repo := NewRoadmapRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("FROM student_roadmaps WHERE id = .+ FOR UPDATE").
		WithArgs("rm1").
		WillReturnRows(roadmapRow())
	mock.ExpectQuery("INSERT INTO stage_progress").
		WillReturnRows(progressRow(models.StageCompleted))
	mock.ExpectQuery("AND stage_order > .+ ORDER BY stage_order LIMIT 1").
		WithArgs("tpl1", "st1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "template_id", "title", "description", "stage_order", "expected_duration", "skill_category"}))
	mock.ExpectCommit()

	_, err := repo.UpsertProgress(context.Background(), &models.StageProgress{
		StudentRoadmapID: "rm1",
		StageID:          "st1",
		Status:           models.StageCompleted,
		CompletedAt:      &now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoadmapRepositoryUpsertProgressNonCompletionSkipsAdvance(t *testing.T) {
	db, mock, cleanup := newRoadmapMock(t)
	defer cleanup()
	repo := NewRoadmapRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM student_roadmaps WHERE id = .+ FOR UPDATE").
		WithArgs("rm1").
		WillReturnRows(roadmapRow())
	mock.ExpectQuery("INSERT INTO stage_progress").
		WillReturnRows(progressRow(models.StageInProgress))
	mock.ExpectCommit()

	stored, err := repo.UpsertProgress(context.Background(), &models.StageProgress{
		StudentRoadmapID: "rm1",
		StageID:          "st1",
		Status:           models.StageInProgress,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StageInProgress, stored.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
