package database_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bidtrack/bidtrack/internal/database"
	"github.com/bidtrack/bidtrack/internal/models"
)

var appliedJobColumns = []string{
	"id", "user_id", "job_id", "stage",
	"replied_date", "replied_notes", "interview_date", "interview_notes",
	"not_hired_date", "not_hired_notes", "hired_date",
	"manual_title", "manual_client", "manual_url",
	"created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*database.JobRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return database.NewJobRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func appliedJobRow(id, userID, jobID uuid.UUID, stage models.Stage) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(appliedJobColumns).AddRow(
		id, userID, jobID, stage,
		nil, nil, nil, nil,
		nil, nil, nil,
		nil, nil, nil,
		now, now,
	)
}

func TestJobRepository_GetAppliedJob(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()
	id := uuid.New()

	testCases := []struct {
		name      string
		setupMock func()
		wantErr   error
	}{
		{
			name: "returns applied job",
			setupMock: func() {
				mock.ExpectQuery("SELECT id, user_id, job_id, stage").
					WithArgs(id).
					WillReturnRows(appliedJobRow(id, uuid.New(), uuid.New(), models.StageApplied))
			},
		},
		{
			name: "missing row returns not found",
			setupMock: func() {
				mock.ExpectQuery("SELECT id, user_id, job_id, stage").
					WithArgs(id).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: models.ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.setupMock()

			job, err := repo.GetAppliedJob(ctx, id)
			if tc.wantErr != nil {
				if err != tc.wantErr {
					t.Errorf("GetAppliedJob() error = %v, want %v", err, tc.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("GetAppliedJob() unexpected error: %v", err)
				}
				if job.ID != id {
					t.Errorf("GetAppliedJob() id = %v, want %v", job.ID, id)
				}
			}

			if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
				t.Errorf("unfulfilled expectations: %v", expectErr)
			}
		})
	}
}

func TestJobRepository_SetStage(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()
	id := uuid.New()
	userID := uuid.New()
	jobID := uuid.New()
	effectiveAt := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	t.Run("transition to interview reports change", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT stage FROM applied_jobs").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"stage"}).AddRow("applied"))
		mock.ExpectQuery("UPDATE applied_jobs").
			WithArgs(id, models.StageInterview, effectiveAt, nil).
			WillReturnRows(appliedJobRow(id, userID, jobID, models.StageInterview))
		mock.ExpectExec("INSERT INTO applied_job_stage_history").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		job, changed, err := repo.SetStage(ctx, id, models.StageInterview, effectiveAt, nil)
		if err != nil {
			t.Fatalf("SetStage() unexpected error: %v", err)
		}
		if !changed {
			t.Error("SetStage() changed = false, want true")
		}
		if job.Stage != models.StageInterview {
			t.Errorf("SetStage() stage = %v, want %v", job.Stage, models.StageInterview)
		}
	})

	t.Run("same stage reports no change", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT stage FROM applied_jobs").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"stage"}).AddRow("interview"))
		mock.ExpectQuery("UPDATE applied_jobs").
			WithArgs(id, models.StageInterview, effectiveAt, nil).
			WillReturnRows(appliedJobRow(id, userID, jobID, models.StageInterview))
		mock.ExpectExec("INSERT INTO applied_job_stage_history").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		_, changed, err := repo.SetStage(ctx, id, models.StageInterview, effectiveAt, nil)
		if err != nil {
			t.Fatalf("SetStage() unexpected error: %v", err)
		}
		if changed {
			t.Error("SetStage() changed = true, want false")
		}
	})

	t.Run("missing applied job returns not found", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT stage FROM applied_jobs").
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, _, err := repo.SetStage(ctx, id, models.StageReplied, effectiveAt, nil)
		if err != models.ErrNotFound {
			t.Errorf("SetStage() error = %v, want %v", err, models.ErrNotFound)
		}
	})

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func hiredJobColumns() []string {
	return []string{
		"id", "applied_job_id", "bidder_id", "developer_id", "hired_at",
		"budget_type", "budget_amount", "client_name", "profile_name", "created_at",
	}
}

func validHireRequest() *models.MarkHiredRequest {
	return &models.MarkHiredRequest{
		JobExternalID: "ext-123",
		BidderID:      uuid.New(),
		DeveloperID:   uuid.New(),
		HiredAt:       time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		BudgetType:    "fixed",
		BudgetAmount:  1500,
		ClientName:    "Acme",
		ProfileName:   "main",
	}
}

func TestJobRepository_MarkHired(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()
	appliedID := uuid.New()
	jobID := uuid.New()

	t.Run("success runs whole sequence in one transaction", func(t *testing.T) {
		req := validHireRequest()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT aj.id, aj.job_id").
			WithArgs(req.JobExternalID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "job_id"}).AddRow(appliedID, jobID))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(appliedID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery("INSERT INTO hired_jobs").
			WillReturnRows(sqlmock.NewRows(hiredJobColumns()).AddRow(
				uuid.New(), appliedID, req.BidderID, req.DeveloperID, req.HiredAt,
				req.BudgetType, req.BudgetAmount, req.ClientName, req.ProfileName, time.Now(),
			))
		mock.ExpectExec("UPDATE applied_jobs").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO applied_job_stage_history").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE jobs SET hired").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		hired, err := repo.MarkHired(ctx, req)
		if err != nil {
			t.Fatalf("MarkHired() unexpected error: %v", err)
		}
		if hired.AppliedJobID != appliedID {
			t.Errorf("MarkHired() applied_job_id = %v, want %v", hired.AppliedJobID, appliedID)
		}
	})

	t.Run("unique violation on insert maps to conflict", func(t *testing.T) {
		// Two concurrent hires can both pass the existence check; the
		// constraint on hired_jobs.applied_job_id catches the loser.
		req := validHireRequest()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT aj.id, aj.job_id").
			WithArgs(req.JobExternalID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "job_id"}).AddRow(appliedID, jobID))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(appliedID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery("INSERT INTO hired_jobs").
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		_, err := repo.MarkHired(ctx, req)
		if err != models.ErrAlreadyHired {
			t.Errorf("MarkHired() error = %v, want %v", err, models.ErrAlreadyHired)
		}
	})

	t.Run("existing hire returns conflict without writes", func(t *testing.T) {
		req := validHireRequest()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT aj.id, aj.job_id").
			WithArgs(req.JobExternalID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "job_id"}).AddRow(appliedID, jobID))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(appliedID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err := repo.MarkHired(ctx, req)
		if err != models.ErrAlreadyHired {
			t.Errorf("MarkHired() error = %v, want %v", err, models.ErrAlreadyHired)
		}
	})

	t.Run("unknown external id returns not found", func(t *testing.T) {
		req := validHireRequest()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT aj.id, aj.job_id").
			WithArgs(req.JobExternalID).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.MarkHired(ctx, req)
		if err != models.ErrNotFound {
			t.Errorf("MarkHired() error = %v, want %v", err, models.ErrNotFound)
		}
	})

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestJobRepository_IgnoreJob(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()
	jobID := uuid.New()
	userID := uuid.New()
	reason := "Budget too low"

	t.Run("records ignore and flags job", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM jobs").
			WithArgs("ext-9").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(jobID))
		mock.ExpectQuery("INSERT INTO ignored_jobs").
			WillReturnRows(sqlmock.NewRows(
				[]string{"id", "job_id", "user_id", "reason", "custom_reason", "created_at"},
			).AddRow(uuid.New(), jobID, userID, reason, nil, time.Now()))
		mock.ExpectExec("UPDATE jobs SET ignored").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		ignored, err := repo.IgnoreJob(ctx, "ext-9", userID, &reason, nil)
		if err != nil {
			t.Fatalf("IgnoreJob() unexpected error: %v", err)
		}
		if ignored.Reason == nil || *ignored.Reason != reason {
			t.Errorf("IgnoreJob() reason = %v, want %q", ignored.Reason, reason)
		}
	})

	t.Run("unknown job returns not found", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM jobs").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.IgnoreJob(ctx, "missing", userID, &reason, nil)
		if err != models.ErrNotFound {
			t.Errorf("IgnoreJob() error = %v, want %v", err, models.ErrNotFound)
		}
	})

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}
