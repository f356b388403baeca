package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bidtrack/bidtrack/internal/models"
)

// appliedJobSelectList is the column list for SELECT/RETURNING on
// applied_jobs (single source for schema changes)
const appliedJobSelectList = `id, user_id, job_id, stage,
			replied_date, replied_notes, interview_date, interview_notes,
			not_hired_date, not_hired_notes, hired_date,
			manual_title, manual_client, manual_url,
			created_at, updated_at`

const uniqueViolation = "23505"

// JobRepository provides database operations for jobs and their
// application lifecycle.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository creates a new repository instance
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Ping verifies database connectivity
func (r *JobRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// GetAppliedJob retrieves an applied job by ID
func (r *JobRepository) GetAppliedJob(ctx context.Context, id uuid.UUID) (*models.AppliedJob, error) {
	job := &models.AppliedJob{}
	query := `SELECT ` + appliedJobSelectList + ` FROM applied_jobs WHERE id = $1`

	err := r.db.GetContext(ctx, job, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get applied job: %w", err)
	}

	return job, nil
}

// GetJobByExternalID retrieves a job by its external identifier
func (r *JobRepository) GetJobByExternalID(ctx context.Context, externalID string) (*models.Job, error) {
	job := &models.Job{}
	query := `
		SELECT id, external_id, title, client, url, ignored, hired, created_at, updated_at
		FROM jobs
		WHERE external_id = $1
	`

	err := r.db.GetContext(ctx, job, query, externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

// stageColumns returns the stage-specific date and notes columns written
// when an applied job enters the given stage. The applied stage has none.
func stageColumns(stage models.Stage) (dateCol, notesCol string) {
	switch stage {
	case models.StageReplied:
		return "replied_date", "replied_notes"
	case models.StageInterview:
		return "interview_date", "interview_notes"
	case models.StageNotHired:
		return "not_hired_date", "not_hired_notes"
	case models.StageHired:
		return "hired_date", ""
	default:
		return "", ""
	}
}

// SetStage persists a stage transition and appends a history entry.
// Columns belonging to superseded stages are left untouched; the history
// table is the authoritative transition log. Returns the updated row and
// whether the stage actually changed.
func (r *JobRepository) SetStage(
	ctx context.Context,
	id uuid.UUID,
	stage models.Stage,
	effectiveAt time.Time,
	notes *string,
) (*models.AppliedJob, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin set stage: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current models.Stage
	err = tx.GetContext(ctx, &current,
		`SELECT stage FROM applied_jobs WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, models.ErrNotFound
		}
		return nil, false, fmt.Errorf("lock applied job: %w", err)
	}

	job := &models.AppliedJob{}
	dateCol, notesCol := stageColumns(stage)

	switch {
	case dateCol != "" && notesCol != "":
		query := `UPDATE applied_jobs
			SET stage = $2, ` + dateCol + ` = $3, ` + notesCol + ` = $4, updated_at = NOW()
			WHERE id = $1
			RETURNING ` + appliedJobSelectList
		err = tx.QueryRowxContext(ctx, query, id, stage, effectiveAt, notes).StructScan(job)
	case dateCol != "":
		query := `UPDATE applied_jobs
			SET stage = $2, ` + dateCol + ` = $3, updated_at = NOW()
			WHERE id = $1
			RETURNING ` + appliedJobSelectList
		err = tx.QueryRowxContext(ctx, query, id, stage, effectiveAt).StructScan(job)
	default:
		query := `UPDATE applied_jobs
			SET stage = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING ` + appliedJobSelectList
		err = tx.QueryRowxContext(ctx, query, id, stage).StructScan(job)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to set stage: %w", err)
	}

	if histErr := insertStageHistory(ctx, tx, id, stage, effectiveAt, notes); histErr != nil {
		return nil, false, histErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, false, fmt.Errorf("commit set stage: %w", commitErr)
	}

	return job, current != stage, nil
}

// insertStageHistory appends one transition record inside the given tx
func insertStageHistory(
	ctx context.Context,
	tx *sqlx.Tx,
	appliedJobID uuid.UUID,
	stage models.Stage,
	effectiveAt time.Time,
	notes *string,
) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO applied_job_stage_history (id, applied_job_id, stage, effective_at, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		uuid.New(), appliedJobID, stage, effectiveAt, notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert stage history: %w", err)
	}
	return nil
}

// ListStageHistory returns the append-only transition log for an applied job
func (r *JobRepository) ListStageHistory(ctx context.Context, appliedJobID uuid.UUID) ([]models.StageHistoryEntry, error) {
	entries := []models.StageHistoryEntry{}
	query := `
		SELECT id, applied_job_id, stage, effective_at, notes, created_at
		FROM applied_job_stage_history
		WHERE applied_job_id = $1
		ORDER BY created_at ASC
	`

	err := r.db.SelectContext(ctx, &entries, query, appliedJobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stage history: %w", err)
	}

	return entries, nil
}

// MarkHired performs the hire transition as one transaction: the hired
// record insert, the applied-job stage update, its history entry, and the
// job aggregate flag. The UNIQUE constraint on hired_jobs.applied_job_id
// is the authoritative duplicate guard; the pre-insert existence check
// only gives a clean conflict error without aborting the transaction.
func (r *JobRepository) MarkHired(ctx context.Context, req *models.MarkHiredRequest) (*models.HiredJob, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin mark hired: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var applied struct {
		ID    uuid.UUID  `db:"id"`
		JobID *uuid.UUID `db:"job_id"`
	}
	err = tx.GetContext(ctx, &applied, `
		SELECT aj.id, aj.job_id
		FROM applied_jobs aj
		JOIN jobs j ON aj.job_id = j.id
		WHERE j.external_id = $1
		FOR UPDATE OF aj`,
		req.JobExternalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("resolve applied job: %w", err)
	}

	var exists bool
	err = tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM hired_jobs WHERE applied_job_id = $1)`, applied.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing hire: %w", err)
	}
	if exists {
		return nil, models.ErrAlreadyHired
	}

	hiredDate := req.HiredAt
	if req.HiredDate != nil {
		hiredDate = *req.HiredDate
	}

	hired := &models.HiredJob{}
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO hired_jobs (id, applied_job_id, bidder_id, developer_id, hired_at,
			budget_type, budget_amount, client_name, profile_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, applied_job_id, bidder_id, developer_id, hired_at,
			budget_type, budget_amount, client_name, profile_name, created_at`,
		uuid.New(), applied.ID, req.BidderID, req.DeveloperID, req.HiredAt,
		req.BudgetType, req.BudgetAmount, req.ClientName, req.ProfileName,
	).StructScan(hired)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, models.ErrAlreadyHired
		}
		return nil, fmt.Errorf("failed to create hired job: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE applied_jobs
		SET stage = $2, hired_date = $3, updated_at = NOW()
		WHERE id = $1`,
		applied.ID, models.StageHired, hiredDate)
	if err != nil {
		return nil, fmt.Errorf("failed to update applied job: %w", err)
	}

	if histErr := insertStageHistory(ctx, tx, applied.ID, models.StageHired, hiredDate, nil); histErr != nil {
		return nil, histErr
	}

	// Idempotent set, never read-modify-write
	_, err = tx.ExecContext(ctx,
		`UPDATE jobs SET hired = TRUE, updated_at = NOW() WHERE id = $1`, applied.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to flag job hired: %w", err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, fmt.Errorf("commit mark hired: %w", commitErr)
	}

	return hired, nil
}

// IgnoreJob records an ignore and sets the job's aggregate flag in one
// transaction.
func (r *JobRepository) IgnoreJob(
	ctx context.Context,
	jobExternalID string,
	userID uuid.UUID,
	reason, customReason *string,
) (*models.IgnoredJob, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin ignore job: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var jobID uuid.UUID
	err = tx.GetContext(ctx, &jobID,
		`SELECT id FROM jobs WHERE external_id = $1`, jobExternalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("resolve job: %w", err)
	}

	ignored := &models.IgnoredJob{}
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO ignored_jobs (id, job_id, user_id, reason, custom_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, job_id, user_id, reason, custom_reason, created_at`,
		uuid.New(), jobID, userID, reason, customReason,
	).StructScan(ignored)
	if err != nil {
		return nil, fmt.Errorf("failed to create ignored job: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE jobs SET ignored = TRUE, updated_at = NOW() WHERE id = $1`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to flag job ignored: %w", err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, fmt.Errorf("commit ignore job: %w", commitErr)
	}

	return ignored, nil
}
