// Package jobs implements the application lifecycle state machine, hire
// reconciliation, and the ignore flow.
package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bidtrack/bidtrack/internal/logger"
	"github.com/bidtrack/bidtrack/internal/metrics"
	"github.com/bidtrack/bidtrack/internal/models"
)

// Repository is the persistence surface the service needs. Satisfied by
// database.JobRepository.
type Repository interface {
	GetAppliedJob(ctx context.Context, id uuid.UUID) (*models.AppliedJob, error)
	SetStage(ctx context.Context, id uuid.UUID, stage models.Stage, effectiveAt time.Time, notes *string) (*models.AppliedJob, bool, error)
	ListStageHistory(ctx context.Context, appliedJobID uuid.UUID) ([]models.StageHistoryEntry, error)
	MarkHired(ctx context.Context, req *models.MarkHiredRequest) (*models.HiredJob, error)
	IgnoreJob(ctx context.Context, jobExternalID string, userID uuid.UUID, reason, customReason *string) (*models.IgnoredJob, error)
}

// Notifier is the notification surface the service emits into. Satisfied
// by notify.Service.
type Notifier interface {
	Create(ctx context.Context, req *models.CreateNotificationRequest) (*models.Notification, error)
	AnnounceToAdmins(ctx context.Context, n *models.Notification)
}

// Service governs stage transitions and their side effects. The database
// commit is authoritative: a transition that committed stays committed
// even when the follow-up notification cannot be created or delivered.
type Service struct {
	repo     Repository
	notifier Notifier
	metrics  metrics.Recorder
	logger   logger.Logger
}

// NewService creates a job lifecycle service.
func NewService(repo Repository, notifier Notifier, recorder metrics.Recorder, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		metrics:  recorder,
		logger:   log,
	}
}

// SetStage advances an applied job to the target stage. The effective
// date defaults to now. Iff the stage actually changed, exactly one
// notification tagged with the new stage goes to the owning user.
func (s *Service) SetStage(ctx context.Context, appliedJobID uuid.UUID, req *models.SetStageRequest) (*models.AppliedJob, error) {
	if !req.Stage.IsValid() {
		return nil, models.ErrInvalidStage
	}

	effectiveAt := time.Now().UTC()
	if req.Date != nil {
		effectiveAt = *req.Date
	}

	job, changed, err := s.repo.SetStage(ctx, appliedJobID, req.Stage, effectiveAt, req.Notes)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementTransitions(ctx, string(req.Stage))

	if changed {
		s.emitStageNotification(ctx, job, req.Stage, effectiveAt)
	}

	return job, nil
}

// emitStageNotification creates the transition notification for the
// owning user. Failures are logged; the committed transition stands.
func (s *Service) emitStageNotification(ctx context.Context, job *models.AppliedJob, stage models.Stage, effectiveAt time.Time) {
	title, message := stageNotificationContent(stage)

	_, err := s.notifier.Create(ctx, &models.CreateNotificationRequest{
		UserID:   job.UserID,
		Type:     stage.NotificationType(),
		Title:    title,
		Message:  message,
		Priority: stagePriority(stage),
		Metadata: models.Metadata{
			"applied_job_id": job.ID.String(),
			"stage":          string(stage),
			"effective_at":   effectiveAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		s.logger.Error("failed to create stage notification",
			logger.String("applied_job_id", job.ID.String()),
			logger.String("stage", string(stage)),
			logger.Error(err),
		)
	}
}

func stageNotificationContent(stage models.Stage) (title, message string) {
	switch stage {
	case models.StageReplied:
		return "Client replied", "A client replied to one of your applications"
	case models.StageInterview:
		return "Interview scheduled", "One of your applications moved to the interview stage"
	case models.StageNotHired:
		return "Application closed", "One of your applications was closed without a hire"
	case models.StageHired:
		return "You were hired", "Congratulations, one of your applications reached the hired stage"
	default:
		return "Application updated", "One of your applications changed stage"
	}
}

func stagePriority(stage models.Stage) models.Priority {
	switch stage {
	case models.StageHired:
		return models.PriorityHigh
	case models.StageNotHired:
		return models.PriorityLow
	default:
		return models.PriorityMedium
	}
}

// GetAppliedJob returns an applied job by ID.
func (s *Service) GetAppliedJob(ctx context.Context, id uuid.UUID) (*models.AppliedJob, error) {
	return s.repo.GetAppliedJob(ctx, id)
}

// ListStageHistory returns the append-only transition log for an applied job.
func (s *Service) ListStageHistory(ctx context.Context, appliedJobID uuid.UUID) ([]models.StageHistoryEntry, error) {
	return s.repo.ListStageHistory(ctx, appliedJobID)
}

// MarkHired performs the hire transition. Validation happens before any
// write; the repository runs the whole sequence in one transaction with
// the unique constraint as the duplicate guard. On success the bidder
// gets a job-hired notification and the admin room a live copy.
func (s *Service) MarkHired(ctx context.Context, req *models.MarkHiredRequest) (*models.HiredJob, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hired, err := s.repo.MarkHired(ctx, req)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementTransitions(ctx, string(models.StageHired))

	n, notifyErr := s.notifier.Create(ctx, &models.CreateNotificationRequest{
		UserID:   req.BidderID,
		Type:     models.NotificationJobHired,
		Title:    "Job hired",
		Message:  "Your bid for " + req.ClientName + " was hired",
		Priority: models.PriorityHigh,
		Metadata: models.Metadata{
			"hired_job_id":    hired.ID.String(),
			"job_external_id": req.JobExternalID,
			"budget_type":     req.BudgetType,
			"budget_amount":   req.BudgetAmount,
		},
	})
	if notifyErr != nil {
		s.logger.Error("failed to create hire notification",
			logger.String("hired_job_id", hired.ID.String()),
			logger.Error(notifyErr),
		)
		return hired, nil
	}
	s.notifier.AnnounceToAdmins(ctx, n)

	return hired, nil
}

// IgnoreJob records an ignore for the given user. A reason code or a
// custom reason is required.
func (s *Service) IgnoreJob(ctx context.Context, req *models.IgnoreJobRequest, userID uuid.UUID) (*models.IgnoredJob, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.JobExternalID == "" {
		return nil, models.ErrMissingFields
	}

	return s.repo.IgnoreJob(ctx, req.JobExternalID, userID, req.Reason, req.CustomReason)
}
