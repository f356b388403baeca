package models

import (
	"time"

	"github.com/google/uuid"
)

// Job represents a scraped or manually entered job posting.
// The Ignored and Hired booleans are denormalized aggregates kept in sync
// by the lifecycle flows; they are always written as idempotent sets.
type Job struct {
	ID         uuid.UUID `db:"id"          json:"id"`
	ExternalID string    `db:"external_id" json:"external_id"`
	Title      string    `db:"title"       json:"title"`
	Client     string    `db:"client"      json:"client"`
	URL        string    `db:"url"         json:"url"`
	Ignored    bool      `db:"ignored"     json:"ignored"`
	Hired      bool      `db:"hired"       json:"hired"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"  json:"updated_at"`
}

// AppliedJob is one application attempt for a (user, job) pair.
// Stage-specific date/notes columns are populated when the corresponding
// stage is reached and are deliberately not cleared on re-transition; the
// stage history table carries the authoritative transition log.
type AppliedJob struct {
	ID     uuid.UUID  `db:"id"      json:"id"`
	UserID uuid.UUID  `db:"user_id" json:"user_id"`
	JobID  *uuid.UUID `db:"job_id"  json:"job_id,omitempty"`

	Stage Stage `db:"stage" json:"stage"`

	RepliedDate    *time.Time `db:"replied_date"    json:"replied_date,omitempty"`
	RepliedNotes   *string    `db:"replied_notes"   json:"replied_notes,omitempty"`
	InterviewDate  *time.Time `db:"interview_date"  json:"interview_date,omitempty"`
	InterviewNotes *string    `db:"interview_notes" json:"interview_notes,omitempty"`
	NotHiredDate   *time.Time `db:"not_hired_date"  json:"not_hired_date,omitempty"`
	NotHiredNotes  *string    `db:"not_hired_notes" json:"not_hired_notes,omitempty"`
	HiredDate      *time.Time `db:"hired_date"      json:"hired_date,omitempty"`

	// Manual-entry fields, used when no scraped job row exists.
	ManualTitle  *string `db:"manual_title"  json:"manual_title,omitempty"`
	ManualClient *string `db:"manual_client" json:"manual_client,omitempty"`
	ManualURL    *string `db:"manual_url"    json:"manual_url,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StageHistoryEntry is one append-only record of a stage transition.
type StageHistoryEntry struct {
	ID           uuid.UUID `db:"id"             json:"id"`
	AppliedJobID uuid.UUID `db:"applied_job_id" json:"applied_job_id"`
	Stage        Stage     `db:"stage"          json:"stage"`
	EffectiveAt  time.Time `db:"effective_at"   json:"effective_at"`
	Notes        *string   `db:"notes"          json:"notes,omitempty"`
	CreatedAt    time.Time `db:"created_at"     json:"created_at"`
}

// HiredJob is the append-only record created exactly once per applied job
// that reaches the hired stage. Uniqueness is enforced at the database
// level on applied_job_id.
type HiredJob struct {
	ID           uuid.UUID `db:"id"             json:"id"`
	AppliedJobID uuid.UUID `db:"applied_job_id" json:"applied_job_id"`
	BidderID     uuid.UUID `db:"bidder_id"      json:"bidder_id"`
	DeveloperID  uuid.UUID `db:"developer_id"   json:"developer_id"`
	HiredAt      time.Time `db:"hired_at"       json:"hired_at"`
	BudgetType   string    `db:"budget_type"    json:"budget_type"`
	BudgetAmount float64   `db:"budget_amount"  json:"budget_amount"`
	ClientName   string    `db:"client_name"    json:"client_name"`
	ProfileName  string    `db:"profile_name"   json:"profile_name"`
	CreatedAt    time.Time `db:"created_at"     json:"created_at"`
}

// IgnoredJob is the append-only record created when a user ignores a job.
type IgnoredJob struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	JobID        uuid.UUID `db:"job_id"        json:"job_id"`
	UserID       uuid.UUID `db:"user_id"       json:"user_id"`
	Reason       *string   `db:"reason"        json:"reason,omitempty"`
	CustomReason *string   `db:"custom_reason" json:"custom_reason,omitempty"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
}

// SetStageRequest carries a stage transition.
type SetStageRequest struct {
	Stage Stage      `json:"stage" binding:"required"`
	Date  *time.Time `json:"date,omitempty"`
	Notes *string    `json:"notes,omitempty"`
}

// MarkHiredRequest carries the fields required by the hire transition.
type MarkHiredRequest struct {
	JobExternalID string     `json:"job_external_id"`
	BidderID      uuid.UUID  `json:"bidder_id"`
	DeveloperID   uuid.UUID  `json:"developer_id"`
	HiredAt       time.Time  `json:"hired_at"`
	BudgetType    string     `json:"budget_type"`
	BudgetAmount  float64    `json:"budget_amount"`
	ClientName    string     `json:"client_name"`
	ProfileName   string     `json:"profile_name"`
	HiredDate     *time.Time `json:"hired_date,omitempty"`
}

// Validate checks that every required hire field is present.
func (r *MarkHiredRequest) Validate() error {
	switch {
	case r.JobExternalID == "",
		r.BidderID == uuid.Nil,
		r.DeveloperID == uuid.Nil,
		r.HiredAt.IsZero(),
		r.BudgetType == "",
		r.BudgetAmount <= 0,
		r.ClientName == "",
		r.ProfileName == "":
		return ErrMissingFields
	}
	return nil
}

// IgnoreJobRequest carries an ignore action.
type IgnoreJobRequest struct {
	JobExternalID string  `json:"job_external_id"`
	Reason        *string `json:"reason,omitempty"`
	CustomReason  *string `json:"custom_reason,omitempty"`
}

// Validate checks that at least one reason field is present.
func (r *IgnoreJobRequest) Validate() error {
	if (r.Reason == nil || *r.Reason == "") && (r.CustomReason == nil || *r.CustomReason == "") {
		return ErrMissingReason
	}
	return nil
}
