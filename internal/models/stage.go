// Package models contains the core domain entities for the bidtrack service.
package models

// Stage represents one value of the applied-job lifecycle enumeration.
type Stage string

const (
	StageApplied   Stage = "applied"
	StageReplied   Stage = "replied"
	StageInterview Stage = "interview"
	StageHired     Stage = "hired"
	StageNotHired  Stage = "not-hired"
)

// IsValid reports whether s is a defined lifecycle stage.
func (s Stage) IsValid() bool {
	switch s {
	case StageApplied, StageReplied, StageInterview, StageHired, StageNotHired:
		return true
	}
	return false
}

// IsTerminal reports whether s ends the lifecycle.
func (s Stage) IsTerminal() bool {
	return s == StageHired || s == StageNotHired
}

// NotificationType returns the notification type tag emitted when an
// applied job enters this stage.
func (s Stage) NotificationType() string {
	return "job-" + string(s)
}
