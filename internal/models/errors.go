package models

import "errors"

// Common errors
var (
	// ErrNotFound is returned when a resource is not found or is not
	// owned by the requesting user.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidStage is returned when a stage transition names a stage
	// outside the lifecycle enumeration.
	ErrInvalidStage = errors.New("invalid stage")

	// ErrMissingFields is returned when a request omits required fields.
	ErrMissingFields = errors.New("missing required fields")

	// ErrAlreadyHired is returned when a hire is attempted for a job that
	// already has a hired record.
	ErrAlreadyHired = errors.New("job already hired")

	// ErrMissingReason is returned when an ignore request carries neither
	// a reason code nor a custom reason.
	ErrMissingReason = errors.New("ignore reason is required")
)
