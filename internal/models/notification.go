package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Priority is the urgency level of a notification.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid reports whether p is a defined priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Notification types emitted by the lifecycle flows.
const (
	NotificationJobReplied   = "job-replied"
	NotificationJobInterview = "job-interview"
	NotificationJobNotHired  = "job-not-hired"
	NotificationJobHired     = "job-hired"
	NotificationUserBlocked  = "user-blocked"
	NotificationGeneral      = "general"
)

// Metadata is an optional structured payload attached to a notification,
// stored as JSONB.
type Metadata map[string]any

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("metadata: unsupported scan type %T", src)
	}
	return json.Unmarshal(b, m)
}

// Notification belongs to exactly one recipient user. Content is immutable
// after creation; only IsRead is mutated.
type Notification struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	UserID    uuid.UUID `db:"user_id"    json:"user_id"`
	Type      string    `db:"type"       json:"type"`
	Title     string    `db:"title"      json:"title"`
	Message   string    `db:"message"    json:"message"`
	Priority  Priority  `db:"priority"   json:"priority"`
	Icon      string    `db:"icon"       json:"icon"`
	ActionURL *string   `db:"action_url" json:"action_url,omitempty"`
	Metadata  Metadata  `db:"metadata"   json:"metadata,omitempty"`
	IsRead    bool      `db:"is_read"    json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// EventPayload is the shape published over the transport for this
// notification, emitted under an event name matching Type.
func (n *Notification) EventPayload() map[string]any {
	payload := map[string]any{
		"type":      n.Type,
		"title":     n.Title,
		"message":   n.Message,
		"priority":  n.Priority,
		"icon":      n.Icon,
		"createdAt": n.CreatedAt.UTC().Format(time.RFC3339),
	}
	if n.ActionURL != nil {
		payload["actionUrl"] = *n.ActionURL
	}
	if n.Metadata != nil {
		payload["metadata"] = map[string]any(n.Metadata)
	}
	return payload
}

// CreateNotificationRequest carries a notification creation event.
// Type, title, message, priority and icon fall back to safe defaults
// when omitted.
type CreateNotificationRequest struct {
	UserID    uuid.UUID `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Priority  Priority  `json:"priority,omitempty"`
	Icon      string    `json:"icon,omitempty"`
	ActionURL *string   `json:"action_url,omitempty"`
	Metadata  Metadata  `json:"metadata,omitempty"`
}

// NotificationList is a page of notifications plus the caller's counts.
type NotificationList struct {
	Items  []Notification `json:"items"`
	Total  int64          `json:"total"`
	Unread int64          `json:"unread"`
}
