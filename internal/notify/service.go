// Package notify orchestrates notification persistence and delivery.
package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/bidtrack/bidtrack/internal/logger"
	"github.com/bidtrack/bidtrack/internal/metrics"
	"github.com/bidtrack/bidtrack/internal/models"
	"github.com/bidtrack/bidtrack/internal/transport"
)

// Defaults applied when a creation event omits optional fields.
const (
	defaultType    = models.NotificationGeneral
	defaultTitle   = "Notification"
	defaultMessage = "You have a new notification"
	defaultIcon    = "bell"
)

// Store is the persistence surface the service needs. Satisfied by
// database.NotificationRepository.
type Store interface {
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
	List(ctx context.Context, userID uuid.UUID, page, limit int, isRead *bool) (*models.NotificationList, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Service validates notification events, persists them, and routes the
// payload to the active transport. The store is the durable source of
// truth; transport delivery is best-effort and its failures never reach
// the caller.
type Service struct {
	store     Store
	transport transport.Transport
	metrics   metrics.Recorder
	logger    logger.Logger
}

// NewService creates a notification service.
func NewService(store Store, tr transport.Transport, recorder metrics.Recorder, log logger.Logger) *Service {
	return &Service{
		store:     store,
		transport: tr,
		metrics:   recorder,
		logger:    log,
	}
}

// Create persists a notification for its recipient and publishes the
// payload to the recipient's room under an event name matching the
// notification type.
func (s *Service) Create(ctx context.Context, req *models.CreateNotificationRequest) (*models.Notification, error) {
	if req.UserID == uuid.Nil {
		return nil, models.ErrMissingFields
	}

	n := &models.Notification{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		Priority:  req.Priority,
		Icon:      req.Icon,
		ActionURL: req.ActionURL,
		Metadata:  req.Metadata,
	}
	applyDefaults(n)

	created, err := s.store.Create(ctx, n)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementNotifications(ctx, created.Type)

	// Delivery happens strictly after the committed write and cannot
	// fail the request.
	s.publish(ctx, created)

	return created, nil
}

// applyDefaults fills safe fallbacks for omitted fields.
func applyDefaults(n *models.Notification) {
	if n.Type == "" {
		n.Type = defaultType
	}
	if n.Title == "" {
		n.Title = defaultTitle
	}
	if n.Message == "" {
		n.Message = defaultMessage
	}
	if !n.Priority.IsValid() {
		n.Priority = models.PriorityMedium
	}
	if n.Icon == "" {
		n.Icon = defaultIcon
	}
}

// publish routes the persisted notification to its recipient's room.
// Failures are logged and counted, never propagated.
func (s *Service) publish(ctx context.Context, n *models.Notification) {
	err := s.transport.PublishToUser(ctx, n.UserID, n.Type, n.EventPayload())
	if err != nil {
		s.metrics.IncrementDropped(ctx)
		s.logger.Warn("failed to publish notification",
			logger.String("notification_id", n.ID.String()),
			logger.String("type", n.Type),
			logger.Error(err),
		)
		return
	}
	s.metrics.IncrementDelivered(ctx)
}

// AnnounceToAdmins sends a transport-only copy of a persisted notification
// to the admin room. No admin-side row is written; the copy exists purely
// for live dashboards.
func (s *Service) AnnounceToAdmins(ctx context.Context, n *models.Notification) {
	err := s.transport.PublishToAdmins(ctx, n.Type, n.EventPayload())
	if err != nil {
		s.metrics.IncrementDropped(ctx)
		s.logger.Warn("failed to announce to admins",
			logger.String("notification_id", n.ID.String()),
			logger.Error(err),
		)
		return
	}
	s.metrics.IncrementDelivered(ctx)
}

// List returns a page of the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, page, limit int, isRead *bool) (*models.NotificationList, error) {
	return s.store.List(ctx, userID, page, limit, isRead)
}

// MarkRead flips is_read on a notification the user owns.
func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) (*models.Notification, error) {
	return s.store.MarkRead(ctx, id, userID)
}

// MarkAllRead flips is_read on all of the user's unread notifications.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

// Delete removes a notification the user owns.
func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return s.store.Delete(ctx, id, userID)
}

// DeleteAll removes all of the user's notifications.
func (s *Service) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.DeleteAll(ctx, userID)
}

// UnreadCount returns the user's live unread count.
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.UnreadCount(ctx, userID)
}
