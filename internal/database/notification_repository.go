package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bidtrack/bidtrack/internal/models"
)

// notificationSelectList is the column list for SELECT/RETURNING on
// notifications (single source for schema changes)
const notificationSelectList = `id, user_id, type, title, message, priority,
			icon, action_url, metadata, is_read, created_at`

// NotificationRepository provides database operations for notifications.
// Every read and mutation is scoped to the owning user; a row touched with
// the wrong user is indistinguishable from a missing one.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new repository instance
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create persists a notification row
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	created := &models.Notification{}
	query := `
		INSERT INTO notifications (id, user_id, type, title, message, priority,
			icon, action_url, metadata, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, NOW())
		RETURNING ` + notificationSelectList

	err := r.db.QueryRowxContext(
		ctx, query,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.Priority,
		n.Icon, n.ActionURL, n.Metadata,
	).StructScan(created)

	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return created, nil
}

// List retrieves a page of a user's notifications, newest first, optionally
// filtered by read state. Total and unread counts come from the same scope
// so the badge can never diverge from the page.
func (r *NotificationRepository) List(
	ctx context.Context,
	userID uuid.UUID,
	page, limit int,
	isRead *bool,
) (*models.NotificationList, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	offset := (page - 1) * limit

	items := []models.Notification{}
	var err error
	if isRead != nil {
		query := `SELECT ` + notificationSelectList + `
			FROM notifications
			WHERE user_id = $1 AND is_read = $2
			ORDER BY created_at DESC
			LIMIT $3 OFFSET $4`
		err = r.db.SelectContext(ctx, &items, query, userID, *isRead, limit, offset)
	} else {
		query := `SELECT ` + notificationSelectList + `
			FROM notifications
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3`
		err = r.db.SelectContext(ctx, &items, query, userID, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	var total, unread int64
	countQuery := `
		SELECT
			COUNT(*) FILTER (WHERE ($2::boolean IS NULL) OR is_read = $2) AS total,
			COUNT(*) FILTER (WHERE is_read = FALSE) AS unread
		FROM notifications
		WHERE user_id = $1`
	err = r.db.QueryRowxContext(ctx, countQuery, userID, isRead).Scan(&total, &unread)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	return &models.NotificationList{Items: items, Total: total, Unread: unread}, nil
}

const defaultPageSize = 20

// MarkRead sets is_read for a notification owned by the given user.
// Returns ErrNotFound when the row is absent or owned by someone else.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) (*models.Notification, error) {
	n := &models.Notification{}
	query := `
		UPDATE notifications
		SET is_read = TRUE
		WHERE id = $1 AND user_id = $2
		RETURNING ` + notificationSelectList

	err := r.db.QueryRowxContext(ctx, query, id, userID).StructScan(n)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}

	return n, nil
}

// MarkAllRead flips is_read for all of a user's unread notifications.
// Idempotent; returns the number of rows updated.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`,
		userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all read: %w", err)
	}

	return result.RowsAffected()
}

// Delete removes a notification owned by the given user
func (r *NotificationRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// DeleteAll removes all of a user's notifications and returns the count
func (r *NotificationRepository) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}

	return result.RowsAffected()
}

// UnreadCount returns the user's live unread count. Computed from the same
// rows List counts; no separate counter is maintained.
func (r *NotificationRepository) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRowxContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`,
		userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}

	return count, nil
}
