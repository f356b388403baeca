package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bidtrack/bidtrack/internal/models"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// listNotifications returns a page of the caller's notifications.
// GET /api/v1/notifications?page=&limit=&is_read=
func (r *Router) listNotifications(c *gin.Context) {
	p, ok := GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	page := parseIntQuery(c, "page", defaultPage)
	limit := parseIntQuery(c, "limit", defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}

	var isRead *bool
	if raw := c.Query("is_read"); raw != "" {
		val, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_read must be a boolean"})
			return
		}
		isRead = &val
	}

	list, err := r.notify.List(c.Request.Context(), p.ID, page, limit, isRead)
	if err != nil {
		handleServiceError(c, err, "list notifications")
		return
	}

	c.JSON(http.StatusOK, list)
}

// createNotification persists and delivers a notification. Admin only;
// the lifecycle flows create theirs internally.
// POST /api/v1/notifications
func (r *Router) createNotification(c *gin.Context) {
	var req models.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := r.notify.Create(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err, "create notification")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// markRead flips is_read on one of the caller's notifications.
// PUT /api/v1/notifications/:id/read
func (r *Router) markRead(c *gin.Context) {
	p, ok := GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	id, ok := parseUUID(c, "id", "notification")
	if !ok {
		return
	}

	n, err := r.notify.MarkRead(c.Request.Context(), id, p.ID)
	if err != nil {
		handleServiceError(c, err, "mark notification read")
		return
	}

	c.JSON(http.StatusOK, n)
}

// markAllRead flips is_read on all of the caller's unread notifications.
// PUT /api/v1/notifications/read-all
func (r *Router) markAllRead(c *gin.Context) {
	p, ok := GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	updated, err := r.notify.MarkAllRead(c.Request.Context(), p.ID)
	if err != nil {
		handleServiceError(c, err, "mark all read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated_count": updated})
}

// deleteNotification removes one of the caller's notifications.
// DELETE /api/v1/notifications/:id
func (r *Router) deleteNotification(c *gin.Context) {
	p, ok := GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	id, ok := parseUUID(c, "id", "notification")
	if !ok {
		return
	}

	if err := r.notify.Delete(c.Request.Context(), id, p.ID); err != nil {
		handleServiceError(c, err, "delete notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// deleteAllNotifications removes all of the caller's notifications.
// DELETE /api/v1/notifications
func (r *Router) deleteAllNotifications(c *gin.Context) {
	p, ok := GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	deleted, err := r.notify.DeleteAll(c.Request.Context(), p.ID)
	if err != nil {
		handleServiceError(c, err, "delete notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted_count": deleted})
}

// unreadCount returns the caller's live unread badge count.
// GET /api/v1/notifications/unread-count
func (r *Router) unreadCount(c *gin.Context) {
	p, ok := GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	count, err := r.notify.UnreadCount(c.Request.Context(), p.ID)
	if err != nil {
		handleServiceError(c, err, "count unread notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// parseIntQuery parses a positive integer query parameter with a fallback.
func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 1 {
		return fallback
	}
	return val
}
