package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bidtrack/bidtrack/internal/logger"
	"github.com/bidtrack/bidtrack/internal/transport"
)

const heartbeatInterval = 15 * time.Second

// streamEvents is the live event stream for the hub backend. The caller
// joins its own room, admins additionally join the admin room, and every
// session joins the broadcast room. When the relay backend is active this
// endpoint does not exist: clients subscribe to the relay directly.
// GET /api/v1/events
func (r *Router) streamEvents(c *gin.Context) {
	if r.hub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "live events are served by the relay on this deployment"})
		return
	}

	p, ok := GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	rooms := []string{transport.UserRoom(p.ID), transport.BroadcastRoom}
	if p.IsAdmin() {
		rooms = append(rooms, transport.AdminRoom)
	}

	setSSEHeaders(c.Writer)
	c.Writer.Flush()

	events, cleanup := r.hub.Subscribe(c.Request.Context(), rooms...)
	defer cleanup()

	if err := writeSSE(c.Writer, "connected", map[string]any{
		"rooms":     rooms,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		r.logger.Error("failed to write connection event", logger.Error(err))
		return
	}
	c.Writer.Flush()

	r.logger.Debug("event stream connected",
		logger.String("user_id", p.ID.String()),
		logger.String("remote_addr", c.ClientIP()),
	)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case event, open := <-events:
			if !open {
				return
			}
			if err := writeSSE(c.Writer, event.Name, event.Data); err != nil {
				r.logger.Debug("event stream write failed", logger.Error(err))
				return
			}
			c.Writer.Flush()

		case <-heartbeat.C:
			if _, err := fmt.Fprint(c.Writer, ": heartbeat\n\n"); err != nil {
				return
			}
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}

// setSSEHeaders sets the standard SSE headers.
func setSSEHeaders(w gin.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// writeSSE writes one event in wire format: event: <name>\ndata: <json>\n\n
func writeSSE(w gin.ResponseWriter, name string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
	return err
}
