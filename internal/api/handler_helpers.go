package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bidtrack/bidtrack/internal/models"
)

// parseUUID parses a UUID from a gin.Context parameter
func parseUUID(c *gin.Context, paramName, entityType string) (uuid.UUID, bool) {
	idParam := c.Param(paramName)
	id, err := uuid.Parse(idParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + entityType + " ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}

// handleServiceError maps domain errors to HTTP responses. Transport
// failures never surface here: delivery is fire-and-forget relative to
// the business operation.
func handleServiceError(c *gin.Context, err error, operation string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	case errors.Is(err, models.ErrAlreadyHired):
		c.JSON(http.StatusConflict, gin.H{"error": "job already hired"})
	case errors.Is(err, models.ErrInvalidStage),
		errors.Is(err, models.ErrMissingFields),
		errors.Is(err, models.ErrMissingReason):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + operation})
	}
}
