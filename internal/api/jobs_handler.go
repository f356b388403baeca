package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bidtrack/bidtrack/internal/models"
)

// setStage advances an applied job through the lifecycle.
// PUT /api/v1/applied-jobs/:id/stage
func (r *Router) setStage(c *gin.Context) {
	id, ok := parseUUID(c, "id", "applied job")
	if !ok {
		return
	}

	var req models.SetStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stage is required"})
		return
	}

	job, err := r.jobs.SetStage(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err, "set stage")
		return
	}

	c.JSON(http.StatusOK, job)
}

// getAppliedJob returns a single applied job.
// GET /api/v1/applied-jobs/:id
func (r *Router) getAppliedJob(c *gin.Context) {
	id, ok := parseUUID(c, "id", "applied job")
	if !ok {
		return
	}

	job, err := r.jobs.GetAppliedJob(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "get applied job")
		return
	}

	c.JSON(http.StatusOK, job)
}

// getStageHistory returns the transition log for an applied job.
// GET /api/v1/applied-jobs/:id/history
func (r *Router) getStageHistory(c *gin.Context) {
	id, ok := parseUUID(c, "id", "applied job")
	if !ok {
		return
	}

	history, err := r.jobs.ListStageHistory(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "list stage history")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": history})
}

// markHired performs the hire transition.
// POST /api/v1/jobs/hire
func (r *Router) markHired(c *gin.Context) {
	var req models.MarkHiredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// The caller is the bidder unless the request names one explicitly.
	if req.BidderID == uuid.Nil {
		if p, ok := GetPrincipal(c); ok {
			req.BidderID = p.ID
		}
	}

	hired, err := r.jobs.MarkHired(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err, "mark hired")
		return
	}

	c.JSON(http.StatusCreated, hired)
}

// ignoreJob records an ignore for the calling user.
// POST /api/v1/jobs/ignore
func (r *Router) ignoreJob(c *gin.Context) {
	p, ok := GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req models.IgnoreJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ignored, err := r.jobs.IgnoreJob(c.Request.Context(), &req, p.ID)
	if err != nil {
		handleServiceError(c, err, "ignore job")
		return
	}

	c.JSON(http.StatusCreated, ignored)
}
