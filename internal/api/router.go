// Package api exposes the HTTP surface of the bidtrack service.
package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/bidtrack/bidtrack/internal/config"
	"github.com/bidtrack/bidtrack/internal/jobs"
	"github.com/bidtrack/bidtrack/internal/logger"
	"github.com/bidtrack/bidtrack/internal/notify"
	"github.com/bidtrack/bidtrack/internal/transport"
)

// Health constants.
const (
	healthStatusHealthy  = "healthy"
	healthStatusDegraded = "degraded"
	healthCheckTimeout   = 2 * time.Second
	serviceVersion       = "1.0.0"
)

// Pinger reports database connectivity for the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router holds the API dependencies
type Router struct {
	jobs        *jobs.Service
	notify      *notify.Service
	hub         *transport.Hub // nil when the relay backend is active
	db          Pinger
	redisClient redis.UniversalClient // nil when the hub backend runs without Redis
	cfg         *config.Config
	logger      logger.Logger
}

// NewRouter creates a new API router
func NewRouter(
	jobsService *jobs.Service,
	notifyService *notify.Service,
	hub *transport.Hub,
	db Pinger,
	redisClient redis.UniversalClient,
	cfg *config.Config,
	log logger.Logger,
) *Router {
	return &Router{
		jobs:        jobsService,
		notify:      notifyService,
		hub:         hub,
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		logger:      log,
	}
}

// SetupRoutes builds the gin engine with middleware and all routes.
func (r *Router) SetupRoutes() *gin.Engine {
	if !r.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(corsMiddleware(r.cfg.Server.CORSOrigins))

	// Health check (public, no auth)
	router.GET("/health", r.healthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(r.cfg.Auth.JWTSecret))

	// Applied-job lifecycle
	appliedJobs := v1.Group("/applied-jobs")
	appliedJobs.GET("/:id", r.getAppliedJob)
	appliedJobs.GET("/:id/history", r.getStageHistory)
	appliedJobs.PUT("/:id/stage", r.setStage)

	// Hire and ignore flows
	jobsGroup := v1.Group("/jobs")
	jobsGroup.POST("/hire", r.markHired)
	jobsGroup.POST("/ignore", r.ignoreJob)

	// Notifications
	notifications := v1.Group("/notifications")
	notifications.GET("", r.listNotifications)
	notifications.POST("", RequireAdmin(), r.createNotification)
	notifications.GET("/unread-count", r.unreadCount) // More specific route before :id
	notifications.PUT("/read-all", r.markAllRead)
	notifications.PUT("/:id/read", r.markRead)
	notifications.DELETE("", r.deleteAllNotifications)
	notifications.DELETE("/:id", r.deleteNotification)

	// Live event stream (hub backend only)
	v1.GET("/events", r.streamEvents)

	return router
}

// healthCheck returns the service health status
func (r *Router) healthCheck(c *gin.Context) {
	health := gin.H{
		"status":    healthStatusHealthy,
		"service":   "bidtrack",
		"version":   serviceVersion,
		"transport": r.cfg.Transport.Backend,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	dbConnected := true
	if err := r.db.Ping(ctx); err != nil {
		dbConnected = false
		health["status"] = healthStatusDegraded
	}
	health["database"] = gin.H{"connected": dbConnected}

	if r.redisClient != nil {
		redisConnected := true
		if err := r.redisClient.Ping(ctx).Err(); err != nil {
			redisConnected = false
			if health["status"] == healthStatusHealthy {
				health["status"] = healthStatusDegraded
			}
		}
		health["redis"] = gin.H{"connected": redisConnected}
	}

	if r.hub != nil {
		health["hub"] = gin.H{"clients": r.hub.ClientCount()}
	}

	c.JSON(200, health)
}
