package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockbooks/internal/infrastructure/storage/postgres"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	pool    *postgres.Pool
	started time.Time
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(pool *postgres.Pool, version string) *HealthHandler {
	return &HealthHandler{
		pool:    pool,
		started: time.Now(),
		version: version,
	}
}

// Live reports process liveness.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports readiness, including a database ping.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.pool.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Info reports version and uptime.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":        h.version,
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"pool":           postgres.GetPoolStats(h.pool.Unwrap()),
	})
}
