package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/notifyhub/notifyhub/internal/httpapi/response"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// HealthHandler serves liveness and per-dependency readiness checks,
// grounded in infrastructure/gateway/shared/service/health.go's
// checkDatabase pattern, extended to ping redis. Kafka is listed with its
// configured brokers but is not probed.
type HealthHandler struct {
	db      *gorm.DB
	redis   *redis.Client
	brokers []string
}

// NewHealthHandler builds a HealthHandler.
func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, brokers []string) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, brokers: brokers}
}

// Liveness handles GET /health: a quick "process is up" check with no
// dependency calls.
func (h *HealthHandler) Liveness(c *gin.Context) {
	response.OK(c, gin.H{"status": "ok"})
}

// Detailed handles GET /health/detailed: per-dependency status.
func (h *HealthHandler) Detailed(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if err := h.checkDatabase(); err != nil {
		checks["database"] = gin.H{"status": "unhealthy", "error": err.Error()}
		healthy = false
	} else {
		checks["database"] = gin.H{"status": "healthy"}
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = gin.H{"status": "unhealthy", "error": err.Error()}
		healthy = false
	} else {
		checks["redis"] = gin.H{"status": "healthy"}
	}

	checks["kafka"] = gin.H{"status": "configured", "brokers": h.brokers}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response.Envelope{
		Success:   healthy,
		Data:      gin.H{"checks": checks},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) checkDatabase() error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
