package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/notifyhub/notifyhub/internal/config"
	"go.uber.org/zap"
)

// Handlers bundles every resource handler routes.go wires onto the router.
type Handlers struct {
	Notifications *NotificationsHandler
	Templates     *TemplatesHandler
	Users         *UsersHandler
	Health        *HealthHandler
}

// NewRouter builds the gin engine with every route from SPEC_FULL.md §6.
func NewRouter(cfg *config.Config, log *zap.Logger, h Handlers) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(CORS(cfg.Server.CORS))

	r.GET("/health", h.Health.Liveness)
	r.GET("/health/detailed", h.Health.Detailed)

	r.POST("/notifications", h.Notifications.Submit)
	r.POST("/notifications/bulk", h.Notifications.Bulk)
	r.GET("/notifications/:id", h.Notifications.Get)
	r.GET("/notifications/user/:user_id", h.Notifications.ListForUser)

	r.POST("/templates", h.Templates.Create)
	r.GET("/templates", h.Templates.List)
	r.GET("/templates/:id", h.Templates.Get)
	r.PUT("/templates/:id", h.Templates.Update)
	r.DELETE("/templates/:id", h.Templates.Delete)

	r.GET("/users/:id", h.Users.GetByID)
	r.GET("/users/email/:email", h.Users.GetByEmail)
	r.GET("/users/phone/:phone", h.Users.GetByPhone)

	return r
}
