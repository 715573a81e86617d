package server

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"notes-upload/internal/shared/config"
	"notes-upload/internal/shared/metrics"
	"notes-upload/internal/shared/server/middleware"
	"notes-upload/internal/shared/server/respond"
	"notes-upload/internal/shared/storage/db"
	"notes-upload/internal/uploads"
)

// RouterDeps are the handlers mounted by NewRouter.
type RouterDeps struct {
	Config         config.Config
	UploadsHandler *uploads.Handler
	Metrics        *metrics.Recorder
	Limiter        *middleware.RateLimiter
	// DB is nil when drafts are kept in memory.
	DB *sql.DB
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	if deps.Metrics != nil {
		r.GET("/metrics", deps.Metrics.Handler())
	}

	api := r.Group("/api/v1")
	api.GET("/health", health(deps.DB))

	authed := api.Group("")
	authed.Use(
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    middleware.DefaultRateLimitRules(),
			GroupFor: rateLimitGroup,
			Limiter:  deps.Limiter,
		}),
	)
	if deps.UploadsHandler != nil {
		deps.UploadsHandler.RegisterRoutes(authed)
	}

	return r
}

func health(database *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if database == nil {
			respond.OK(c, gin.H{"ok": true, "db": "memory"})
			return
		}
		if err := db.Ping(c.Request.Context(), database); err != nil {
			respond.JSON(c, http.StatusServiceUnavailable, gin.H{"ok": false, "db": "down"})
			return
		}
		respond.OK(c, gin.H{"ok": true, "db": "up"})
	}
}

func rateLimitGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/uploads/:id/submit" {
		return middleware.SubmitRateLimitGroup
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
