package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"advisor-backend/internal/actions"
	"advisor-backend/internal/pipeline"
	"advisor-backend/internal/progress"
	"advisor-backend/internal/sessions"
	"advisor-backend/internal/shared/config"
	"advisor-backend/internal/shared/metrics"
	"advisor-backend/internal/shared/server/middleware"
	"advisor-backend/internal/shared/server/respond"
)

// RouterDeps carries the wired handlers the router mounts.
type RouterDeps struct {
	Config   config.Config
	Sessions *sessions.Handler
	Pipeline *pipeline.Handler
	Progress *progress.Handler
	Actions  *actions.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"upload":  {Rate: 1, Burst: 5},
				"actions": {Rate: 2, Burst: 10},
			},
			GroupFor: routeGroup,
		}),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())
	deps.Sessions.RegisterRoutes(api)
	deps.Pipeline.RegisterRoutes(api)
	deps.Progress.RegisterRoutes(api)
	deps.Actions.RegisterRoutes(api)

	return r
}

func routeGroup(c *gin.Context) string {
	path := c.FullPath()
	switch {
	case strings.HasSuffix(path, "/upload"), strings.HasSuffix(path, "/reanalyze"):
		return "upload"
	case strings.Contains(path, "/actions/"):
		return "actions"
	default:
		return ""
	}
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
