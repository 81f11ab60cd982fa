// Package http wires the gin engine, middleware, and request handlers.
package http

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/backoffice-kit/backoffice/internal/auth"
	"github.com/backoffice-kit/backoffice/internal/http/handlers"
	"github.com/backoffice-kit/backoffice/internal/persistence"
	"github.com/backoffice-kit/backoffice/internal/upload"
)

// RouterDeps carries the services the HTTP layer depends on.
type RouterDeps struct {
	DB      *gorm.DB
	Store   *persistence.Facade
	Auth    *auth.Service
	Uploads upload.Store

	// AvatarDir and AvatarBaseURL expose locally stored avatars over HTTP.
	// Both empty disables static serving.
	AvatarDir     string
	AvatarBaseURL string
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	engine := gin.New()
	engine.Use(requestLogger(), gin.Recovery())

	healthHandler := handlers.NewHealthHandler(deps.DB)
	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Store)
	profileHandler := handlers.NewProfileHandler(deps.Store, deps.Uploads)
	modelHandler := handlers.NewModelHandler(deps.Store)

	engine.GET("/healthcheck", healthHandler.Check)

	authGroup := engine.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/reset-password", authHandler.GenerateResetToken)
		authGroup.PATCH("/password", authHandler.ResetPassword)
	}

	// Serve stored avatars when the base URL is a local path. An absolute
	// URL means a CDN or another host hands them out.
	if deps.AvatarDir != "" && strings.HasPrefix(deps.AvatarBaseURL, "/") {
		engine.Static(deps.AvatarBaseURL, deps.AvatarDir)
	}

	authed := engine.Group("/", SessionAuthMiddleware(deps.Auth, deps.Store))
	{
		authed.GET("/profile", profileHandler.Get)
		authed.PATCH("/profile", profileHandler.Update)
		authed.PATCH("/profile/password", profileHandler.UpdatePassword)
		authed.PATCH("/profile/avatar", profileHandler.UpdateAvatar)

		modelGroup := authed.Group("/models/:model_name")
		{
			modelGroup.GET("", modelHandler.List)
			modelGroup.POST("", modelHandler.Create)
			modelGroup.GET("/:id", modelHandler.Get)
			modelGroup.PATCH("/:id", modelHandler.Update)
			modelGroup.DELETE("/:id", modelHandler.Delete)
		}
	}

	return engine
}

// requestLogger emits one structured line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request")
	}
}
