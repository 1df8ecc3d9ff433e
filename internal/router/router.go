package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"docstracker/internal/handler"
	"docstracker/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	log logrus.FieldLogger,
	allowedOrigins []string,
	tokens middleware.TokenValidator,
	runH *handler.RunHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(tokens))
	v1.POST("/runs", runH.Create)
	v1.GET("/reference", runH.Reference)
	v1.POST("/classify", runH.Classify)

	return r
}
