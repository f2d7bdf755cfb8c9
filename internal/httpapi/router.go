package httpapi

import (
	"github.com/gin-gonic/gin"

	"evalbox/internal/sandbox/engine"
)

// NewRouter builds the service router with recovery, tracing, and request
// logging applied to every route.
func NewRouter(eng engine.Engine) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(TraceContextMiddleware())
	router.Use(RequestLogger())

	runController := NewRunController(eng)
	router.GET("/healthz", runController.Healthz)

	api := router.Group("/api/v1/sandbox")
	api.POST("/run", runController.Run)

	return router
}
