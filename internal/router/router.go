package router

import (
	"github.com/gin-gonic/gin"

	"orderlens/internal/config"
	"orderlens/internal/handler"
	"orderlens/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	jobH *handler.JobHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	jobs := v1.Group("/jobs")
	jobs.POST("", jobH.Submit)
	jobs.GET("", jobH.List)
	jobs.GET("/:id", jobH.GetByID)
	jobs.GET("/:id/result/:model", jobH.Result)
	jobs.GET("/:id/excel/:model", jobH.Excel)
	jobs.GET("/:id/comparison", jobH.Comparison)

	return r
}
