package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	uploadDir string
	models    []string
}

// NewHealthHandler creates a new HealthHandler. models lists the configured
// extraction model names.
func NewHealthHandler(uploadDir string, models []string) *HealthHandler {
	return &HealthHandler{uploadDir: uploadDir, models: models}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	if len(h.models) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "no extraction models configured"})
		return
	}

	probe := filepath.Join(h.uploadDir, ".readyz")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "upload directory not writable"})
		return
	}
	_ = os.Remove(probe)

	c.JSON(http.StatusOK, gin.H{"status": "ok", "models": h.models})
}
