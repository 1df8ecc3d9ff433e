package handler

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	referenceDir string
}

// NewHealthHandler creates a new HealthHandler. Readiness requires the
// configured reference directory to be present.
func NewHealthHandler(referenceDir string) *HealthHandler {
	return &HealthHandler{referenceDir: referenceDir}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	info, err := os.Stat(h.referenceDir)
	if err != nil || !info.IsDir() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "reference directory not reachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
