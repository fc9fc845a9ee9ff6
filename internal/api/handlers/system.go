package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/phototag/internal/catalogstore"
	"github.com/your-org/phototag/pkg/dto"
)

type SystemHandler struct {
	db *catalogstore.Store
}

func NewSystemHandler(db *catalogstore.Store) *SystemHandler {
	return &SystemHandler{db: db}
}

func (h *SystemHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *SystemHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := h.db.DB().PingContext(ctx); err != nil {
		checks["catalog"] = err.Error()
		healthy = false
	} else {
		checks["catalog"] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status": map[bool]string{true: "ready", false: "not ready"}[healthy],
		"checks": checks,
	})
}

// Greet answers the smoke-test command; it takes no arguments.
func (h *SystemHandler) Greet(c *gin.Context) {
	c.JSON(http.StatusOK, dto.GreetResponse{Message: "phototag engine ready"})
}
