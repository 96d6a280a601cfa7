package handlers

import (
	"courseflow/internal/config"
	"courseflow/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check endpoints
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Check returns service and database health
// @Summary Health check
// @Tags Health
// @Router /health [get]
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := config.HealthCheck(); err != nil {
		dbStatus = "unavailable"
	}

	return response.Success(c, "Service healthy", fiber.Map{
		"status":   "ok",
		"database": dbStatus,
	})
}
