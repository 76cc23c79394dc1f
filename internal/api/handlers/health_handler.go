package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hauntmuskie/naivebayes-dashboard/internal/mlbackend"
)

type HealthHandler struct {
	backend *mlbackend.Client
}

func NewHealthHandler(backend *mlbackend.Client) *HealthHandler {
	return &HealthHandler{backend: backend}
}

// Health reports local liveness plus the reachability of the ML backend.
// The endpoint itself is healthy even when the backend is down, so the
// dashboard can distinguish "API down" from "backend down".
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	body := fiber.Map{
		"status":  "ok",
		"service": "naivebayes-dashboard",
	}

	health, err := h.backend.Health(c.Context())
	if err != nil {
		body["backend"] = fiber.Map{
			"status": "unreachable",
			"error":  err.Error(),
		}
	} else {
		body["backend"] = fiber.Map{
			"status":  "ok",
			"version": health.Version,
		}
	}

	return c.JSON(body)
}
