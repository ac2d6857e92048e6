package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mentorloop/mentorloop-api/internal/config"
	"github.com/mentorloop/mentorloop-api/internal/utils"
)

// HealthResponse is the liveness payload. It intentionally reports nothing
// about downstream dependencies so the probe stays cheap under load.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
}

// HealthCheck returns the unauthenticated liveness handler.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
