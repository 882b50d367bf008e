package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/NicolasMarrai/healthmed/internal/pkg/cache"
	"github.com/NicolasMarrai/healthmed/internal/pkg/database"
)

// HandleHealthLive reports process liveness only.
func HandleHealthLive(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleHealthReady checks the backing services the request path depends on.
func HandleHealthReady(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	checks := fiber.Map{"database": "ok", "cache": "ok"}
	healthy := true

	db := database.GetDB()
	if db == nil {
		checks["database"] = "uninitialized"
		healthy = false
	} else if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["database"] = "unreachable"
		healthy = false
	}

	if err := cache.GetClient().Ping(ctx).Err(); err != nil {
		checks["cache"] = "unreachable"
		healthy = false
	}

	status := fiber.StatusOK
	if !healthy {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"healthy": healthy, "checks": checks})
}

// HandleHealth combines liveness and readiness for a single probe endpoint.
func HandleHealth(c *fiber.Ctx) error {
	return HandleHealthReady(c)
}
