package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/NicolasMarrai/healthmed/internal/pkg/statistics"
)

// HandleStart serves the landing data: product pitch plus the cached
// platform aggregates.
func HandleStart(c *fiber.Ctx) error {
	go statistics.UpdateCacheIfNeeded()

	stats := statistics.GetStatistics()
	return c.JSON(fiber.Map{
		"name":    "HealthMed",
		"tagline": "Aulas de medicina sob assinatura",
		"stats": fiber.Map{
			"total_users":        stats.TotalUsers,
			"active_subscribers": stats.ActiveSubscribers,
		},
		"logged_in": isLoggedIn(c),
	})
}
