package controllers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/NicolasMarrai/healthmed/internal/pkg/lessons"
	"github.com/NicolasMarrai/healthmed/internal/pkg/metrics/counter"
)

var lessonClient *lessons.Client

// InitializeLessonController wires the CMS client used by the lesson
// handlers. The router passes the env-configured client; tests inject one
// pointed at a test server.
func InitializeLessonController(client *lessons.Client) {
	lessonClient = client
}

func getLessonClient() *lessons.Client {
	if lessonClient == nil {
		lessonClient = lessons.NewClientFromEnv()
	}
	return lessonClient
}

// HandleLessons returns the lesson catalog, ordered by subject and position.
// Sits behind the active-subscription gate.
func HandleLessons(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	list, err := lessons.ListLessons(ctx, getLessonClient())
	if err != nil {
		log.Printf("[LESSONS] catalog fetch failed: %v", err)
		return jsonError(c, fiber.StatusBadGateway, "cms_unavailable", "lesson catalog is unavailable")
	}

	return c.JSON(fiber.Map{
		"lessons": list,
		"count":   len(list),
	})
}

// HandleLessonViewed counts a lesson view. Counters accumulate in Redis and
// are flushed to the database in batches.
func HandleLessonViewed(c *fiber.Ctx) error {
	lessonID := strings.TrimSpace(c.Params("id"))
	if lessonID == "" {
		return jsonError(c, fiber.StatusBadRequest, "missing_lesson_id", "lesson id is required")
	}

	if err := counter.AddLessonView(lessonID); err != nil {
		// View counting is best effort; losing an increment is acceptable.
		log.Printf("[LESSONS] view counter failed for %s: %v", lessonID, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
