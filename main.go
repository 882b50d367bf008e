package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/contrib/swagger"

	"github.com/NicolasMarrai/healthmed/app/repository"
	"github.com/NicolasMarrai/healthmed/internal/pkg/cache"
	"github.com/NicolasMarrai/healthmed/internal/pkg/database"
	"github.com/NicolasMarrai/healthmed/internal/pkg/env"
	"github.com/NicolasMarrai/healthmed/internal/pkg/metrics/counter"
	"github.com/NicolasMarrai/healthmed/internal/pkg/router"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	app := NewApplication()

	// Periodically move accumulated lesson view counters into the database.
	go func() {
		for range time.Tick(1 * time.Minute) {
			if err := counter.FlushLessonViews(); err != nil {
				log.Printf("[COUNTER] flush failed: %v", err)
			}
		}
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeGlobalFactory(database.GetDB())

	app := fiber.New(fiber.Config{
		AppName: "HealthMed",
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}
