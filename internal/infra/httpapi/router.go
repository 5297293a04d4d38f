// internal/infra/httpapi/router.go
package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
)

// NewApp builds the Fiber application serving the trigger API.
func NewApp(trigger *TriggerHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Daily Insight Bot API",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Minute, // full-population runs respond after the run budget
		IdleTimeout:  60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())

	api := app.Group("/api/v1")
	api.Get("/health", healthCheck)
	// GET is accepted alongside POST because hosted cron services often only
	// speak plain GET.
	api.Post("/delivery/run", trigger.HandleRun)
	api.Get("/delivery/run", trigger.HandleRun)

	return app
}

func healthCheck(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}
