package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"papersummary/internal/config"
	"papersummary/internal/http/handlers"
	"papersummary/internal/http/middleware"
	"papersummary/internal/infra/logging"
)

type Deps struct {
	Config config.Config
	Runner handlers.Runner
	// Store backs the rate limiter; nil means memory.
	Store fiber.Storage
}

// New creates and configures the Fiber app.
func New(deps Deps) *fiber.App {
	cfg := deps.Config
	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		DisableStartupMessage: true,
		BodyLimit:             cfg.Limits.MaxUploadBytes,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal Server Error"

			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				msg = e.Message
			}

			logging.Warn("Request failed", "path", c.Path(), "status", code, "message", msg,
				"request_id", middleware.RequestID(c))

			return c.Status(code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    code,
					"message": msg,
				},
			})
		},
	})

	middleware.Register(app, cfg, deps.Store)
	RegisterRoutes(app, cfg, deps.Runner)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

// RegisterRoutes mounts the upload form and the ops endpoints.
func RegisterRoutes(app *fiber.App, cfg config.Config, runner handlers.Runner) {
	svc := handlers.NewFormService(runner, cfg.PDF.Filename)

	app.Get("/", svc.HandleForm)
	app.Post("/", svc.HandleUpload)

	app.Get("/ops/monitor", monitor.New())
}
