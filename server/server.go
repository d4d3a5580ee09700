package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	"messenger-bot/config"
	"messenger-bot/handlers"
	"messenger-bot/metrics"
	"messenger-bot/services"
	"messenger-bot/webhooks"
)

// New wires the Send API client, bot and webhook routes into a fiber app.
func New(cfg *config.Config, reg *prometheus.Registry) *fiber.App {
	m := metrics.New(reg)

	client := services.NewMessengerClient(cfg, m)
	bot := handlers.NewBot(client)
	dispatcher := webhooks.NewDispatcher(bot, cfg.DispatchConcurrency, webhooks.NewDeduplicator(cfg.DedupTTL), m)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			slog.Error("Request error", "error", err, "status", code)
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path}\n",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "messenger-bot",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(reg)))

	webhooks.RegisterRoutes(app, cfg, dispatcher, m)

	return app
}
