package handlers

import (
	"feedloader/internal/app"
	"feedloader/internal/handlers/middleware"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	router.Use(app.Middleware.TraceID())

	MetricsHandler(router)

	api := router.Group("/api")
	HealthHandler(api, app.Config)

	NewFeedsHandler(*app, router).Register()
	setupWebSocketRoute(router, app)

	return nil
}

// setupWebSocketRoute streams status transitions of one upload until it is terminal.
func setupWebSocketRoute(router fiber.Router, app *app.App) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws/feeds/:id", websocket.New(app.Websocket.HandleWebSocket))
}
