package server

import (
	"feedloader/internal/app"
	"feedloader/internal/handlers"
	"fmt"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberLogs "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/helmet/v2"
)

// Feed documents are uploaded whole; catalogs of a few tens of megabytes are normal.
const maxFeedBodySize = 64 * 1024 * 1024

type AppServer struct {
	FiberApp *fiber.App
	log      logger.Logger
}

func New(app *app.App) (*AppServer, error) {
	log := logger.New("server").Function("New")
	log.Info("Initializing server")

	config := fiber.Config{
		ServerHeader:             fmt.Sprintf("FeedLoader/%s", app.Config.GeneralVersion),
		AppName:                  "feedloader_server",
		BodyLimit:                maxFeedBodySize,
		ReadBufferSize:           16384,
		WriteBufferSize:          16384,
		EnableSplittingOnParsers: true,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             60 * time.Second,
		IdleTimeout:              120 * time.Second,
		DisableStartupMessage:    true,
	}

	if app.Config.Environment == "development" {
		log.Info("Enabling development mode")
		config.DisableStartupMessage = false
		config.EnablePrintRoutes = true
	}

	server := fiber.New(config)

	server.Use(recover.New())
	server.Use(cors.New(cors.Config{
		AllowOrigins: app.Config.CorsAllowOrigins,
		AllowMethods: "GET, POST, OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, X-Trace-ID",
		MaxAge:       300,
	}))
	server.Use(fiberLogs.New())
	server.Use(compress.New())
	server.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginResourcePolicy: "cross-origin",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	if err := handlers.Router(server, app); err != nil {
		return &AppServer{}, log.Err("failed to initialize handlers", err)
	}

	return &AppServer{
		FiberApp: server,
		log:      log,
	}, nil
}

func (s *AppServer) Listen(port int) error {
	log := s.log.Function("Listen")

	if port <= 0 {
		return log.Error("Fatal error: invalid port", "port", port)
	}

	log.Info("Starting server", "port", port)
	return s.FiberApp.Listen(fmt.Sprintf(":%d", port))
}
