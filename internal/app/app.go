package app

import (
	"feedloader/config"
	"feedloader/internal/controllers"
	"feedloader/internal/database"
	"feedloader/internal/events"
	"feedloader/internal/handlers/middleware"
	"feedloader/internal/metrics"
	"feedloader/internal/queue"
	"feedloader/internal/repositories"
	"feedloader/internal/services"
	"feedloader/internal/websockets"

	logger "github.com/Bparsons0904/goLogger"
)

// App holds every long-lived handle. Both binaries build it once at start-up and pass the
// ready handles down.
type App struct {
	Database    database.DB
	Middleware  middleware.Middleware
	EventBus    *events.EventBus
	Queue       *queue.FeedQueue
	Config      config.Config
	Services    services.Service
	Repos       repositories.Repository
	Controllers controllers.Controllers
	Websocket   *websockets.Manager
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.New()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	metrics.MustRegister()

	eventBus := events.New(db.Cache.Events)
	feedQueue := queue.New(db.Cache.Queue, config.FeedQueueName)
	repos := repositories.New(db)
	services := services.New(db, config, eventBus)
	controllers := controllers.New(services, feedQueue, config, db)

	app := &App{
		Database:    db,
		Middleware:  middleware.New(config),
		EventBus:    eventBus,
		Queue:       feedQueue,
		Config:      config,
		Services:    services,
		Repos:       repos,
		Controllers: controllers,
		Websocket:   websockets.New(controllers.Feeds),
	}

	if err := app.validate(); err != nil {
		_ = app.Close()
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := map[string]bool{
		"eventBus":       a.EventBus == nil,
		"queue":          a.Queue == nil,
		"feedStore":      a.Services.FeedStore == nil,
		"pipeline":       a.Services.Pipeline == nil,
		"imageStorage":   a.Services.ImageStorage == nil,
		"scheduler":      a.Services.Scheduler == nil,
		"feedUploadRepo": a.Repos.FeedUpload == nil,
		"feedItemRepo":   a.Repos.FeedItem == nil,
		"feeds":          a.Controllers.Feeds == nil,
		"websocket":      a.Websocket == nil,
	}

	for name, isNil := range nilChecks {
		if isNil {
			return log.Error("nil check failed", "component", name)
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(); closeErr != nil {
			err = closeErr
		}
	}

	if a.Database.SQL != nil {
		if dbErr := a.Database.Close(); dbErr != nil {
			err = dbErr
		}
	}

	return err
}
