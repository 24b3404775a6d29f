package main

import (
	"context"
	"feedloader/internal/app"
	"feedloader/internal/server"
	"feedloader/internal/types"
	"os"
	"os/signal"
	"syscall"
	"time"

	logger "github.com/Bparsons0904/goLogger"
)

func gracefulShutdown(
	app *app.App,
	appServer *server.AppServer,
	done chan bool,
	log logger.Logger,
) {
	log = log.Function("gracefulShutdown")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info("shutting down gracefully, press Ctrl+C again to force")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := appServer.FiberApp.ShutdownWithContext(ctx); err != nil {
		log.Er("Server forced to shutdown", err)
	}

	log.Info("Server exiting")
	done <- true
}

// subscribeToStatusEvents drops a cached status as soon as a worker reports a transition and
// forwards the transition to websocket watchers.
func subscribeToStatusEvents(app *app.App, log logger.Logger) {
	app.EventBus.SubscribeStatus(func(event types.FeedUploadStatusEvent) error {
		return app.Controllers.Feeds.InvalidateFeedUploadStatus(context.Background(), event.FeedUploadID)
	})
	app.EventBus.SubscribeStatus(app.Websocket.HandleStatusEvent)
	log.Function("subscribeToStatusEvents").Info("Subscribed to feed upload status events")
}

func main() {
	log := logger.New("main")

	app, err := app.New()
	if err != nil {
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Er("failed to close app", err)
		}
	}()

	subscribeToStatusEvents(app, log)

	server, err := server.New(app)
	if err != nil {
		os.Exit(1)
	}

	done := make(chan bool, 1)

	go func() {
		if err := server.Listen(app.Config.ServerPort); err != nil {
			log.Er("server stopped", err)
			os.Exit(1)
		}
	}()

	go gracefulShutdown(app, server, done, log)

	<-done
	log.Info("Graceful shutdown complete.")
}
