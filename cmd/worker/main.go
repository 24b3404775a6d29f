package main

import (
	"context"
	"feedloader/internal/app"
	"feedloader/internal/handlers"
	"feedloader/internal/jobs"
	"feedloader/internal/services"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

const queueDepthInterval = 15 * time.Second

// startMetricsServer exposes the worker's pipeline and queue metrics.
func startMetricsServer(port int, log logger.Logger) *fiber.App {
	metricsApp := fiber.New(fiber.Config{DisableStartupMessage: true})
	handlers.MetricsHandler(metricsApp)

	go func() {
		if err := metricsApp.Listen(fmt.Sprintf(":%d", port)); err != nil {
			log.Er("metrics server stopped", err, "port", port)
		}
	}()

	return metricsApp
}

func main() {
	log := logger.New("worker").Function("main")

	app, err := app.New()
	if err != nil {
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Er("failed to close app", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := app.Services.Scheduler
	if err := jobs.RegisterAllJobs(scheduler, app.Config, app.Services.ImageStorage, app.Repos.FeedUpload); err != nil {
		os.Exit(1)
	}
	if err := scheduler.Start(); err != nil {
		os.Exit(1)
	}

	// Directories left by a crash are swept now rather than at the first hourly tick.
	if app.Config.ImageCleanupEnabled {
		go func() {
			if err := scheduler.TriggerJobByName(ctx, jobs.OrphanImageCleanupJobName); err != nil {
				log.Er("startup image sweep failed", err)
			}
		}()
	}

	metricsApp := startMetricsServer(app.Config.WorkerMetricsPort, log)
	defer func() {
		if err := metricsApp.Shutdown(); err != nil {
			log.Er("failed to stop metrics server", err)
		}
	}()

	go app.Queue.MonitorDepth(ctx, queueDepthInterval)

	worker := services.NewFeedWorker(
		app.Services.Pipeline,
		app.Services.FeedStore,
		app.Config.WorkerCount,
		app.Config.DispatchMaxAttempts,
	)

	log.Info(
		"Worker started",
		"queue", app.Queue.Name(),
		"workers", app.Config.WorkerCount,
		"maxAttempts", app.Config.DispatchMaxAttempts,
		"jobs", scheduler.GetJobCount(),
		"metricsPort", app.Config.WorkerMetricsPort,
	)

	consumeErr := app.Queue.Consume(ctx, worker.HandleDelivery)

	log.Info("shutting down, waiting for running dispatches")
	worker.Stop()

	if consumeErr != nil {
		log.Er("dispatch consumer stopped", consumeErr)
		os.Exit(1)
	}
	log.Info("Worker exiting")
}
