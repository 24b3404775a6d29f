package jobs

import (
	"feedloader/config"
	"feedloader/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	images OrphanSweeper,
	uploads services.FeedUploadLookup,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")

	if !config.ImageCleanupEnabled {
		log.Info("Image cleanup disabled, skipping job registration")
		return nil
	}

	job := NewOrphanImageCleanupJob(images, uploads, services.Hourly)
	if err := schedulerService.AddJob(job); err != nil {
		return log.Err("failed to register orphan image cleanup job", err)
	}
	log.Info("Registered orphan image cleanup job", "schedule", services.Hourly.String())

	return nil
}
