package jobs

import (
	"context"
	"feedloader/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

const OrphanImageCleanupJobName = "OrphanImageCleanup"

type OrphanSweeper interface {
	SweepOrphans(ctx context.Context, uploads services.FeedUploadLookup) (int, error)
}

// OrphanImageCleanupJob removes image directories left behind by failed or vanished uploads.
type OrphanImageCleanupJob struct {
	images   OrphanSweeper
	uploads  services.FeedUploadLookup
	log      logger.Logger
	schedule services.Schedule
}

func NewOrphanImageCleanupJob(
	images OrphanSweeper,
	uploads services.FeedUploadLookup,
	schedule services.Schedule,
) *OrphanImageCleanupJob {
	log := logger.New("orphanImageCleanupJob")
	log.Info("Creating new orphan image cleanup job", "schedule", schedule.String())

	return &OrphanImageCleanupJob{
		images:   images,
		uploads:  uploads,
		log:      log,
		schedule: schedule,
	}
}

func (j *OrphanImageCleanupJob) Name() string {
	return OrphanImageCleanupJobName
}

func (j *OrphanImageCleanupJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	removed, err := j.images.SweepOrphans(ctx, j.uploads)
	if err != nil {
		return log.Err("orphan image sweep failed", err, "removed", removed)
	}

	log.Info("Orphan image sweep completed", "removed", removed)
	return nil
}

func (j *OrphanImageCleanupJob) Schedule() services.Schedule {
	return j.schedule
}
