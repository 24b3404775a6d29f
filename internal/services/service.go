package services

import (
	"feedloader/config"
	"feedloader/internal/database"
	"feedloader/internal/events"
	"feedloader/internal/repositories"
	"time"
)

type Service struct {
	Transaction    *TransactionService
	FeedStore      *FeedStoreService
	Normalizer     *FeedNormalizer
	ImageLocalizer *ImageLocalizer
	ImageStorage   *ImageStorageService
	Pipeline       *FeedPipeline
	Scheduler      *SchedulerService
}

func New(db database.DB, config config.Config, eventBus *events.EventBus) Service {
	transactionService := NewTransactionService(db)
	repos := repositories.New(db)

	feedStoreService := NewFeedStoreService(transactionService, repos, eventBus)
	normalizer := NewFeedNormalizer()
	imageLocalizer := NewImageLocalizer(
		time.Duration(config.ImageFetchTimeoutSec)*time.Second,
		config.ImageFetchConcurrency,
	)

	return Service{
		Transaction:    transactionService,
		FeedStore:      feedStoreService,
		Normalizer:     normalizer,
		ImageLocalizer: imageLocalizer,
		ImageStorage:   NewImageStorageService(config.ImagesDir),
		Pipeline:       NewFeedPipeline(normalizer, imageLocalizer, feedStoreService),
		Scheduler:      NewSchedulerService(),
	}
}
