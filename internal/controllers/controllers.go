package controllers

import (
	"feedloader/config"
	"feedloader/internal/database"
	"feedloader/internal/queue"
	"feedloader/internal/services"
	"time"

	feedsController "feedloader/internal/controllers/feeds"
)

type Controllers struct {
	Feeds feedsController.FeedsControllerInterface
}

func New(
	services services.Service,
	feedQueue *queue.FeedQueue,
	config config.Config,
	db database.DB,
) Controllers {
	statusCache := feedsController.NewStatusCache(
		db.Cache.Status,
		time.Duration(config.StatusCacheTTLSec)*time.Second,
	)

	return Controllers{
		Feeds: feedsController.New(
			services.FeedStore,
			feedQueue,
			services.ImageStorage,
			statusCache,
			config,
		),
	}
}
