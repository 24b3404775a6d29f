package repositories

import (
	"feedloader/internal/database"
)

type Repository struct {
	FeedUpload FeedUploadRepository
	FeedItem   FeedItemRepository
}

func New(db database.DB) Repository {
	return Repository{
		FeedUpload: NewFeedUploadRepository(db),
		FeedItem:   NewFeedItemRepository(db),
	}
}
