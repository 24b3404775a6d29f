package repositories

import (
	"context"
	"errors"
	"feedloader/internal/database"

	contextutil "feedloader/internal/context"
	. "feedloader/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

const (
	FEED_ITEM_BATCH_SIZE = 500
)

type FeedItemRepository interface {
	CreateBatch(ctx context.Context, items []FeedItem) error
	GetByUpload(ctx context.Context, feedUploadID int) ([]FeedItem, error)
	GetByUploadAndItemID(ctx context.Context, feedUploadID int, feedItemID string) (*FeedItem, error)
	ListItemIDs(ctx context.Context, feedUploadID int) ([]string, error)
}

type feedItemRepository struct {
	db  database.DB
	log logger.Logger
}

func NewFeedItemRepository(db database.DB) FeedItemRepository {
	return &feedItemRepository{
		db:  db,
		log: logger.New("feedItemRepository"),
	}
}

func (r *feedItemRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextutil.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *feedItemRepository) CreateBatch(ctx context.Context, items []FeedItem) error {
	log := r.log.Function("CreateBatch")

	if len(items) == 0 {
		return nil
	}

	if err := r.getDB(ctx).CreateInBatches(&items, FEED_ITEM_BATCH_SIZE).Error; err != nil {
		return log.Err("failed to insert feed items", err, "count", len(items))
	}

	return nil
}

func (r *feedItemRepository) GetByUpload(ctx context.Context, feedUploadID int) ([]FeedItem, error) {
	log := r.log.Function("GetByUpload")

	var items []FeedItem
	if err := r.getDB(ctx).
		Where("feed_upload_id = ?", feedUploadID).
		Order("id").
		Find(&items).Error; err != nil {
		return nil, log.Err("failed to get feed items", err, "feedUploadID", feedUploadID)
	}

	return items, nil
}

// GetByUploadAndItemID returns the first record with the external id; ids may repeat.
func (r *feedItemRepository) GetByUploadAndItemID(
	ctx context.Context,
	feedUploadID int,
	feedItemID string,
) (*FeedItem, error) {
	log := r.log.Function("GetByUploadAndItemID")

	var item FeedItem
	if err := r.getDB(ctx).
		Where("feed_upload_id = ? AND feed_item_id = ?", feedUploadID, feedItemID).
		Order("id").
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, log.Err(
			"failed to get feed item",
			err,
			"feedUploadID", feedUploadID,
			"feedItemID", feedItemID,
		)
	}

	return &item, nil
}

func (r *feedItemRepository) ListItemIDs(ctx context.Context, feedUploadID int) ([]string, error) {
	log := r.log.Function("ListItemIDs")

	ids := []string{}
	if err := r.getDB(ctx).
		Model(&FeedItem{}).
		Where("feed_upload_id = ?", feedUploadID).
		Order("id").
		Pluck("feed_item_id", &ids).Error; err != nil {
		return nil, log.Err("failed to list feed item ids", err, "feedUploadID", feedUploadID)
	}

	return ids, nil
}
