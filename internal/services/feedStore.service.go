package services

import (
	"context"
	"errors"
	"feedloader/internal/models"
	"feedloader/internal/repositories"
	"fmt"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

var ErrMixedFeedUploads = errors.New("feed items belong to more than one upload")

// StatusPublisher announces status transitions to other processes.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, feedUploadID int, status models.FeedUploadStatus) error
}

// FeedStoreService is the persistence boundary for feed uploads and their items.
type FeedStoreService struct {
	transaction *TransactionService
	uploads     repositories.FeedUploadRepository
	items       repositories.FeedItemRepository
	publisher   StatusPublisher
	now         func() time.Time
	log         logger.Logger
}

func NewFeedStoreService(
	transaction *TransactionService,
	repos repositories.Repository,
	publisher StatusPublisher,
) *FeedStoreService {
	return &FeedStoreService{
		transaction: transaction,
		uploads:     repos.FeedUpload,
		items:       repos.FeedItem,
		publisher:   publisher,
		now:         func() time.Time { return time.Now().UTC() },
		log:         logger.New("FeedStoreService"),
	}
}

// Create inserts a QUEUED upload.
func (s *FeedStoreService) Create(ctx context.Context) (*models.FeedUpload, error) {
	return s.uploads.Create(ctx)
}

// Get returns nil when the upload does not exist. Rows breaking the status invariants, such
// as a FINISHED upload without a finish time written by an older writer, are returned as
// stored and logged.
func (s *FeedStoreService) Get(ctx context.Context, id int) (*models.FeedUpload, error) {
	upload, err := s.uploads.GetByID(ctx, id)
	if err != nil || upload == nil {
		return upload, err
	}

	if !upload.IsConsistent() {
		s.log.Function("Get").Warn(
			"feed upload row breaks status invariants",
			"feedUploadID", id,
			"status", upload.Status,
			"hasError", upload.Error != nil,
			"hasFinishedAt", upload.SuccessfullyFinishedAt != nil,
		)
	}

	return upload, nil
}

func (s *FeedStoreService) UpdateStatus(
	ctx context.Context,
	id int,
	status models.FeedUploadStatus,
	errorMessage *string,
) error {
	if err := s.uploads.UpdateStatus(ctx, id, status, errorMessage); err != nil {
		return err
	}

	s.publish(ctx, id, status)
	return nil
}

// SaveItems inserts every item and flips the owning upload from PROCESSING to FINISHED in one
// transaction. Either both happen or neither does. An empty batch is a no-op.
func (s *FeedStoreService) SaveItems(ctx context.Context, items []models.FeedItem) error {
	log := s.log.Function("SaveItems")

	if len(items) == 0 {
		return nil
	}

	feedUploadID := items[0].FeedUploadID
	for _, item := range items[1:] {
		if item.FeedUploadID != feedUploadID {
			return ErrMixedFeedUploads
		}
	}

	err := s.transaction.Execute(ctx, func(txCtx context.Context, _ *gorm.DB) error {
		if err := s.items.CreateBatch(txCtx, items); err != nil {
			return err
		}
		return s.uploads.MarkFinished(txCtx, feedUploadID, s.now())
	})
	if err != nil {
		return log.Err(
			"failed to save feed items",
			fmt.Errorf("feed upload %d: %w", feedUploadID, err),
			"count", len(items),
		)
	}

	s.publish(ctx, feedUploadID, models.FeedUploadStatusFinished)
	return nil
}

func (s *FeedStoreService) publish(ctx context.Context, id int, status models.FeedUploadStatus) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.PublishStatus(ctx, id, status); err != nil {
		s.log.Function("publish").Warn("failed to publish status event", "feedUploadID", id, "status", status, "error", err)
	}
}

// FeedItemsForUpload reads back the stored items of an upload in insertion order.
func (s *FeedStoreService) FeedItemsForUpload(ctx context.Context, feedUploadID int) ([]models.FeedItem, error) {
	return s.items.GetByUpload(ctx, feedUploadID)
}

func (s *FeedStoreService) FeedItem(ctx context.Context, feedUploadID int, feedItemID string) (*models.FeedItem, error) {
	return s.items.GetByUploadAndItemID(ctx, feedUploadID, feedItemID)
}

func (s *FeedStoreService) FeedItemIDs(ctx context.Context, feedUploadID int) ([]string, error) {
	return s.items.ListItemIDs(ctx, feedUploadID)
}
