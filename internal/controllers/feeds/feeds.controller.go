package feedsController

import (
	"context"
	"errors"
	"feedloader/config"
	"feedloader/internal/metrics"
	"feedloader/internal/models"
	"feedloader/internal/services"
	"feedloader/internal/types"
	"fmt"

	logger "github.com/Bparsons0904/goLogger"
)

var (
	ErrEmptyDocument      = errors.New("request body is empty")
	ErrFeedUploadNotFound = errors.New("feed upload not found")
	ErrFeedItemNotFound   = errors.New("feed item not found")
	ErrDispatchFailed     = errors.New("failed to dispatch feed upload")
)

type FeedStore interface {
	Create(ctx context.Context) (*models.FeedUpload, error)
	Get(ctx context.Context, id int) (*models.FeedUpload, error)
	UpdateStatus(ctx context.Context, id int, status models.FeedUploadStatus, errorMessage *string) error
	FeedItem(ctx context.Context, feedUploadID int, feedItemID string) (*models.FeedItem, error)
	FeedItemIDs(ctx context.Context, feedUploadID int) ([]string, error)
	FeedItemsForUpload(ctx context.Context, feedUploadID int) ([]models.FeedItem, error)
}

type DispatchQueue interface {
	Enqueue(ctx context.Context, dispatch types.FeedDispatch) error
}

type ImageFinder interface {
	ImagesDir() string
	FindImage(feedUploadID int, imageID string) (string, error)
}

type FeedsControllerInterface interface {
	CreateFeedUpload(ctx context.Context, document []byte) (int, error)
	GetFeedUploadStatus(ctx context.Context, id int) (*types.FeedUploadStatusResponse, error)
	InvalidateFeedUploadStatus(ctx context.Context, id int) error
	GetFeedItemIDs(ctx context.Context, id int) ([]string, error)
	GetFeedItem(ctx context.Context, id int, itemID string) (*types.FeedItemResponse, error)
	GetFeedImageIDs(ctx context.Context, id int) ([]string, error)
	GetFeedImagePath(ctx context.Context, id int, imageID string) (string, error)
}

type FeedsController struct {
	store  FeedStore
	queue  DispatchQueue
	images ImageFinder
	cache  StatusCache
	Config config.Config
	log    logger.Logger
}

func New(
	store FeedStore,
	queue DispatchQueue,
	images ImageFinder,
	cache StatusCache,
	config config.Config,
) FeedsControllerInterface {
	return &FeedsController{
		store:  store,
		queue:  queue,
		images: images,
		cache:  cache,
		Config: config,
		log:    logger.New("feedsController"),
	}
}

// CreateFeedUpload records a QUEUED upload and hands the document to the workers. When the
// dispatch cannot be sent the upload is failed so it never sits in QUEUED forever.
func (c *FeedsController) CreateFeedUpload(ctx context.Context, document []byte) (int, error) {
	log := c.log.Function("CreateFeedUpload")

	if len(document) == 0 {
		return 0, ErrEmptyDocument
	}

	upload, err := c.store.Create(ctx)
	if err != nil {
		return 0, log.Err("failed to create feed upload", err)
	}

	dispatch := types.FeedDispatch{
		FeedUploadID: upload.ID,
		Document:     document,
		ImagesDir:    c.images.ImagesDir(),
	}
	if err := c.queue.Enqueue(ctx, dispatch); err != nil {
		message := fmt.Sprintf("%s: %s", services.ErrorKindDispatch, err.Error())
		if updateErr := c.store.UpdateStatus(
			context.WithoutCancel(ctx),
			upload.ID,
			models.FeedUploadStatusFinishedError,
			&message,
		); updateErr != nil {
			log.Er("failed to mark undispatched feed upload failed", updateErr, "feedUploadID", upload.ID)
		}
		log.Er("failed to enqueue feed upload", err, "feedUploadID", upload.ID)
		return upload.ID, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	log.Info("Feed upload queued", "feedUploadID", upload.ID, "bytes", len(document))
	return upload.ID, nil
}

// GetFeedUploadStatus serves terminal statuses from the cache. Only terminal statuses are
// cached: they never change, so a read racing a status event cannot pin a stale snapshot.
func (c *FeedsController) GetFeedUploadStatus(ctx context.Context, id int) (*types.FeedUploadStatusResponse, error) {
	log := c.log.Function("GetFeedUploadStatus")

	cached, found, err := c.cache.Get(ctx, id)
	switch {
	case err != nil:
		metrics.IncStatusCache("error")
		log.Warn("status cache read failed", "feedUploadID", id, "error", err)
	case found:
		metrics.IncStatusCache("hit")
		return cached, nil
	default:
		metrics.IncStatusCache("miss")
	}

	upload, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, log.Err("failed to get feed upload", err, "feedUploadID", id)
	}
	if upload == nil {
		return nil, ErrFeedUploadNotFound
	}

	response := types.NewFeedUploadStatusResponse(upload)
	if upload.Status.IsTerminal() {
		if err := c.cache.Set(ctx, response); err != nil {
			log.Warn("status cache write failed", "feedUploadID", id, "error", err)
		}
	}

	return &response, nil
}

func (c *FeedsController) InvalidateFeedUploadStatus(ctx context.Context, id int) error {
	if err := c.cache.Delete(ctx, id); err != nil {
		return c.log.Function("InvalidateFeedUploadStatus").Err("failed to invalidate status cache", err, "feedUploadID", id)
	}
	return nil
}

func (c *FeedsController) GetFeedItemIDs(ctx context.Context, id int) ([]string, error) {
	ids, err := c.store.FeedItemIDs(ctx, id)
	if err != nil {
		return nil, c.log.Function("GetFeedItemIDs").Err("failed to list feed item ids", err, "feedUploadID", id)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (c *FeedsController) GetFeedItem(ctx context.Context, id int, itemID string) (*types.FeedItemResponse, error) {
	item, err := c.store.FeedItem(ctx, id, itemID)
	if err != nil {
		return nil, c.log.Function("GetFeedItem").Err("failed to get feed item", err, "feedUploadID", id, "itemID", itemID)
	}
	if item == nil {
		return nil, ErrFeedItemNotFound
	}

	response := types.NewFeedItemResponse(*item)
	return &response, nil
}

// GetFeedImageIDs lists local image ids in item order, primary image first. An upload with no
// images yields an empty list.
func (c *FeedsController) GetFeedImageIDs(ctx context.Context, id int) ([]string, error) {
	items, err := c.store.FeedItemsForUpload(ctx, id)
	if err != nil {
		return nil, c.log.Function("GetFeedImageIDs").Err("failed to list feed items", err, "feedUploadID", id)
	}

	ids := []string{}
	for i := range items {
		ids = append(ids, items[i].ImageIDs()...)
	}
	return ids, nil
}

func (c *FeedsController) GetFeedImagePath(ctx context.Context, id int, imageID string) (string, error) {
	path, err := c.images.FindImage(id, imageID)
	if err != nil {
		if errors.Is(err, services.ErrImageNotFound) || errors.Is(err, services.ErrInvalidImageID) {
			return "", err
		}
		return "", c.log.Function("GetFeedImagePath").Err("failed to find image", err, "feedUploadID", id, "imageID", imageID)
	}
	return path, nil
}
