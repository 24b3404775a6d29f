package services

import (
	"context"
	"errors"
	"feedloader/internal/metrics"
	"feedloader/internal/models"
	"feedloader/internal/repositories"
	"feedloader/internal/types"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/lib/pq"
)

type Outcome string

const (
	OutcomeFinished          Outcome = "finished"
	OutcomeParsingFailed     Outcome = "parsing_failed"
	OutcomeImageFailed       Outcome = "image_failed"
	OutcomeFailed            Outcome = "failed"
	OutcomePersistenceFailed Outcome = "persistence_failed"
	OutcomeRejected          Outcome = "rejected"
	OutcomeStoreUnavailable  Outcome = "store_unavailable"
)

// Result is the outcome of one pipeline run. Err is nil only for OutcomeFinished.
type Result struct {
	Outcome Outcome
	Err     error
}

// Redeliver reports whether the dispatch should be handed to a worker again. A failed save or
// a status write that never reached the store leaves the upload non-terminal, where a later
// attempt can still settle it.
func (r Result) Redeliver() bool {
	return r.Outcome == OutcomePersistenceFailed || r.Outcome == OutcomeStoreUnavailable
}

// isStatusRejection reports whether the store refused a status write for the row's state,
// as opposed to failing to perform it.
func isStatusRejection(err error) bool {
	return errors.Is(err, repositories.ErrFeedUploadNotUpdatable) ||
		errors.Is(err, repositories.ErrInvalidStatusUpdate)
}

type DocumentNormalizer interface {
	Normalize(document []byte) ([]models.FeedItem, error)
}

type ImageFetcher interface {
	Localize(ctx context.Context, imagesDir string, feedUploadID int, items []models.FeedItem) (LocalizedImages, error)
}

type FeedUploadStore interface {
	UpdateStatus(ctx context.Context, id int, status models.FeedUploadStatus, errorMessage *string) error
	SaveItems(ctx context.Context, items []models.FeedItem) error
}

// FeedPipeline drives one upload from QUEUED to FINISHED or FINISHED_ERROR.
type FeedPipeline struct {
	normalizer DocumentNormalizer
	images     ImageFetcher
	store      FeedUploadStore
	log        logger.Logger
}

func NewFeedPipeline(normalizer DocumentNormalizer, images ImageFetcher, store FeedUploadStore) *FeedPipeline {
	return &FeedPipeline{
		normalizer: normalizer,
		images:     images,
		store:      store,
		log:        logger.New("FeedPipeline"),
	}
}

func (p *FeedPipeline) Process(ctx context.Context, dispatch types.FeedDispatch) (result Result) {
	log := p.log.Function("Process")
	start := time.Now()
	defer func() {
		metrics.ObserveUploadProcessed(string(result.Outcome), time.Since(start))
	}()

	if err := p.store.UpdateStatus(ctx, dispatch.FeedUploadID, models.FeedUploadStatusProcessing, nil); err != nil {
		log.Er("failed to mark feed upload processing", err, "feedUploadID", dispatch.FeedUploadID)
		if isStatusRejection(err) {
			return Result{Outcome: OutcomeRejected, Err: err}
		}
		return Result{Outcome: OutcomeStoreUnavailable, Err: err}
	}

	items, err := p.normalizer.Normalize(dispatch.Document)
	if err != nil {
		return p.fail(ctx, dispatch, err)
	}

	for i := range items {
		items[i].FeedUploadID = dispatch.FeedUploadID
	}

	localized, err := p.images.Localize(ctx, dispatch.ImagesDir, dispatch.FeedUploadID, items)
	if err != nil {
		return p.fail(ctx, dispatch, err)
	}

	applyLocalizedImages(items, localized)

	if err := p.store.SaveItems(ctx, items); err != nil {
		p.removeImages(dispatch)
		return Result{Outcome: OutcomePersistenceFailed, Err: &PersistenceError{Err: err}}
	}

	log.Info(
		"Feed upload finished",
		"feedUploadID", dispatch.FeedUploadID,
		"items", len(items),
		"duration", time.Since(start).String(),
	)
	return Result{Outcome: OutcomeFinished}
}

// applyLocalizedImages replaces remote image URLs with local ids. A record without a
// localized entry ends up with no images rather than its remote URLs.
func applyLocalizedImages(items []models.FeedItem, localized LocalizedImages) {
	for i := range items {
		items[i].ImageLink = nil
		items[i].AdditionalImageLink = nil

		if i >= len(localized) {
			continue
		}

		items[i].ImageLink = localized[i].ImageLink
		if localized[i].AdditionalImageLinks != nil {
			items[i].AdditionalImageLink = pq.StringArray(localized[i].AdditionalImageLinks)
		}
	}
}

func (p *FeedPipeline) fail(ctx context.Context, dispatch types.FeedDispatch, cause error) Result {
	log := p.log.Function("fail")

	outcome := OutcomeFailed
	switch ErrorKind(cause) {
	case ErrorKindParsing:
		outcome = OutcomeParsingFailed
	case ErrorKindImageFetch:
		outcome = OutcomeImageFailed
	}

	message := FailureMessage(cause)
	log.Warn("Feed upload failed", "feedUploadID", dispatch.FeedUploadID, "outcome", outcome, "error", message)

	// The failure is recorded even when ctx was cancelled mid-run.
	if err := p.store.UpdateStatus(
		context.WithoutCancel(ctx),
		dispatch.FeedUploadID,
		models.FeedUploadStatusFinishedError,
		&message,
	); err != nil {
		log.Er("failed to mark feed upload failed", err, "feedUploadID", dispatch.FeedUploadID)
		if !isStatusRejection(err) {
			outcome = OutcomeStoreUnavailable
		}
	}

	p.removeImages(dispatch)

	return Result{Outcome: outcome, Err: cause}
}

func (p *FeedPipeline) removeImages(dispatch types.FeedDispatch) {
	if err := RemoveUploadImages(dispatch.ImagesDir, dispatch.FeedUploadID); err != nil {
		p.log.Function("removeImages").Er(
			"failed to remove feed upload images",
			err,
			"feedUploadID", dispatch.FeedUploadID,
		)
	}
}
