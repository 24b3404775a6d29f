package repositories

import (
	"context"
	"errors"
	"feedloader/internal/database"
	"fmt"
	"time"

	contextutil "feedloader/internal/context"
	. "feedloader/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

var (
	// ErrFeedUploadNotUpdatable is returned when the row is missing or already terminal.
	ErrFeedUploadNotUpdatable = errors.New("feed upload is missing or already in a terminal state")
	ErrInvalidStatusUpdate    = errors.New("invalid feed upload status update")
)

var terminalStatuses = []FeedUploadStatus{FeedUploadStatusFinished, FeedUploadStatusFinishedError}

type FeedUploadRepository interface {
	Create(ctx context.Context) (*FeedUpload, error)
	GetByID(ctx context.Context, id int) (*FeedUpload, error)
	UpdateStatus(ctx context.Context, id int, status FeedUploadStatus, errorMessage *string) error
	MarkFinished(ctx context.Context, id int, finishedAt time.Time) error
}

type feedUploadRepository struct {
	db  database.DB
	log logger.Logger
}

func NewFeedUploadRepository(db database.DB) FeedUploadRepository {
	return &feedUploadRepository{
		db:  db,
		log: logger.New("feedUploadRepository"),
	}
}

func (r *feedUploadRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextutil.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *feedUploadRepository) Create(ctx context.Context) (*FeedUpload, error) {
	log := r.log.Function("Create")

	upload := &FeedUpload{Status: FeedUploadStatusQueued}
	if err := r.getDB(ctx).Create(upload).Error; err != nil {
		return nil, log.Err("failed to create feed upload", err)
	}

	return upload, nil
}

func (r *feedUploadRepository) GetByID(ctx context.Context, id int) (*FeedUpload, error) {
	log := r.log.Function("GetByID")

	var upload FeedUpload
	if err := r.getDB(ctx).First(&upload, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, log.Err("failed to get feed upload", err, "id", id)
	}

	return &upload, nil
}

// UpdateStatus changes status and, when supplied, error. FINISHED is only reachable through
// MarkFinished, FINISHED_ERROR requires an error message, and terminal rows are never touched.
func (r *feedUploadRepository) UpdateStatus(
	ctx context.Context,
	id int,
	status FeedUploadStatus,
	errorMessage *string,
) error {
	log := r.log.Function("UpdateStatus")

	switch {
	case !status.IsValid(), status == FeedUploadStatusFinished:
		return fmt.Errorf("%w: cannot set %s", ErrInvalidStatusUpdate, status)
	case status == FeedUploadStatusFinishedError && errorMessage == nil:
		return fmt.Errorf("%w: %s requires an error message", ErrInvalidStatusUpdate, status)
	case status != FeedUploadStatusFinishedError && errorMessage != nil:
		return fmt.Errorf("%w: only %s carries an error message", ErrInvalidStatusUpdate, FeedUploadStatusFinishedError)
	}

	updates := map[string]any{"status": status}
	if errorMessage != nil {
		updates["error"] = *errorMessage
	}

	result := r.getDB(ctx).
		Model(&FeedUpload{}).
		Where("id = ? AND status NOT IN ?", id, terminalStatuses).
		Updates(updates)
	if result.Error != nil {
		return log.Err("failed to update feed upload status", result.Error, "id", id, "status", status)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("update feed upload %d to %s: %w", id, status, ErrFeedUploadNotUpdatable)
	}

	return nil
}

// MarkFinished flips a PROCESSING upload to FINISHED and stamps its completion time.
func (r *feedUploadRepository) MarkFinished(ctx context.Context, id int, finishedAt time.Time) error {
	log := r.log.Function("MarkFinished")

	result := r.getDB(ctx).
		Model(&FeedUpload{}).
		Where("id = ? AND status = ?", id, FeedUploadStatusProcessing).
		Updates(map[string]any{
			"status":                   FeedUploadStatusFinished,
			"successfully_finished_at": finishedAt,
		})
	if result.Error != nil {
		return log.Err("failed to mark feed upload finished", result.Error, "id", id)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("finish feed upload %d: %w", id, ErrFeedUploadNotUpdatable)
	}

	return nil
}
