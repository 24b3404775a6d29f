package types

import (
	"feedloader/internal/models"
	"time"
)

// FeedUploadStatusEvent is published on every status transition of an upload.
type FeedUploadStatusEvent struct {
	FeedUploadID int                     `json:"feed_upload_id"`
	Status       models.FeedUploadStatus `json:"status"`
}

// FeedUploadStatusResponse is the read-back shape of GET /feeds/:id.
type FeedUploadStatusResponse struct {
	ID                     int                     `json:"id"`
	Status                 models.FeedUploadStatus `json:"status"`
	Error                  *string                 `json:"error"`
	ProcessingStartedAt    time.Time               `json:"feed_processing_started_at"`
	SuccessfullyFinishedAt *time.Time              `json:"feed_processing_successfully_finished_at"`
}

func NewFeedUploadStatusResponse(upload *models.FeedUpload) FeedUploadStatusResponse {
	return FeedUploadStatusResponse{
		ID:                     upload.ID,
		Status:                 upload.Status,
		Error:                  upload.Error,
		ProcessingStartedAt:    upload.CreatedAt,
		SuccessfullyFinishedAt: upload.SuccessfullyFinishedAt,
	}
}

// FeedItemResponse is a stored item without its internal row id, plus the parsed price.
type FeedItemResponse struct {
	models.FeedItem
	PriceValue *models.Price `json:"price_value,omitempty"`
	SaleValue  *models.Price `json:"sale_price_value,omitempty"`
}

func NewFeedItemResponse(item models.FeedItem) FeedItemResponse {
	item.ID = 0
	response := FeedItemResponse{FeedItem: item}
	if price, ok := models.ParsePrice(item.Price); ok {
		response.PriceValue = price
	}
	if price, ok := models.ParsePrice(item.SalePrice); ok {
		response.SaleValue = price
	}
	return response
}
