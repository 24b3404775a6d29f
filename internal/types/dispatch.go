package types

import (
	"errors"
	"fmt"
)

// FeedDispatch hands one submitted document from the API to a worker. Document is carried
// base64-encoded on the wire.
type FeedDispatch struct {
	FeedUploadID int    `json:"feed_upload_id"`
	Document     []byte `json:"document"`
	ImagesDir    string `json:"images_dir"`

	// Attempt counts earlier deliveries that ended in a redelivery.
	Attempt int `json:"attempt,omitempty"`
}

func (d FeedDispatch) Validate() error {
	if d.FeedUploadID <= 0 {
		return fmt.Errorf("invalid feed_upload_id %d", d.FeedUploadID)
	}
	if d.ImagesDir == "" {
		return errors.New("images_dir is required")
	}
	if d.Attempt < 0 {
		return fmt.Errorf("invalid attempt %d", d.Attempt)
	}
	return nil
}
