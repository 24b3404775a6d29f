package services

import (
	"context"
	"encoding/hex"
	"feedloader/internal/metrics"
	"feedloader/internal/models"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const imageUserAgent = "feedloader-image-localizer/1.0"

// ItemImages holds the local image ids for the record at the same index.
type ItemImages struct {
	ImageLink            *string
	AdditionalImageLinks []string
}

// LocalizedImages is indexed like the records passed to Localize.
type LocalizedImages []ItemImages

type ImageLocalizer struct {
	client      *resty.Client
	concurrency int
	log         logger.Logger
}

func NewImageLocalizer(timeout time.Duration, concurrency int) *ImageLocalizer {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", imageUserAgent)

	return &ImageLocalizer{
		client:      client,
		concurrency: max(concurrency, 1),
		log:         logger.New("ImageLocalizer"),
	}
}

// NewImageID returns a fresh opaque image identifier: a random UUID as 32 hex characters.
func NewImageID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// imageExtension returns the extension of the URL path, ignoring query and fragment.
func imageExtension(rawURL string) string {
	if parsed, err := url.Parse(rawURL); err == nil {
		return path.Ext(parsed.Path)
	}
	return path.Ext(rawURL)
}

// Localize downloads every primary and additional image of items into
// <imagesDir>/<feedUploadID>. Any failed fetch fails the whole call with *ImageFetchError and
// no partial result is returned.
func (l *ImageLocalizer) Localize(
	ctx context.Context,
	imagesDir string,
	feedUploadID int,
	items []models.FeedItem,
) (LocalizedImages, error) {
	log := l.log.Function("Localize")

	if len(items) == 0 {
		return LocalizedImages{}, nil
	}

	dir := UploadImagesDir(imagesDir, feedUploadID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, log.Err("failed to create images directory", err, "directory", dir)
	}

	result := make(LocalizedImages, len(items))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(l.concurrency)

	units := 0
	for idx, item := range items {
		if item.ImageLink != nil {
			imageURL := *item.ImageLink
			units++
			group.Go(func() error {
				id, err := l.fetch(groupCtx, dir, imageURL)
				if err != nil {
					return err
				}
				result[idx].ImageLink = &id
				return nil
			})
		}

		if len(item.AdditionalImageLink) == 0 {
			continue
		}

		result[idx].AdditionalImageLinks = make([]string, len(item.AdditionalImageLink))
		for slot, imageURL := range item.AdditionalImageLink {
			units++
			group.Go(func() error {
				id, err := l.fetch(groupCtx, dir, imageURL)
				if err != nil {
					return err
				}
				result[idx].AdditionalImageLinks[slot] = id
				return nil
			})
		}
	}

	if err := group.Wait(); err != nil {
		return nil, log.Err("failed to localize images", err, "feedUploadID", feedUploadID)
	}

	log.Info("Localized images", "feedUploadID", feedUploadID, "images", units)
	return result, nil
}

func (l *ImageLocalizer) fetch(ctx context.Context, dir, imageURL string) (string, error) {
	resp, err := l.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(imageURL)
	if err != nil {
		metrics.IncImageFetch("network_error")
		return "", &ImageFetchError{URL: imageURL, Err: err}
	}

	body := resp.RawBody()
	defer body.Close()

	if !resp.IsSuccess() {
		metrics.IncImageFetch("http_error")
		return "", &ImageFetchError{URL: imageURL, StatusCode: resp.StatusCode()}
	}

	id := NewImageID()
	if err := writeImage(filepath.Join(dir, id+imageExtension(imageURL)), body); err != nil {
		metrics.IncImageFetch("write_error")
		return "", &ImageFetchError{URL: imageURL, Err: err}
	}

	metrics.IncImageFetch("stored")
	return id, nil
}

func writeImage(target string, body io.Reader) error {
	file, err := os.Create(target)
	if err != nil {
		return err
	}

	if _, err := io.Copy(file, body); err != nil {
		file.Close()
		os.Remove(target)
		return err
	}

	if err := file.Close(); err != nil {
		os.Remove(target)
		return err
	}

	return nil
}
