package services

import (
	"context"
	"errors"
	"feedloader/internal/models"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	logger "github.com/Bparsons0904/goLogger"
)

var (
	ErrInvalidImageID = errors.New("invalid image id")
	ErrImageNotFound  = errors.New("image not found")

	imageIDPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)
)

// UploadImagesDir is the directory holding every image localized for one upload.
func UploadImagesDir(imagesDir string, feedUploadID int) string {
	return filepath.Join(imagesDir, strconv.Itoa(feedUploadID))
}

// RemoveUploadImages deletes an upload's image directory; a missing directory is not an error.
func RemoveUploadImages(imagesDir string, feedUploadID int) error {
	return os.RemoveAll(UploadImagesDir(imagesDir, feedUploadID))
}

func IsValidImageID(imageID string) bool {
	return imageIDPattern.MatchString(imageID)
}

type FeedUploadLookup interface {
	GetByID(ctx context.Context, id int) (*models.FeedUpload, error)
}

// ImageStorageService serves and maintains the localized image tree rooted at SHARED_IMAGES_DIR.
type ImageStorageService struct {
	imagesDir string
	log       logger.Logger
}

func NewImageStorageService(imagesDir string) *ImageStorageService {
	return &ImageStorageService{
		imagesDir: imagesDir,
		log:       logger.New("imageStorageService"),
	}
}

func (s *ImageStorageService) ImagesDir() string {
	return s.imagesDir
}

// FindImage resolves an image id to its stored file, whatever extension it was saved with.
func (s *ImageStorageService) FindImage(feedUploadID int, imageID string) (string, error) {
	log := s.log.Function("FindImage")

	if !IsValidImageID(imageID) {
		return "", ErrInvalidImageID
	}

	matches, err := filepath.Glob(filepath.Join(UploadImagesDir(s.imagesDir, feedUploadID), imageID+"*"))
	if err != nil {
		return "", log.Err("failed to glob image", err, "feedUploadID", feedUploadID, "imageID", imageID)
	}

	for _, match := range matches {
		if info, err := os.Stat(match); err == nil && info.Mode().IsRegular() {
			return match, nil
		}
	}

	return "", ErrImageNotFound
}

// ListUploadDirs returns the upload ids that currently own an image directory.
func (s *ImageStorageService) ListUploadDirs() ([]int, error) {
	log := s.log.Function("ListUploadDirs")

	entries, err := os.ReadDir(s.imagesDir)
	if os.IsNotExist(err) {
		return []int{}, nil
	}
	if err != nil {
		return nil, log.Err("failed to read images directory", err, "directory", s.imagesDir)
	}

	ids := make([]int, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := strconv.Atoi(entry.Name())
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// SweepOrphans removes image directories whose upload no longer exists or ended in
// FINISHED_ERROR. Directories of in-flight or finished uploads are kept.
func (s *ImageStorageService) SweepOrphans(ctx context.Context, uploads FeedUploadLookup) (int, error) {
	log := s.log.Function("SweepOrphans")

	ids, err := s.ListUploadDirs()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		upload, err := uploads.GetByID(ctx, id)
		if err != nil {
			log.Er("failed to look up feed upload, skipping", err, "feedUploadID", id)
			continue
		}

		if upload != nil && upload.Status != models.FeedUploadStatusFinishedError {
			continue
		}

		if err := RemoveUploadImages(s.imagesDir, id); err != nil {
			log.Er("failed to remove orphaned image directory", err, "feedUploadID", id)
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Info("Removed orphaned image directories", "count", removed)
	}
	return removed, nil
}
