package services

import (
	"context"
	"errors"
	"feedloader/internal/models"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFeedUploadLookup struct {
	mock.Mock
}

func (m *MockFeedUploadLookup) GetByID(ctx context.Context, id int) (*models.FeedUpload, error) {
	args := m.Called(ctx, id)
	upload, _ := args.Get(0).(*models.FeedUpload)
	return upload, args.Error(1)
}

func writeTestImage(t *testing.T, imagesDir string, uploadID int, name string) string {
	t.Helper()
	dir := UploadImagesDir(imagesDir, uploadID)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	target := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(target, []byte("img"), 0o644))
	return target
}

func TestImageStorageService_FindImage(t *testing.T) {
	imagesDir := t.TempDir()
	id := NewImageID()
	target := writeTestImage(t, imagesDir, 4, id+".jpg")
	service := NewImageStorageService(imagesDir)

	found, err := service.FindImage(4, id)
	require.NoError(t, err)
	assert.Equal(t, target, found)

	_, err = service.FindImage(5, id)
	assert.ErrorIs(t, err, ErrImageNotFound)

	_, err = service.FindImage(4, NewImageID())
	assert.ErrorIs(t, err, ErrImageNotFound)

	_, err = service.FindImage(4, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidImageID)
}

func TestImageStorageService_ListUploadDirs(t *testing.T) {
	imagesDir := t.TempDir()
	writeTestImage(t, imagesDir, 1, "a.jpg")
	writeTestImage(t, imagesDir, 12, "b.jpg")
	require.NoError(t, os.MkdirAll(filepath.Join(imagesDir, "tmp"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(imagesDir, "3"), []byte("file"), 0o644))

	ids, err := NewImageStorageService(imagesDir).ListUploadDirs()

	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 12}, ids)
}

func TestImageStorageService_ListUploadDirs_MissingRoot(t *testing.T) {
	ids, err := NewImageStorageService(filepath.Join(t.TempDir(), "nope")).ListUploadDirs()

	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestImageStorageService_SweepOrphans(t *testing.T) {
	imagesDir := t.TempDir()
	for id := 1; id <= 5; id++ {
		writeTestImage(t, imagesDir, id, NewImageID()+".jpg")
	}

	lookup := new(MockFeedUploadLookup)
	lookup.On("GetByID", mock.Anything, 1).Return(&models.FeedUpload{ID: 1, Status: models.FeedUploadStatusFinished}, nil)
	lookup.On("GetByID", mock.Anything, 2).Return(&models.FeedUpload{ID: 2, Status: models.FeedUploadStatusFinishedError}, nil)
	lookup.On("GetByID", mock.Anything, 3).Return(nil, nil)
	lookup.On("GetByID", mock.Anything, 4).Return(&models.FeedUpload{ID: 4, Status: models.FeedUploadStatusProcessing}, nil)
	lookup.On("GetByID", mock.Anything, 5).Return(nil, errors.New("db down"))

	removed, err := NewImageStorageService(imagesDir).SweepOrphans(context.Background(), lookup)

	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.DirExists(t, UploadImagesDir(imagesDir, 1))
	assert.NoDirExists(t, UploadImagesDir(imagesDir, 2))
	assert.NoDirExists(t, UploadImagesDir(imagesDir, 3))
	assert.DirExists(t, UploadImagesDir(imagesDir, 4))
	assert.DirExists(t, UploadImagesDir(imagesDir, 5))
	lookup.AssertExpectations(t)
}

func TestRemoveUploadImages_MissingIsNotAnError(t *testing.T) {
	assert.NoError(t, RemoveUploadImages(t.TempDir(), 99))
}
