package services

import (
	"context"
	"errors"
	"feedloader/internal/models"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImageServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing.png":
			http.NotFound(w, r)
		case "/broken.jpg":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte("image:" + r.URL.Path))
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func strPtr(s string) *string {
	return &s
}

func TestImageLocalizer_Localize_EmptyInput(t *testing.T) {
	imagesDir := filepath.Join(t.TempDir(), "images")

	result, err := NewImageLocalizer(time.Second, 4).Localize(context.Background(), imagesDir, 1, nil)

	require.NoError(t, err)
	assert.Empty(t, result)
	_, statErr := os.Stat(imagesDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestImageLocalizer_Localize_Success(t *testing.T) {
	server := newImageServer(t)
	imagesDir := t.TempDir()

	items := []models.FeedItem{
		{
			FeedItemID:          "dup",
			ImageLink:           strPtr(server.URL + "/a.jpg"),
			AdditionalImageLink: pq.StringArray{server.URL + "/b.png?size=large", server.URL + "/c"},
		},
		{FeedItemID: "dup", ImageLink: strPtr(server.URL + "/d.jpg")},
		{FeedItemID: "plain"},
	}

	result, err := NewImageLocalizer(time.Second, 2).Localize(context.Background(), imagesDir, 7, items)
	require.NoError(t, err)
	require.Len(t, result, 3)

	dir := UploadImagesDir(imagesDir, 7)

	require.NotNil(t, result[0].ImageLink)
	assert.True(t, IsValidImageID(*result[0].ImageLink))
	assert.FileExists(t, filepath.Join(dir, *result[0].ImageLink+".jpg"))

	content, err := os.ReadFile(filepath.Join(dir, *result[0].ImageLink+".jpg"))
	require.NoError(t, err)
	assert.Equal(t, "image:/a.jpg", string(content))

	require.Len(t, result[0].AdditionalImageLinks, 2)
	assert.FileExists(t, filepath.Join(dir, result[0].AdditionalImageLinks[0]+".png"))
	assert.FileExists(t, filepath.Join(dir, result[0].AdditionalImageLinks[1]))

	require.NotNil(t, result[1].ImageLink)
	assert.NotEqual(t, *result[0].ImageLink, *result[1].ImageLink)
	assert.Nil(t, result[1].AdditionalImageLinks)

	assert.Nil(t, result[2].ImageLink)
	assert.Nil(t, result[2].AdditionalImageLinks)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestImageLocalizer_Localize_HTTPError(t *testing.T) {
	server := newImageServer(t)

	items := []models.FeedItem{
		{FeedItemID: "1", ImageLink: strPtr(server.URL + "/a.jpg")},
		{FeedItemID: "2", AdditionalImageLink: pq.StringArray{server.URL + "/missing.png"}},
	}

	result, err := NewImageLocalizer(time.Second, 4).Localize(context.Background(), t.TempDir(), 3, items)

	assert.Nil(t, result)
	var imageErr *ImageFetchError
	require.True(t, errors.As(err, &imageErr))
	assert.Equal(t, server.URL+"/missing.png", imageErr.URL)
	assert.Equal(t, http.StatusNotFound, imageErr.StatusCode)
}

func TestImageLocalizer_Localize_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	unreachable := server.URL + "/gone.jpg"
	server.Close()

	items := []models.FeedItem{{FeedItemID: "1", ImageLink: strPtr(unreachable)}}

	_, err := NewImageLocalizer(time.Second, 1).Localize(context.Background(), t.TempDir(), 3, items)

	var imageErr *ImageFetchError
	require.True(t, errors.As(err, &imageErr))
	assert.Equal(t, unreachable, imageErr.URL)
	assert.Error(t, imageErr.Err)
}

func TestImageLocalizer_Localize_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	items := []models.FeedItem{{FeedItemID: "1", ImageLink: strPtr(server.URL + "/slow.jpg")}}

	_, err := NewImageLocalizer(50*time.Millisecond, 1).Localize(context.Background(), t.TempDir(), 3, items)

	var imageErr *ImageFetchError
	assert.True(t, errors.As(err, &imageErr))
}

func TestImageLocalizer_Localize_BoundedConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			seen := peak.Load()
			if current <= seen || peak.CompareAndSwap(seen, current) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	links := make(pq.StringArray, 12)
	for i := range links {
		links[i] = server.URL + "/img.jpg"
	}
	items := []models.FeedItem{{FeedItemID: "1", AdditionalImageLink: links}}

	result, err := NewImageLocalizer(time.Second, 3).Localize(context.Background(), t.TempDir(), 5, items)

	require.NoError(t, err)
	assert.Len(t, result[0].AdditionalImageLinks, 12)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestImageExtension(t *testing.T) {
	assert.Equal(t, ".jpg", imageExtension("https://cdn.example.com/a/b.jpg"))
	assert.Equal(t, ".png", imageExtension("https://cdn.example.com/b.png?v=2#top"))
	assert.Equal(t, "", imageExtension("https://cdn.example.com/image"))
}

func TestNewImageID(t *testing.T) {
	first, second := NewImageID(), NewImageID()

	assert.True(t, IsValidImageID(first))
	assert.NotEqual(t, first, second)
}
