package queue

import (
	"feedloader/internal/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeDispatch(t *testing.T) {
	dispatch := types.FeedDispatch{
		FeedUploadID: 17,
		Document:     []byte("<rss><channel/></rss>"),
		ImagesDir:    "/app/images",
		Attempt:      1,
	}

	payload, err := encodeDispatch(dispatch)
	require.NoError(t, err)

	decoded, err := decodeDispatch(payload)
	require.NoError(t, err)
	assert.Equal(t, dispatch, decoded)
}

func TestEncodeDispatch_Invalid(t *testing.T) {
	_, err := encodeDispatch(types.FeedDispatch{ImagesDir: "/app/images"})
	assert.Error(t, err)
}

func TestDecodeDispatch_Malformed(t *testing.T) {
	tests := []string{
		`not json`,
		`{"feed_upload_id": "seven"}`,
		`{"feed_upload_id": 3, "document": "%%%", "images_dir": "/x"}`,
		`{"feed_upload_id": 3, "document": "PHJzcy8+"}`,
	}

	for _, payload := range tests {
		_, err := decodeDispatch(payload)
		assert.Error(t, err, payload)
	}
}

func TestNew_ProcessingListName(t *testing.T) {
	q := New(nil, "feeds_queue")

	assert.Equal(t, "feeds_queue", q.Name())
	assert.Equal(t, "feeds_queue:processing", q.processing)
}
