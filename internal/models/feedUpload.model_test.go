package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedUploadStatus_StoredValues(t *testing.T) {
	assert.Equal(t, 1, int(FeedUploadStatusQueued))
	assert.Equal(t, 2, int(FeedUploadStatusProcessing))
	assert.Equal(t, 3, int(FeedUploadStatusFinished))
	assert.Equal(t, 4, int(FeedUploadStatusFinishedError))
}

func TestFeedUploadStatus_IsTerminal(t *testing.T) {
	assert.False(t, FeedUploadStatusQueued.IsTerminal())
	assert.False(t, FeedUploadStatusProcessing.IsTerminal())
	assert.True(t, FeedUploadStatusFinished.IsTerminal())
	assert.True(t, FeedUploadStatusFinishedError.IsTerminal())
}

func TestFeedUploadStatus_JSON(t *testing.T) {
	data, err := json.Marshal(FeedUploadStatusFinishedError)
	require.NoError(t, err)
	assert.Equal(t, `"FINISHED_ERROR"`, string(data))

	var byName, byValue FeedUploadStatus
	require.NoError(t, json.Unmarshal([]byte(`"PROCESSING"`), &byName))
	require.NoError(t, json.Unmarshal([]byte(`3`), &byValue))
	assert.Equal(t, FeedUploadStatusProcessing, byName)
	assert.Equal(t, FeedUploadStatusFinished, byValue)

	assert.Error(t, json.Unmarshal([]byte(`"DONE"`), &byName))
	assert.Error(t, json.Unmarshal([]byte(`9`), &byValue))
}

func TestFeedUploadStatus_Scan(t *testing.T) {
	var status FeedUploadStatus
	require.NoError(t, status.Scan(int64(2)))
	assert.Equal(t, FeedUploadStatusProcessing, status)

	require.NoError(t, status.Scan([]byte("4")))
	assert.Equal(t, FeedUploadStatusFinishedError, status)

	assert.Error(t, status.Scan("x"))

	value, err := FeedUploadStatusQueued.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(1), value)
}

func TestFeedUpload_IsConsistent(t *testing.T) {
	message := "ParsingError: malformed document"
	now := time.Now()

	assert.True(t, (&FeedUpload{Status: FeedUploadStatusQueued}).IsConsistent())
	assert.True(t, (&FeedUpload{Status: FeedUploadStatusFinishedError, Error: &message}).IsConsistent())
	assert.True(t, (&FeedUpload{Status: FeedUploadStatusFinished, SuccessfullyFinishedAt: &now}).IsConsistent())
	assert.False(t, (&FeedUpload{Status: FeedUploadStatusFinished}).IsConsistent())
	assert.False(t, (&FeedUpload{Status: FeedUploadStatusProcessing, Error: &message}).IsConsistent())
}

func TestParsePrice(t *testing.T) {
	raw := "299.00 nok"
	price, ok := ParsePrice(&raw)
	require.True(t, ok)
	assert.Equal(t, "299", price.Amount.String())
	assert.Equal(t, "NOK", price.Currency)

	bare := "12.5"
	price, ok = ParsePrice(&bare)
	require.True(t, ok)
	assert.Empty(t, price.Currency)

	invalid := "free"
	_, ok = ParsePrice(&invalid)
	assert.False(t, ok)

	_, ok = ParsePrice(nil)
	assert.False(t, ok)
}

func TestFeedItem_ImageIDs(t *testing.T) {
	primary := "aaa"
	item := FeedItem{ImageLink: &primary, AdditionalImageLink: []string{"bbb", "ccc"}}

	assert.Equal(t, []string{"aaa", "bbb", "ccc"}, item.ImageIDs())
	assert.Empty(t, (&FeedItem{}).ImageIDs())
}
