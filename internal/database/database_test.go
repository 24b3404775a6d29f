package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheIndexes(t *testing.T) {
	assert.Equal(t, 0, STATUS_CACHE_INDEX)
	assert.Equal(t, 1, QUEUE_INDEX)
	assert.Equal(t, 2, EVENTS_INDEX)
}

func TestCacheBuilder_KeyComposition(t *testing.T) {
	assert.Equal(t, "feed_upload:42", NewCacheBuilder(nil, 42).WithHash("feed_upload").Key())
	assert.Equal(t, "plain", NewCacheBuilder(nil, "plain").WithHash("").Key())
}

func TestCacheBuilder_SetRequiresValue(t *testing.T) {
	err := NewCacheBuilder(nil, 1).Set()
	assert.EqualError(t, err, "value is required")
}

func TestCacheBuilder_MarshalErrorIsSticky(t *testing.T) {
	cb := NewCacheBuilder(nil, 1).WithStruct(make(chan int))

	assert.Error(t, cb.Set())
	_, err := cb.Get(&struct{}{})
	assert.Error(t, err)
	assert.Error(t, cb.Delete())
}

func TestCacheBuilder_TimeoutRespectsEarlierDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ctx, done := NewCacheBuilder(nil, 1).WithContext(parent).WithTimeout(time.Hour).createTimeoutContext()
	defer done()

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
}
