package feedsController

import (
	"context"
	"feedloader/internal/constants"
	"feedloader/internal/database"
	"feedloader/internal/types"
	"time"

	"github.com/valkey-io/valkey-go"
)

// StatusCache holds read-back status responses keyed by upload id.
type StatusCache interface {
	Get(ctx context.Context, id int) (*types.FeedUploadStatusResponse, bool, error)
	Set(ctx context.Context, response types.FeedUploadStatusResponse) error
	Delete(ctx context.Context, id int) error
}

type valkeyStatusCache struct {
	client valkey.Client
	ttl    time.Duration
}

func NewStatusCache(client valkey.Client, ttl time.Duration) StatusCache {
	if ttl <= 0 {
		ttl = constants.FeedStatusCacheExpiry
	}
	return &valkeyStatusCache{client: client, ttl: ttl}
}

func (s *valkeyStatusCache) Get(ctx context.Context, id int) (*types.FeedUploadStatusResponse, bool, error) {
	var response types.FeedUploadStatusResponse
	found, err := database.NewCacheBuilder(s.client, id).
		WithHash(constants.FeedStatusCachePrefix).
		WithContext(ctx).
		Get(&response)
	if err != nil || !found {
		return nil, false, err
	}
	return &response, true, nil
}

func (s *valkeyStatusCache) Set(ctx context.Context, response types.FeedUploadStatusResponse) error {
	return database.NewCacheBuilder(s.client, response.ID).
		WithHash(constants.FeedStatusCachePrefix).
		WithStruct(response).
		WithTTL(s.ttl).
		WithContext(ctx).
		Set()
}

func (s *valkeyStatusCache) Delete(ctx context.Context, id int) error {
	return database.NewCacheBuilder(s.client, id).
		WithHash(constants.FeedStatusCachePrefix).
		WithContext(ctx).
		Delete()
}
