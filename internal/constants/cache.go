package constants

import "time"

const (
	FeedStatusCachePrefix = "feed_upload_status" // CacheBuilder adds colon
	FeedStatusCacheExpiry = time.Minute
)
