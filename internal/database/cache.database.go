package database

import (
	"feedloader/config"
	"fmt"

	"github.com/valkey-io/valkey-go"
)

// Valkey database indexes, one per concern.
const (
	// STATUS_CACHE_INDEX (DB 0) holds cached feed upload status responses.
	STATUS_CACHE_INDEX = iota

	// QUEUE_INDEX (DB 1) holds the dispatch queue lists.
	QUEUE_INDEX

	// EVENTS_INDEX (DB 2) carries status event pub/sub.
	EVENTS_INDEX
)

func (s *DB) initializeCacheDB(config config.Config) error {
	log := s.log.Function("initializeCacheDB")
	log.Info("initializing cache database")

	address := config.DatabaseCacheAddress
	port := config.DatabaseCachePort
	if address == "" || port == 0 {
		return log.Errorf("failed to initialize cache database", "address or port is empty")
	}
	initAddress := []string{fmt.Sprintf("%s:%d", address, port)}

	clients := []struct {
		name   string
		index  int
		target *CacheClient
	}{
		{"status", STATUS_CACHE_INDEX, &s.Cache.Status},
		{"queue", QUEUE_INDEX, &s.Cache.Queue},
		{"events", EVENTS_INDEX, &s.Cache.Events},
	}

	for _, c := range clients {
		client, err := valkey.NewClient(valkey.ClientOption{
			InitAddress: initAddress,
			SelectDB:    c.index,
		})
		if err != nil {
			return log.Err("failed to create valkey client", err, "client", c.name)
		}
		*c.target = client
	}

	return nil
}
