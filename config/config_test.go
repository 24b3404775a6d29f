package config

import (
	"testing"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		ServerPort:            8288,
		WorkerMetricsPort:     9091,
		ImagesDir:             "/app/images",
		FeedQueueName:         "feeds_queue",
		WorkerCount:           4,
		ImageFetchTimeoutSec:  30,
		ImageFetchConcurrency: 8,
		DispatchMaxAttempts:   3,
	}
}

func TestValidateConfig(t *testing.T) {
	log := logger.New("config_test")

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"server port", func(c *Config) { c.ServerPort = 0 }, true},
		{"worker metrics port", func(c *Config) { c.WorkerMetricsPort = 0 }, true},
		{"images dir", func(c *Config) { c.ImagesDir = "" }, true},
		{"queue name", func(c *Config) { c.FeedQueueName = "" }, true},
		{"worker count", func(c *Config) { c.WorkerCount = 0 }, true},
		{"fetch timeout", func(c *Config) { c.ImageFetchTimeoutSec = -1 }, true},
		{"fetch concurrency", func(c *Config) { c.ImageFetchConcurrency = 0 }, true},
		{"max attempts", func(c *Config) { c.DispatchMaxAttempts = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(&config)

			err := validateConfig(config, log)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, config, GetConfig())
		})
	}
}
