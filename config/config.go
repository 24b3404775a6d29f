package config

import (
	logger "github.com/Bparsons0904/goLogger"

	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion        string `mapstructure:"GENERAL_VERSION"`
	Environment           string `mapstructure:"ENVIRONMENT"`
	ServerPort            int    `mapstructure:"SERVER_PORT"`
	WorkerMetricsPort     int    `mapstructure:"WORKER_METRICS_PORT"`
	DatabaseHost          string `mapstructure:"DB_HOST"`
	DatabasePort          int    `mapstructure:"DB_PORT"`
	DatabaseName          string `mapstructure:"DB_NAME"`
	DatabaseUser          string `mapstructure:"DB_USER"`
	DatabasePassword      string `mapstructure:"DB_PASSWORD"`
	DatabaseCacheAddress  string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort     int    `mapstructure:"DB_CACHE_PORT"`
	CorsAllowOrigins      string `mapstructure:"CORS_ALLOW_ORIGINS"`
	ImagesDir             string `mapstructure:"SHARED_IMAGES_DIR"`
	FeedQueueName         string `mapstructure:"FEED_QUEUE_NAME"`
	WorkerCount           int    `mapstructure:"WORKER_COUNT"`
	ImageFetchTimeoutSec  int    `mapstructure:"IMAGE_FETCH_TIMEOUT_SEC"`
	ImageFetchConcurrency int    `mapstructure:"IMAGE_FETCH_CONCURRENCY"`
	ImageCleanupEnabled   bool   `mapstructure:"IMAGE_CLEANUP_ENABLED"`
	StatusCacheTTLSec     int    `mapstructure:"STATUS_CACHE_TTL_SEC"`
	DispatchMaxAttempts   int    `mapstructure:"DISPATCH_MAX_ATTEMPTS"`
}

var ConfigInstance Config

var envVars = []string{
	"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT", "WORKER_METRICS_PORT", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
	"DB_CACHE_ADDRESS", "DB_CACHE_PORT",
	"CORS_ALLOW_ORIGINS",
	"SHARED_IMAGES_DIR", "FEED_QUEUE_NAME", "WORKER_COUNT",
	"IMAGE_FETCH_TIMEOUT_SEC", "IMAGE_FETCH_CONCURRENCY", "IMAGE_CLEANUP_ENABLED",
	"STATUS_CACHE_TTL_SEC", "DISPATCH_MAX_ATTEMPTS",
}

func setDefaults() {
	viper.SetDefault("ENVIRONMENT", "production")
	viper.SetDefault("WORKER_METRICS_PORT", 9091)
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_NAME", "feeds")
	viper.SetDefault("DB_CACHE_PORT", 6379)
	viper.SetDefault("CORS_ALLOW_ORIGINS", "*")
	viper.SetDefault("SHARED_IMAGES_DIR", "./app/images")
	viper.SetDefault("FEED_QUEUE_NAME", "feeds_queue")
	viper.SetDefault("WORKER_COUNT", 4)
	viper.SetDefault("IMAGE_FETCH_TIMEOUT_SEC", 30)
	viper.SetDefault("IMAGE_FETCH_CONCURRENCY", 8)
	viper.SetDefault("IMAGE_CLEANUP_ENABLED", true)
	viper.SetDefault("STATUS_CACHE_TTL_SEC", 60)
	viper.SetDefault("DISPATCH_MAX_ATTEMPTS", 3)
}

func New() (Config, error) {
	log := logger.New("config").Function("New")
	log.Info("Initializing config")

	viper.AutomaticEnv()
	setDefaults()

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	envVarsSet := viper.IsSet("SERVER_PORT") && viper.IsSet("DB_HOST")

	if envVarsSet {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		viper.SetConfigFile(".env")
		viper.SetConfigType("env")

		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	log.Info(
		"Successfully initialized config",
		"environment", config.Environment,
		"imagesDir", config.ImagesDir,
		"queue", config.FeedQueueName,
	)
	if err := validateConfig(config, log); err != nil {
		return Config{}, err
	}
	return ConfigInstance, nil
}

func GetConfig() Config {
	return ConfigInstance
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error(
			"Fatal error: invalid server port",
			"port", config.ServerPort,
		)
	}

	if config.WorkerMetricsPort <= 0 {
		return log.Error(
			"Fatal error: invalid worker metrics port",
			"port", config.WorkerMetricsPort,
		)
	}

	if config.ImagesDir == "" {
		return log.ErrMsg("Fatal error: SHARED_IMAGES_DIR is required")
	}

	if config.FeedQueueName == "" {
		return log.ErrMsg("Fatal error: FEED_QUEUE_NAME is required")
	}

	if config.WorkerCount <= 0 {
		return log.Error("Fatal error: invalid worker count", "workerCount", config.WorkerCount)
	}

	if config.ImageFetchTimeoutSec <= 0 {
		return log.Error(
			"Fatal error: invalid image fetch timeout",
			"timeoutSec", config.ImageFetchTimeoutSec,
		)
	}

	if config.ImageFetchConcurrency <= 0 {
		return log.Error(
			"Fatal error: invalid image fetch concurrency",
			"concurrency", config.ImageFetchConcurrency,
		)
	}

	if config.DispatchMaxAttempts <= 0 {
		return log.Error(
			"Fatal error: invalid dispatch max attempts",
			"maxAttempts", config.DispatchMaxAttempts,
		)
	}

	ConfigInstance = config
	return nil
}
