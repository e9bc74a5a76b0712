package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string

	Token          string
	ChannelID      string
	ReviewerID     int64
	WebhookBaseURL string

	DatabaseURL string

	RedisURL string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	ReviewGranularity string
	StoreTimeout      time.Duration
	AlbumBufferTTL    time.Duration
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8443"),
		Environment: getEnv("ENVIRONMENT", "development"),

		Token:          getEnv("TOKEN", ""),
		ChannelID:      getEnv("CHANNEL_ID", ""),
		ReviewerID:     getInt64Env("REVIEWER_ID", 0),
		WebhookBaseURL: getEnv("WEBHOOK_BASE_URL", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisURL: getEnv("REDIS_URL", ""),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinIOBucket:    getEnv("MINIO_BUCKET", "winter-refes"),
		MinIOUseSSL:    getBoolEnv("MINIO_USE_SSL", false),

		ReviewGranularity: getEnv("REVIEW_GRANULARITY", "per-photo"),
		StoreTimeout:      getDurationEnv("STORE_TIMEOUT", 5*time.Second),
		AlbumBufferTTL:    getDurationEnv("ALBUM_BUFFER_TTL", 24*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
