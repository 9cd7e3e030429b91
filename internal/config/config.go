package config

import (
	"errors"
	"os"
	"time"

	"github.com/nmoreau/go-image-pipeline/internal/transform"
)

// Config carries all process configuration. It is loaded once in main and
// passed into component constructors; nothing reads the environment later.
type Config struct {
	Port        string
	LogLevel    string
	DatabaseDSN string

	JWTSecret string
	JWTExpiry time.Duration

	// StorageDriver is "disk" or "s3".
	StorageDriver string
	OriginalsDir  string
	ProcessedDir  string

	S3AccountID       string
	S3AccessKeyID     string
	S3AccessKeySecret string
	S3Bucket          string

	MaxUploadBytes   int64
	AllowedMimeTypes []string

	Transform transform.Config
}

const maxUploadBytes = 20 << 20 // 20 MiB

func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "3000"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseDSN:   os.Getenv("DSN"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		StorageDriver: getEnv("STORAGE_DRIVER", "disk"),
		OriginalsDir:  getEnv("ORIGINALS_DIR", "public/uploads/originals"),
		ProcessedDir:  getEnv("PROCESSED_DIR", "public/uploads/processed"),

		S3AccountID:       os.Getenv("ACCOUNT_ID"),
		S3AccessKeyID:     os.Getenv("ACCESS_KEY_ID"),
		S3AccessKeySecret: os.Getenv("ACCESS_KEY_SECRET"),
		S3Bucket:          os.Getenv("BUCKET_NAME"),

		MaxUploadBytes: maxUploadBytes,
		AllowedMimeTypes: []string{
			"image/jpeg", "image/png", "image/gif", "image/webp",
		},

		Transform: transform.DefaultConfig(),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if cfg.DatabaseDSN == "" {
		return nil, errors.New("DSN is not set")
	}

	expiry := getEnv("JWT_EXPIRES_IN", "1h")
	d, err := time.ParseDuration(expiry)
	if err != nil {
		return nil, errors.New("JWT_EXPIRES_IN is not a valid duration")
	}
	cfg.JWTExpiry = d

	if cfg.StorageDriver == "s3" && cfg.S3Bucket == "" {
		return nil, errors.New("BUCKET_NAME is required for the s3 storage driver")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
