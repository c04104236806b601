// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultPrefix is the key namespace all managed packages live under.
const DefaultPrefix = "apks/"

// Config holds all application configuration.
type Config struct {
	// Storage provider configuration
	StorageProvider string `env:"STORAGE_PROVIDER" envDefault:"s3"` // "s3", "gcs", "minio" or "memory"
	Bucket          string `env:"AWS_S3_BUCKET"`

	// S3 configuration
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSRegion          string `env:"AWS_REGION"`
	S3Endpoint         string `env:"S3_ENDPOINT"` // Optional custom endpoint

	// MinIO configuration
	MinioEndpoint   string `env:"MINIO_ENDPOINT"`
	MinioUseSSL     bool   `env:"MINIO_USE_SSL" envDefault:"true"`
	MinioPublicBase string `env:"MINIO_PUBLIC_BASE"`

	// GCS configuration
	GoogleProjectID          string `env:"GOOGLE_PROJECT_ID"` // Optional quota project
	GoogleServiceAccountJSON string `env:"GOOGLE_SERVICE_ACCOUNT_JSON"`

	// HTTP
	Port               int      `env:"PORT" envDefault:"8090"`
	MaxUploadMB        int64    `env:"MAX_UPLOAD_MB" envDefault:"0"` // 0 means no cap
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	MetricsEnabled     bool     `env:"METRICS_ENABLED" envDefault:"true"`

	// Packages
	Prefix string `env:"APK_PREFIX" envDefault:"apks/"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

// Load reads configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.Prefix = NormalizePrefix(cfg.Prefix)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Bucket == "" && c.StorageProvider != "memory" {
		return fmt.Errorf("AWS_S3_BUCKET is required")
	}

	switch c.StorageProvider {
	case "s3":
		if err := c.validateS3(); err != nil {
			return err
		}
	case "minio":
		if err := c.validateMinio(); err != nil {
			return err
		}
	case "gcs":
		if err := c.validateGCS(); err != nil {
			return err
		}
	case "memory":
	case "":
		return fmt.Errorf("STORAGE_PROVIDER is required")
	default:
		return fmt.Errorf("invalid STORAGE_PROVIDER: %s (must be 's3', 'gcs', 'minio' or 'memory')", c.StorageProvider)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if c.MaxUploadMB < 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be non-negative")
	}

	if strings.Trim(c.Prefix, "/") == "" {
		return fmt.Errorf("APK_PREFIX must not be empty")
	}

	return nil
}

func (c *Config) validateS3() error {
	if c.AWSAccessKeyID == "" {
		return fmt.Errorf("AWS_ACCESS_KEY_ID is required for S3 storage")
	}
	if c.AWSSecretAccessKey == "" {
		return fmt.Errorf("AWS_SECRET_ACCESS_KEY is required for S3 storage")
	}
	if c.AWSRegion == "" && c.S3Endpoint == "" {
		return fmt.Errorf("AWS_REGION is required for S3 storage (unless S3_ENDPOINT is set)")
	}
	return nil
}

func (c *Config) validateMinio() error {
	if c.MinioEndpoint == "" {
		return fmt.Errorf("MINIO_ENDPOINT is required for MinIO storage")
	}
	if c.AWSAccessKeyID == "" || c.AWSSecretAccessKey == "" {
		return fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are required for MinIO storage")
	}
	return nil
}

func (c *Config) validateGCS() error {
	if c.GoogleServiceAccountJSON == "" {
		return fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_JSON is required for GCS storage")
	}
	return nil
}

// MaxUploadBytes returns the request body cap in bytes, or 0 when uploads are unbounded.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}

// NormalizePrefix trims surrounding slashes and guarantees exactly one trailing slash.
func NormalizePrefix(prefix string) string {
	p := strings.Trim(strings.TrimSpace(prefix), "/")
	if p == "" {
		return ""
	}
	return p + "/"
}
