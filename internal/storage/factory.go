package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/imedwei/apk-portal/internal/config"
	"github.com/imedwei/apk-portal/internal/metrics"
)

// InstrumentedStorage wraps a Storage implementation and records metrics for
// every call. Errors are passed through untouched; there are no retries.
type InstrumentedStorage struct {
	storage  Storage
	provider string
}

// NewInstrumentedStorage creates a new storage wrapper that records metrics.
func NewInstrumentedStorage(storage Storage, provider string) *InstrumentedStorage {
	return &InstrumentedStorage{
		storage:  storage,
		provider: provider,
	}
}

// Upload implements Storage.Upload.
func (i *InstrumentedStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	counter := &countingReader{reader: reader}
	err := i.observe("upload", func() error {
		return i.storage.Upload(ctx, key, counter, size, contentType)
	})
	if err == nil {
		metrics.UploadedBytes.Add(float64(counter.count))
	}
	return err
}

// Delete implements Storage.Delete.
func (i *InstrumentedStorage) Delete(ctx context.Context, key string) error {
	return i.observe("delete", func() error {
		return i.storage.Delete(ctx, key)
	})
}

// List implements Storage.List.
func (i *InstrumentedStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var result []ObjectInfo
	err := i.observe("list", func() error {
		var err error
		result, err = i.storage.List(ctx, prefix)
		return err
	})
	return result, err
}

// Close releases the wrapped provider's client if it holds one.
func (i *InstrumentedStorage) Close() error {
	if closer, ok := i.storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// PublicURL implements Storage.PublicURL.
func (i *InstrumentedStorage) PublicURL(key string) string {
	return i.storage.PublicURL(key)
}

// observe runs fn and records its outcome and duration.
func (i *InstrumentedStorage) observe(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStorageOperation(operation, i.provider, err == nil, time.Since(start))
	return err
}

// countingReader counts the bytes read through it.
type countingReader struct {
	reader io.Reader
	count  int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	cr.count += int64(n)
	return n, err
}

// NewStorage creates a storage provider based on configuration.
func NewStorage(ctx context.Context, cfg *config.Config) (Storage, error) {
	var storage Storage
	var err error

	switch cfg.StorageProvider {
	case "s3":
		s3Config := S3Config{
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Region:          cfg.AWSRegion,
			Bucket:          cfg.Bucket,
			Endpoint:        cfg.S3Endpoint,
			UsePathStyle:    cfg.S3Endpoint != "", // Use path style for custom endpoints
		}
		storage, err = NewS3Storage(ctx, s3Config)

	case "gcs":
		// Validate service account JSON
		if err := ValidateServiceAccountJSON(cfg.GoogleServiceAccountJSON); err != nil {
			return nil, fmt.Errorf("invalid GCS service account: %w", err)
		}

		gcsConfig := GCSConfig{
			Bucket:             cfg.Bucket,
			ProjectID:          cfg.GoogleProjectID,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		}
		storage, err = NewGCSStorage(ctx, gcsConfig)

	case "minio":
		minioConfig := MinioConfig{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Bucket:          cfg.Bucket,
			Region:          cfg.AWSRegion,
			UseSSL:          cfg.MinioUseSSL,
			PublicBase:      cfg.MinioPublicBase,
		}
		storage, err = NewMinioStorage(minioConfig)

	case "memory":
		storage = NewMemoryStorage(cfg.Bucket)

	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.StorageProvider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage: %w", cfg.StorageProvider, err)
	}

	return NewInstrumentedStorage(storage, cfg.StorageProvider), nil
}
