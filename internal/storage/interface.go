// Package storage defines the interface for package storage providers.
package storage

import (
	"context"
	"io"
	"time"
)

// PackageContentType is stored on every uploaded object regardless of its actual content.
const PackageContentType = "application/vnd.android.package-archive"

// Storage defines the object-storage operations the portal depends on.
type Storage interface {
	// List returns all objects whose key starts with prefix, in backend order.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Upload stores the reader's content under key, creating or overwriting the object.
	// size is the exact byte count, or -1 when unknown.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Delete removes the object with the given key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// PublicURL returns the unauthenticated download link for key.
	PublicURL(key string) string
}

// ObjectInfo contains information about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}
