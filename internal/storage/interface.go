package storage

import (
	"context"
	"io"
)

// ObjectStorage holds the artwork image files. The index pipeline only
// needs keys and public URLs; bytes move through Upload/Delete at the
// ingestion edge.
type ObjectStorage interface {
	// Upload uploads an object to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// GetURL returns the public URL for accessing an object
	GetURL(key string) string

	// Delete deletes an object from storage
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)
}
