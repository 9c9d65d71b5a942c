// Package media defines the blob storage contract shared by diary photos
// and generated posters.
package media

import (
	"context"
	"io"
)

// StoredObject describes a persisted blob.
type StoredObject struct {
	Key      string
	Size     int64
	MimeType string
	ETag     string
}

// ObjectStorage abstracts blob storage (S3/MinIO/local).
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (StoredObject, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}
