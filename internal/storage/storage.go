// Package storage holds the object-store boundary: source downloads and
// output-artifact uploads.
package storage

import "context"

// ObjectStore is abstract so AWS can be replaced with MinIO or an in-memory
// double in tests.
type ObjectStore interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, bucket, key string) error
}
