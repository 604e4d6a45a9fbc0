// Package storage keeps final tournament snapshots in an S3-compatible bucket.
package storage

import (
	"context"
	"io"
)

// StoredObject describes an object after a successful put.
type StoredObject struct {
	Key  string
	URL  string
	ETag string
}

// ObjectStore is the bucket the archive writes to.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (*StoredObject, error)
	Delete(ctx context.Context, key string) error
	// URL is where a key can be read publicly, empty for private buckets.
	URL(key string) string
}
