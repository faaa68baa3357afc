// Package storage holds file bytes. The catalog owns names, folders and
// permissions; a Store only maps opaque keys to content.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"foldervault/internal/config"
)

var ErrObjectNotFound = errors.New("object not found")

type Store interface {
	// Put writes the whole reader under key, replacing any previous object.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Open returns a reader for key; the caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "filesystem":
		return NewFSStore(cfg.Dir)
	case "memory":
		return NewMemoryStore(), nil
	case "s3":
		return NewS3Store(ctx, S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			KeyPrefix:       cfg.S3KeyPrefix,
			MaxRetries:      cfg.S3MaxRetries,
		})
	}
	return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
}
