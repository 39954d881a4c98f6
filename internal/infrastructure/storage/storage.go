// Package storage keeps uploaded import files between upload and execution.
// Stores are selected by storage.driver: the local filesystem (default), an
// S3 compatible bucket, or process memory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	importapp "github.com/erp/catalogsync/internal/application/import"
	"github.com/erp/catalogsync/internal/infrastructure/config"
	"go.uber.org/zap"
)

var (
	// ErrObjectNotFound is returned by Get for keys that were never stored or were deleted
	ErrObjectNotFound = errors.New("stored object not found")
	// ErrInvalidKey is returned for empty keys and keys that escape the store root
	ErrInvalidKey = errors.New("invalid storage key")
)

// validateKey rejects keys that are empty, absolute, or contain parent references
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if path.Clean(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

// New builds the blob store named by cfg.Driver
func New(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (importapp.BlobStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Driver {
	case "", "local":
		return NewLocalBlobStore(cfg.LocalPath)
	case "memory":
		logger.Warn("using in-memory blob store; uploads are lost on restart")
		return NewMemoryBlobStore(), nil
	case "s3":
		store, err := NewS3BlobStore(ctx, &cfg.S3, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}
