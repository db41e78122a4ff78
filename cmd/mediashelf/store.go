package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ptrevino/mediashelf"
	"github.com/ptrevino/mediashelf/config"
	"github.com/ptrevino/mediashelf/filesystem"
	"github.com/ptrevino/mediashelf/s3"
)

// buildStore constructs the object store backend selected by cfg.
// The returned cleanup function releases backend handles and must be
// called once the store is no longer needed.
func buildStore(ctx context.Context, cfg config.StorageConfig) (mediashelf.ObjectStore, func(), error) {
	switch cfg.Type {
	case "s3":
		store, err := s3.NewStore(cfg.S3)
		if err != nil {
			return nil, nil, fmt.Errorf("create s3 store: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if err := store.Ping(pingCtx); err != nil {
			return nil, nil, fmt.Errorf("ping s3 store: %w", err)
		}

		return store, func() {}, nil

	case "filesystem":
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, nil, fmt.Errorf("create storage directory: %w", err)
		}

		root, err := os.OpenRoot(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage root: %w", err)
		}

		cleanup := func() {
			_ = root.Close()
		}

		return filesystem.NewStore(root), cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
