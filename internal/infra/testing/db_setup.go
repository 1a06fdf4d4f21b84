package testing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-pkgz/lgr"
)

// SetupTestDB starts a round-cache fixture container and opens a fresh
// BadgerDB instance in a unique temp directory, returning the database
// and a cleanup function.
func SetupTestDB(ctx context.Context) (*badger.DB, func(), error) {
	logger := lgr.NoOp

	dir, err := os.MkdirTemp("", "roundcache-test-*")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	container, err := NewBadgerContainer(ctx, BadgerContainerConfig{
		Dir:    filepath.Join(dir, "badger"),
		Logger: logger,
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, nil, err
	}

	cleanup := func() {
		if err := container.Close(ctx); err != nil {
			logger.Logf("WARN failed to close round-cache fixture: %v", err)
		}
		_ = os.RemoveAll(dir)
	}

	return container.DB(), cleanup, nil
}
