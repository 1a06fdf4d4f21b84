// Package testing provides Docker-backed BadgerDB fixtures for
// integration tests against internal/infra/roundcache, adapted from the
// teacher's internal/infra/testing package (itself built for its own
// epoch-snapshot Badger store).
package testing

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-pkgz/lgr"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// BadgerContainer pairs a disposable container (used only to exercise
// container lifecycle management in tests) with a BadgerDB instance
// opened against a host-local temp directory; BadgerDB itself is
// embedded and has no server process to containerize.
type BadgerContainer struct {
	container testcontainers.Container
	db        *badger.DB
	logger    lgr.L
}

// BadgerContainerConfig configures a BadgerContainer.
type BadgerContainerConfig struct {
	Image   string
	Dir     string
	Logger  lgr.L
	Debug   bool
}

// NewBadgerContainer starts the sidecar container and opens a BadgerDB
// instance at config.Dir.
func NewBadgerContainer(ctx context.Context, config BadgerContainerConfig) (*BadgerContainer, error) {
	if config.Image == "" {
		config.Image = "alpine:latest"
	}
	if config.Logger == nil {
		config.Logger = lgr.New(lgr.Debug)
	}

	req := testcontainers.ContainerRequest{
		Image:      config.Image,
		Cmd:        []string{"sleep", "3600"},
		WaitingFor: wait.ForExec([]string{"echo", "ready"}).WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start round-cache fixture container: %w", err)
	}

	opts := badger.DefaultOptions(config.Dir)
	opts.Logger = newBadgerLogger(config.Logger)
	opts.SyncWrites = false
	opts.MemTableSize = 1 << 20

	db, err := badger.Open(opts)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to open round-cache BadgerDB: %w", err)
	}

	return &BadgerContainer{container: container, db: db, logger: config.Logger}, nil
}

// DB returns the opened BadgerDB instance.
func (bc *BadgerContainer) DB() *badger.DB {
	return bc.db
}

// Close closes the database and terminates the sidecar container.
func (bc *BadgerContainer) Close(ctx context.Context) error {
	var errs []error
	if err := bc.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close BadgerDB: %w", err))
	}
	if err := bc.container.Terminate(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to terminate fixture container: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing round-cache fixture: %v", errs)
	}
	return nil
}

// badgerLogger adapts lgr.L to badger's Logger interface.
type badgerLogger struct {
	lgr lgr.L
}

func newBadgerLogger(l lgr.L) *badgerLogger {
	return &badgerLogger{lgr: l}
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.lgr.Logf("ERROR "+format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.lgr.Logf("WARN "+format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.lgr.Logf("INFO "+format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.lgr.Logf("DEBUG "+format, args...) }
