package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/jobboard-portal/config"
	"github.com/target/jobboard-portal/internal/adapters/filestore"
	"github.com/target/jobboard-portal/internal/adapters/memstore"
	pgstore "github.com/target/jobboard-portal/internal/adapters/postgres"
	redisstore "github.com/target/jobboard-portal/internal/adapters/redis"
	"github.com/target/jobboard-portal/internal/ports"
)

// RecordBackend is an opened durable record store and the resources behind it.
type RecordBackend struct {
	Store ports.RecordStore
	// Describe names the backend for logs, without credentials.
	Describe string
	closers  []func() error
}

// Close releases connections held by the backend.
func (b *RecordBackend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// StorageDeps groups inputs for OpenRecordStore.
type StorageDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger
}

// OpenRecordStore opens the durable record backend selected by SESSION_STORE.
func OpenRecordStore(ctx context.Context, deps StorageDeps) (*RecordBackend, error) {
	if deps.Config == nil {
		return nil, errors.New("storage config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	switch cfg.Storage.Backend {
	case config.StoreBackendMemory:
		return &RecordBackend{Store: memstore.New(), Describe: "memory"}, nil

	case config.StoreBackendRedis:
		client, err := openRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("open redis session store: %w", err)
		}
		store := redisstore.NewRecordStore(client, redisstore.RecordStoreOptions{
			Prefix:    cfg.Storage.RedisPrefix,
			Namespace: cfg.Storage.Namespace,
			TTL:       cfg.Storage.TTL,
		})
		return &RecordBackend{
			Store:    store,
			Describe: "redis:" + store.Key(),
			closers:  []func() error{client.Close},
		}, nil

	case config.StoreBackendPostgres:
		db, err := openPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres session store: %w", err)
		}
		return &RecordBackend{
			Store:    pgstore.NewRecordStore(db, cfg.Storage.Namespace),
			Describe: "postgres:" + cfg.Storage.Namespace,
			closers:  []func() error{db.Close},
		}, nil

	case config.StoreBackendFile, "":
		if cfg.Storage.File == "" {
			return nil, errors.New("SESSION_FILE is not set and no user config directory is available")
		}
		return &RecordBackend{Store: filestore.New(cfg.Storage.File), Describe: "file:" + cfg.Storage.File}, nil

	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.Storage.Backend)
	}
}
