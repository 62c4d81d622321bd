// Package store opens the settings store selected by the configuration.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/macterm/prefs-converter/converter/internal/config"
	"github.com/macterm/prefs-converter/converter/internal/domain"
	"github.com/macterm/prefs-converter/converter/internal/domain/etcdstore"
	"github.com/macterm/prefs-converter/converter/internal/domain/filestore"
	"github.com/macterm/prefs-converter/converter/internal/domain/sqlitestore"
	"github.com/macterm/prefs-converter/converter/internal/logging"
)

// Backend is an open settings store plus whatever has to be released when the
// converter exits.
type Backend struct {
	Store   domain.Store
	Type    config.StorageType
	closeFn func() error
}

// Open connects to the configured backend. fs is used by the file backend.
func Open(ctx context.Context, cfg config.Config, fs afero.Fs, logger zerolog.Logger) (*Backend, error) {
	logger = logger.With().
		Str("component", "store").
		Str("storage_type", string(cfg.StorageType)).
		Logger()

	switch cfg.StorageType {
	case config.StorageTypeFile:
		logger.Debug().Str("dir", cfg.File.Dir).Msg("using file store")
		return &Backend{
			Store: filestore.NewStore(fs, cfg.File.Dir),
			Type:  cfg.StorageType,
		}, nil
	case config.StorageTypeSQLite:
		s, err := sqlitestore.Open(cfg.SQLite.Path, logging.Slog(logger, logger.GetLevel()))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return &Backend{
			Store:   s,
			Type:    cfg.StorageType,
			closeFn: s.Close,
		}, nil
	case config.StorageTypeEtcd:
		client, err := newEtcdClient(ctx, cfg.Etcd, logger)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store:   etcdstore.NewStore(client, cfg.Etcd.KeyRoot, cfg.Etcd.MaxTxnOps),
			Type:    cfg.StorageType,
			closeFn: client.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.StorageType)
	}
}

func newEtcdClient(ctx context.Context, cfg config.Etcd, logger zerolog.Logger) (*clientv3.Client, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse etcd log level: %w", err)
	}
	dialTimeout := time.Duration(cfg.DialTimeoutSeconds) * time.Second
	client, err := clientv3.New(clientv3.Config{
		Logger:      logging.Zap(logger, level),
		Endpoints:   cfg.Endpoints,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DialTimeout: dialTimeout,
		Context:     ctx,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	// clientv3.New doesn't block on the connection, so check it here to fail
	// before any migration starts.
	statusCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if _, err := client.Status(statusCtx, cfg.Endpoints[0]); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach etcd at %s: %w", cfg.Endpoints[0], err)
	}
	logger.Debug().Strs("endpoints", cfg.Endpoints).Msg("connected to etcd")

	return client, nil
}

// Shutdown releases the backend. It is safe to call more than once.
func (b *Backend) Shutdown() error {
	if b.closeFn == nil {
		return nil
	}
	closeFn := b.closeFn
	b.closeFn = nil
	return closeFn()
}
