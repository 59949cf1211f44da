// Package factory creates key-value store backends from configuration.
// It is the only package that imports every backend driver, keeping the
// binaries' wiring to a single call.
package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/moddi-tech/community/internal/config"
	"github.com/moddi-tech/community/internal/kvstore"
	"github.com/moddi-tech/community/internal/kvstore/file"
	"github.com/moddi-tech/community/internal/kvstore/memory"
	"github.com/moddi-tech/community/internal/kvstore/postgres"
	kvredis "github.com/moddi-tech/community/internal/kvstore/redis"
	kvs3 "github.com/moddi-tech/community/internal/kvstore/s3"
	"github.com/moddi-tech/community/internal/kvstore/sqlite"
)

// Open creates the kvstore.Store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (kvstore.Store, error) {
	switch cfg.Backend {
	case "memory":
		return memory.New(), nil

	case "file":
		return file.New(cfg.DataDir, logger)

	case "sqlite":
		return sqlite.New(ctx, sqlite.Config{
			Path:            cfg.SQLite.Path,
			JournalMode:     cfg.SQLite.JournalMode,
			BusyTimeout:     cfg.SQLite.BusyTimeout,
			SynchronousMode: cfg.SQLite.SynchronousMode,
		}, logger)

	case "postgres":
		return postgres.New(ctx, postgres.Config{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		}, logger)

	case "redis":
		return kvredis.New(ctx, kvredis.Config{
			Host:        cfg.Redis.Host,
			Port:        cfg.Redis.Port,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
			Prefix:      cfg.Redis.Prefix,
		}, logger)

	case "s3":
		return kvs3.New(ctx, kvs3.Config{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Prefix:          cfg.S3.Prefix,
		}, logger)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
