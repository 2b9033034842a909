package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/memory"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/postgres"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/redis"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
	"github.com/vadimbarashkov/shortlink/migrations"

	pgpkg "github.com/vadimbarashkov/shortlink/pkg/postgres"
)

type store interface {
	usecase.Query
	usecase.Command
}

// openStore connects the document store selected by cfg.Storage.Driver.
// The returned close func releases the underlying client.
func openStore(ctx context.Context, cfg *config.Config) (store, func() error, error) {
	const op = "app.openStore"

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		return memory.New(), func() error { return nil }, nil

	case config.StoragePostgres:
		dsn := cfg.Postgres.DSN()

		db, err := pgpkg.New(
			ctx,
			dsn,
			pgpkg.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
			pgpkg.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
			pgpkg.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
			pgpkg.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
		}

		if cfg.MigrationsPath != "" {
			err = pgpkg.RunMigrations("file://"+cfg.MigrationsPath, dsn)
		} else {
			err = pgpkg.RunFSMigrations(migrations.FS, ".", dsn)
		}
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
		}

		return postgres.NewItemRepository(db), db.Close, nil

	case config.StorageRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			PoolSize:     cfg.Redis.PoolSize,
		})

		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("%s: failed to connect to redis: %w", op, err)
		}

		return redis.NewItemRepository(client, redis.WithKeyPrefix(cfg.Redis.KeyPrefix)), client.Close, nil
	}

	return nil, nil, fmt.Errorf("%s: unknown storage driver %q", op, cfg.Storage.Driver)
}
