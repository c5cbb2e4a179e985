package main

import (
	"context"
	"log/slog"

	"blog_api/internal/domain/repository"
	"blog_api/internal/platform/config"
	"blog_api/internal/platform/database"
	"blog_api/internal/platform/lock"

	"github.com/samber/oops"
)

type repositories struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
}

// openStore builds the configured repositories. close releases whatever
// connections were opened.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories, func(), error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using in-memory store; data is lost on exit")
		mem := repository.NewMemoryStore()
		return repositories{users: mem.Users(), posts: mem.Posts(), comments: mem.Comments()}, func() {}, nil
	}

	if cfg.AutoMigrate {
		if err := migrateUp(ctx, cfg, logger); err != nil {
			return repositories{}, nil, err
		}
	}

	pool, err := database.Connect(ctx, cfg.DBConnStr, logger)
	if err != nil {
		return repositories{}, nil, err
	}
	repos := repositories{
		users:    repository.NewPgUserRepository(pool),
		posts:    repository.NewPgPostRepository(pool),
		comments: repository.NewPgCommentRepository(pool),
	}
	return repos, func() {
		pool.Close()
		logger.Info("database connection closed")
	}, nil
}

// migrateUp applies pending migrations, holding the Redis lock when one is configured.
func migrateUp(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	run := func() error {
		m, err := database.NewMigrator(cfg.DBConnStr)
		if err != nil {
			return err
		}
		defer func() {
			if err := m.Close(); err != nil {
				logger.Warn("closing migrator", "error", err)
			}
		}()
		if err := m.Up(); err != nil {
			return err
		}
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		logger.Info("schema up to date", "version", v, "dirty", dirty)
		return nil
	}

	if cfg.RedisAddr == "" {
		return run()
	}

	rdb, err := lock.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
	if err != nil {
		return oops.Code("MIGRATION_LOCK_UNAVAILABLE").Wrap(err)
	}
	defer rdb.Close()

	return lock.NewRedisLock(rdb, cfg.MigrationLockKey, cfg.MigrationLockTTL(), logger).WithLock(ctx, run)
}
