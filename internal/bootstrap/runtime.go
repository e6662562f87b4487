// Package bootstrap wires the process-level dependencies shared by the
// server and the admin commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDefaults creates the fixture categories when they are missing.
	SeedDefaults bool
}

// InitRuntime connects to the database and Redis, applies the schema and
// optionally seeds default categories. The Redis client is nil when Redis is
// not configured or unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		_ = database.Close(db)
		return nil, nil, fmt.Errorf("schema apply failed: %w", err)
	}

	if opts.SeedDefaults {
		categories, err := seed.EnsureCategories(ctx, db, seed.DefaultFixtures().Categories)
		if err != nil {
			_ = database.Close(db)
			return nil, nil, fmt.Errorf("failed to seed default categories: %w", err)
		}
		middleware.Logger.Info("Default categories ensured", slog.Int("count", len(categories)))
	}

	return db, cache.InitRedis(cfg.RedisURL), nil
}
