package bundb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	achievementmigrations "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/infrastructure/repositories/migrations"
	ratingmigrations "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/infrastructure/repositories/migrations"
	tournamentmigrations "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/infrastructure/repositories/migrations"
)

// ModuleMigrator is the migrator of one module.
type ModuleMigrator struct {
	Name     string
	Migrator *migrate.Migrator
}

// Migrators returns one migrator per module in dependency order. Each module
// keeps its own bookkeeping tables so groups roll back independently.
func Migrators(db *bun.DB) []ModuleMigrator {
	build := func(name string, m *migrate.Migrations) ModuleMigrator {
		return ModuleMigrator{
			Name: name,
			Migrator: migrate.NewMigrator(db, m,
				migrate.WithTableName(name+"_migrations"),
				migrate.WithLocksTableName(name+"_migration_locks"),
			),
		}
	}
	return []ModuleMigrator{
		build("rating", ratingmigrations.Migrations),
		build("achievement", achievementmigrations.Migrations),
		build("tournament", tournamentmigrations.Migrations),
	}
}

// MigrateAll initializes and applies every module migration, then the queue
// schema.
func MigrateAll(ctx context.Context, db *bun.DB, dsn string, logger *slog.Logger) error {
	for _, m := range Migrators(db) {
		if err := m.Migrator.Init(ctx); err != nil {
			return fmt.Errorf("init %s migrations: %w", m.Name, err)
		}
		group, err := m.Migrator.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("run %s migrations: %w", m.Name, err)
		}
		logger.Info("Module migrated",
			slog.String("module", m.Name),
			slog.Int64("group", group.ID),
		)
	}
	_, err := MigrateQueue(ctx, dsn)
	return err
}

// MigrateQueue brings the river job tables up to date and returns the
// versions it applied.
func MigrateQueue(ctx context.Context, dsn string) ([]int, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool for River migrations: %w", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create River migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{})
	if err != nil {
		return nil, fmt.Errorf("failed to run River migrations: %w", err)
	}

	versions := make([]int, len(res.Versions))
	for i, v := range res.Versions {
		versions[i] = v.Version
	}
	return versions, nil
}
