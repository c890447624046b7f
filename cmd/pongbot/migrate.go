package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Black-And-White-Club/pingpong-bot/config"
	"github.com/Black-And-White-Club/pingpong-bot/db/bundb"
)

// withMigrators opens the database and hands every module migrator to fn.
func withMigrators(c *cli.Context, fn func(cfg *config.Config, ms []bundb.ModuleMigrator) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := bundb.Open(c.Context, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(cfg, bundb.Migrators(db))
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: func(c *cli.Context) error {
					return withMigrators(c, func(_ *config.Config, ms []bundb.ModuleMigrator) error {
						for _, m := range ms {
							fmt.Printf("Initializing migrations for module: %s\n", m.Name)
							if err := m.Migrator.Init(c.Context); err != nil {
								return fmt.Errorf("init %s: %w", m.Name, err)
							}
						}
						return nil
					})
				},
			},
			{
				Name:  "migrate",
				Usage: "migrate database, including the job queue schema",
				Action: func(c *cli.Context) error {
					return withMigrators(c, func(cfg *config.Config, ms []bundb.ModuleMigrator) error {
						for _, m := range ms {
							if err := m.Migrator.Lock(c.Context); err != nil {
								return fmt.Errorf("lock %s: %w", m.Name, err)
							}
							group, err := m.Migrator.Migrate(c.Context)
							_ = m.Migrator.Unlock(c.Context)
							if err != nil {
								return fmt.Errorf("migrate %s: %w", m.Name, err)
							}
							if group.IsZero() {
								fmt.Printf("No new migrations to run for module: %s\n", m.Name)
							} else {
								fmt.Printf("Migrated module: %s to %s\n", m.Name, group)
							}
						}
						versions, err := bundb.MigrateQueue(c.Context, cfg.Postgres.DSN)
						if err != nil {
							return err
						}
						if len(versions) == 0 {
							fmt.Println("No new migrations to run for module: river")
						}
						for _, v := range versions {
							fmt.Printf("Migrated module: river to version %d\n", v)
						}
						return nil
					})
				},
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group of every module",
				Action: func(c *cli.Context) error {
					return withMigrators(c, func(_ *config.Config, ms []bundb.ModuleMigrator) error {
						for i := len(ms) - 1; i >= 0; i-- {
							m := ms[i]
							group, err := m.Migrator.Rollback(c.Context)
							if err != nil {
								return fmt.Errorf("rollback %s: %w", m.Name, err)
							}
							if group.IsZero() {
								fmt.Printf("No groups to roll back for module: %s\n", m.Name)
							} else {
								fmt.Printf("Rolled back module: %s to %s\n", m.Name, group)
							}
						}
						return nil
					})
				},
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: func(c *cli.Context) error {
					return withMigrators(c, func(_ *config.Config, ms []bundb.ModuleMigrator) error {
						for _, m := range ms {
							status, err := m.Migrator.MigrationsWithStatus(c.Context)
							if err != nil {
								return fmt.Errorf("status %s: %w", m.Name, err)
							}
							fmt.Printf("Migrations for module: %s\n", m.Name)
							fmt.Printf("  Applied: %s\n", status.Applied())
							fmt.Printf("  Unapplied: %s\n", status.Unapplied())
						}
						return nil
					})
				},
			},
		},
	}
}
