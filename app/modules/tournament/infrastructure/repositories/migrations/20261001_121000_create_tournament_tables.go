package tournamentmigrations

import (
	"context"
	"fmt"

	tournamentdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating tournament tables...")

		models := []any{
			(*tournamentdb.Tournament)(nil),
			(*tournamentdb.Fixture)(nil),
			(*tournamentdb.Standing)(nil),
		}
		for _, model := range models {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}

		indexes := []string{
			"CREATE INDEX IF NOT EXISTS idx_tournaments_group ON tournaments (group_id, created_at DESC)",
			"CREATE INDEX IF NOT EXISTS idx_tournament_fixtures_order ON tournament_fixtures (tournament_id, position)",
		}
		for _, stmt := range indexes {
			if _, err := db.NewRaw(stmt).Exec(ctx); err != nil {
				return err
			}
		}

		fmt.Println("Tournament tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping tournament tables...")

		models := []any{
			(*tournamentdb.Standing)(nil),
			(*tournamentdb.Fixture)(nil),
			(*tournamentdb.Tournament)(nil),
		}
		for _, model := range models {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}

		fmt.Println("Tournament tables dropped successfully!")
		return nil
	})
}
