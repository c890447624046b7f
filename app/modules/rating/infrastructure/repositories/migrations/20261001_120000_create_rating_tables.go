package ratingmigrations

import (
	"context"
	"fmt"

	ratingdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating rating tables...")

		models := []any{
			(*ratingdb.Group)(nil),
			(*ratingdb.PlayerTrack)(nil),
			(*ratingdb.Match)(nil),
			(*ratingdb.Season)(nil),
			(*ratingdb.SeasonSnapshot)(nil),
		}
		for _, model := range models {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}

		indexes := []string{
			"CREATE INDEX IF NOT EXISTS idx_rating_matches_group_played ON rating_matches (group_id, played_at, seq)",
			"CREATE INDEX IF NOT EXISTS idx_rating_matches_tournament ON rating_matches (tournament_id) WHERE tournament_id IS NOT NULL",
			"CREATE INDEX IF NOT EXISTS idx_rating_tracks_leaderboard ON rating_player_tracks (group_id, track, rating DESC)",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_rating_seasons_one_active ON rating_seasons (group_id) WHERE is_active",
		}
		for _, stmt := range indexes {
			if _, err := db.NewRaw(stmt).Exec(ctx); err != nil {
				return err
			}
		}

		fmt.Println("Rating tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping rating tables...")

		models := []any{
			(*ratingdb.SeasonSnapshot)(nil),
			(*ratingdb.Season)(nil),
			(*ratingdb.Match)(nil),
			(*ratingdb.PlayerTrack)(nil),
			(*ratingdb.Group)(nil),
		}
		for _, model := range models {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}

		fmt.Println("Rating tables dropped successfully!")
		return nil
	})
}
