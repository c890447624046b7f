package achievementmigrations

import (
	"context"
	"fmt"

	achievementdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/infrastructure/repositories"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

// CreatePlayerAchievementsTable creates the player_achievements table.
func CreatePlayerAchievementsTable(ctx context.Context, db *bun.DB) error {
	fmt.Println("Creating player_achievements table...")
	_, err := db.NewCreateTable().Model((*achievementdb.PlayerAchievement)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create player_achievements table: %w", err)
	}
	_, err = db.NewRaw("CREATE INDEX IF NOT EXISTS idx_player_achievements_player ON player_achievements (group_id, player_id)").Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to index player_achievements: %w", err)
	}
	fmt.Println("player_achievements table created successfully!")
	return nil
}

// DropPlayerAchievementsTable drops the player_achievements table.
func DropPlayerAchievementsTable(ctx context.Context, db *bun.DB) error {
	fmt.Println("Dropping player_achievements table...")
	_, err := db.NewDropTable().Model((*achievementdb.PlayerAchievement)(nil)).IfExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop player_achievements table: %w", err)
	}
	fmt.Println("player_achievements table dropped successfully!")
	return nil
}

func init() {
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
}
