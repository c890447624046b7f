package achievementdb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	achievementdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/domain"
)

// PlayerAchievement is one granted achievement.
type PlayerAchievement struct {
	bun.BaseModel `bun:"table:player_achievements,alias:pa"`

	GroupID       string     `bun:"group_id,pk"`
	PlayerID      string     `bun:"player_id,pk"`
	AchievementID string     `bun:"achievement_id,pk"`
	MatchID       *uuid.UUID `bun:"match_id,type:uuid"`
	TournamentID  *uuid.UUID `bun:"tournament_id,type:uuid"`
	UnlockedAt    time.Time  `bun:"unlocked_at,nullzero,notnull,default:current_timestamp"`
}

// Repository defines the contract for achievement persistence.
type Repository interface {
	// GetOwned returns what the given players already hold in the group.
	GetOwned(ctx context.Context, db bun.IDB, groupID string, playerIDs []string) (achievementdomain.Owned, error)

	// Grant inserts achievements, skipping ones already held, and returns
	// the rows that were actually new.
	Grant(ctx context.Context, db bun.IDB, grants []PlayerAchievement) ([]PlayerAchievement, error)

	// ListForPlayer returns a player's achievements, oldest first.
	ListForPlayer(ctx context.Context, db bun.IDB, groupID, playerID string) ([]PlayerAchievement, error)
}

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new achievement repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// GetOwned returns what the given players already hold in the group.
func (r *Impl) GetOwned(ctx context.Context, db bun.IDB, groupID string, playerIDs []string) (achievementdomain.Owned, error) {
	owned := achievementdomain.Owned{}
	if len(playerIDs) == 0 {
		return owned, nil
	}
	db = r.resolveDB(db)
	var rows []PlayerAchievement
	err := db.NewSelect().
		Model(&rows).
		Column("player_id", "achievement_id").
		Where("group_id = ?", groupID).
		Where("player_id IN (?)", bun.In(playerIDs)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("achievementdb.GetOwned: %w", err)
	}
	for _, row := range rows {
		if owned[row.PlayerID] == nil {
			owned[row.PlayerID] = map[achievementdomain.ID]bool{}
		}
		owned[row.PlayerID][achievementdomain.ID(row.AchievementID)] = true
	}
	return owned, nil
}

// Grant inserts achievements with ON CONFLICT DO NOTHING and returns the
// inserted rows.
func (r *Impl) Grant(ctx context.Context, db bun.IDB, grants []PlayerAchievement) ([]PlayerAchievement, error) {
	if len(grants) == 0 {
		return nil, nil
	}
	db = r.resolveDB(db)
	var inserted []PlayerAchievement
	_, err := db.NewInsert().
		Model(&grants).
		On("CONFLICT (group_id, player_id, achievement_id) DO NOTHING").
		Returning("*").
		Exec(ctx, &inserted)
	if err != nil {
		return nil, fmt.Errorf("achievementdb.Grant: %w", err)
	}
	return inserted, nil
}

// ListForPlayer returns a player's achievements, oldest first.
func (r *Impl) ListForPlayer(ctx context.Context, db bun.IDB, groupID, playerID string) ([]PlayerAchievement, error) {
	db = r.resolveDB(db)
	var rows []PlayerAchievement
	err := db.NewSelect().
		Model(&rows).
		Where("group_id = ?", groupID).
		Where("player_id = ?", playerID).
		Order("unlocked_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("achievementdb.ListForPlayer: %w", err)
	}
	return rows, nil
}
