package ratingdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// GetActiveSeason retrieves the group's open season.
func (r *Impl) GetActiveSeason(ctx context.Context, db bun.IDB, groupID string) (*Season, error) {
	db = r.resolveDB(db)
	season := new(Season)
	err := db.NewSelect().
		Model(season).
		Where("group_id = ?", groupID).
		Where("is_active = true").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoActiveSeason
		}
		return nil, fmt.Errorf("ratingdb.GetActiveSeason: %w", err)
	}
	return season, nil
}

// CreateSeason inserts a season record.
func (r *Impl) CreateSeason(ctx context.Context, db bun.IDB, season *Season) error {
	db = r.resolveDB(db)
	if season.ID == uuid.Nil {
		season.ID = uuid.New()
	}
	_, err := db.NewInsert().Model(season).Exec(ctx)
	if err != nil {
		return fmt.Errorf("ratingdb.CreateSeason: %w", err)
	}
	return nil
}

// DeactivateSeason sets is_active=false for one season.
func (r *Impl) DeactivateSeason(ctx context.Context, db bun.IDB, seasonID uuid.UUID) error {
	db = r.resolveDB(db)
	result, err := db.NewUpdate().
		Model((*Season)(nil)).
		Set("is_active = false").
		Where("id = ?", seasonID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ratingdb.DeactivateSeason: %w", err)
	}
	return requireRows(result)
}

// ListSeasonResets returns the opening instants of rollover seasons, oldest first.
func (r *Impl) ListSeasonResets(ctx context.Context, db bun.IDB, groupID string) ([]time.Time, error) {
	db = r.resolveDB(db)
	var resets []time.Time
	err := db.NewSelect().
		Model((*Season)(nil)).
		Column("opened_at").
		Where("group_id = ?", groupID).
		Where("opened_by_rollover = true").
		Order("opened_at ASC").
		Scan(ctx, &resets)
	if err != nil {
		return nil, fmt.Errorf("ratingdb.ListSeasonResets: %w", err)
	}
	return resets, nil
}

// SaveSeasonSnapshots archives final standings.
func (r *Impl) SaveSeasonSnapshots(ctx context.Context, db bun.IDB, snapshots []SeasonSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(&snapshots).
		On("CONFLICT (season_id, player_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ratingdb.SaveSeasonSnapshots: %w", err)
	}
	return nil
}

// GetSeasonSnapshots returns a season's archived standings ordered by rank.
func (r *Impl) GetSeasonSnapshots(ctx context.Context, db bun.IDB, seasonID uuid.UUID) ([]SeasonSnapshot, error) {
	db = r.resolveDB(db)
	var snapshots []SeasonSnapshot
	err := db.NewSelect().
		Model(&snapshots).
		Where("season_id = ?", seasonID).
		Order("rank ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ratingdb.GetSeasonSnapshots: %w", err)
	}
	return snapshots, nil
}
