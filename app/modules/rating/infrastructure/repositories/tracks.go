package ratingdb

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// GetTracks returns the stored tracks of the given players keyed by player.
func (r *Impl) GetTracks(ctx context.Context, db bun.IDB, groupID, track string, playerIDs []string) (map[string]PlayerTrack, error) {
	out := make(map[string]PlayerTrack, len(playerIDs))
	if len(playerIDs) == 0 {
		return out, nil
	}
	db = r.resolveDB(db)
	var rows []PlayerTrack
	err := db.NewSelect().
		Model(&rows).
		Where("group_id = ?", groupID).
		Where("track = ?", track).
		Where("player_id IN (?)", bun.In(playerIDs)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ratingdb.GetTracks: %w", err)
	}
	for _, row := range rows {
		out[row.PlayerID] = row
	}
	return out, nil
}

// ListTracks returns every row on a track, best rating first.
func (r *Impl) ListTracks(ctx context.Context, db bun.IDB, groupID, track string) ([]PlayerTrack, error) {
	db = r.resolveDB(db)
	var rows []PlayerTrack
	err := db.NewSelect().
		Model(&rows).
		Where("group_id = ?", groupID).
		Where("track = ?", track).
		OrderExpr("rating DESC, player_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ratingdb.ListTracks: %w", err)
	}
	return rows, nil
}

// UpsertTracks writes tracks, replacing existing rows.
func (r *Impl) UpsertTracks(ctx context.Context, db bun.IDB, tracks []PlayerTrack) error {
	if len(tracks) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	now := time.Now().UTC()
	for i := range tracks {
		tracks[i].UpdatedAt = now
	}
	_, err := db.NewInsert().
		Model(&tracks).
		On("CONFLICT (group_id, player_id, track) DO UPDATE").
		Set("rating = EXCLUDED.rating").
		Set("games_played = EXCLUDED.games_played").
		Set("wins = EXCLUDED.wins").
		Set("losses = EXCLUDED.losses").
		Set("draws = EXCLUDED.draws").
		Set("current_streak = EXCLUDED.current_streak").
		Set("best_streak = EXCLUDED.best_streak").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ratingdb.UpsertTracks: %w", err)
	}
	return nil
}

// DeleteTracks removes every row on a track for the group.
func (r *Impl) DeleteTracks(ctx context.Context, db bun.IDB, groupID, track string) error {
	db = r.resolveDB(db)
	_, err := db.NewDelete().
		Model((*PlayerTrack)(nil)).
		Where("group_id = ?", groupID).
		Where("track = ?", track).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ratingdb.DeleteTracks: %w", err)
	}
	return nil
}
