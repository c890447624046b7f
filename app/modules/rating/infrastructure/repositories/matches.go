package ratingdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// InsertMatch appends a match to the log.
func (r *Impl) InsertMatch(ctx context.Context, db bun.IDB, match *Match) error {
	db = r.resolveDB(db)
	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}
	if match.Status == "" {
		match.Status = StatusConfirmed
	}
	_, err := db.NewInsert().
		Model(match).
		Returning("seq").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ratingdb.InsertMatch: %w", err)
	}
	return nil
}

// GetMatch retrieves one match of the group.
func (r *Impl) GetMatch(ctx context.Context, db bun.IDB, groupID string, matchID uuid.UUID) (*Match, error) {
	db = r.resolveDB(db)
	match := new(Match)
	err := db.NewSelect().
		Model(match).
		Where("id = ?", matchID).
		Where("group_id = ?", groupID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ratingdb.GetMatch: %w", err)
	}
	return match, nil
}

// UpdateMatchStatus changes a match's status.
func (r *Impl) UpdateMatchStatus(ctx context.Context, db bun.IDB, groupID string, matchID uuid.UUID, status string) error {
	db = r.resolveDB(db)
	result, err := db.NewUpdate().
		Model((*Match)(nil)).
		Set("status = ?", status).
		Where("id = ?", matchID).
		Where("group_id = ?", groupID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ratingdb.UpdateMatchStatus: %w", err)
	}
	return requireRows(result)
}

// DeleteMatch removes a match from the log.
func (r *Impl) DeleteMatch(ctx context.Context, db bun.IDB, groupID string, matchID uuid.UUID) error {
	db = r.resolveDB(db)
	result, err := db.NewDelete().
		Model((*Match)(nil)).
		Where("id = ?", matchID).
		Where("group_id = ?", groupID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ratingdb.DeleteMatch: %w", err)
	}
	return requireRows(result)
}

// ListActiveMatches returns the non-disputed log ordered by play time, then
// insertion order.
func (r *Impl) ListActiveMatches(ctx context.Context, db bun.IDB, groupID string) ([]Match, error) {
	db = r.resolveDB(db)
	var matches []Match
	err := db.NewSelect().
		Model(&matches).
		Where("group_id = ?", groupID).
		Where("status <> ?", StatusDisputed).
		OrderExpr("played_at ASC, seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ratingdb.ListActiveMatches: %w", err)
	}
	return matches, nil
}

// UpdateMatchSnapshots rewrites the rating snapshot columns of each match.
func (r *Impl) UpdateMatchSnapshots(ctx context.Context, db bun.IDB, matches []Match) error {
	db = r.resolveDB(db)
	for i := range matches {
		_, err := db.NewUpdate().
			Model(&matches[i]).
			Column("elo_before", "elo_after", "change").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("ratingdb.UpdateMatchSnapshots: match %s: %w", matches[i].ID, err)
		}
	}
	return nil
}

func requireRows(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
