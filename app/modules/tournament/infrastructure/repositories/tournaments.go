package tournamentdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new tournament repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// CreateTournament inserts the tournament, its fixtures and its table.
func (r *Impl) CreateTournament(ctx context.Context, db bun.IDB, t *Tournament, fixtures []Fixture, standings []Standing) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(t).Exec(ctx); err != nil {
		return fmt.Errorf("tournamentdb.CreateTournament: %w", err)
	}
	if len(fixtures) > 0 {
		if _, err := db.NewInsert().Model(&fixtures).Exec(ctx); err != nil {
			return fmt.Errorf("tournamentdb.CreateTournament fixtures: %w", err)
		}
	}
	if len(standings) > 0 {
		if _, err := db.NewInsert().Model(&standings).Exec(ctx); err != nil {
			return fmt.Errorf("tournamentdb.CreateTournament standings: %w", err)
		}
	}
	return nil
}

// GetTournament retrieves a tournament by ID.
func (r *Impl) GetTournament(ctx context.Context, db bun.IDB, id uuid.UUID) (*Tournament, error) {
	return r.selectTournament(ctx, db, id, false)
}

// LockTournament selects the tournament row FOR UPDATE.
func (r *Impl) LockTournament(ctx context.Context, db bun.IDB, id uuid.UUID) (*Tournament, error) {
	return r.selectTournament(ctx, db, id, true)
}

func (r *Impl) selectTournament(ctx context.Context, db bun.IDB, id uuid.UUID, lock bool) (*Tournament, error) {
	db = r.resolveDB(db)
	t := new(Tournament)
	q := db.NewSelect().Model(t).Where("id = ?", id)
	if lock {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("tournamentdb.GetTournament: %w", err)
	}
	return t, nil
}

// ListTournaments returns a group's tournaments, newest first.
func (r *Impl) ListTournaments(ctx context.Context, db bun.IDB, groupID string) ([]Tournament, error) {
	db = r.resolveDB(db)
	var rows []Tournament
	err := db.NewSelect().
		Model(&rows).
		Where("group_id = ?", groupID).
		OrderExpr("created_at DESC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("tournamentdb.ListTournaments: %w", err)
	}
	return rows, nil
}

// ListFixtures returns the schedule in playing order.
func (r *Impl) ListFixtures(ctx context.Context, db bun.IDB, id uuid.UUID) ([]Fixture, error) {
	db = r.resolveDB(db)
	var rows []Fixture
	err := db.NewSelect().
		Model(&rows).
		Where("tournament_id = ?", id).
		OrderExpr("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("tournamentdb.ListFixtures: %w", err)
	}
	return rows, nil
}

// UpdateFixtures writes the result columns of each fixture.
func (r *Impl) UpdateFixtures(ctx context.Context, db bun.IDB, fixtures []Fixture) error {
	db = r.resolveDB(db)
	for i := range fixtures {
		res, err := db.NewUpdate().
			Model(&fixtures[i]).
			Column("outcome", "winner_id", "winner_sets", "loser_sets", "match_id", "forced", "resolved_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("tournamentdb.UpdateFixtures: %s: %w", fixtures[i].PairLow+":"+fixtures[i].PairHigh, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNoRowsAffected
		}
	}
	return nil
}

// ListStandings returns the stored table in player order.
func (r *Impl) ListStandings(ctx context.Context, db bun.IDB, id uuid.UUID) ([]Standing, error) {
	db = r.resolveDB(db)
	var rows []Standing
	err := db.NewSelect().
		Model(&rows).
		Where("tournament_id = ?", id).
		OrderExpr("player_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("tournamentdb.ListStandings: %w", err)
	}
	return rows, nil
}

// UpsertStandings writes table rows, replacing existing ones.
func (r *Impl) UpsertStandings(ctx context.Context, db bun.IDB, standings []Standing) error {
	if len(standings) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	now := time.Now().UTC()
	for i := range standings {
		standings[i].UpdatedAt = now
	}
	_, err := db.NewInsert().
		Model(&standings).
		On("CONFLICT (tournament_id, player_id) DO UPDATE").
		Set("points = EXCLUDED.points").
		Set("wins = EXCLUDED.wins").
		Set("draws = EXCLUDED.draws").
		Set("losses = EXCLUDED.losses").
		Set("sets_won = EXCLUDED.sets_won").
		Set("sets_lost = EXCLUDED.sets_lost").
		Set("elo_rating = EXCLUDED.elo_rating").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tournamentdb.UpsertStandings: %w", err)
	}
	return nil
}

// CompleteTournament marks an active tournament completed.
func (r *Impl) CompleteTournament(ctx context.Context, db bun.IDB, id uuid.UUID, completedAt time.Time, forced bool) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Tournament)(nil)).
		Set("status = ?", StatusCompleted).
		Set("completed_at = ?", completedAt).
		Set("forced = ?", forced).
		Where("id = ?", id).
		Where("status = ?", StatusActive).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tournamentdb.CompleteTournament: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
