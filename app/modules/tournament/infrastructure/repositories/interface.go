package tournamentdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for tournament persistence. Every method
// accepts an optional bun.IDB; nil falls back to the repository's connection.
type Repository interface {
	// CreateTournament inserts the tournament with its schedule and table.
	CreateTournament(ctx context.Context, db bun.IDB, t *Tournament, fixtures []Fixture, standings []Standing) error

	// GetTournament returns ErrNotFound for an unknown id.
	GetTournament(ctx context.Context, db bun.IDB, id uuid.UUID) (*Tournament, error)

	// LockTournament selects the tournament FOR UPDATE.
	LockTournament(ctx context.Context, db bun.IDB, id uuid.UUID) (*Tournament, error)

	// ListTournaments returns a group's tournaments, newest first.
	ListTournaments(ctx context.Context, db bun.IDB, groupID string) ([]Tournament, error)

	// ListFixtures returns the schedule in playing order.
	ListFixtures(ctx context.Context, db bun.IDB, id uuid.UUID) ([]Fixture, error)

	// UpdateFixtures writes fixture results.
	UpdateFixtures(ctx context.Context, db bun.IDB, fixtures []Fixture) error

	// ListStandings returns the stored table in player order.
	ListStandings(ctx context.Context, db bun.IDB, id uuid.UUID) ([]Standing, error)

	// UpsertStandings writes table rows.
	UpsertStandings(ctx context.Context, db bun.IDB, standings []Standing) error

	// CompleteTournament marks the tournament completed.
	CompleteTournament(ctx context.Context, db bun.IDB, id uuid.UUID, completedAt time.Time, forced bool) error
}
