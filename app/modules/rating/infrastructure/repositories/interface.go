package ratingdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for rating persistence.
// Every method accepts an optional bun.IDB so callers can run it inside a
// transaction; nil falls back to the repository's connection.
//
// Error semantics:
//   - ErrNotFound: record does not exist
//   - ErrNoActiveSeason: group has no open season
//   - ErrNoRowsAffected: UPDATE/DELETE matched no rows
//   - Other errors: infrastructure failures
type Repository interface {
	// EnsureGroup returns the group, creating it with the given baseline on
	// first use.
	EnsureGroup(ctx context.Context, db bun.IDB, groupID string, baseline int) (*Group, error)

	// GetGroup retrieves a group. Returns ErrNotFound if it was never used.
	GetGroup(ctx context.Context, db bun.IDB, groupID string) (*Group, error)

	// LockGroup takes a row lock on the group for the rest of the transaction.
	LockGroup(ctx context.Context, db bun.IDB, groupID string) (*Group, error)

	// UpdateGroupSettings writes the group's settings.
	UpdateGroupSettings(ctx context.Context, db bun.IDB, group *Group) error

	// ListGroupIDs returns every known group.
	ListGroupIDs(ctx context.Context, db bun.IDB) ([]string, error)

	// GetTracks returns the stored tracks of the given players, keyed by
	// player. Players without a row are absent from the map.
	GetTracks(ctx context.Context, db bun.IDB, groupID, track string, playerIDs []string) (map[string]PlayerTrack, error)

	// ListTracks returns every player's row on a track.
	ListTracks(ctx context.Context, db bun.IDB, groupID, track string) ([]PlayerTrack, error)

	// UpsertTracks writes tracks, replacing existing rows.
	UpsertTracks(ctx context.Context, db bun.IDB, tracks []PlayerTrack) error

	// DeleteTracks removes every row on a track for the group.
	DeleteTracks(ctx context.Context, db bun.IDB, groupID, track string) error

	// InsertMatch appends a match to the log.
	InsertMatch(ctx context.Context, db bun.IDB, match *Match) error

	// GetMatch retrieves one match of the group.
	GetMatch(ctx context.Context, db bun.IDB, groupID string, matchID uuid.UUID) (*Match, error)

	// UpdateMatchStatus changes a match's status.
	UpdateMatchStatus(ctx context.Context, db bun.IDB, groupID string, matchID uuid.UUID, status string) error

	// DeleteMatch removes a match from the log.
	DeleteMatch(ctx context.Context, db bun.IDB, groupID string, matchID uuid.UUID) error

	// ListActiveMatches returns the non-disputed log in chronological order.
	ListActiveMatches(ctx context.Context, db bun.IDB, groupID string) ([]Match, error)

	// UpdateMatchSnapshots rewrites elo_before, elo_after and change.
	UpdateMatchSnapshots(ctx context.Context, db bun.IDB, matches []Match) error

	// GetActiveSeason returns the open season. Returns ErrNoActiveSeason if
	// none is open.
	GetActiveSeason(ctx context.Context, db bun.IDB, groupID string) (*Season, error)

	// CreateSeason inserts a season.
	CreateSeason(ctx context.Context, db bun.IDB, season *Season) error

	// DeactivateSeason closes a season.
	DeactivateSeason(ctx context.Context, db bun.IDB, seasonID uuid.UUID) error

	// ListSeasonResets returns the instants at which rollovers reset singles.
	ListSeasonResets(ctx context.Context, db bun.IDB, groupID string) ([]time.Time, error)

	// SaveSeasonSnapshots archives final standings.
	SaveSeasonSnapshots(ctx context.Context, db bun.IDB, snapshots []SeasonSnapshot) error

	// GetSeasonSnapshots returns a season's archived standings ordered by rank.
	GetSeasonSnapshots(ctx context.Context, db bun.IDB, seasonID uuid.UUID) ([]SeasonSnapshot, error)
}
