package tournamentdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Tournament statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Fixture outcomes. An empty outcome means the fixture is unplayed.
const (
	OutcomeWin           = "win"
	OutcomeDraw          = "draw"
	OutcomeDoubleForfeit = "double_forfeit"
)

// Tournament is a round robin inside a group.
type Tournament struct {
	bun.BaseModel `bun:"table:tournaments,alias:t"`

	ID             uuid.UUID  `bun:"id,pk,type:uuid"`
	GroupID        string     `bun:"group_id,notnull"`
	Name           string     `bun:"name,notnull"`
	Status         string     `bun:"status,notnull,default:'active'"`
	UnplayedPolicy string     `bun:"unplayed_policy,notnull,default:'draw'"`
	ParticipantIDs []string   `bun:"participant_ids,type:jsonb,notnull"`
	CreatedBy      string     `bun:"created_by"`
	Forced         bool       `bun:"forced,notnull,default:false"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	CompletedAt    *time.Time `bun:"completed_at"`
}

// Fixture is one scheduled pairing and, once resolved, its result. PairLow
// and PairHigh are the order-independent key of the pair.
type Fixture struct {
	bun.BaseModel `bun:"table:tournament_fixtures,alias:tf"`

	TournamentID uuid.UUID  `bun:"tournament_id,pk,type:uuid"`
	PairLow      string     `bun:"pair_low,pk"`
	PairHigh     string     `bun:"pair_high,pk"`
	Position     int        `bun:"position,notnull"`
	Round        int        `bun:"round,notnull"`
	Player1ID    string     `bun:"player1_id,notnull"`
	Player2ID    string     `bun:"player2_id,notnull"`
	Outcome      string     `bun:"outcome,notnull,default:''"`
	WinnerID     string     `bun:"winner_id,notnull,default:''"`
	WinnerSets   int        `bun:"winner_sets,notnull,default:0"`
	LoserSets    int        `bun:"loser_sets,notnull,default:0"`
	MatchID      *uuid.UUID `bun:"match_id,type:uuid"`
	// Forced marks results imposed by force completion.
	Forced     bool       `bun:"forced,notnull,default:false"`
	ResolvedAt *time.Time `bun:"resolved_at"`
}

// Played reports whether the fixture has a result.
func (f Fixture) Played() bool {
	return f.Outcome != ""
}

// Standing is one participant's row in the tournament table.
type Standing struct {
	bun.BaseModel `bun:"table:tournament_standings,alias:ts"`

	TournamentID uuid.UUID `bun:"tournament_id,pk,type:uuid"`
	PlayerID     string    `bun:"player_id,pk"`
	Points       int       `bun:"points,notnull,default:0"`
	Wins         int       `bun:"wins,notnull,default:0"`
	Draws        int       `bun:"draws,notnull,default:0"`
	Losses       int       `bun:"losses,notnull,default:0"`
	SetsWon      int       `bun:"sets_won,notnull,default:0"`
	SetsLost     int       `bun:"sets_lost,notnull,default:0"`
	EloRating    int       `bun:"elo_rating,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
