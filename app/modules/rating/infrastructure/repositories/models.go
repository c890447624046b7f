package ratingdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	achievementdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/domain"
)

// Match statuses. Disputed matches stay in the table but leave the active log.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusDisputed  = "disputed"
)

// Group holds per-group settings.
type Group struct {
	bun.BaseModel `bun:"table:rating_groups,alias:g"`

	ID                  string    `bun:"id,pk"`
	BaselineRating      int       `bun:"baseline_rating,notnull,default:1000"`
	AchievementsEnabled bool      `bun:"achievements_enabled,notnull,default:true"`
	RequireConfirmation bool      `bun:"require_confirmation,notnull,default:false"`
	CreatedAt           time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt           time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// PlayerTrack is a player's derived state on one rating track.
type PlayerTrack struct {
	bun.BaseModel `bun:"table:rating_player_tracks,alias:pt"`

	GroupID       string    `bun:"group_id,pk"`
	PlayerID      string    `bun:"player_id,pk"`
	Track         string    `bun:"track,pk"`
	Rating        int       `bun:"rating,notnull"`
	GamesPlayed   int       `bun:"games_played,notnull,default:0"`
	Wins          int       `bun:"wins,notnull,default:0"`
	Losses        int       `bun:"losses,notnull,default:0"`
	Draws         int       `bun:"draws,notnull,default:0"`
	CurrentStreak int       `bun:"current_streak,notnull,default:0"`
	BestStreak    int       `bun:"best_streak,notnull,default:0"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Match is one entry of a group's match log.
type Match struct {
	bun.BaseModel `bun:"table:rating_matches,alias:m"`

	ID      uuid.UUID `bun:"id,pk,type:uuid"`
	Seq     int64     `bun:"seq,autoincrement"`
	GroupID string    `bun:"group_id,notnull"`
	Kind    string    `bun:"kind,notnull"`
	Status  string    `bun:"status,notnull,default:'confirmed'"`
	Winners []string  `bun:"winners,type:jsonb,notnull"`
	Losers  []string  `bun:"losers,type:jsonb,notnull"`

	Sets      []achievementdomain.SetScore `bun:"sets,type:jsonb"`
	EloBefore map[string]int               `bun:"elo_before,type:jsonb"`
	EloAfter  map[string]int               `bun:"elo_after,type:jsonb"`
	Change    int                          `bun:"change,notnull,default:0"`

	SeasonID     *uuid.UUID `bun:"season_id,type:uuid"`
	TournamentID *uuid.UUID `bun:"tournament_id,type:uuid"`
	ReportedBy   string     `bun:"reported_by"`
	PlayedAt     time.Time  `bun:"played_at,notnull"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Season is one quarter of a group's calendar.
type Season struct {
	bun.BaseModel `bun:"table:rating_seasons,alias:sn"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	GroupID   string    `bun:"group_id,notnull"`
	Name      string    `bun:"name,notnull"`
	StartDate time.Time `bun:"start_date,notnull"`
	EndDate   time.Time `bun:"end_date,notnull"`
	IsActive  bool      `bun:"is_active,notnull,default:false"`

	// OpenedAt is when the season was opened. For seasons opened by a
	// rollover it is the instant singles tracks were reset.
	OpenedAt         time.Time `bun:"opened_at,notnull"`
	OpenedByRollover bool      `bun:"opened_by_rollover,notnull,default:false"`
	CreatedAt        time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// SeasonSnapshot is one member's archived standing at the end of a season.
type SeasonSnapshot struct {
	bun.BaseModel `bun:"table:rating_season_snapshots,alias:ss"`

	SeasonID    uuid.UUID `bun:"season_id,pk,type:uuid"`
	PlayerID    string    `bun:"player_id,pk"`
	GroupID     string    `bun:"group_id,notnull"`
	Rank        int       `bun:"rank,notnull"`
	Rating      int       `bun:"rating,notnull"`
	GamesPlayed int       `bun:"games_played,notnull"`
	Wins        int       `bun:"wins,notnull"`
	Losses      int       `bun:"losses,notnull"`
	Draws       int       `bun:"draws,notnull"`
	BestStreak  int       `bun:"best_streak,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
