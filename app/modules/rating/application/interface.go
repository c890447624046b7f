package ratingservice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	achievementdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/domain"
	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
)

// Service defines the contract for rating operations. Every mutation runs
// in one transaction that holds the group's row lock.
type Service interface {
	// --- MUTATIONS ---

	ReportMatch(ctx context.Context, req ReportMatchRequest) (*MatchResult, error)
	ReportDoublesMatch(ctx context.Context, req ReportDoublesRequest) (*MatchResult, error)
	ReportDraw(ctx context.Context, req ReportDrawRequest) (*MatchResult, error)

	// ConfirmMatch moves a pending match to confirmed. Ratings are untouched.
	ConfirmMatch(ctx context.Context, groupID string, matchID uuid.UUID) (*LifecycleResult, error)

	// DisputeMatch takes a pending match out of the active log and rebuilds
	// the group.
	DisputeMatch(ctx context.Context, groupID string, matchID uuid.UUID) (*LifecycleResult, error)

	// UndoMatch deletes a match and rebuilds the group.
	UndoMatch(ctx context.Context, groupID string, matchID uuid.UUID) (*LifecycleResult, error)

	// ReplayGroup rebuilds every track and snapshot of a group from its log.
	ReplayGroup(ctx context.Context, groupID string) (*ReplaySummary, error)

	// RolloverSeasonIfExpired closes the active season when it has ended.
	RolloverSeasonIfExpired(ctx context.Context, groupID string, now time.Time) (*RolloverResult, error)

	UpdateGroupSettings(ctx context.Context, groupID string, update GroupSettingsUpdate) (*GroupSettings, error)

	// --- READS ---

	GetGroupSettings(ctx context.Context, groupID string) (*GroupSettings, error)
	GetLeaderboard(ctx context.Context, groupID string, track ratingdomain.Track) ([]LeaderboardEntry, error)
	RatingHistoryChart(ctx context.Context, groupID, playerID string) ([]byte, error)
	ListGroupIDs(ctx context.Context) ([]string, error)
}

// Recorder is the transaction-scoped entry point for modules that record
// matches as part of their own transaction.
type Recorder interface {
	RecordInTx(ctx context.Context, db bun.IDB, req RecordRequest) (*MatchResult, error)
	TracksInTx(ctx context.Context, db bun.IDB, groupID string, playerIDs []string) (map[string]ratingdomain.PlayerTrack, error)
	TournamentAchievementsInTx(ctx context.Context, db bun.IDB, groupID string, tournamentID uuid.UUID, tc achievementdomain.TournamentContext) ([]achievementdomain.Unlock, error)
}

var (
	_ Service  = (*RatingService)(nil)
	_ Recorder = (*RatingService)(nil)
)
