package ratingservice

import (
	"time"

	"github.com/google/uuid"

	achievementdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/domain"
	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
)

// ReportMatchRequest reports a decisive singles match. Sets are oriented
// winner first.
type ReportMatchRequest struct {
	GroupID    string
	WinnerID   string
	LoserID    string
	Sets       []achievementdomain.SetScore
	ReportedBy string
}

// ReportDoublesRequest reports a decisive doubles match.
type ReportDoublesRequest struct {
	GroupID    string
	Winners    [2]string
	Losers     [2]string
	ReportedBy string
}

// ReportDrawRequest reports a drawn singles match.
type ReportDrawRequest struct {
	GroupID      string
	Player1ID    string
	Player2ID    string
	TournamentID *uuid.UUID
	ReportedBy   string
}

// RecordRequest is the kind-agnostic input of the recording funnel. For
// draws Winners and Losers are side one and side two.
type RecordRequest struct {
	GroupID      string
	Kind         ratingdomain.MatchKind
	Winners      []string
	Losers       []string
	Sets         []achievementdomain.SetScore
	ReportedBy   string
	TournamentID *uuid.UUID
}

// MatchResult describes a recorded match.
type MatchResult struct {
	MatchID       uuid.UUID
	GroupID       string
	Kind          ratingdomain.MatchKind
	Status        string
	Winners       []string
	Losers        []string
	RatingsBefore map[string]int
	RatingsAfter  map[string]int
	Change        int
	PlayedAt      time.Time
	Unlocks       []achievementdomain.Unlock
}

// LifecycleResult is the outcome of confirm, dispute or undo.
type LifecycleResult struct {
	GroupID string
	MatchID uuid.UUID
	Status  string
	// Replay is set when the operation rebuilt the group.
	Replay *ReplaySummary
}

// ReplaySummary reports what a full rebuild found and rewrote.
type ReplaySummary struct {
	GroupID            string
	MatchesReplayed    int
	SnapshotsRewritten int
	Drift              []ratingdomain.TrackDrift
}

// SeasonView is a season as shown to callers.
type SeasonView struct {
	ID        uuid.UUID
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

// RolloverResult is the outcome of a season check.
type RolloverResult struct {
	GroupID    string
	RolledOver bool
	Closed     *SeasonView
	Active     SeasonView
	Snapshots  []ratingdomain.SeasonSnapshot
}

// GroupSettings are the per-group knobs.
type GroupSettings struct {
	GroupID             string
	BaselineRating      int
	AchievementsEnabled bool
	RequireConfirmation bool
}

// GroupSettingsUpdate changes settings; nil fields are left alone.
type GroupSettingsUpdate struct {
	BaselineRating      *int
	AchievementsEnabled *bool
	RequireConfirmation *bool
}

// LeaderboardEntry is one ranked row of a track.
type LeaderboardEntry struct {
	Rank     int
	PlayerID string
	ratingdomain.PlayerTrack
}
