// Package ratingevents defines the topics and payloads of the rating module.
package ratingevents

import "time"

// Requests consumed by the rating module.
const (
	MatchReportRequestedV1         = "rating.match.report.requested.v1"
	DoublesMatchReportRequestedV1  = "rating.doubles.report.requested.v1"
	DrawReportRequestedV1          = "rating.draw.report.requested.v1"
	MatchConfirmRequestedV1        = "rating.match.confirm.requested.v1"
	MatchDisputeRequestedV1        = "rating.match.dispute.requested.v1"
	MatchUndoRequestedV1           = "rating.match.undo.requested.v1"
	GroupReplayRequestedV1         = "rating.group.replay.requested.v1"
	GroupSettingsUpdateRequestedV1 = "rating.group.settings.update.requested.v1"
)

// Events published by the rating module.
const (
	MatchRecordedV1        = "rating.match.recorded.v1"
	MatchReportFailedV1    = "rating.match.report.failed.v1"
	MatchConfirmedV1       = "rating.match.confirmed.v1"
	MatchDisputedV1        = "rating.match.disputed.v1"
	MatchUndoneV1          = "rating.match.undone.v1"
	MatchLifecycleFailedV1 = "rating.match.lifecycle.failed.v1"
	GroupReplayedV1        = "rating.group.replayed.v1"
	GroupSettingsUpdatedV1 = "rating.group.settings.updated.v1"
	GroupRequestFailedV1   = "rating.group.request.failed.v1"
	SeasonRolledOverV1     = "rating.season.rolled_over.v1"
)

// SetScoreV1 is one set, oriented winner first.
type SetScoreV1 struct {
	Winner int `json:"winner"`
	Loser  int `json:"loser"`
}

// MatchReportRequestedPayloadV1 reports a singles win.
type MatchReportRequestedPayloadV1 struct {
	GroupID    string       `json:"group_id"`
	WinnerID   string       `json:"winner_id"`
	LoserID    string       `json:"loser_id"`
	Sets       []SetScoreV1 `json:"sets,omitempty"`
	ReportedBy string       `json:"reported_by,omitempty"`
}

// DoublesMatchReportRequestedPayloadV1 reports a doubles win.
type DoublesMatchReportRequestedPayloadV1 struct {
	GroupID    string    `json:"group_id"`
	WinnerIDs  [2]string `json:"winner_ids"`
	LoserIDs   [2]string `json:"loser_ids"`
	ReportedBy string    `json:"reported_by,omitempty"`
}

// DrawReportRequestedPayloadV1 reports a drawn singles match.
type DrawReportRequestedPayloadV1 struct {
	GroupID    string `json:"group_id"`
	Player1ID  string `json:"player1_id"`
	Player2ID  string `json:"player2_id"`
	ReportedBy string `json:"reported_by,omitempty"`
}

// MatchRecordedPayloadV1 describes a match applied to the ratings.
type MatchRecordedPayloadV1 struct {
	GroupID       string         `json:"group_id"`
	MatchID       string         `json:"match_id"`
	Kind          string         `json:"kind"`
	Status        string         `json:"status"`
	Winners       []string       `json:"winners"`
	Losers        []string       `json:"losers"`
	RatingsBefore map[string]int `json:"ratings_before"`
	RatingsAfter  map[string]int `json:"ratings_after"`
	Change        int            `json:"change"`
	PlayedAt      time.Time      `json:"played_at"`
}

// MatchReportFailedPayloadV1 is published when a report is rejected.
type MatchReportFailedPayloadV1 struct {
	GroupID string `json:"group_id"`
	Reason  string `json:"reason"`
}

// MatchLifecycleRequestedPayloadV1 addresses one match for confirm, dispute
// or undo.
type MatchLifecycleRequestedPayloadV1 struct {
	GroupID     string `json:"group_id"`
	MatchID     string `json:"match_id"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// MatchLifecyclePayloadV1 is the outcome of confirm, dispute or undo.
type MatchLifecyclePayloadV1 struct {
	GroupID  string `json:"group_id"`
	MatchID  string `json:"match_id"`
	Status   string `json:"status"`
	Replayed bool   `json:"replayed"`
}

// MatchLifecycleFailedPayloadV1 is published when confirm, dispute or undo
// is rejected.
type MatchLifecycleFailedPayloadV1 struct {
	GroupID string `json:"group_id"`
	MatchID string `json:"match_id"`
	Reason  string `json:"reason"`
}

// GroupReplayRequestedPayloadV1 asks for a full rebuild of a group.
type GroupReplayRequestedPayloadV1 struct {
	GroupID string `json:"group_id"`
}

// PlayerDriftV1 is one player whose stored state differed from the replay.
type PlayerDriftV1 struct {
	PlayerID       string `json:"player_id"`
	Track          string `json:"track"`
	StoredRating   int    `json:"stored_rating"`
	ReplayedRating int    `json:"replayed_rating"`
}

// GroupReplayedPayloadV1 summarises a replay.
type GroupReplayedPayloadV1 struct {
	GroupID         string          `json:"group_id"`
	MatchesReplayed int             `json:"matches_replayed"`
	Drift           []PlayerDriftV1 `json:"drift,omitempty"`
}

// GroupSettingsUpdateRequestedPayloadV1 changes group settings. Nil fields
// are left unchanged.
type GroupSettingsUpdateRequestedPayloadV1 struct {
	GroupID             string `json:"group_id"`
	BaselineRating      *int   `json:"baseline_rating,omitempty"`
	AchievementsEnabled *bool  `json:"achievements_enabled,omitempty"`
	RequireConfirmation *bool  `json:"require_confirmation,omitempty"`
}

// GroupSettingsUpdatedPayloadV1 carries the settings after an update.
type GroupSettingsUpdatedPayloadV1 struct {
	GroupID             string `json:"group_id"`
	BaselineRating      int    `json:"baseline_rating"`
	AchievementsEnabled bool   `json:"achievements_enabled"`
	RequireConfirmation bool   `json:"require_confirmation"`
}

// GroupRequestFailedPayloadV1 is published when a replay or settings
// request is rejected.
type GroupRequestFailedPayloadV1 struct {
	GroupID string `json:"group_id"`
	Reason  string `json:"reason"`
}

// SeasonRolledOverPayloadV1 is published after a season closes.
type SeasonRolledOverPayloadV1 struct {
	GroupID      string    `json:"group_id"`
	ClosedSeason string    `json:"closed_season"`
	OpenedSeason string    `json:"opened_season"`
	OpenedStart  time.Time `json:"opened_start"`
	OpenedEnd    time.Time `json:"opened_end"`
	PlayersReset int       `json:"players_reset"`
	ChampionID   string    `json:"champion_id,omitempty"`
}
