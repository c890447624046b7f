// Package tournamentevents defines the topics and payloads of the
// tournament module.
package tournamentevents

// Requests consumed by the tournament module.
const (
	TournamentCreateRequestedV1 = "tournament.create.requested.v1"
	FixtureReportRequestedV1    = "tournament.fixture.report.requested.v1"
	ForceCompleteRequestedV1    = "tournament.force_complete.requested.v1"
	StandingsRequestedV1        = "tournament.standings.requested.v1"
)

// Events published by the tournament module.
const (
	TournamentCreatedV1   = "tournament.created.v1"
	FixtureRecordedV1     = "tournament.fixture.recorded.v1"
	TournamentCompletedV1 = "tournament.completed.v1"
	StandingsV1           = "tournament.standings.v1"
	TournamentFailedV1    = "tournament.failed.v1"
)

// TournamentCreateRequestedPayloadV1 opens a round robin.
type TournamentCreateRequestedPayloadV1 struct {
	GroupID        string   `json:"group_id"`
	Name           string   `json:"name"`
	ParticipantIDs []string `json:"participant_ids"`
	UnplayedPolicy string   `json:"unplayed_policy,omitempty"`
	CreatedBy      string   `json:"created_by,omitempty"`
}

// FixtureV1 is one scheduled pairing.
type FixtureV1 struct {
	Player1ID string `json:"player1_id"`
	Player2ID string `json:"player2_id"`
	Round     int    `json:"round"`
	Played    bool   `json:"played"`
}

// TournamentCreatedPayloadV1 carries the generated schedule.
type TournamentCreatedPayloadV1 struct {
	TournamentID string      `json:"tournament_id"`
	GroupID      string      `json:"group_id"`
	Name         string      `json:"name"`
	Fixtures     []FixtureV1 `json:"fixtures"`
}

// SetScoreV1 is one set, oriented winner first.
type SetScoreV1 struct {
	Winner int `json:"winner"`
	Loser  int `json:"loser"`
}

// FixtureReportRequestedPayloadV1 reports a played fixture. A draw names
// the two players as winner and loser and carries no sets.
type FixtureReportRequestedPayloadV1 struct {
	TournamentID string       `json:"tournament_id"`
	WinnerID     string       `json:"winner_id"`
	LoserID      string       `json:"loser_id"`
	Sets         []SetScoreV1 `json:"sets,omitempty"`
	Draw         bool         `json:"draw,omitempty"`
	ReportedBy   string       `json:"reported_by,omitempty"`
}

// StandingV1 is one row of the ranked table.
type StandingV1 struct {
	Rank      int    `json:"rank"`
	PlayerID  string `json:"player_id"`
	Points    int    `json:"points"`
	Wins      int    `json:"wins"`
	Draws     int    `json:"draws"`
	Losses    int    `json:"losses"`
	SetsWon   int    `json:"sets_won"`
	SetsLost  int    `json:"sets_lost"`
	EloRating int    `json:"elo_rating"`
}

// FixtureRecordedPayloadV1 is published after a fixture result is stored.
type FixtureRecordedPayloadV1 struct {
	TournamentID string       `json:"tournament_id"`
	MatchID      string       `json:"match_id"`
	WinnerID     string       `json:"winner_id"`
	LoserID      string       `json:"loser_id"`
	Draw         bool         `json:"draw,omitempty"`
	Remaining    int          `json:"remaining"`
	Standings    []StandingV1 `json:"standings"`
}

// TournamentRefPayloadV1 addresses a tournament.
type TournamentRefPayloadV1 struct {
	TournamentID string `json:"tournament_id"`
	RequestedBy  string `json:"requested_by,omitempty"`
}

// TournamentCompletedPayloadV1 carries the final table.
type TournamentCompletedPayloadV1 struct {
	TournamentID string       `json:"tournament_id"`
	GroupID      string       `json:"group_id"`
	Forced       bool         `json:"forced"`
	ChampionID   string       `json:"champion_id"`
	Standings    []StandingV1 `json:"standings"`
}

// StandingsPayloadV1 answers a standings request.
type StandingsPayloadV1 struct {
	TournamentID string       `json:"tournament_id"`
	Status       string       `json:"status"`
	Standings    []StandingV1 `json:"standings"`
	// CircularTies lists groups of tied players whose head-to-head results
	// form a cycle.
	CircularTies [][]string `json:"circular_ties,omitempty"`
}

// TournamentFailedPayloadV1 is published when a tournament request is rejected.
type TournamentFailedPayloadV1 struct {
	TournamentID string `json:"tournament_id,omitempty"`
	GroupID      string `json:"group_id,omitempty"`
	Reason       string `json:"reason"`
}
