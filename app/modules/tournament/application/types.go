package tournamentservice

import (
	"time"

	"github.com/google/uuid"

	achievementdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/domain"
	ratingservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/application"
	tournamentdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/domain"
)

// CreateTournamentRequest opens a round robin.
type CreateTournamentRequest struct {
	GroupID        string
	Name           string
	ParticipantIDs []string
	// UnplayedPolicy names how force completion resolves unplayed fixtures:
	// "draw" (default) or "double_forfeit".
	UnplayedPolicy string
	CreatedBy      string
}

// ReportFixtureRequest reports the result of a scheduled pairing. Sets are
// oriented winner first. When Draw is set WinnerID and LoserID are just the
// two players and Sets must be empty.
type ReportFixtureRequest struct {
	TournamentID uuid.UUID
	WinnerID     string
	LoserID      string
	Sets         []achievementdomain.SetScore
	Draw         bool
	ReportedBy   string
}

// TournamentView is a tournament as shown to callers.
type TournamentView struct {
	ID             uuid.UUID
	GroupID        string
	Name           string
	Status         string
	UnplayedPolicy string
	Forced         bool
	ParticipantIDs []string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// FixtureView is a fixture with its result, if any.
type FixtureView struct {
	tournamentdomain.Fixture
	Played   bool
	Outcome  string
	WinnerID string
	Forced   bool
}

// RankedStanding is one row of the sorted table. Ranks are distinct; the
// tie-break chain decides order.
type RankedStanding struct {
	Rank int
	tournamentdomain.Standing
}

// CreateResult is the outcome of CreateTournament.
type CreateResult struct {
	Tournament TournamentView
	Fixtures   []FixtureView
	Standings  []RankedStanding
}

// FixtureResult is the outcome of ReportFixture.
type FixtureResult struct {
	Tournament TournamentView
	Match      *ratingservice.MatchResult
	Remaining  int
	Standings  []RankedStanding
	// Completion is set when this fixture was the last one.
	Completion *CompletionResult
}

// StandingsView answers GetStandings.
type StandingsView struct {
	Tournament TournamentView
	Fixtures   []FixtureView
	Standings  []RankedStanding
	// CircularTies lists players level on points whose head-to-head results
	// form a cycle.
	CircularTies [][]string
}

// CompletionResult describes a completed tournament.
type CompletionResult struct {
	Tournament  TournamentView
	Forced      bool
	Resolutions []tournamentdomain.Resolution
	// DrawMatches are the rating matches recorded for forced draws.
	DrawMatches []*ratingservice.MatchResult
	Standings   []RankedStanding
	Unlocks     []achievementdomain.Unlock
}

// ChampionID is the player ranked first, or empty for an empty table.
func (c *CompletionResult) ChampionID() string {
	if c == nil || len(c.Standings) == 0 {
		return ""
	}
	return c.Standings[0].PlayerID
}
