package tournamentservice

import (
	"slices"

	tournamentdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/domain"
	tournamentdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/infrastructure/repositories"
)

func tournamentView(t *tournamentdb.Tournament) TournamentView {
	return TournamentView{
		ID:             t.ID,
		GroupID:        t.GroupID,
		Name:           t.Name,
		Status:         t.Status,
		UnplayedPolicy: t.UnplayedPolicy,
		Forced:         t.Forced,
		ParticipantIDs: slices.Clone(t.ParticipantIDs),
		CreatedAt:      t.CreatedAt,
		CompletedAt:    t.CompletedAt,
	}
}

func fixtureToDomain(f tournamentdb.Fixture) tournamentdomain.Fixture {
	return tournamentdomain.Fixture{Player1ID: f.Player1ID, Player2ID: f.Player2ID, Round: f.Round}
}

func fixtureViews(rows []tournamentdb.Fixture) []FixtureView {
	out := make([]FixtureView, len(rows))
	for i, f := range rows {
		out[i] = FixtureView{
			Fixture:  fixtureToDomain(f),
			Played:   f.Played(),
			Outcome:  f.Outcome,
			WinnerID: f.WinnerID,
			Forced:   f.Forced,
		}
	}
	return out
}

func standingToDomain(s tournamentdb.Standing) tournamentdomain.Standing {
	return tournamentdomain.Standing{
		PlayerID:  s.PlayerID,
		Points:    s.Points,
		Wins:      s.Wins,
		Draws:     s.Draws,
		Losses:    s.Losses,
		SetsWon:   s.SetsWon,
		SetsLost:  s.SetsLost,
		EloRating: s.EloRating,
	}
}

func standingsToDomain(rows []tournamentdb.Standing) []tournamentdomain.Standing {
	out := make([]tournamentdomain.Standing, len(rows))
	for i, r := range rows {
		out[i] = standingToDomain(r)
	}
	return out
}

func standingsFromDomain(t *tournamentdb.Tournament, table []tournamentdomain.Standing) []tournamentdb.Standing {
	out := make([]tournamentdb.Standing, len(table))
	for i, s := range table {
		out[i] = tournamentdb.Standing{
			TournamentID: t.ID,
			PlayerID:     s.PlayerID,
			Points:       s.Points,
			Wins:         s.Wins,
			Draws:        s.Draws,
			Losses:       s.Losses,
			SetsWon:      s.SetsWon,
			SetsLost:     s.SetsLost,
			EloRating:    s.EloRating,
		}
	}
	return out
}

// headToHead rebuilds the meeting results from resolved fixtures.
func headToHead(rows []tournamentdb.Fixture) tournamentdomain.HeadToHead {
	h2h := tournamentdomain.HeadToHead{}
	for _, f := range rows {
		switch f.Outcome {
		case tournamentdb.OutcomeWin:
			h2h.Record(f.Player1ID, f.Player2ID, f.WinnerID)
		case tournamentdb.OutcomeDraw:
			h2h.Record(f.Player1ID, f.Player2ID, "")
		}
	}
	return h2h
}

// ranked sorts the table with the tie-break chain and numbers it.
func ranked(table []tournamentdomain.Standing, h2h tournamentdomain.HeadToHead) []RankedStanding {
	sorted := tournamentdomain.SortStandings(table, h2h)
	out := make([]RankedStanding, len(sorted))
	for i, s := range sorted {
		out[i] = RankedStanding{Rank: i + 1, Standing: s}
	}
	return out
}

func remaining(rows []tournamentdb.Fixture) int {
	n := 0
	for _, f := range rows {
		if !f.Played() {
			n++
		}
	}
	return n
}
