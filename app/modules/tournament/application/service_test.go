package tournamentservice

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/trace/noop"

	achievementdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/domain"
	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
	tournamentdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/infrastructure/repositories"
)

const testGroup = "group-1"

var trio = []string{"alice", "bob", "carol"}

func newTestService(t *testing.T) (*TournamentService, *FakeTournamentRepo, *FakeRecorder) {
	t.Helper()
	repo := NewFakeTournamentRepo()
	rec := NewFakeRecorder(1000)
	start := time.Date(2026, time.May, 2, 9, 0, 0, 0, time.UTC)
	svc := NewTournamentService(
		repo,
		rec,
		slog.New(slog.DiscardHandler),
		nil,
		noop.NewTracerProvider().Tracer("test"),
		nil,
		WithClock(func() time.Time { return start }),
	)
	return svc, repo, rec
}

func create(t *testing.T, svc *TournamentService, policy string) *CreateResult {
	t.Helper()
	res, err := svc.CreateTournament(context.Background(), CreateTournamentRequest{
		GroupID:        testGroup,
		Name:           "  Spring Open ",
		ParticipantIDs: trio,
		UnplayedPolicy: policy,
		CreatedBy:      "alice",
	})
	require.NoError(t, err)
	return res
}

func report(t *testing.T, svc *TournamentService, id uuid.UUID, winner, loser string, sets ...achievementdomain.SetScore) *FixtureResult {
	t.Helper()
	res, err := svc.ReportFixture(context.Background(), ReportFixtureRequest{
		TournamentID: id,
		WinnerID:     winner,
		LoserID:      loser,
		Sets:         sets,
		ReportedBy:   winner,
	})
	require.NoError(t, err)
	return res
}

func standingOf(t *testing.T, table []RankedStanding, playerID string) RankedStanding {
	t.Helper()
	for _, st := range table {
		if st.PlayerID == playerID {
			return st
		}
	}
	t.Fatalf("no standing for %s", playerID)
	return RankedStanding{}
}

func hasUnlock(unlocks []achievementdomain.Unlock, id achievementdomain.ID, playerID string) bool {
	for _, u := range unlocks {
		if u.AchievementID == id && u.PlayerID == playerID {
			return true
		}
	}
	return false
}

func TestTournamentService_CreateTournament(t *testing.T) {
	svc, repo, _ := newTestService(t)

	res := create(t, svc, "")

	assert.Equal(t, "Spring Open", res.Tournament.Name)
	assert.Equal(t, tournamentdb.StatusActive, res.Tournament.Status)
	assert.Equal(t, "draw", res.Tournament.UnplayedPolicy, "empty policy defaults to draw")
	assert.Len(t, res.Fixtures, 3)
	for _, f := range res.Fixtures {
		assert.False(t, f.Played)
	}
	require.Len(t, res.Standings, 3)
	for _, st := range res.Standings {
		assert.Equal(t, 1000, st.EloRating)
		assert.Zero(t, st.Points)
	}
	assert.Len(t, repo.StoredFixtures(res.Tournament.ID), 3)
}

func TestTournamentService_CreateTournamentFailures(t *testing.T) {
	tests := []struct {
		name string
		req  CreateTournamentRequest
		want error
	}{
		{"missing group", CreateTournamentRequest{Name: "x", ParticipantIDs: trio}, ErrGroupRequired},
		{"blank name", CreateTournamentRequest{GroupID: testGroup, Name: "  ", ParticipantIDs: trio}, ErrNameRequired},
		{"unknown policy", CreateTournamentRequest{GroupID: testGroup, Name: "x", ParticipantIDs: trio, UnplayedPolicy: "coin_flip"}, ErrInvalidPolicy},
		{"duplicate participant", CreateTournamentRequest{GroupID: testGroup, Name: "x", ParticipantIDs: []string{"alice", "alice"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService(t)
			_, err := svc.CreateTournament(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, IsFailure(err), "expected a domain failure, got %v", err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.NotContains(t, repo.Trace(), "CreateTournament")
		})
	}
}

func TestTournamentService_ReportFixture(t *testing.T) {
	svc, repo, rec := newTestService(t)
	created := create(t, svc, "")
	id := created.Tournament.ID

	res := report(t, svc, id, "alice", "bob",
		achievementdomain.SetScore{Winner: 11, Loser: 7},
		achievementdomain.SetScore{Winner: 9, Loser: 11},
		achievementdomain.SetScore{Winner: 11, Loser: 5},
	)

	assert.Equal(t, 2, res.Remaining)
	assert.Nil(t, res.Completion)
	require.NotNil(t, res.Match)
	assert.Equal(t, 1020, res.Match.RatingsAfter["alice"])
	assert.Equal(t, 980, res.Match.RatingsAfter["bob"])

	require.Len(t, rec.Recorded, 1)
	require.NotNil(t, rec.Recorded[0].TournamentID)
	assert.Equal(t, id, *rec.Recorded[0].TournamentID)
	assert.Equal(t, ratingdomain.KindSingles, rec.Recorded[0].Kind)

	alice := standingOf(t, res.Standings, "alice")
	assert.Equal(t, 1, alice.Rank)
	assert.Equal(t, 3, alice.Points)
	assert.Equal(t, 2, alice.SetsWon)
	assert.Equal(t, 1, alice.SetsLost)
	assert.Equal(t, 1020, alice.EloRating)

	bob := standingOf(t, res.Standings, "bob")
	assert.Equal(t, 1, bob.Losses)
	assert.Equal(t, 980, bob.EloRating)

	var stored *tournamentdb.Fixture
	for _, f := range repo.StoredFixtures(id) {
		if f.PairLow == "alice" && f.PairHigh == "bob" {
			stored = &f
		}
	}
	require.NotNil(t, stored)
	assert.True(t, stored.Played())
	assert.Equal(t, "alice", stored.WinnerID)
	require.NotNil(t, stored.MatchID)
	assert.Equal(t, res.Match.MatchID, *stored.MatchID)
}

func TestTournamentService_ReportFixtureDraw(t *testing.T) {
	svc, repo, rec := newTestService(t)
	id := create(t, svc, "").Tournament.ID

	res, err := svc.ReportFixture(context.Background(), ReportFixtureRequest{
		TournamentID: id,
		WinnerID:     "alice",
		LoserID:      "bob",
		Draw:         true,
		ReportedBy:   "alice",
	})
	require.NoError(t, err)

	require.Len(t, rec.Recorded, 1)
	assert.Equal(t, ratingdomain.KindDraw, rec.Recorded[0].Kind)
	assert.Equal(t, 1000, res.Match.RatingsAfter["alice"])
	assert.Equal(t, 1000, res.Match.RatingsAfter["bob"])
	for _, p := range []string{"alice", "bob"} {
		st := standingOf(t, res.Standings, p)
		assert.Equal(t, 1, st.Points, p)
		assert.Equal(t, 1, st.Draws, p)
		assert.Zero(t, st.Wins, p)
		assert.Zero(t, st.Losses, p)
	}

	for _, f := range repo.StoredFixtures(id) {
		if f.PairLow == "alice" && f.PairHigh == "bob" {
			assert.Equal(t, tournamentdb.OutcomeDraw, f.Outcome)
			assert.Empty(t, f.WinnerID)
			assert.False(t, f.Forced)
			require.NotNil(t, f.MatchID)
			assert.Equal(t, res.Match.MatchID, *f.MatchID)
		}
	}

	_, err = svc.ReportFixture(context.Background(), ReportFixtureRequest{
		TournamentID: id,
		WinnerID:     "bob",
		LoserID:      "alice",
		Draw:         true,
	})
	assert.ErrorIs(t, err, ErrFixtureAlreadyPlayed)

	report(t, svc, id, "alice", "carol",
		achievementdomain.SetScore{Winner: 11, Loser: 5},
		achievementdomain.SetScore{Winner: 11, Loser: 5},
	)
	last := report(t, svc, id, "bob", "carol",
		achievementdomain.SetScore{Winner: 11, Loser: 9},
		achievementdomain.SetScore{Winner: 9, Loser: 11},
		achievementdomain.SetScore{Winner: 11, Loser: 9},
	)
	require.NotNil(t, last.Completion)
	assert.False(t, last.Completion.Forced)

	// level on points and drawn head to head, so set difference decides
	alice := standingOf(t, last.Standings, "alice")
	bob := standingOf(t, last.Standings, "bob")
	assert.Equal(t, 4, alice.Points)
	assert.Equal(t, 4, bob.Points)
	assert.Equal(t, 1, alice.Rank)
	assert.Equal(t, 2, bob.Rank)

	// a played draw counts as a played fixture
	for _, p := range trio {
		assert.True(t, hasUnlock(last.Completion.Unlocks, achievementdomain.TournamentIronman, p), p)
	}
}

func TestTournamentService_ReportFixtureFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, svc *TournamentService, rec *FakeRecorder) ReportFixtureRequest
		want  error
	}{
		{
			name: "unknown tournament",
			setup: func(t *testing.T, svc *TournamentService, rec *FakeRecorder) ReportFixtureRequest {
				return ReportFixtureRequest{TournamentID: uuid.New(), WinnerID: "alice", LoserID: "bob"}
			},
			want: ErrTournamentNotFound,
		},
		{
			name: "same player on both sides",
			setup: func(t *testing.T, svc *TournamentService, rec *FakeRecorder) ReportFixtureRequest {
				id := create(t, svc, "").Tournament.ID
				return ReportFixtureRequest{TournamentID: id, WinnerID: "alice", LoserID: "alice"}
			},
			want: ErrSamePlayerBothSides,
		},
		{
			name: "player outside the tournament",
			setup: func(t *testing.T, svc *TournamentService, rec *FakeRecorder) ReportFixtureRequest {
				id := create(t, svc, "").Tournament.ID
				return ReportFixtureRequest{TournamentID: id, WinnerID: "alice", LoserID: "dave"}
			},
			want: ErrNotATournamentPlayer,
		},
		{
			name: "fixture already played",
			setup: func(t *testing.T, svc *TournamentService, rec *FakeRecorder) ReportFixtureRequest {
				id := create(t, svc, "").Tournament.ID
				report(t, svc, id, "alice", "bob")
				return ReportFixtureRequest{TournamentID: id, WinnerID: "bob", LoserID: "alice"}
			},
			want: ErrFixtureAlreadyPlayed,
		},
		{
			name: "completed tournament",
			setup: func(t *testing.T, svc *TournamentService, rec *FakeRecorder) ReportFixtureRequest {
				id := create(t, svc, "").Tournament.ID
				_, err := svc.ForceComplete(context.Background(), id, "alice")
				require.NoError(t, err)
				return ReportFixtureRequest{TournamentID: id, WinnerID: "alice", LoserID: "bob"}
			},
			want: ErrTournamentCompleted,
		},
		{
			name: "set scores rejected by the rating service",
			setup: func(t *testing.T, svc *TournamentService, rec *FakeRecorder) ReportFixtureRequest {
				id := create(t, svc, "").Tournament.ID
				return ReportFixtureRequest{
					TournamentID: id,
					WinnerID:     "alice",
					LoserID:      "bob",
					Sets:         []achievementdomain.SetScore{{Winner: 5, Loser: 11}},
				}
			},
			want: achievementdomain.ErrInvalidSetScores,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, rec := newTestService(t)
			req := tt.setup(t, svc, rec)

			_, err := svc.ReportFixture(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsFailure(err))
		})
	}
}

func TestTournamentService_ReportFixtureInfrastructureError(t *testing.T) {
	svc, repo, _ := newTestService(t)
	id := create(t, svc, "").Tournament.ID
	repo.LockTournamentFunc = func(context.Context, bun.IDB, uuid.UUID) (*tournamentdb.Tournament, error) {
		return nil, errors.New("connection reset")
	}

	_, err := svc.ReportFixture(context.Background(), ReportFixtureRequest{TournamentID: id, WinnerID: "alice", LoserID: "bob"})
	require.Error(t, err)
	assert.False(t, IsFailure(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestTournamentService_LastFixtureCompletes(t *testing.T) {
	svc, repo, rec := newTestService(t)
	id := create(t, svc, "").Tournament.ID

	report(t, svc, id, "alice", "bob")
	report(t, svc, id, "alice", "carol")
	res := report(t, svc, id, "bob", "carol")

	assert.Zero(t, res.Remaining)
	require.NotNil(t, res.Completion)
	c := res.Completion
	assert.False(t, c.Forced)
	assert.Empty(t, c.Resolutions)
	assert.Equal(t, tournamentdb.StatusCompleted, c.Tournament.Status)
	assert.Equal(t, tournamentdb.StatusCompleted, res.Tournament.Status)
	assert.Equal(t, "alice", c.ChampionID())

	assert.Equal(t, []string{"alice", "bob", "carol"}, []string{c.Standings[0].PlayerID, c.Standings[1].PlayerID, c.Standings[2].PlayerID})
	assert.Equal(t, 6, c.Standings[0].Points)
	assert.Equal(t, rec.Rating("carol"), standingOf(t, c.Standings, "carol").EloRating)

	assert.True(t, hasUnlock(c.Unlocks, achievementdomain.Champion, "alice"))
	assert.True(t, hasUnlock(c.Unlocks, achievementdomain.Undefeated, "alice"))
	assert.False(t, hasUnlock(c.Unlocks, achievementdomain.Undefeated, "bob"))
	for _, p := range trio {
		assert.True(t, hasUnlock(c.Unlocks, achievementdomain.TournamentIronman, p), "%s played every fixture", p)
	}

	stored := repo.Stored(id)
	assert.Equal(t, tournamentdb.StatusCompleted, stored.Status)
	assert.False(t, stored.Forced)
	require.NotNil(t, stored.CompletedAt)
}

func TestTournamentService_CompletionRespectsDisabledAchievements(t *testing.T) {
	svc, _, rec := newTestService(t)
	rec.AchievementsDisabled = true
	id := create(t, svc, "").Tournament.ID

	report(t, svc, id, "alice", "bob")
	report(t, svc, id, "alice", "carol")
	res := report(t, svc, id, "bob", "carol")

	require.NotNil(t, res.Completion)
	assert.Empty(t, res.Completion.Unlocks)
}

func TestTournamentService_ForceCompleteWithDraws(t *testing.T) {
	svc, repo, rec := newTestService(t)
	id := create(t, svc, "draw").Tournament.ID
	report(t, svc, id, "alice", "bob")

	c, err := svc.ForceComplete(context.Background(), id, "organiser")
	require.NoError(t, err)

	assert.True(t, c.Forced)
	require.Len(t, c.Resolutions, 2)
	require.Len(t, c.DrawMatches, 2)
	draws := rec.Recorded[1:]
	require.Len(t, draws, 2)
	for _, req := range draws {
		assert.Equal(t, ratingdomain.KindDraw, req.Kind)
		assert.Equal(t, "organiser", req.ReportedBy)
		require.NotNil(t, req.TournamentID)
		assert.Equal(t, id, *req.TournamentID)
	}

	alice := standingOf(t, c.Standings, "alice")
	carol := standingOf(t, c.Standings, "carol")
	bob := standingOf(t, c.Standings, "bob")
	assert.Equal(t, 4, alice.Points)
	assert.Equal(t, 2, carol.Points)
	assert.Equal(t, 1, bob.Points)
	assert.Equal(t, []int{1, 2, 3}, []int{alice.Rank, carol.Rank, bob.Rank})
	for _, p := range trio {
		assert.Equal(t, rec.Rating(p), standingOf(t, c.Standings, p).EloRating, "%s carries the recorded rating", p)
	}

	// forced results never count towards playing every fixture
	assert.True(t, hasUnlock(c.Unlocks, achievementdomain.Champion, "alice"))
	assert.True(t, hasUnlock(c.Unlocks, achievementdomain.Undefeated, "carol"))
	for _, p := range trio {
		assert.False(t, hasUnlock(c.Unlocks, achievementdomain.TournamentIronman, p))
	}

	for _, f := range repo.StoredFixtures(id) {
		assert.True(t, f.Played())
		if f.Forced {
			assert.Equal(t, tournamentdb.OutcomeDraw, f.Outcome)
			assert.NotNil(t, f.MatchID)
		}
	}
	stored := repo.Stored(id)
	assert.Equal(t, tournamentdb.StatusCompleted, stored.Status)
	assert.True(t, stored.Forced)

	_, err = svc.ForceComplete(context.Background(), id, "organiser")
	assert.ErrorIs(t, err, ErrTournamentCompleted)
}

func TestTournamentService_ForceCompleteWithDoubleForfeit(t *testing.T) {
	svc, _, rec := newTestService(t)
	id := create(t, svc, "double_forfeit").Tournament.ID
	report(t, svc, id, "alice", "bob")

	c, err := svc.ForceComplete(context.Background(), id, "organiser")
	require.NoError(t, err)

	require.Len(t, c.Resolutions, 2)
	assert.Empty(t, c.DrawMatches)
	assert.Len(t, rec.Recorded, 1, "forfeits are not rated")
	assert.Equal(t, 1000, rec.Rating("carol"))

	carol := standingOf(t, c.Standings, "carol")
	assert.Equal(t, 2, carol.Losses)
	assert.Zero(t, carol.Points)
	assert.Equal(t, 1000, carol.EloRating)
	assert.Equal(t, 1, standingOf(t, c.Standings, "alice").Losses)
	assert.False(t, hasUnlock(c.Unlocks, achievementdomain.Undefeated, "alice"))
}

func TestTournamentService_GetStandingsReportsCircularTies(t *testing.T) {
	svc, _, _ := newTestService(t)
	id := create(t, svc, "").Tournament.ID
	report(t, svc, id, "alice", "bob")
	report(t, svc, id, "bob", "carol")
	report(t, svc, id, "carol", "alice")

	view, err := svc.GetStandings(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"alice", "bob", "carol"}}, view.CircularTies)
	require.Len(t, view.Standings, 3)
	for i, st := range view.Standings {
		assert.Equal(t, i+1, st.Rank)
		assert.Equal(t, 3, st.Points)
	}

	_, err = svc.GetStandings(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestTournamentService_ListTournaments(t *testing.T) {
	svc, _, _ := newTestService(t)
	create(t, svc, "")
	create(t, svc, "double_forfeit")

	list, err := svc.ListTournaments(context.Background(), testGroup)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.ListTournaments(context.Background(), "")
	assert.ErrorIs(t, err, ErrGroupRequired)
}

func TestTournamentService_ExportStandings(t *testing.T) {
	svc, _, _ := newTestService(t)
	id := create(t, svc, "").Tournament.ID
	report(t, svc, id, "alice", "bob")

	data, err := svc.ExportStandings(context.Background(), id)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Standings", "Fixtures"}, f.GetSheetList())

	leader, err := f.GetCellValue("Standings", "B2")
	require.NoError(t, err)
	assert.Equal(t, "alice", leader)

	points, err := f.GetCellValue("Standings", "C2")
	require.NoError(t, err)
	assert.Equal(t, "3", points)

	rows, err := f.GetRows("Fixtures")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestTournamentService_PanicIsRecovered(t *testing.T) {
	svc, repo, _ := newTestService(t)
	id := create(t, svc, "").Tournament.ID
	repo.UpdateFixturesFunc = func(context.Context, bun.IDB, []tournamentdb.Fixture) error {
		panic("boom")
	}

	_, err := svc.ReportFixture(context.Background(), ReportFixtureRequest{TournamentID: id, WinnerID: "alice", LoserID: "bob"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in ReportFixture")
}
