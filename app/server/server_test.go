package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ratingservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/application"
	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
	tournamentservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/application"
	tournamentdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/domain"
)

type fakeRatings struct {
	leaderboard func(groupID string, track ratingdomain.Track) ([]ratingservice.LeaderboardEntry, error)
	chart       func(groupID, playerID string) ([]byte, error)
}

func (f *fakeRatings) GetLeaderboard(_ context.Context, groupID string, track ratingdomain.Track) ([]ratingservice.LeaderboardEntry, error) {
	return f.leaderboard(groupID, track)
}

func (f *fakeRatings) RatingHistoryChart(_ context.Context, groupID, playerID string) ([]byte, error) {
	return f.chart(groupID, playerID)
}

type fakeTournaments struct {
	standings func(id uuid.UUID) (*tournamentservice.StandingsView, error)
	export    func(id uuid.UUID) ([]byte, error)
}

func (f *fakeTournaments) GetStandings(_ context.Context, id uuid.UUID) (*tournamentservice.StandingsView, error) {
	return f.standings(id)
}

func (f *fakeTournaments) ExportStandings(_ context.Context, id uuid.UUID) ([]byte, error) {
	return f.export(id)
}

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	ok := HealthCheckFunc(func(context.Context) error { return nil })
	down := HealthCheckFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name   string
		checks map[string]HealthChecker
		status int
		body   map[string]string
	}{
		{
			name:   "no checks",
			status: http.StatusOK,
			body:   map[string]string{},
		},
		{
			name:   "all healthy",
			checks: map[string]HealthChecker{"database": ok, "eventbus": ok},
			status: http.StatusOK,
			body:   map[string]string{"database": "ok", "eventbus": "ok"},
		},
		{
			name:   "one failing",
			checks: map[string]HealthChecker{"database": ok, "queue": down},
			status: http.StatusServiceUnavailable,
			body:   map[string]string{"database": "ok", "queue": "connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(Deps{Logger: slog.New(slog.DiscardHandler), Checks: tt.checks})
			rec := serve(t, r, "/healthz")

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.body, body)
		})
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "pingpong_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	rec := serve(t, NewRouter(Deps{Registry: reg}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pingpong_test_total 1")
}

func TestLeaderboard(t *testing.T) {
	var gotTrack ratingdomain.Track
	ratings := &fakeRatings{
		leaderboard: func(groupID string, track ratingdomain.Track) ([]ratingservice.LeaderboardEntry, error) {
			gotTrack = track
			switch groupID {
			case "missing":
				return nil, fmt.Errorf("lookup: %w", ratingservice.ErrGroupNotFound)
			case "broken":
				return nil, errors.New("db down")
			case "bad":
				return nil, ratingservice.ErrInvalidTrack
			}
			return []ratingservice.LeaderboardEntry{
				{Rank: 1, PlayerID: "alice", PlayerTrack: ratingdomain.PlayerTrack{RatingState: ratingdomain.RatingState{Rating: 1040, GamesPlayed: 2}, Wins: 2}},
				{Rank: 2, PlayerID: "bob", PlayerTrack: ratingdomain.PlayerTrack{RatingState: ratingdomain.RatingState{Rating: 980, GamesPlayed: 1}, Losses: 1}},
			}, nil
		},
	}
	r := NewRouter(Deps{Logger: slog.New(slog.DiscardHandler), Ratings: ratings})

	t.Run("defaults to singles", func(t *testing.T) {
		rec := serve(t, r, "/api/groups/g1/leaderboard")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, ratingdomain.TrackSingles, gotTrack)
		var rows []leaderboardRow
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
		require.Len(t, rows, 2)
		assert.Equal(t, leaderboardRow{Rank: 1, PlayerID: "alice", Rating: 1040, GamesPlayed: 2, Wins: 2}, rows[0])
		assert.Equal(t, "bob", rows[1].PlayerID)
	})

	t.Run("track query", func(t *testing.T) {
		rec := serve(t, r, "/api/groups/g1/leaderboard?track=doubles")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, ratingdomain.TrackDoubles, gotTrack)
	})

	statuses := map[string]int{
		"missing": http.StatusNotFound,
		"bad":     http.StatusBadRequest,
		"broken":  http.StatusInternalServerError,
	}
	for group, status := range statuses {
		t.Run(group, func(t *testing.T) {
			rec := serve(t, r, "/api/groups/"+group+"/leaderboard")
			assert.Equal(t, status, rec.Code)
		})
	}
}

func TestChart_RateLimited(t *testing.T) {
	calls := 0
	ratings := &fakeRatings{
		chart: func(groupID, playerID string) ([]byte, error) {
			calls++
			assert.Equal(t, "g1", groupID)
			assert.Equal(t, "alice", playerID)
			return []byte("\x89PNG"), nil
		},
	}
	r := NewRouter(Deps{Ratings: ratings, ChartRatePerMinute: 2})

	for range 2 {
		rec := serve(t, r, "/api/groups/g1/players/alice/chart.png")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, "\x89PNG", rec.Body.String())
	}

	rec := serve(t, r, "/api/groups/g1/players/alice/chart.png")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Equal(t, 2, calls)

	// The leaderboard shares the group route but not the budget.
	ratings.leaderboard = func(string, ratingdomain.Track) ([]ratingservice.LeaderboardEntry, error) { return nil, nil }
	assert.Equal(t, http.StatusOK, serve(t, r, "/api/groups/g1/leaderboard").Code)
}

func TestChart_Unlimited(t *testing.T) {
	ratings := &fakeRatings{chart: func(string, string) ([]byte, error) { return []byte("png"), nil }}
	r := NewRouter(Deps{Ratings: ratings})

	for range 5 {
		assert.Equal(t, http.StatusOK, serve(t, r, "/api/groups/g1/players/alice/chart.png").Code)
	}
}

func TestChartLimiter_ScopedToClientAndGroup(t *testing.T) {
	l := NewChartLimiter(1)
	now := time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ok, _ := l.Reserve("10.0.0.1", "g1")
	require.True(t, ok)

	ok, wait := l.Reserve("10.0.0.1", "g1")
	assert.False(t, ok)
	assert.InDelta(t, time.Minute.Seconds(), wait.Seconds(), 0.001)

	ok, _ = l.Reserve("10.0.0.1", "g2")
	assert.True(t, ok, "another group has its own budget")
	ok, _ = l.Reserve("10.0.0.2", "g1")
	assert.True(t, ok, "another client has its own budget")

	now = now.Add(2 * time.Minute)
	ok, _ = l.Reserve("10.0.0.1", "g1")
	assert.True(t, ok, "the budget refills")
}

func TestChartLimiter_Prunes(t *testing.T) {
	l := NewChartLimiter(60)
	now := time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := range cleanupThreshold + 1 {
		l.Reserve(fmt.Sprintf("10.0.%d.%d", i/256, i%256), "g1")
	}
	require.Len(t, l.buckets, cleanupThreshold+1)

	now = now.Add(maxIdleAge + time.Second)
	l.Reserve("192.0.2.1", "g1")
	assert.Len(t, l.buckets, 1)
}

func TestTournamentRoutes(t *testing.T) {
	known := uuid.New()
	view := &tournamentservice.StandingsView{
		Tournament: tournamentservice.TournamentView{ID: known, Name: "Autumn", Status: "active"},
		Standings: []tournamentservice.RankedStanding{
			{Rank: 1, Standing: tournamentdomain.Standing{PlayerID: "alice", Points: 4, Wins: 2, SetsWon: 4, SetsLost: 1, EloRating: 1040}},
		},
		CircularTies: [][]string{{"bob", "carol", "dave"}},
	}
	tournaments := &fakeTournaments{
		standings: func(id uuid.UUID) (*tournamentservice.StandingsView, error) {
			if id != known {
				return nil, tournamentservice.ErrTournamentNotFound
			}
			return view, nil
		},
		export: func(id uuid.UUID) ([]byte, error) {
			if id != known {
				return nil, errors.New("db down")
			}
			return []byte("xlsx"), nil
		},
	}
	r := NewRouter(Deps{Logger: slog.New(slog.DiscardHandler), Tournaments: tournaments})

	t.Run("standings", func(t *testing.T) {
		rec := serve(t, r, "/api/tournaments/"+known.String()+"/standings")

		require.Equal(t, http.StatusOK, rec.Code)
		var body standingsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Autumn", body.Name)
		assert.Equal(t, [][]string{{"bob", "carol", "dave"}}, body.CircularTies)
		require.Len(t, body.Standings, 1)
		assert.Equal(t, standingRow{Rank: 1, PlayerID: "alice", Points: 4, Wins: 2, SetsWon: 4, SetsLost: 1, EloRating: 1040}, body.Standings[0])
	})

	t.Run("standings not found", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(t, r, "/api/tournaments/"+uuid.NewString()+"/standings").Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, serve(t, r, "/api/tournaments/nope/standings.xlsx").Code)
	})

	t.Run("export", func(t *testing.T) {
		rec := serve(t, r, "/api/tournaments/"+known.String()+"/standings.xlsx")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "xlsx", rec.Body.String())
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "standings-"+known.String()+".xlsx")
	})

	t.Run("export infrastructure error", func(t *testing.T) {
		rec := serve(t, r, "/api/tournaments/"+uuid.NewString()+"/standings.xlsx")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "db down")
	})
}

func TestNilReadersLeaveRoutesUnmounted(t *testing.T) {
	r := NewRouter(Deps{})

	assert.Equal(t, http.StatusNotFound, serve(t, r, "/api/groups/g1/leaderboard").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, r, "/api/tournaments/"+uuid.NewString()+"/standings").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, r, "/metrics").Code)
}
