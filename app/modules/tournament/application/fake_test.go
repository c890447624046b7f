package tournamentservice

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	achievementdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/domain"
	ratingservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/application"
	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
	tournamentdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/infrastructure/repositories"
)

// ------------------------
// Fake Tournament Repo
// ------------------------

// FakeTournamentRepo keeps tournaments in memory. Func fields override single
// methods for error injection.
type FakeTournamentRepo struct {
	trace []string

	tournaments map[uuid.UUID]tournamentdb.Tournament
	fixtures    map[uuid.UUID][]tournamentdb.Fixture
	standings   map[uuid.UUID][]tournamentdb.Standing

	LockTournamentFunc   func(ctx context.Context, db bun.IDB, id uuid.UUID) (*tournamentdb.Tournament, error)
	UpdateFixturesFunc   func(ctx context.Context, db bun.IDB, fixtures []tournamentdb.Fixture) error
	CreateTournamentFunc func(ctx context.Context, db bun.IDB, t *tournamentdb.Tournament) error
}

func NewFakeTournamentRepo() *FakeTournamentRepo {
	return &FakeTournamentRepo{
		trace:       []string{},
		tournaments: map[uuid.UUID]tournamentdb.Tournament{},
		fixtures:    map[uuid.UUID][]tournamentdb.Fixture{},
		standings:   map[uuid.UUID][]tournamentdb.Standing{},
	}
}

func (f *FakeTournamentRepo) record(step string) {
	f.trace = append(f.trace, step)
}

// --- Repository Interface Implementation ---

func (f *FakeTournamentRepo) CreateTournament(ctx context.Context, db bun.IDB, t *tournamentdb.Tournament, fixtures []tournamentdb.Fixture, standings []tournamentdb.Standing) error {
	f.record("CreateTournament")
	if f.CreateTournamentFunc != nil {
		return f.CreateTournamentFunc(ctx, db, t)
	}
	f.tournaments[t.ID] = *t
	f.fixtures[t.ID] = slices.Clone(fixtures)
	f.standings[t.ID] = slices.Clone(standings)
	return nil
}

func (f *FakeTournamentRepo) GetTournament(ctx context.Context, db bun.IDB, id uuid.UUID) (*tournamentdb.Tournament, error) {
	f.record("GetTournament")
	t, ok := f.tournaments[id]
	if !ok {
		return nil, tournamentdb.ErrNotFound
	}
	return &t, nil
}

func (f *FakeTournamentRepo) LockTournament(ctx context.Context, db bun.IDB, id uuid.UUID) (*tournamentdb.Tournament, error) {
	f.record("LockTournament")
	if f.LockTournamentFunc != nil {
		return f.LockTournamentFunc(ctx, db, id)
	}
	t, ok := f.tournaments[id]
	if !ok {
		return nil, tournamentdb.ErrNotFound
	}
	return &t, nil
}

func (f *FakeTournamentRepo) ListTournaments(ctx context.Context, db bun.IDB, groupID string) ([]tournamentdb.Tournament, error) {
	f.record("ListTournaments")
	var out []tournamentdb.Tournament
	for _, t := range f.tournaments {
		if t.GroupID == groupID {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b tournamentdb.Tournament) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (f *FakeTournamentRepo) ListFixtures(ctx context.Context, db bun.IDB, id uuid.UUID) ([]tournamentdb.Fixture, error) {
	f.record("ListFixtures")
	return slices.Clone(f.fixtures[id]), nil
}

func (f *FakeTournamentRepo) UpdateFixtures(ctx context.Context, db bun.IDB, fixtures []tournamentdb.Fixture) error {
	f.record("UpdateFixtures")
	if f.UpdateFixturesFunc != nil {
		return f.UpdateFixturesFunc(ctx, db, fixtures)
	}
	for _, in := range fixtures {
		rows := f.fixtures[in.TournamentID]
		i := slices.IndexFunc(rows, func(r tournamentdb.Fixture) bool {
			return r.PairLow == in.PairLow && r.PairHigh == in.PairHigh
		})
		if i < 0 {
			return tournamentdb.ErrNoRowsAffected
		}
		rows[i] = in
	}
	return nil
}

func (f *FakeTournamentRepo) ListStandings(ctx context.Context, db bun.IDB, id uuid.UUID) ([]tournamentdb.Standing, error) {
	f.record("ListStandings")
	out := slices.Clone(f.standings[id])
	slices.SortFunc(out, func(a, b tournamentdb.Standing) int {
		if a.PlayerID < b.PlayerID {
			return -1
		}
		if a.PlayerID > b.PlayerID {
			return 1
		}
		return 0
	})
	return out, nil
}

func (f *FakeTournamentRepo) UpsertStandings(ctx context.Context, db bun.IDB, standings []tournamentdb.Standing) error {
	f.record("UpsertStandings")
	for _, in := range standings {
		rows := f.standings[in.TournamentID]
		i := slices.IndexFunc(rows, func(r tournamentdb.Standing) bool { return r.PlayerID == in.PlayerID })
		if i < 0 {
			f.standings[in.TournamentID] = append(rows, in)
			continue
		}
		rows[i] = in
	}
	return nil
}

func (f *FakeTournamentRepo) CompleteTournament(ctx context.Context, db bun.IDB, id uuid.UUID, completedAt time.Time, forced bool) error {
	f.record("CompleteTournament")
	t, ok := f.tournaments[id]
	if !ok || t.Status != tournamentdb.StatusActive {
		return tournamentdb.ErrNoRowsAffected
	}
	t.Status = tournamentdb.StatusCompleted
	t.CompletedAt = &completedAt
	t.Forced = forced
	f.tournaments[id] = t
	return nil
}

// --- Helpers for Test Assertions ---

func (f *FakeTournamentRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeTournamentRepo) Stored(id uuid.UUID) tournamentdb.Tournament {
	return f.tournaments[id]
}

func (f *FakeTournamentRepo) StoredFixtures(id uuid.UUID) []tournamentdb.Fixture {
	return slices.Clone(f.fixtures[id])
}

var _ tournamentdb.Repository = (*FakeTournamentRepo)(nil)

// ------------------------
// Fake Recorder
// ------------------------

// FakeRecorder rates matches with a real ledger so tournament flows see the
// same numbers the rating service would produce.
type FakeRecorder struct {
	ledger *ratingdomain.Ledger
	owned  achievementdomain.Owned
	clock  time.Time

	AchievementsDisabled bool
	Recorded             []ratingservice.RecordRequest

	RecordInTxFunc func(ctx context.Context, db bun.IDB, req ratingservice.RecordRequest) (*ratingservice.MatchResult, error)
}

func NewFakeRecorder(baseline int) *FakeRecorder {
	return &FakeRecorder{
		ledger: ratingdomain.NewLedger(baseline),
		owned:  achievementdomain.Owned{},
		clock:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (r *FakeRecorder) RecordInTx(ctx context.Context, db bun.IDB, req ratingservice.RecordRequest) (*ratingservice.MatchResult, error) {
	r.Recorded = append(r.Recorded, req)
	if r.RecordInTxFunc != nil {
		return r.RecordInTxFunc(ctx, db, req)
	}
	if req.Kind == ratingdomain.KindSingles {
		if err := achievementdomain.ValidateSets(req.Sets); err != nil {
			return nil, err
		}
	}

	r.clock = r.clock.Add(time.Minute)
	id := uuid.New()
	snap, err := r.ledger.Apply(ratingdomain.MatchRecord{
		ID:       id.String(),
		Kind:     req.Kind,
		Winners:  req.Winners,
		Losers:   req.Losers,
		PlayedAt: r.clock,
	})
	if err != nil {
		return nil, fmt.Errorf("rating failed: %w", err)
	}
	return &ratingservice.MatchResult{
		MatchID:       id,
		GroupID:       req.GroupID,
		Kind:          req.Kind,
		Status:        "confirmed",
		Winners:       req.Winners,
		Losers:        req.Losers,
		RatingsBefore: snap.RatingsBefore,
		RatingsAfter:  snap.RatingsAfter,
		Change:        snap.Change,
		PlayedAt:      r.clock,
	}, nil
}

func (r *FakeRecorder) TracksInTx(ctx context.Context, db bun.IDB, groupID string, playerIDs []string) (map[string]ratingdomain.PlayerTrack, error) {
	out := make(map[string]ratingdomain.PlayerTrack, len(playerIDs))
	for _, id := range playerIDs {
		out[id] = r.ledger.Get(ratingdomain.TrackSingles, id)
	}
	return out, nil
}

func (r *FakeRecorder) TournamentAchievementsInTx(ctx context.Context, db bun.IDB, groupID string, tournamentID uuid.UUID, tc achievementdomain.TournamentContext) ([]achievementdomain.Unlock, error) {
	if r.AchievementsDisabled {
		return nil, nil
	}
	tc.TournamentID = tournamentID.String()
	tc.Owned = r.owned
	unlocks := achievementdomain.EvaluateTournamentAchievements(tc)
	for _, u := range unlocks {
		if r.owned[u.PlayerID] == nil {
			r.owned[u.PlayerID] = map[achievementdomain.ID]bool{}
		}
		r.owned[u.PlayerID][u.AchievementID] = true
	}
	return unlocks, nil
}

// Rating returns the player's current singles rating.
func (r *FakeRecorder) Rating(playerID string) int {
	return r.ledger.Get(ratingdomain.TrackSingles, playerID).Rating
}

var _ ratingservice.Recorder = (*FakeRecorder)(nil)
