package ratingservice

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	achievementdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/domain"
	achievementdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/infrastructure/repositories"
	ratingdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/infrastructure/repositories"
)

// ------------------------
// Fake Rating Repo
// ------------------------

// FakeRatingRepo keeps rows in memory so flows can be checked end to end.
// Func fields override single methods for error injection.
type FakeRatingRepo struct {
	trace []string
	seq   int64

	groups  map[string]*ratingdb.Group
	tracks  map[string]ratingdb.PlayerTrack
	matches []ratingdb.Match
	seasons []ratingdb.Season
	archive []ratingdb.SeasonSnapshot

	LockGroupFunc         func(ctx context.Context, db bun.IDB, groupID string) (*ratingdb.Group, error)
	UpsertTracksFunc      func(ctx context.Context, db bun.IDB, tracks []ratingdb.PlayerTrack) error
	InsertMatchFunc       func(ctx context.Context, db bun.IDB, match *ratingdb.Match) error
	ListActiveMatchesFunc func(ctx context.Context, db bun.IDB, groupID string) ([]ratingdb.Match, error)
}

func NewFakeRatingRepo() *FakeRatingRepo {
	return &FakeRatingRepo{
		trace:  []string{},
		groups: map[string]*ratingdb.Group{},
		tracks: map[string]ratingdb.PlayerTrack{},
	}
}

func (f *FakeRatingRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func trackKey(groupID, track, playerID string) string {
	return groupID + "|" + track + "|" + playerID
}

// --- Repository Interface Implementation ---

func (f *FakeRatingRepo) EnsureGroup(ctx context.Context, db bun.IDB, groupID string, baseline int) (*ratingdb.Group, error) {
	f.record("EnsureGroup")
	if _, ok := f.groups[groupID]; !ok {
		f.groups[groupID] = &ratingdb.Group{ID: groupID, BaselineRating: baseline, AchievementsEnabled: true}
	}
	g := *f.groups[groupID]
	return &g, nil
}

func (f *FakeRatingRepo) GetGroup(ctx context.Context, db bun.IDB, groupID string) (*ratingdb.Group, error) {
	f.record("GetGroup")
	g, ok := f.groups[groupID]
	if !ok {
		return nil, ratingdb.ErrNotFound
	}
	out := *g
	return &out, nil
}

func (f *FakeRatingRepo) LockGroup(ctx context.Context, db bun.IDB, groupID string) (*ratingdb.Group, error) {
	f.record("LockGroup")
	if f.LockGroupFunc != nil {
		return f.LockGroupFunc(ctx, db, groupID)
	}
	g, ok := f.groups[groupID]
	if !ok {
		return nil, ratingdb.ErrNotFound
	}
	out := *g
	return &out, nil
}

func (f *FakeRatingRepo) UpdateGroupSettings(ctx context.Context, db bun.IDB, group *ratingdb.Group) error {
	f.record("UpdateGroupSettings")
	if _, ok := f.groups[group.ID]; !ok {
		return ratingdb.ErrNotFound
	}
	g := *group
	f.groups[group.ID] = &g
	return nil
}

func (f *FakeRatingRepo) ListGroupIDs(ctx context.Context, db bun.IDB) ([]string, error) {
	f.record("ListGroupIDs")
	ids := make([]string, 0, len(f.groups))
	for id := range f.groups {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (f *FakeRatingRepo) GetTracks(ctx context.Context, db bun.IDB, groupID, track string, playerIDs []string) (map[string]ratingdb.PlayerTrack, error) {
	f.record("GetTracks")
	out := make(map[string]ratingdb.PlayerTrack, len(playerIDs))
	for _, id := range playerIDs {
		if row, ok := f.tracks[trackKey(groupID, track, id)]; ok {
			out[id] = row
		}
	}
	return out, nil
}

func (f *FakeRatingRepo) ListTracks(ctx context.Context, db bun.IDB, groupID, track string) ([]ratingdb.PlayerTrack, error) {
	f.record("ListTracks")
	var rows []ratingdb.PlayerTrack
	for _, row := range f.tracks {
		if row.GroupID == groupID && row.Track == track {
			rows = append(rows, row)
		}
	}
	slices.SortFunc(rows, func(a, b ratingdb.PlayerTrack) int {
		if a.Rating != b.Rating {
			return b.Rating - a.Rating
		}
		if a.PlayerID < b.PlayerID {
			return -1
		}
		if a.PlayerID > b.PlayerID {
			return 1
		}
		return 0
	})
	return rows, nil
}

func (f *FakeRatingRepo) UpsertTracks(ctx context.Context, db bun.IDB, tracks []ratingdb.PlayerTrack) error {
	f.record("UpsertTracks")
	if f.UpsertTracksFunc != nil {
		return f.UpsertTracksFunc(ctx, db, tracks)
	}
	for _, row := range tracks {
		f.tracks[trackKey(row.GroupID, row.Track, row.PlayerID)] = row
	}
	return nil
}

func (f *FakeRatingRepo) DeleteTracks(ctx context.Context, db bun.IDB, groupID, track string) error {
	f.record("DeleteTracks")
	for key, row := range f.tracks {
		if row.GroupID == groupID && row.Track == track {
			delete(f.tracks, key)
		}
	}
	return nil
}

func (f *FakeRatingRepo) InsertMatch(ctx context.Context, db bun.IDB, match *ratingdb.Match) error {
	f.record("InsertMatch")
	if f.InsertMatchFunc != nil {
		return f.InsertMatchFunc(ctx, db, match)
	}
	f.seq++
	match.Seq = f.seq
	f.matches = append(f.matches, *match)
	return nil
}

func (f *FakeRatingRepo) GetMatch(ctx context.Context, db bun.IDB, groupID string, matchID uuid.UUID) (*ratingdb.Match, error) {
	f.record("GetMatch")
	for _, m := range f.matches {
		if m.GroupID == groupID && m.ID == matchID {
			out := m
			return &out, nil
		}
	}
	return nil, ratingdb.ErrNotFound
}

func (f *FakeRatingRepo) UpdateMatchStatus(ctx context.Context, db bun.IDB, groupID string, matchID uuid.UUID, status string) error {
	f.record("UpdateMatchStatus")
	for i := range f.matches {
		if f.matches[i].GroupID == groupID && f.matches[i].ID == matchID {
			f.matches[i].Status = status
			return nil
		}
	}
	return ratingdb.ErrNotFound
}

func (f *FakeRatingRepo) DeleteMatch(ctx context.Context, db bun.IDB, groupID string, matchID uuid.UUID) error {
	f.record("DeleteMatch")
	for i := range f.matches {
		if f.matches[i].GroupID == groupID && f.matches[i].ID == matchID {
			f.matches = slices.Delete(f.matches, i, i+1)
			return nil
		}
	}
	return ratingdb.ErrNotFound
}

func (f *FakeRatingRepo) ListActiveMatches(ctx context.Context, db bun.IDB, groupID string) ([]ratingdb.Match, error) {
	f.record("ListActiveMatches")
	if f.ListActiveMatchesFunc != nil {
		return f.ListActiveMatchesFunc(ctx, db, groupID)
	}
	var out []ratingdb.Match
	for _, m := range f.matches {
		if m.GroupID == groupID && m.Status != ratingdb.StatusDisputed {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b ratingdb.Match) int {
		if c := a.PlayedAt.Compare(b.PlayedAt); c != 0 {
			return c
		}
		return int(a.Seq - b.Seq)
	})
	return out, nil
}

func (f *FakeRatingRepo) UpdateMatchSnapshots(ctx context.Context, db bun.IDB, matches []ratingdb.Match) error {
	f.record("UpdateMatchSnapshots")
	for _, m := range matches {
		for i := range f.matches {
			if f.matches[i].ID == m.ID {
				f.matches[i].EloBefore = m.EloBefore
				f.matches[i].EloAfter = m.EloAfter
				f.matches[i].Change = m.Change
			}
		}
	}
	return nil
}

func (f *FakeRatingRepo) GetActiveSeason(ctx context.Context, db bun.IDB, groupID string) (*ratingdb.Season, error) {
	f.record("GetActiveSeason")
	for _, s := range f.seasons {
		if s.GroupID == groupID && s.IsActive {
			out := s
			return &out, nil
		}
	}
	return nil, ratingdb.ErrNoActiveSeason
}

func (f *FakeRatingRepo) CreateSeason(ctx context.Context, db bun.IDB, season *ratingdb.Season) error {
	f.record("CreateSeason")
	f.seasons = append(f.seasons, *season)
	return nil
}

func (f *FakeRatingRepo) DeactivateSeason(ctx context.Context, db bun.IDB, seasonID uuid.UUID) error {
	f.record("DeactivateSeason")
	for i := range f.seasons {
		if f.seasons[i].ID == seasonID {
			f.seasons[i].IsActive = false
			return nil
		}
	}
	return ratingdb.ErrNotFound
}

func (f *FakeRatingRepo) ListSeasonResets(ctx context.Context, db bun.IDB, groupID string) ([]time.Time, error) {
	f.record("ListSeasonResets")
	var out []time.Time
	for _, s := range f.seasons {
		if s.GroupID == groupID && s.OpenedByRollover {
			out = append(out, s.OpenedAt)
		}
	}
	return out, nil
}

func (f *FakeRatingRepo) SaveSeasonSnapshots(ctx context.Context, db bun.IDB, snapshots []ratingdb.SeasonSnapshot) error {
	f.record("SaveSeasonSnapshots")
	f.archive = append(f.archive, snapshots...)
	return nil
}

func (f *FakeRatingRepo) GetSeasonSnapshots(ctx context.Context, db bun.IDB, seasonID uuid.UUID) ([]ratingdb.SeasonSnapshot, error) {
	f.record("GetSeasonSnapshots")
	var out []ratingdb.SeasonSnapshot
	for _, s := range f.archive {
		if s.SeasonID == seasonID {
			out = append(out, s)
		}
	}
	return out, nil
}

// --- Accessors for assertions ---

func (f *FakeRatingRepo) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeRatingRepo) Track(groupID, track, playerID string) (ratingdb.PlayerTrack, bool) {
	row, ok := f.tracks[trackKey(groupID, track, playerID)]
	return row, ok
}

// ------------------------
// Fake Achievement Repo
// ------------------------

type FakeAchievementRepo struct {
	trace []string
	rows  []achievementdb.PlayerAchievement

	GrantFunc func(ctx context.Context, db bun.IDB, rows []achievementdb.PlayerAchievement) ([]achievementdb.PlayerAchievement, error)
}

func NewFakeAchievementRepo() *FakeAchievementRepo {
	return &FakeAchievementRepo{trace: []string{}}
}

func (f *FakeAchievementRepo) GetOwned(ctx context.Context, db bun.IDB, groupID string, playerIDs []string) (achievementdomain.Owned, error) {
	f.trace = append(f.trace, "GetOwned")
	owned := achievementdomain.Owned{}
	for _, row := range f.rows {
		if row.GroupID == groupID && slices.Contains(playerIDs, row.PlayerID) {
			if owned[row.PlayerID] == nil {
				owned[row.PlayerID] = map[achievementdomain.ID]bool{}
			}
			owned[row.PlayerID][achievementdomain.ID(row.AchievementID)] = true
		}
	}
	return owned, nil
}

func (f *FakeAchievementRepo) Grant(ctx context.Context, db bun.IDB, rows []achievementdb.PlayerAchievement) ([]achievementdb.PlayerAchievement, error) {
	f.trace = append(f.trace, "Grant")
	if f.GrantFunc != nil {
		return f.GrantFunc(ctx, db, rows)
	}
	var inserted []achievementdb.PlayerAchievement
	for _, row := range rows {
		if slices.ContainsFunc(f.rows, func(r achievementdb.PlayerAchievement) bool {
			return r.GroupID == row.GroupID && r.PlayerID == row.PlayerID && r.AchievementID == row.AchievementID
		}) {
			continue
		}
		f.rows = append(f.rows, row)
		inserted = append(inserted, row)
	}
	return inserted, nil
}

func (f *FakeAchievementRepo) ListForPlayer(ctx context.Context, db bun.IDB, groupID, playerID string) ([]achievementdb.PlayerAchievement, error) {
	f.trace = append(f.trace, "ListForPlayer")
	var out []achievementdb.PlayerAchievement
	for _, row := range f.rows {
		if row.GroupID == groupID && row.PlayerID == playerID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *FakeAchievementRepo) Owns(playerID string, id achievementdomain.ID) bool {
	return slices.ContainsFunc(f.rows, func(r achievementdb.PlayerAchievement) bool {
		return r.PlayerID == playerID && r.AchievementID == string(id)
	})
}

// Interface assertions
var (
	_ ratingdb.Repository      = (*FakeRatingRepo)(nil)
	_ achievementdb.Repository = (*FakeAchievementRepo)(nil)
)
