package ratingdomain

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

var (
	// ErrInvalidMatch is returned for a match whose sides are malformed.
	ErrInvalidMatch = errors.New("invalid match")
	// ErrInvalidHistory is returned when a history is not in chronological order.
	ErrInvalidHistory = errors.New("invalid match history")
)

// Track separates singles and doubles ratings. Each player has one of each.
type Track string

const (
	TrackSingles Track = "singles"
	TrackDoubles Track = "doubles"
)

// MatchKind selects the rating formula applied to a match.
type MatchKind string

const (
	KindSingles MatchKind = "singles"
	KindDoubles MatchKind = "doubles"
	KindDraw    MatchKind = "draw"
)

// Track returns the rating track a kind of match moves.
func (k MatchKind) Track() Track {
	if k == KindDoubles {
		return TrackDoubles
	}
	return TrackSingles
}

// MatchRecord is one entry of a group's append-only match log.
// For draws, Winners and Losers are simply side one and side two.
type MatchRecord struct {
	ID       string
	Kind     MatchKind
	Winners  []string
	Losers   []string
	PlayedAt time.Time
}

// Participants returns every player in the match, winners first.
func (m MatchRecord) Participants() []string {
	out := make([]string, 0, len(m.Winners)+len(m.Losers))
	out = append(out, m.Winners...)
	return append(out, m.Losers...)
}

// Validate checks side sizes and that no player appears twice.
func (m MatchRecord) Validate() error {
	want := 1
	if m.Kind == KindDoubles {
		want = 2
	}
	switch m.Kind {
	case KindSingles, KindDoubles, KindDraw:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidMatch, m.Kind)
	}
	if len(m.Winners) != want || len(m.Losers) != want {
		return fmt.Errorf("%w: %s match needs %d player(s) per side, got %d and %d",
			ErrInvalidMatch, m.Kind, want, len(m.Winners), len(m.Losers))
	}
	seen := make(map[string]struct{}, 2*want)
	for _, id := range m.Participants() {
		if id == "" {
			return fmt.Errorf("%w: empty player id", ErrInvalidMatch)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: player %s appears more than once", ErrInvalidMatch, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// PlayerTrack is everything derived for one player on one track.
type PlayerTrack struct {
	RatingState
	Wins   int
	Losses int
	Draws  int
	Streak StreakState
}

// NewPlayerTrack returns a fresh track at the given baseline.
func NewPlayerTrack(baseline int) PlayerTrack {
	return PlayerTrack{RatingState: RatingState{Rating: clampFloor(baseline)}}
}

func (p PlayerTrack) win(rating int) PlayerTrack {
	p.Rating = rating
	p.GamesPlayed++
	p.Wins++
	p.Streak = p.Streak.Next(true)
	return p
}

func (p PlayerTrack) lose(rating int) PlayerTrack {
	p.Rating = rating
	p.GamesPlayed++
	p.Losses++
	p.Streak = p.Streak.Next(false)
	return p
}

func (p PlayerTrack) draw(rating int) PlayerTrack {
	p.Rating = rating
	p.GamesPlayed++
	p.Draws++
	p.Streak = p.Streak.AfterDraw()
	return p
}

// MatchSnapshot records ratings around one match.
type MatchSnapshot struct {
	MatchID       string
	RatingsBefore map[string]int
	RatingsAfter  map[string]int
	// Change is the winning side's per-player delta, or side one's delta for a draw.
	Change int
}

// Ledger holds the singles and doubles tracks of a group while matches are
// applied. The live reporting path seeds it with persisted tracks and applies
// a single match; Replay starts it empty and applies the whole history. Both
// go through Apply, so they cannot disagree.
type Ledger struct {
	baseline int
	tracks   map[Track]map[string]PlayerTrack
}

// NewLedger returns an empty ledger whose unseen players start at baseline.
func NewLedger(baseline int) *Ledger {
	return &Ledger{
		baseline: clampFloor(baseline),
		tracks: map[Track]map[string]PlayerTrack{
			TrackSingles: {},
			TrackDoubles: {},
		},
	}
}

// Seed sets a player's current state on a track.
func (l *Ledger) Seed(track Track, playerID string, state PlayerTrack) {
	l.tracks[track][playerID] = state
}

// Get returns a player's state on a track, or a fresh baseline track.
func (l *Ledger) Get(track Track, playerID string) PlayerTrack {
	if t, ok := l.tracks[track][playerID]; ok {
		return t
	}
	return NewPlayerTrack(l.baseline)
}

// Reset drops every player's state on a track so they start again at the
// baseline.
func (l *Ledger) Reset(track Track) {
	l.tracks[track] = map[string]PlayerTrack{}
}

// Tracks returns a copy of every player's state on a track.
func (l *Ledger) Tracks(track Track) map[string]PlayerTrack {
	return maps.Clone(l.tracks[track])
}

// Apply folds one match into the ledger.
func (l *Ledger) Apply(m MatchRecord) (MatchSnapshot, error) {
	if err := m.Validate(); err != nil {
		return MatchSnapshot{}, fmt.Errorf("match %s: %w", m.ID, err)
	}

	track := m.Kind.Track()
	snap := MatchSnapshot{
		MatchID:       m.ID,
		RatingsBefore: make(map[string]int, len(m.Winners)+len(m.Losers)),
		RatingsAfter:  make(map[string]int, len(m.Winners)+len(m.Losers)),
	}
	for _, id := range m.Participants() {
		snap.RatingsBefore[id] = l.Get(track, id).Rating
	}

	switch m.Kind {
	case KindSingles:
		w, lo := l.Get(track, m.Winners[0]), l.Get(track, m.Losers[0])
		res := CalculateElo(w.Rating, lo.Rating, w.GamesPlayed, lo.GamesPlayed)
		l.tracks[track][m.Winners[0]] = w.win(res.WinnerNew)
		l.tracks[track][m.Losers[0]] = lo.lose(res.LoserNew)
		snap.Change = res.Change

	case KindDraw:
		p1, p2 := l.Get(track, m.Winners[0]), l.Get(track, m.Losers[0])
		res := CalculateDraw(p1.Rating, p2.Rating, p1.GamesPlayed, p2.GamesPlayed)
		l.tracks[track][m.Winners[0]] = p1.draw(res.Player1New)
		l.tracks[track][m.Losers[0]] = p2.draw(res.Player2New)
		snap.Change = res.Player1Change

	case KindDoubles:
		var winners, losers Team
		for i := range 2 {
			winners[i] = l.Get(track, m.Winners[i]).RatingState
			losers[i] = l.Get(track, m.Losers[i]).RatingState
		}
		res := CalculateDoublesElo(winners, losers)
		for i := range 2 {
			l.tracks[track][m.Winners[i]] = l.Get(track, m.Winners[i]).win(res.WinnersNew[i])
			l.tracks[track][m.Losers[i]] = l.Get(track, m.Losers[i]).lose(res.LosersNew[i])
		}
		snap.Change = res.WinnerDelta
	}

	for _, id := range m.Participants() {
		snap.RatingsAfter[id] = l.Get(track, id).Rating
	}
	return snap, nil
}

// ReplayResult is the full state rebuilt from a history.
type ReplayResult struct {
	Singles   map[string]PlayerTrack
	Doubles   map[string]PlayerTrack
	Snapshots []MatchSnapshot
}

// Replay rebuilds every player's tracks from scratch. history must be in
// chronological order; equal timestamps keep their given order. Each instant
// in seasonResets wipes the singles track, mirroring a season rollover; resets
// after the last match still apply to the final state.
func Replay(history []MatchRecord, baseline int, seasonResets ...time.Time) (ReplayResult, error) {
	for i := 1; i < len(history); i++ {
		if history[i].PlayedAt.Before(history[i-1].PlayedAt) {
			return ReplayResult{}, fmt.Errorf("%w: match %s played before its predecessor %s",
				ErrInvalidHistory, history[i].ID, history[i-1].ID)
		}
	}
	resets := slices.Clone(seasonResets)
	slices.SortFunc(resets, func(a, b time.Time) int { return a.Compare(b) })

	ledger := NewLedger(baseline)
	snapshots := make([]MatchSnapshot, 0, len(history))
	for _, m := range history {
		for len(resets) > 0 && !m.PlayedAt.Before(resets[0]) {
			ledger.Reset(TrackSingles)
			resets = resets[1:]
		}
		snap, err := ledger.Apply(m)
		if err != nil {
			return ReplayResult{}, err
		}
		snapshots = append(snapshots, snap)
	}
	if len(resets) > 0 {
		ledger.Reset(TrackSingles)
	}

	return ReplayResult{
		Singles:   ledger.Tracks(TrackSingles),
		Doubles:   ledger.Tracks(TrackDoubles),
		Snapshots: snapshots,
	}, nil
}

// TrackDrift describes a player whose stored state disagrees with a replay.
type TrackDrift struct {
	PlayerID string
	Track    Track
	Stored   PlayerTrack
	Replayed PlayerTrack
}

// DiffTracks lists players whose stored state differs from the replayed one,
// ordered by player ID. A player missing on either side is compared against
// a baseline track.
func DiffTracks(track Track, stored, replayed map[string]PlayerTrack, baseline int) []TrackDrift {
	ids := slices.Collect(maps.Keys(stored))
	for id := range replayed {
		if _, ok := stored[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, cmp.Compare[string])

	var drift []TrackDrift
	for _, id := range ids {
		s, ok := stored[id]
		if !ok {
			s = NewPlayerTrack(baseline)
		}
		r, ok := replayed[id]
		if !ok {
			r = NewPlayerTrack(baseline)
		}
		if s != r {
			drift = append(drift, TrackDrift{PlayerID: id, Track: track, Stored: s, Replayed: r})
		}
	}
	return drift
}
