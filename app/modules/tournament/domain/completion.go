package tournamentdomain

import (
	"slices"

	ratingdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/domain"
)

// Outcome is how an unplayed fixture was resolved.
type Outcome string

const (
	OutcomeDraw          Outcome = "draw"
	OutcomeDoubleForfeit Outcome = "double_forfeit"
)

// Resolution is the imposed result of one unplayed fixture.
type Resolution struct {
	Fixture    Fixture
	Outcome    Outcome
	Player1New ratingdomain.RatingState
	Player2New ratingdomain.RatingState
}

// UnplayedPolicy resolves a fixture that was never played, given both
// players' current singles state.
type UnplayedPolicy func(f Fixture, p1, p2 ratingdomain.RatingState) Resolution

// DrawPolicy treats an unplayed fixture as a 0-0 draw moved through the draw
// rating formula.
func DrawPolicy(f Fixture, p1, p2 ratingdomain.RatingState) Resolution {
	d := ratingdomain.CalculateDraw(p1.Rating, p2.Rating, p1.GamesPlayed, p2.GamesPlayed)
	return Resolution{
		Fixture:    f,
		Outcome:    OutcomeDraw,
		Player1New: ratingdomain.RatingState{Rating: d.Player1New, GamesPlayed: p1.GamesPlayed + 1},
		Player2New: ratingdomain.RatingState{Rating: d.Player2New, GamesPlayed: p2.GamesPlayed + 1},
	}
}

// DoubleForfeitPolicy records a loss for both sides and leaves ratings alone.
func DoubleForfeitPolicy(f Fixture, p1, p2 ratingdomain.RatingState) Resolution {
	return Resolution{Fixture: f, Outcome: OutcomeDoubleForfeit, Player1New: p1, Player2New: p2}
}

// PolicyByName returns the named policy, defaulting to DrawPolicy.
func PolicyByName(name string) UnplayedPolicy {
	if Outcome(name) == OutcomeDoubleForfeit {
		return DoubleForfeitPolicy
	}
	return DrawPolicy
}

// Unplayed returns the fixtures whose pair is not in played, in schedule order.
func Unplayed(fixtures []Fixture, played map[PairKey]bool) []Fixture {
	var out []Fixture
	for _, f := range fixtures {
		if !played[f.Key()] {
			out = append(out, f)
		}
	}
	return out
}

// ForcedCompletion is the outcome of closing a tournament early.
type ForcedCompletion struct {
	Resolutions []Resolution
	Standings   []Standing
	Ratings     map[string]ratingdomain.RatingState
}

// ForceComplete resolves every unplayed fixture in schedule order through
// policy. Ratings chain across fixtures so a player with several unplayed
// fixtures carries each result into the next. Inputs are not modified.
func ForceComplete(
	fixtures []Fixture,
	played map[PairKey]bool,
	standings []Standing,
	ratings map[string]ratingdomain.RatingState,
	policy UnplayedPolicy,
) ForcedCompletion {
	if policy == nil {
		policy = DrawPolicy
	}

	current := make(map[string]ratingdomain.RatingState, len(ratings))
	for id, st := range ratings {
		current[id] = st
	}
	table := slices.Clone(standings)
	index := make(map[string]int, len(table))
	for i, s := range table {
		index[s.PlayerID] = i
	}

	var resolutions []Resolution
	for _, f := range Unplayed(fixtures, played) {
		r := policy(f, current[f.Player1ID], current[f.Player2ID])
		current[f.Player1ID] = r.Player1New
		current[f.Player2ID] = r.Player2New

		i1, ok1 := index[f.Player1ID]
		i2, ok2 := index[f.Player2ID]
		if ok1 && ok2 {
			ApplyResolution(&table[i1], &table[i2], r)
			table[i1].EloRating = r.Player1New.Rating
			table[i2].EloRating = r.Player2New.Rating
		}
		resolutions = append(resolutions, r)
	}

	return ForcedCompletion{Resolutions: resolutions, Standings: table, Ratings: current}
}

// ApplyResolution adds an imposed result to the two standings.
func ApplyResolution(p1, p2 *Standing, r Resolution) {
	switch r.Outcome {
	case OutcomeDoubleForfeit:
		p1.Losses++
		p2.Losses++
	default:
		RecordDraw(p1, p2, 0, 0)
	}
}
