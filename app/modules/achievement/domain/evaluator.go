package achievementdomain

import (
	"errors"
	"fmt"
)

// ErrInvalidSetScores is returned for set scores that cannot belong to the
// reported winner.
var ErrInvalidSetScores = errors.New("invalid set scores")

// SetScore is one set oriented as (winner's points, loser's points).
type SetScore struct {
	Winner int `json:"winner"`
	Loser  int `json:"loser"`
}

// ValidateSets checks a winner-oriented set list. An empty list is allowed;
// otherwise no set may be tied or negative and the winner must have taken
// more sets than the loser.
func ValidateSets(sets []SetScore) error {
	won, lost := 0, 0
	for i, s := range sets {
		if s.Winner < 0 || s.Loser < 0 {
			return fmt.Errorf("%w: set %d has a negative score", ErrInvalidSetScores, i+1)
		}
		switch {
		case s.Winner > s.Loser:
			won++
		case s.Loser > s.Winner:
			lost++
		default:
			return fmt.Errorf("%w: set %d is tied %d-%d", ErrInvalidSetScores, i+1, s.Winner, s.Loser)
		}
	}
	if len(sets) > 0 && won <= lost {
		return fmt.Errorf("%w: winner took %d sets against %d", ErrInvalidSetScores, won, lost)
	}
	return nil
}

// Unlock grants one achievement to one player.
type Unlock struct {
	AchievementID ID     `json:"achievement_id"`
	PlayerID      string `json:"player_id"`
}

// Owned is the set of achievements each player already holds.
type Owned map[string]map[ID]bool

// Has reports whether the player holds the achievement.
func (o Owned) Has(playerID string, id ID) bool {
	return o[playerID][id]
}

// With returns a copy of o that also contains the given unlocks.
func (o Owned) With(unlocks []Unlock) Owned {
	out := make(Owned, len(o)+len(unlocks))
	for pid, ids := range o {
		cp := make(map[ID]bool, len(ids))
		for id, v := range ids {
			cp[id] = v
		}
		out[pid] = cp
	}
	for _, u := range unlocks {
		if out[u.PlayerID] == nil {
			out[u.PlayerID] = make(map[ID]bool)
		}
		out[u.PlayerID][u.AchievementID] = true
	}
	return out
}

// MatchContext describes a resolved singles match. Counters are post-match
// unless named Before.
type MatchContext struct {
	WinnerID string
	LoserID  string

	WinnerRatingBefore int
	LoserRatingBefore  int

	WinnerGamesPlayed int
	LoserGamesPlayed  int
	WinnerTotalWins   int

	WinnerStreakBefore int
	WinnerStreakAfter  int
	LoserStreakAfter   int

	Sets []SetScore

	// TotalMeetings counts every match between the pair including this one.
	TotalMeetings int
	// LoserLossStreakVsWinner counts consecutive losses of the loser to this
	// winner including this one.
	LoserLossStreakVsWinner int
	WinnerRank              int

	Owned Owned
}

func (c MatchContext) playersWithGames(threshold int) []string {
	var out []string
	if c.WinnerGamesPlayed >= threshold {
		out = append(out, c.WinnerID)
	}
	if c.LoserGamesPlayed >= threshold {
		out = append(out, c.LoserID)
	}
	return out
}

// DoublesPlayer is one doubles participant's post-match counters.
type DoublesPlayer struct {
	PlayerID    string
	GamesAfter  int
	WinsAfter   int
	StreakAfter int
}

// DoublesContext describes a resolved doubles match.
type DoublesContext struct {
	Winners          [2]DoublesPlayer
	Losers           [2]DoublesPlayer
	WinnerTeamRating float64
	LoserTeamRating  float64
	Owned            Owned
}

func (c DoublesContext) winnersWhere(pred func(DoublesPlayer) bool) []string {
	var out []string
	for _, p := range c.Winners {
		if pred(p) {
			out = append(out, p.PlayerID)
		}
	}
	return out
}

func (c DoublesContext) all() []DoublesPlayer {
	return []DoublesPlayer{c.Winners[0], c.Winners[1], c.Losers[0], c.Losers[1]}
}

// EvaluateAchievements returns the singles achievements newly unlocked by a match.
func EvaluateAchievements(c MatchContext) []Unlock {
	return evaluate(SinglesRules, c, c.Owned)
}

// EvaluateDoublesAchievements returns the doubles achievements newly unlocked by a match.
func EvaluateDoublesAchievements(c DoublesContext) []Unlock {
	return evaluate(DoublesRules, c, c.Owned)
}

func evaluate[C any](rules []Rule[C], c C, owned Owned) []Unlock {
	var out []Unlock
	granted := make(map[Unlock]bool)
	for _, rule := range rules {
		for _, pid := range rule.Award(c) {
			u := Unlock{AchievementID: rule.ID, PlayerID: pid}
			if pid == "" || granted[u] || owned.Has(pid, rule.ID) {
				continue
			}
			granted[u] = true
			out = append(out, u)
		}
	}
	return out
}
