package ratingdomain

import "slices"

// PairRecord summarises the singles history between two players.
type PairRecord struct {
	Meetings int
	// LossStreak is how many of the most recent meetings in a row the
	// subject lost to the opponent.
	LossStreak int
}

// HeadToHead walks a chronological history and summarises the singles
// meetings (wins and draws) between subject and opponent.
func HeadToHead(history []MatchRecord, subject, opponent string) PairRecord {
	var rec PairRecord
	for _, m := range history {
		if m.Kind == KindDoubles || len(m.Winners) != 1 || len(m.Losers) != 1 {
			continue
		}
		w, l := m.Winners[0], m.Losers[0]
		if !(w == subject && l == opponent) && !(w == opponent && l == subject) {
			continue
		}
		rec.Meetings++
		if m.Kind == KindSingles && w == opponent {
			rec.LossStreak++
		} else {
			rec.LossStreak = 0
		}
	}
	return rec
}

// RankOf returns the 1-based position of playerID when ratings are ordered
// descending, or 0 if the player is absent. Players on equal rating share the
// better rank.
func RankOf(ratings map[string]int, playerID string) int {
	r, ok := ratings[playerID]
	if !ok {
		return 0
	}
	rank := 1
	for id, other := range ratings {
		if id != playerID && other > r {
			rank++
		}
	}
	return rank
}

// SortedIDs returns map keys in ascending order.
func SortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
