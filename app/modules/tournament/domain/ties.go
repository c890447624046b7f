package tournamentdomain

import (
	"slices"

	"github.com/dominikbraun/graph"
)

// CircularTies finds groups of players level on points whose head-to-head
// results form a cycle (a beat b, b beat c, c beat a). SortStandings cannot
// order such a group by head-to-head, so it falls through to set
// differential and rating. Members of each group are sorted by player ID.
func CircularTies(standings []Standing, h2h HeadToHead) [][]string {
	byPoints := make(map[int][]string)
	var levels []int
	for _, s := range standings {
		if _, ok := byPoints[s.Points]; !ok {
			levels = append(levels, s.Points)
		}
		byPoints[s.Points] = append(byPoints[s.Points], s.PlayerID)
	}
	slices.Sort(levels)
	slices.Reverse(levels)

	var out [][]string
	for _, points := range levels {
		players := byPoints[points]
		// a cycle needs at least three players since each pair meets once
		if len(players) < 3 {
			continue
		}
		out = append(out, cyclesAmong(players, h2h)...)
	}
	return out
}

func cyclesAmong(players []string, h2h HeadToHead) [][]string {
	g := graph.New(graph.StringHash, graph.Directed())
	for _, p := range players {
		_ = g.AddVertex(p)
	}
	for i, a := range players {
		for _, b := range players[i+1:] {
			winner := h2h[PairKeyOf(a, b)]
			loser := a
			switch winner {
			case a:
				loser = b
			case b:
			default:
				continue
			}
			_ = g.AddEdge(winner, loser)
		}
	}

	components, err := graph.StronglyConnectedComponents(g)
	if err != nil {
		return nil
	}
	var out [][]string
	for _, c := range components {
		if len(c) < 2 {
			continue
		}
		slices.Sort(c)
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b []string) int { return slices.Compare(a, b) })
	return out
}
