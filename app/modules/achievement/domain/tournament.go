package achievementdomain

// FinalStanding is one ranked row of a completed tournament.
type FinalStanding struct {
	PlayerID string
	Wins     int
	Draws    int
	Losses   int
}

// TournamentContext describes a tournament at completion. FinalStandings is
// ordered best first.
type TournamentContext struct {
	TournamentID       string
	FinalStandings     []FinalStanding
	ScheduledPerPlayer int
	// PlayedFixtures counts fixtures a player actually played, excluding
	// results imposed by force completion.
	PlayedFixtures map[string]int
	Owned          Owned
}

// EvaluateTournamentAchievements returns the achievements newly unlocked when
// a tournament completes.
func EvaluateTournamentAchievements(c TournamentContext) []Unlock {
	return evaluate(TournamentRules, c, c.Owned)
}
