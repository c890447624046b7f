package achievementdomain

// ID names an achievement. IDs are stable and persisted.
type ID string

const (
	FirstBlood     ID = "first_blood"
	OnFire         ID = "on_fire"
	Unstoppable    ID = "unstoppable"
	GiantKiller    ID = "giant_killer"
	IronMan        ID = "iron_man"
	Centurion      ID = "centurion"
	ComebackKid    ID = "comeback_kid"
	TopDog         ID = "top_dog"
	PerfectGame    ID = "perfect_game"
	Heartbreaker   ID = "heartbreaker"
	Rivalry        ID = "rivalry"
	NewcomerThreat ID = "newcomer_threat"
	FreeFall       ID = "free_fall"
	RockBottom     ID = "rock_bottom"
	PunchingBag    ID = "punching_bag"
	Humbled        ID = "humbled"
	BottledIt      ID = "bottled_it"
	GlassCannon    ID = "glass_cannon"
	Doormat        ID = "doormat"

	DynamicDuo     ID = "dynamic_duo"
	TagTeam        ID = "tag_team"
	Underdogs      ID = "underdogs"
	DoublesVeteran ID = "doubles_veteran"

	Champion          ID = "champion"
	Undefeated        ID = "undefeated"
	TournamentIronman ID = "tournament_ironman"
	DrawMaster        ID = "draw_master"
)

const (
	upsetGap           = 200
	onFireStreak       = 5
	unstoppableStreak  = 10
	ironManGames       = 50
	centurionGames     = 100
	comebackStreak     = -3
	rivalryMeetings    = 10
	newcomerMaxGames   = 10
	newcomerMinWins    = 5
	freeFallStreak     = -5
	rockBottomStreak   = -10
	doormatLosses      = 5
	elevenPointSet     = 11
	decidingSetMatches = 3
	drawMasterDraws    = 3
)

// Rule is one entry of a rule table. Award returns the players who meet the
// condition for the context; the evaluator handles ownership.
type Rule[C any] struct {
	ID          ID
	Name        string
	Description string
	Award       func(C) []string
}

func when(cond bool, players ...string) []string {
	if !cond {
		return nil
	}
	return players
}

// SinglesRules is evaluated against every decisive singles match.
var SinglesRules = []Rule[MatchContext]{
	{FirstBlood, "First Blood", "Win your first match", func(c MatchContext) []string {
		return when(c.WinnerTotalWins == 1, c.WinnerID)
	}},
	{OnFire, "On Fire", "Win 5 in a row", func(c MatchContext) []string {
		return when(c.WinnerStreakAfter >= onFireStreak, c.WinnerID)
	}},
	{Unstoppable, "Unstoppable", "Win 10 in a row", func(c MatchContext) []string {
		return when(c.WinnerStreakAfter >= unstoppableStreak, c.WinnerID)
	}},
	{GiantKiller, "Giant Killer", "Beat someone rated 200+ above you", func(c MatchContext) []string {
		return when(c.LoserRatingBefore-c.WinnerRatingBefore >= upsetGap, c.WinnerID)
	}},
	{IronMan, "Iron Man", "Play 50 matches", func(c MatchContext) []string {
		return c.playersWithGames(ironManGames)
	}},
	{Centurion, "Centurion", "Play 100 matches", func(c MatchContext) []string {
		return c.playersWithGames(centurionGames)
	}},
	{ComebackKid, "Comeback Kid", "Win after losing 3 or more in a row", func(c MatchContext) []string {
		return when(c.WinnerStreakBefore <= comebackStreak, c.WinnerID)
	}},
	{TopDog, "Top Dog", "Reach rank 1 in your group", func(c MatchContext) []string {
		return when(c.WinnerRank == 1, c.WinnerID)
	}},
	{PerfectGame, "Perfect Game", "Win a set 11-0", func(c MatchContext) []string {
		// the match loser can take a set 11-0 too
		var out []string
		for _, s := range c.Sets {
			switch {
			case s.Winner == elevenPointSet && s.Loser == 0:
				out = append(out, c.WinnerID)
			case s.Loser == elevenPointSet && s.Winner == 0:
				out = append(out, c.LoserID)
			}
		}
		return out
	}},
	{Heartbreaker, "Heartbreaker", "Win a match of 3+ sets after dropping the first", func(c MatchContext) []string {
		return when(len(c.Sets) >= decidingSetMatches && c.Sets[0].Loser > c.Sets[0].Winner, c.WinnerID)
	}},
	{Rivalry, "Rivalry", "Play the same opponent 10 times", func(c MatchContext) []string {
		return when(c.TotalMeetings >= rivalryMeetings, c.WinnerID, c.LoserID)
	}},
	{NewcomerThreat, "Newcomer Threat", "Win 5 within your first 10 matches", func(c MatchContext) []string {
		return when(c.WinnerGamesPlayed <= newcomerMaxGames && c.WinnerTotalWins >= newcomerMinWins, c.WinnerID)
	}},
	{FreeFall, "Free Fall", "Lose 5 in a row", func(c MatchContext) []string {
		return when(c.LoserStreakAfter <= freeFallStreak, c.LoserID)
	}},
	{RockBottom, "Rock Bottom", "Lose 10 in a row", func(c MatchContext) []string {
		return when(c.LoserStreakAfter <= rockBottomStreak, c.LoserID)
	}},
	{PunchingBag, "Punching Bag", "Lose while rated 200+ above the winner", func(c MatchContext) []string {
		return when(c.LoserRatingBefore-c.WinnerRatingBefore >= upsetGap, c.LoserID)
	}},
	{Humbled, "Humbled", "Lose a set 0-11", func(c MatchContext) []string {
		for _, s := range c.Sets {
			if s.Loser == 0 && s.Winner == elevenPointSet {
				return []string{c.LoserID}
			}
		}
		return nil
	}},
	{BottledIt, "Bottled It", "Lose a match of 3+ sets after taking the first", func(c MatchContext) []string {
		return when(len(c.Sets) >= decidingSetMatches && c.Sets[0].Loser > c.Sets[0].Winner, c.LoserID)
	}},
	{GlassCannon, "Glass Cannon", "Get blanked in one set but score in another", func(c MatchContext) []string {
		blanked, scored := false, false
		for _, s := range c.Sets {
			if s.Loser == 0 {
				blanked = true
			} else {
				scored = true
			}
		}
		return when(blanked && scored, c.LoserID)
	}},
	{Doormat, "Doormat", "Lose 5 in a row to the same player", func(c MatchContext) []string {
		return when(c.LoserLossStreakVsWinner >= doormatLosses, c.LoserID)
	}},
}

// DoublesRules is evaluated against every doubles match.
var DoublesRules = []Rule[DoublesContext]{
	{DynamicDuo, "Dynamic Duo", "Win your first doubles match", func(c DoublesContext) []string {
		return c.winnersWhere(func(p DoublesPlayer) bool { return p.WinsAfter == 1 })
	}},
	{TagTeam, "Tag Team", "Win 5 doubles matches in a row", func(c DoublesContext) []string {
		return c.winnersWhere(func(p DoublesPlayer) bool { return p.StreakAfter >= onFireStreak })
	}},
	{Underdogs, "Underdogs", "Beat a doubles team rated 200+ above yours", func(c DoublesContext) []string {
		if c.LoserTeamRating-c.WinnerTeamRating < upsetGap {
			return nil
		}
		return c.winnersWhere(func(DoublesPlayer) bool { return true })
	}},
	{DoublesVeteran, "Doubles Veteran", "Play 50 doubles matches", func(c DoublesContext) []string {
		var out []string
		for _, p := range c.all() {
			if p.GamesAfter >= ironManGames {
				out = append(out, p.PlayerID)
			}
		}
		return out
	}},
}

// TournamentRules is evaluated once when a tournament completes.
var TournamentRules = []Rule[TournamentContext]{
	{Champion, "Champion", "Finish first in a tournament", func(c TournamentContext) []string {
		if len(c.FinalStandings) == 0 {
			return nil
		}
		return []string{c.FinalStandings[0].PlayerID}
	}},
	{Undefeated, "Undefeated", "Finish a tournament without a loss", func(c TournamentContext) []string {
		var out []string
		for _, s := range c.FinalStandings {
			if s.Losses == 0 && s.Wins+s.Draws > 0 {
				out = append(out, s.PlayerID)
			}
		}
		return out
	}},
	{TournamentIronman, "Tournament Ironman", "Play every fixture of a tournament", func(c TournamentContext) []string {
		var out []string
		for _, s := range c.FinalStandings {
			if c.ScheduledPerPlayer > 0 && c.PlayedFixtures[s.PlayerID] >= c.ScheduledPerPlayer {
				out = append(out, s.PlayerID)
			}
		}
		return out
	}},
	{DrawMaster, "Draw Master", "Draw 3 times in one tournament", func(c TournamentContext) []string {
		var out []string
		for _, s := range c.FinalStandings {
			if s.Draws >= drawMasterDraws {
				out = append(out, s.PlayerID)
			}
		}
		return out
	}},
}

// Lookup returns the rule metadata for an ID across every table.
func Lookup(id ID) (name, description string, ok bool) {
	for _, r := range SinglesRules {
		if r.ID == id {
			return r.Name, r.Description, true
		}
	}
	for _, r := range DoublesRules {
		if r.ID == id {
			return r.Name, r.Description, true
		}
	}
	for _, r := range TournamentRules {
		if r.ID == id {
			return r.Name, r.Description, true
		}
	}
	return "", "", false
}
