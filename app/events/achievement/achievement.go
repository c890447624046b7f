// Package achievementevents defines the achievement topics.
package achievementevents

// AchievementUnlockedV1 is published once per newly granted achievement.
const AchievementUnlockedV1 = "achievement.unlocked.v1"

// AchievementUnlockedPayloadV1 announces one grant.
type AchievementUnlockedPayloadV1 struct {
	GroupID       string `json:"group_id"`
	PlayerID      string `json:"player_id"`
	AchievementID string `json:"achievement_id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	MatchID       string `json:"match_id,omitempty"`
	TournamentID  string `json:"tournament_id,omitempty"`
}
