// Package achievementnotify turns unlocks into outgoing events.
package achievementnotify

import (
	achievementevents "github.com/Black-And-White-Club/pingpong-bot/app/events/achievement"
	achievementdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/domain"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/handlerwrapper"
)

// Results returns one AchievementUnlockedV1 result per unlock. Either
// matchID or tournamentID may be empty.
func Results(groupID string, unlocks []achievementdomain.Unlock, matchID, tournamentID string) []handlerwrapper.Result {
	out := make([]handlerwrapper.Result, 0, len(unlocks))
	for _, u := range unlocks {
		name, description, _ := achievementdomain.Lookup(u.AchievementID)
		out = append(out, handlerwrapper.Result{
			Topic: achievementevents.AchievementUnlockedV1,
			Payload: &achievementevents.AchievementUnlockedPayloadV1{
				GroupID:       groupID,
				PlayerID:      u.PlayerID,
				AchievementID: string(u.AchievementID),
				Name:          name,
				Description:   description,
				MatchID:       matchID,
				TournamentID:  tournamentID,
			},
		})
	}
	return out
}
