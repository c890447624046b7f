package tournamentdomain

import (
	"errors"
	"fmt"
)

// ErrInvalidParticipants is returned when a participant list cannot form a
// round robin.
var ErrInvalidParticipants = errors.New("invalid tournament participants")

// PairKey identifies an unordered pair of players. Low sorts before High.
type PairKey struct {
	Low  string
	High string
}

// PairKeyOf returns the order-independent key for two players.
func PairKeyOf(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{Low: a, High: b}
}

func (k PairKey) String() string {
	return k.Low + ":" + k.High
}

// Fixture is a scheduled pairing. Round is 1-based and only a suggested
// playing order.
type Fixture struct {
	Player1ID string `json:"player1_id"`
	Player2ID string `json:"player2_id"`
	Round     int    `json:"round"`
}

// Key returns the fixture's pair key.
func (f Fixture) Key() PairKey {
	return PairKeyOf(f.Player1ID, f.Player2ID)
}

// Involves reports whether the player is one of the fixture's two sides.
func (f Fixture) Involves(playerID string) bool {
	return f.Player1ID == playerID || f.Player2ID == playerID
}

// GenerateFixtures schedules every unordered pair of participants exactly
// once, grouped into rounds with the circle method. An odd field gets a bye
// slot that never produces a fixture.
func GenerateFixtures(participantIDs []string) ([]Fixture, error) {
	if len(participantIDs) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 participants, got %d", ErrInvalidParticipants, len(participantIDs))
	}
	seen := make(map[string]bool, len(participantIDs))
	for _, id := range participantIDs {
		if id == "" {
			return nil, fmt.Errorf("%w: empty participant id", ErrInvalidParticipants)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate participant %q", ErrInvalidParticipants, id)
		}
		seen[id] = true
	}

	slots := append([]string(nil), participantIDs...)
	if len(slots)%2 != 0 {
		slots = append(slots, "")
	}
	numRounds := len(slots) - 1
	perRound := len(slots) / 2

	fixtures := make([]Fixture, 0, FixtureCount(len(participantIDs)))
	for round := range numRounds {
		for i := range perRound {
			p1 := slots[circleIndex(i, len(slots), round)]
			p2 := slots[circleIndex(len(slots)-1-i, len(slots), round)]
			if p1 == "" || p2 == "" {
				continue
			}
			if i == 0 && round%2 != 0 {
				p1, p2 = p2, p1
			}
			fixtures = append(fixtures, Fixture{Player1ID: p1, Player2ID: p2, Round: round + 1})
		}
	}
	return fixtures, nil
}

// FixtureCount is the number of fixtures a full round robin of n players has.
func FixtureCount(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

// circleIndex keeps slot 0 fixed and rotates the rest by round.
func circleIndex(index, length, round int) int {
	if index == 0 {
		return 0
	}
	return (index-1-round+length-1)%(length-1) + 1
}
