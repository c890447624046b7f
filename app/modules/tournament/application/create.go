package tournamentservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	tournamentdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/domain"
	tournamentdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/results"
)

// CreateTournament schedules a full round robin and seeds the table with the
// participants' current singles ratings.
func (s *TournamentService) CreateTournament(ctx context.Context, req CreateTournamentRequest) (*CreateResult, error) {
	return execute(s, ctx, "CreateTournament", req.GroupID, func(ctx context.Context, db bun.IDB) (results.OperationResult[*CreateResult, error], error) {
		name := strings.TrimSpace(req.Name)
		switch {
		case req.GroupID == "":
			return results.FailureResult[*CreateResult, error](ErrGroupRequired), nil
		case name == "":
			return results.FailureResult[*CreateResult, error](ErrNameRequired), nil
		}

		policy, err := normalizePolicy(req.UnplayedPolicy)
		if err != nil {
			return results.FailureResult[*CreateResult, error](err), nil
		}

		schedule, err := tournamentdomain.GenerateFixtures(req.ParticipantIDs)
		if err != nil {
			return results.FailureResult[*CreateResult, error](err), nil
		}

		tracks, err := s.recorder.TracksInTx(ctx, db, req.GroupID, req.ParticipantIDs)
		if err != nil {
			return results.OperationResult[*CreateResult, error]{}, fmt.Errorf("failed to load ratings: %w", err)
		}

		t := &tournamentdb.Tournament{
			ID:             uuid.New(),
			GroupID:        req.GroupID,
			Name:           name,
			Status:         tournamentdb.StatusActive,
			UnplayedPolicy: policy,
			ParticipantIDs: req.ParticipantIDs,
			CreatedBy:      req.CreatedBy,
			CreatedAt:      s.clock(),
		}

		fixtures := make([]tournamentdb.Fixture, len(schedule))
		for i, f := range schedule {
			key := f.Key()
			fixtures[i] = tournamentdb.Fixture{
				TournamentID: t.ID,
				PairLow:      key.Low,
				PairHigh:     key.High,
				Position:     i,
				Round:        f.Round,
				Player1ID:    f.Player1ID,
				Player2ID:    f.Player2ID,
			}
		}

		table := make([]tournamentdomain.Standing, len(req.ParticipantIDs))
		for i, id := range req.ParticipantIDs {
			table[i] = tournamentdomain.Standing{PlayerID: id, EloRating: tracks[id].Rating}
		}

		if err := s.repo.CreateTournament(ctx, db, t, fixtures, standingsFromDomain(t, table)); err != nil {
			return results.OperationResult[*CreateResult, error]{}, fmt.Errorf("failed to save tournament: %w", err)
		}

		return results.SuccessResult[*CreateResult, error](&CreateResult{
			Tournament: tournamentView(t),
			Fixtures:   fixtureViews(fixtures),
			Standings:  ranked(table, tournamentdomain.HeadToHead{}),
		}), nil
	})
}

func normalizePolicy(name string) (string, error) {
	switch tournamentdomain.Outcome(name) {
	case "", tournamentdomain.OutcomeDraw:
		return string(tournamentdomain.OutcomeDraw), nil
	case tournamentdomain.OutcomeDoubleForfeit:
		return name, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPolicy, name)
}
