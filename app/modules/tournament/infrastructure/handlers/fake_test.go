package tournamenthandlers

import (
	"context"

	"github.com/google/uuid"

	tournamentservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/application"
)

// ------------------------
// Fake Tournament Service
// ------------------------

type FakeTournamentService struct {
	trace []string

	CreateTournamentFunc func(ctx context.Context, req tournamentservice.CreateTournamentRequest) (*tournamentservice.CreateResult, error)
	ReportFixtureFunc    func(ctx context.Context, req tournamentservice.ReportFixtureRequest) (*tournamentservice.FixtureResult, error)
	ForceCompleteFunc    func(ctx context.Context, id uuid.UUID, requestedBy string) (*tournamentservice.CompletionResult, error)
	GetStandingsFunc     func(ctx context.Context, id uuid.UUID) (*tournamentservice.StandingsView, error)
}

func NewFakeTournamentService() *FakeTournamentService {
	return &FakeTournamentService{trace: []string{}}
}

func (f *FakeTournamentService) record(step string) {
	f.trace = append(f.trace, step)
}

// --- Service Interface Implementation ---

func (f *FakeTournamentService) CreateTournament(ctx context.Context, req tournamentservice.CreateTournamentRequest) (*tournamentservice.CreateResult, error) {
	f.record("CreateTournament")
	if f.CreateTournamentFunc != nil {
		return f.CreateTournamentFunc(ctx, req)
	}
	return &tournamentservice.CreateResult{}, nil
}

func (f *FakeTournamentService) ReportFixture(ctx context.Context, req tournamentservice.ReportFixtureRequest) (*tournamentservice.FixtureResult, error) {
	f.record("ReportFixture")
	if f.ReportFixtureFunc != nil {
		return f.ReportFixtureFunc(ctx, req)
	}
	return &tournamentservice.FixtureResult{}, nil
}

func (f *FakeTournamentService) ForceComplete(ctx context.Context, id uuid.UUID, requestedBy string) (*tournamentservice.CompletionResult, error) {
	f.record("ForceComplete")
	if f.ForceCompleteFunc != nil {
		return f.ForceCompleteFunc(ctx, id, requestedBy)
	}
	return &tournamentservice.CompletionResult{}, nil
}

func (f *FakeTournamentService) GetStandings(ctx context.Context, id uuid.UUID) (*tournamentservice.StandingsView, error) {
	f.record("GetStandings")
	if f.GetStandingsFunc != nil {
		return f.GetStandingsFunc(ctx, id)
	}
	return &tournamentservice.StandingsView{}, nil
}

func (f *FakeTournamentService) ListTournaments(ctx context.Context, groupID string) ([]tournamentservice.TournamentView, error) {
	f.record("ListTournaments")
	return nil, nil
}

func (f *FakeTournamentService) ExportStandings(ctx context.Context, id uuid.UUID) ([]byte, error) {
	f.record("ExportStandings")
	return nil, nil
}

// --- Helpers for Test Assertions ---

func (f *FakeTournamentService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ tournamentservice.Service = (*FakeTournamentService)(nil)
