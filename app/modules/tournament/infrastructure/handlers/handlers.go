package tournamenthandlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	ratingevents "github.com/Black-And-White-Club/pingpong-bot/app/events/rating"
	tournamentevents "github.com/Black-And-White-Club/pingpong-bot/app/events/tournament"
	achievementdomain "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/domain"
	achievementnotify "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/infrastructure/notify"
	ratinghandlers "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/infrastructure/handlers"
	tournamentservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/application"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/handlerwrapper"
)

// TournamentHandlers implements the Handlers interface.
type TournamentHandlers struct {
	service tournamentservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewTournamentHandlers creates a new TournamentHandlers instance.
func NewTournamentHandlers(
	service tournamentservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("tournament")
	}
	return &TournamentHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleTournamentCreateRequested schedules a new round robin.
func (h *TournamentHandlers) HandleTournamentCreateRequested(ctx context.Context, payload *tournamentevents.TournamentCreateRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "TournamentHandlers.HandleTournamentCreateRequested")
	defer span.End()

	res, err := h.service.CreateTournament(ctx, tournamentservice.CreateTournamentRequest{
		GroupID:        payload.GroupID,
		Name:           payload.Name,
		ParticipantIDs: payload.ParticipantIDs,
		UnplayedPolicy: payload.UnplayedPolicy,
		CreatedBy:      payload.CreatedBy,
	})
	if err != nil {
		return h.failed(ctx, "", payload.GroupID, err)
	}

	return []handlerwrapper.Result{{
		Topic: tournamentevents.TournamentCreatedV1,
		Payload: &tournamentevents.TournamentCreatedPayloadV1{
			TournamentID: res.Tournament.ID.String(),
			GroupID:      res.Tournament.GroupID,
			Name:         res.Tournament.Name,
			Fixtures:     fixtures(res.Fixtures),
		},
	}}, nil
}

// HandleFixtureReportRequested records a fixture. The rated match is
// published like any other match; the last fixture also publishes the final
// table.
func (h *TournamentHandlers) HandleFixtureReportRequested(ctx context.Context, payload *tournamentevents.FixtureReportRequestedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "TournamentHandlers.HandleFixtureReportRequested")
	defer span.End()

	id, failed := h.parseID(ctx, payload.TournamentID)
	if failed != nil {
		return failed, nil
	}

	sets := make([]achievementdomain.SetScore, len(payload.Sets))
	for i, s := range payload.Sets {
		sets[i] = achievementdomain.SetScore{Winner: s.Winner, Loser: s.Loser}
	}
	res, err := h.service.ReportFixture(ctx, tournamentservice.ReportFixtureRequest{
		TournamentID: id,
		WinnerID:     payload.WinnerID,
		LoserID:      payload.LoserID,
		Sets:         sets,
		Draw:         payload.Draw,
		ReportedBy:   payload.ReportedBy,
	})
	if err != nil {
		return h.failed(ctx, payload.TournamentID, "", err)
	}

	matchID := res.Match.MatchID.String()
	out := []handlerwrapper.Result{
		{Topic: ratingevents.MatchRecordedV1, Payload: ratinghandlers.RecordedPayload(res.Match)},
		{
			Topic: tournamentevents.FixtureRecordedV1,
			Payload: &tournamentevents.FixtureRecordedPayloadV1{
				TournamentID: payload.TournamentID,
				MatchID:      matchID,
				WinnerID:     payload.WinnerID,
				LoserID:      payload.LoserID,
				Draw:         payload.Draw,
				Remaining:    res.Remaining,
				Standings:    standings(res.Standings),
			},
		},
	}
	out = append(out, achievementnotify.Results(res.Tournament.GroupID, res.Match.Unlocks, matchID, "")...)
	if res.Completion != nil {
		out = append(out, completed(res.Completion)...)
	}
	return out, nil
}

// HandleForceCompleteRequested closes a tournament early.
func (h *TournamentHandlers) HandleForceCompleteRequested(ctx context.Context, payload *tournamentevents.TournamentRefPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "TournamentHandlers.HandleForceCompleteRequested")
	defer span.End()

	id, failed := h.parseID(ctx, payload.TournamentID)
	if failed != nil {
		return failed, nil
	}

	res, err := h.service.ForceComplete(ctx, id, payload.RequestedBy)
	if err != nil {
		return h.failed(ctx, payload.TournamentID, "", err)
	}

	h.logger.InfoContext(ctx, "Tournament force completed",
		slog.String("tournament_id", payload.TournamentID),
		slog.Int("resolved_fixtures", len(res.Resolutions)),
		slog.String("requested_by", payload.RequestedBy),
	)

	out := make([]handlerwrapper.Result, 0, len(res.DrawMatches)+1)
	for _, m := range res.DrawMatches {
		out = append(out, handlerwrapper.Result{Topic: ratingevents.MatchRecordedV1, Payload: ratinghandlers.RecordedPayload(m)})
	}
	return append(out, completed(res)...), nil
}

// HandleStandingsRequested answers with the current table.
func (h *TournamentHandlers) HandleStandingsRequested(ctx context.Context, payload *tournamentevents.TournamentRefPayloadV1) ([]handlerwrapper.Result, error) {
	id, failed := h.parseID(ctx, payload.TournamentID)
	if failed != nil {
		return failed, nil
	}

	view, err := h.service.GetStandings(ctx, id)
	if err != nil {
		return h.failed(ctx, payload.TournamentID, "", err)
	}

	return []handlerwrapper.Result{{
		Topic: tournamentevents.StandingsV1,
		Payload: &tournamentevents.StandingsPayloadV1{
			TournamentID: payload.TournamentID,
			Status:       view.Tournament.Status,
			Standings:    standings(view.Standings),
			CircularTies: view.CircularTies,
		},
	}}, nil
}

func (h *TournamentHandlers) parseID(ctx context.Context, raw string) (uuid.UUID, []handlerwrapper.Result) {
	id, err := uuid.Parse(raw)
	if err != nil {
		h.logger.WarnContext(ctx, "Invalid tournament id in request",
			slog.String("tournament_id", raw),
			slog.String("error", err.Error()),
		)
		return uuid.Nil, []handlerwrapper.Result{{
			Topic: tournamentevents.TournamentFailedV1,
			Payload: &tournamentevents.TournamentFailedPayloadV1{
				TournamentID: raw,
				Reason:       fmt.Sprintf("invalid tournament id %q", raw),
			},
		}}
	}
	return id, nil
}

// failed maps domain failures to a failed event; anything else is returned so
// the message is retried.
func (h *TournamentHandlers) failed(ctx context.Context, tournamentID, groupID string, err error) ([]handlerwrapper.Result, error) {
	if !tournamentservice.IsFailure(err) {
		return nil, err
	}
	h.logger.WarnContext(ctx, "Tournament request rejected",
		slog.String("tournament_id", tournamentID),
		slog.String("group_id", groupID),
		slog.String("reason", err.Error()),
	)
	return []handlerwrapper.Result{{
		Topic: tournamentevents.TournamentFailedV1,
		Payload: &tournamentevents.TournamentFailedPayloadV1{
			TournamentID: tournamentID,
			GroupID:      groupID,
			Reason:       err.Error(),
		},
	}}, nil
}

func completed(c *tournamentservice.CompletionResult) []handlerwrapper.Result {
	tournamentID := c.Tournament.ID.String()
	out := []handlerwrapper.Result{{
		Topic: tournamentevents.TournamentCompletedV1,
		Payload: &tournamentevents.TournamentCompletedPayloadV1{
			TournamentID: tournamentID,
			GroupID:      c.Tournament.GroupID,
			Forced:       c.Forced,
			ChampionID:   c.ChampionID(),
			Standings:    standings(c.Standings),
		},
	}}
	return append(out, achievementnotify.Results(c.Tournament.GroupID, c.Unlocks, "", tournamentID)...)
}

func standings(rows []tournamentservice.RankedStanding) []tournamentevents.StandingV1 {
	out := make([]tournamentevents.StandingV1, len(rows))
	for i, r := range rows {
		out[i] = tournamentevents.StandingV1{
			Rank:      r.Rank,
			PlayerID:  r.PlayerID,
			Points:    r.Points,
			Wins:      r.Wins,
			Draws:     r.Draws,
			Losses:    r.Losses,
			SetsWon:   r.SetsWon,
			SetsLost:  r.SetsLost,
			EloRating: r.EloRating,
		}
	}
	return out
}

func fixtures(rows []tournamentservice.FixtureView) []tournamentevents.FixtureV1 {
	out := make([]tournamentevents.FixtureV1, len(rows))
	for i, f := range rows {
		out[i] = tournamentevents.FixtureV1{
			Player1ID: f.Player1ID,
			Player2ID: f.Player2ID,
			Round:     f.Round,
			Played:    f.Played,
		}
	}
	return out
}
