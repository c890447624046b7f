package tournament

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"

	"github.com/Black-And-White-Club/pingpong-bot/app/eventbus"
	ratingservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/application"
	tournamentservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/application"
	tournamenthandlers "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/infrastructure/handlers"
	tournamentdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/infrastructure/repositories"
	tournamentrouter "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/infrastructure/router"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/observability"
	"github.com/Black-And-White-Club/pingpong-bot/config"
)

// Module represents the tournament module.
type Module struct {
	EventBus          eventbus.EventBus
	TournamentService *tournamentservice.TournamentService
	TournamentRouter  *tournamentrouter.TournamentRouter
	config            *config.Config
	cancelFunc        context.CancelFunc
	observability     observability.Observability
}

// NewTournamentModule creates a new instance of the tournament module.
// Fixture results are rated through recorder inside the tournament's own
// transaction.
func NewTournamentModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	recorder ratingservice.Recorder,
	eventBus eventbus.EventBus,
	router *message.Router,
) (*Module, error) {
	logger := obs.Logger.With(slog.String("module", "tournament"))
	logger.InfoContext(ctx, "tournament.NewTournamentModule called")

	service := tournamentservice.NewTournamentService(
		tournamentdb.NewRepository(db),
		recorder,
		logger,
		obs.Metrics,
		obs.Tracer,
		db,
	)

	tournamentRouter := tournamentrouter.NewTournamentRouter(logger, router, eventBus, eventBus, obs.Tracer, obs.Metrics, obs.Registry)
	handlers := tournamenthandlers.NewTournamentHandlers(service, logger, obs.Tracer)
	if err := tournamentRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure tournament router: %w", err)
	}

	return &Module{
		EventBus:          eventBus,
		TournamentService: service,
		TournamentRouter:  tournamentRouter,
		config:            cfg,
		observability:     obs,
	}, nil
}

// Run starts the tournament module.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting tournament module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Tournament module goroutine stopped")
}

// Close stops the tournament module.
func (m *Module) Close() error {
	logger := m.observability.Logger
	logger.Info("Stopping tournament module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	logger.Info("Tournament module stopped")
	return nil
}
