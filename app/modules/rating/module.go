package rating

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"

	"github.com/Black-And-White-Club/pingpong-bot/app/eventbus"
	achievementdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/achievement/infrastructure/repositories"
	ratingservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/application"
	ratinghandlers "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/infrastructure/handlers"
	ratingqueue "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/infrastructure/queue"
	ratingdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/infrastructure/repositories"
	ratingrouter "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/infrastructure/router"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/observability"
	"github.com/Black-And-White-Club/pingpong-bot/config"
)

// Module represents the rating module.
type Module struct {
	EventBus      eventbus.EventBus
	RatingService *ratingservice.RatingService
	RatingRouter  *ratingrouter.RatingRouter
	// QueueService is nil when the maintenance queue is disabled.
	QueueService  ratingqueue.QueueService
	config        *config.Config
	cancelFunc    context.CancelFunc
	observability observability.Observability
}

// NewRatingModule creates a new instance of the rating module.
func NewRatingModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	eventBus eventbus.EventBus,
	router *message.Router,
) (*Module, error) {
	logger := obs.Logger.With(slog.String("module", "rating"))
	logger.InfoContext(ctx, "rating.NewRatingModule called")

	service := ratingservice.NewRatingService(
		ratingdb.NewRepository(db),
		achievementdb.NewRepository(db),
		logger,
		obs.Metrics,
		obs.Tracer,
		db,
		ratingservice.WithBaseline(cfg.Rating.BaselineRating),
	)

	ratingRouter := ratingrouter.NewRatingRouter(logger, router, eventBus, eventBus, obs.Tracer, obs.Metrics, obs.Registry)
	handlers := ratinghandlers.NewRatingHandlers(service, logger, obs.Tracer)
	if err := ratingRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure rating router: %w", err)
	}

	module := &Module{
		EventBus:      eventBus,
		RatingService: service,
		RatingRouter:  ratingRouter,
		config:        cfg,
		observability: obs,
	}

	if cfg.Queue.Enabled {
		queue, err := ratingqueue.NewService(ctx, db, logger, cfg.Postgres.DSN, ratingqueue.Options{
			SeasonCheckInterval: cfg.Queue.SeasonCheckInterval,
			ReplayInterval:      cfg.Queue.ReplayInterval,
			MaxWorkers:          cfg.Queue.MaxWorkers,
		}, obs.Metrics, service, eventBus)
		if err != nil {
			return nil, fmt.Errorf("failed to create rating queue: %w", err)
		}
		module.QueueService = queue
	}

	return module, nil
}

// Run starts the rating module.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting rating module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.QueueService != nil {
		// Close drains the queue; cancelling ctx would abort running jobs.
		if err := m.QueueService.Start(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to start rating queue", slog.String("error", err.Error()))
		}
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Rating module goroutine stopped")
}

// Close stops the rating module and cleans up resources.
func (m *Module) Close() error {
	logger := m.observability.Logger
	logger.Info("Stopping rating module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	if m.QueueService != nil {
		if err := m.QueueService.Stop(context.Background()); err != nil {
			return fmt.Errorf("failed to stop rating queue: %w", err)
		}
	}

	logger.Info("Rating module stopped")
	return nil
}
