package tournamentrouter

import (
	"context"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/Black-And-White-Club/pingpong-bot/app/eventbus"
	tournamentevents "github.com/Black-And-White-Club/pingpong-bot/app/events/tournament"
	tournamenthandlers "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/infrastructure/handlers"
	ratingrouter "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/infrastructure/router"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/handlerwrapper"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/observability"
)

// TournamentRouter handles Watermill handler registration for tournament events.
type TournamentRouter struct {
	logger     *slog.Logger
	Router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	tracer     trace.Tracer
	metrics    observability.Metrics

	metricsBuilder *metrics.PrometheusMetricsBuilder
	metricsEnabled bool
}

// NewTournamentRouter creates a new TournamentRouter. Router metrics are registered
// on registry unless it is nil or APP_ENV is "test".
func NewTournamentRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	tracer trace.Tracer,
	handlerMetrics observability.Metrics,
	registry *prometheus.Registry,
) *TournamentRouter {
	inTestEnv := os.Getenv(ratingrouter.TestEnvironmentFlag) == ratingrouter.TestEnvironmentValue

	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if registry != nil && !inTestEnv {
		b := metrics.NewPrometheusMetricsBuilder(registry, "", "")
		metricsBuilder = &b
	}

	return &TournamentRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		publisher:      publisher,
		tracer:         tracer,
		metrics:        handlerMetrics,
		metricsBuilder: metricsBuilder,
		metricsEnabled: metricsBuilder != nil,
	}
}

// Configure sets up the router with handlers.
func (r *TournamentRouter) Configure(_ context.Context, handlers tournamenthandlers.Handlers) error {
	if r.metricsEnabled && r.metricsBuilder != nil {
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}
	r.registerHandlers(handlers)
	return nil
}

type handlerDeps struct {
	router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    observability.Metrics
}

// registerHandler registers a transforming handler with a typed payload.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "tournament." + topic

	deps.router.AddHandler(
		handlerName,
		topic,
		deps.subscriber,
		"", // routed by topic metadata
		deps.publisher,
		handlerwrapper.WrapTransformingTyped(
			handlerName,
			deps.logger,
			deps.tracer,
			deps.metrics,
			handler,
		),
	)
}

func (r *TournamentRouter) registerHandlers(h tournamenthandlers.Handlers) {
	deps := handlerDeps{
		router:     r.Router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
		metrics:    r.metrics,
	}

	registerHandler(deps, tournamentevents.TournamentCreateRequestedV1, h.HandleTournamentCreateRequested)
	registerHandler(deps, tournamentevents.FixtureReportRequestedV1, h.HandleFixtureReportRequested)
	registerHandler(deps, tournamentevents.ForceCompleteRequestedV1, h.HandleForceCompleteRequested)
	registerHandler(deps, tournamentevents.StandingsRequestedV1, h.HandleStandingsRequested)

	r.logger.Info("Tournament module handlers registered successfully")
}

// Close shuts down the router.
func (r *TournamentRouter) Close() error {
	return r.Router.Close()
}
