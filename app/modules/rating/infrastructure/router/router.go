package ratingrouter

import (
	"context"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/Black-And-White-Club/pingpong-bot/app/eventbus"
	ratingevents "github.com/Black-And-White-Club/pingpong-bot/app/events/rating"
	ratinghandlers "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/infrastructure/handlers"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/handlerwrapper"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/observability"
)

const (
	TestEnvironmentFlag  = "APP_ENV"
	TestEnvironmentValue = "test"
)

// RatingRouter handles Watermill handler registration for rating events.
type RatingRouter struct {
	logger     *slog.Logger
	Router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	tracer     trace.Tracer
	metrics    observability.Metrics

	metricsBuilder *metrics.PrometheusMetricsBuilder
	metricsEnabled bool
}

// NewRatingRouter creates a new RatingRouter. Router metrics are registered
// on registry unless it is nil or APP_ENV is "test".
func NewRatingRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	tracer trace.Tracer,
	handlerMetrics observability.Metrics,
	registry *prometheus.Registry,
) *RatingRouter {
	inTestEnv := os.Getenv(TestEnvironmentFlag) == TestEnvironmentValue

	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if registry != nil && !inTestEnv {
		b := metrics.NewPrometheusMetricsBuilder(registry, "", "")
		metricsBuilder = &b
	}

	return &RatingRouter{
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
func (r *RatingRouter) Configure(_ context.Context, handlers ratinghandlers.Handlers) error {
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
	handlerName := "rating." + topic

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

func (r *RatingRouter) registerHandlers(h ratinghandlers.Handlers) {
	deps := handlerDeps{
		router:     r.Router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
		metrics:    r.metrics,
	}

	registerHandler(deps, ratingevents.MatchReportRequestedV1, h.HandleMatchReportRequested)
	registerHandler(deps, ratingevents.DoublesMatchReportRequestedV1, h.HandleDoublesMatchReportRequested)
	registerHandler(deps, ratingevents.DrawReportRequestedV1, h.HandleDrawReportRequested)
	registerHandler(deps, ratingevents.MatchConfirmRequestedV1, h.HandleMatchConfirmRequested)
	registerHandler(deps, ratingevents.MatchDisputeRequestedV1, h.HandleMatchDisputeRequested)
	registerHandler(deps, ratingevents.MatchUndoRequestedV1, h.HandleMatchUndoRequested)
	registerHandler(deps, ratingevents.GroupReplayRequestedV1, h.HandleGroupReplayRequested)
	registerHandler(deps, ratingevents.GroupSettingsUpdateRequestedV1, h.HandleGroupSettingsUpdateRequested)

	r.logger.Info("Rating module handlers registered successfully")
}

// Close shuts down the router.
func (r *RatingRouter) Close() error {
	return r.Router.Close()
}
