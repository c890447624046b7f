package tournamentservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	ratingservice "github.com/Black-And-White-Club/pingpong-bot/app/modules/rating/application"
	tournamentdb "github.com/Black-And-White-Club/pingpong-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/observability"
	"github.com/Black-And-White-Club/pingpong-bot/app/shared/results"
)

const serviceName = "TournamentService"

// TournamentService implements the Service interface.
type TournamentService struct {
	repo     tournamentdb.Repository
	recorder ratingservice.Recorder
	logger   *slog.Logger
	metrics  observability.Metrics
	tracer   trace.Tracer
	db       *bun.DB

	now func() time.Time
}

// Option customises a TournamentService.
type Option func(*TournamentService)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *TournamentService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTournamentService creates a new TournamentService.
func NewTournamentService(
	repo tournamentdb.Repository,
	recorder ratingservice.Recorder,
	logger *slog.Logger,
	metrics observability.Metrics,
	tracer trace.Tracer,
	db *bun.DB,
	opts ...Option,
) *TournamentService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NewNoop()
	}
	s := &TournamentService{
		repo:     repo,
		recorder: recorder,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		db:       db,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TournamentService) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

type operationFunc[S any] func(ctx context.Context) (results.OperationResult[S, error], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any](
	s *TournamentService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S],
) (result results.OperationResult[S, error], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				observability.CorrelationID(ctx),
				slog.String("identifier", identifier),
				slog.String("error", err.Error()),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			span.RecordError(err)
			result = results.OperationResult[S, error]{}
		}
	}()

	result, err = op(ctx)
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			observability.CorrelationID(ctx),
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
			slog.String("error", wrappedErr.Error()),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			observability.CorrelationID(ctx),
			slog.String("operation", operationName),
			slog.String("identifier", identifier),
			slog.String("failure", (*result.Failure).Error()),
		)
	}

	s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any](
	s *TournamentService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, error], error),
) (results.OperationResult[S, error], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, error]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		if txErr == nil && result.IsFailure() {
			// a failure after writes (a rejected match) must not leave them behind
			return errRollback
		}
		return txErr
	})
	if errors.Is(err, errRollback) {
		err = nil
	}
	return result, err
}

var errRollback = errors.New("rollback on failure")

// execute runs fn inside telemetry and a transaction and folds a domain
// failure into the returned error.
func execute[S any](
	s *TournamentService,
	ctx context.Context,
	operationName string,
	identifier string,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, error], error),
) (S, error) {
	var zero S
	result, err := withTelemetry(s, ctx, operationName, identifier, func(ctx context.Context) (results.OperationResult[S, error], error) {
		return runInTx(s, ctx, fn)
	})
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	return *result.Success, nil
}
